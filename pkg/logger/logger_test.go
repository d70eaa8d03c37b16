package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	testCases := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			Init(tc.level)
			assert.Equal(t, tc.expected, GetLogger().GetLevel())
		})
	}
}

func TestStructuredOutput(t *testing.T) {
	Init("info")
	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("sitter_id", "abc").Info("sitter ranked")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["sitter_id"])
	assert.Equal(t, "sitter ranked", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	Init("info")
	var buf bytes.Buffer
	SetOutput(&buf)

	Debugf("recomputed %d sitters", 3)
	assert.Empty(t, buf.String())
}
