package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/pkg/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createStay(t *testing.T, repo *StayRepository, sitterID *string, rating float64) *models.Stay {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stay := models.NewStay(start, start.Add(72*time.Hour), rating)
	stay.SitterID = sitterID
	require.NoError(t, repo.Create(stay))
	return stay
}

func createSitter(t *testing.T, repo *SitterRepository, name, email string) *models.Sitter {
	t.Helper()
	sitter := models.NewSitterFromRequest(&models.SitterRequest{
		Name:         name,
		PhoneNumber:  "555-0100",
		EmailAddress: email,
	})
	require.NoError(t, repo.Create(sitter))
	return sitter
}
