package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRatedStay(rating float64) *Stay {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return NewStay(start, start.Add(48*time.Hour), rating)
}

func TestNewSitter(t *testing.T) {
	sitter := NewSitter("  Ann Lee ", " http://img/ann.png ", " 555-0100 ", " ann@example.com ")

	assert.NotEmpty(t, sitter.ID)
	assert.Equal(t, "Ann Lee", sitter.Name)
	assert.Equal(t, "http://img/ann.png", sitter.Image)
	assert.Equal(t, "555-0100", sitter.PhoneNumber)
	assert.Equal(t, "ann@example.com", sitter.EmailAddress)
	assert.False(t, sitter.Ranked(), "derived scores are unset until the first recompute")
	assert.Equal(t, 0, sitter.NumberOfStays())
}

func TestSitterWithoutStays(t *testing.T) {
	sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
	sitter.Recompute()

	assert.True(t, sitter.Ranked())
	assert.InDelta(t, 0.769, sitter.SitterScore(), 0.001)
	assert.Equal(t, 0.0, sitter.RatingsScore())
	assert.Equal(t, sitter.SitterScore(), sitter.OverallSitterRank())
}

func TestSitterWithInitialStays(t *testing.T) {
	stays := []*Stay{newRatedStay(2), nil, newRatedStay(4)}
	sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com", stays...)

	assert.Equal(t, 2, sitter.NumberOfStays(), "nil stays are skipped")
	assert.False(t, sitter.Ranked())

	sitter.Recompute()
	assert.Equal(t, 3.0, sitter.RatingsScore())
	assert.InDelta(t, 0.8*sitter.SitterScore()+0.2*3, sitter.OverallSitterRank(), 1e-12)
}

func TestAddStay(t *testing.T) {
	t.Run("Five stays split weight evenly", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		for _, rating := range []float64{5, 4, 3, 4, 5} {
			sitter.AddStay(newRatedStay(rating))
		}

		assert.Equal(t, 5, sitter.NumberOfStays())
		assert.InDelta(t, 4.2, sitter.RatingsScore(), 1e-12)
		expected := 0.5*SitterScore("Ann Lee") + 0.5*RatingsScore(sitter.Ratings())
		assert.InDelta(t, expected, sitter.OverallSitterRank(), 1e-12)
	})

	t.Run("Ten uniform stays rank exactly at the rating", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		for i := 0; i < 10; i++ {
			sitter.AddStay(newRatedStay(3.5))
		}

		assert.Equal(t, 3.5, sitter.OverallSitterRank())
	})

	t.Run("History order is preserved", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		first, second := newRatedStay(1), newRatedStay(2)
		sitter.AddStay(first)
		sitter.AddStay(second)

		assert.Equal(t, []string{first.ID, second.ID}, sitter.StayIDs())
	})

	t.Run("Duplicates are allowed", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		stay := newRatedStay(4)
		sitter.AddStay(stay)
		sitter.AddStay(stay)

		assert.Equal(t, 2, sitter.NumberOfStays())
		assert.Equal(t, 4.0, sitter.RatingsScore())
	})
}

func TestRemoveStay(t *testing.T) {
	t.Run("Round trip restores previous scores", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		sitter.AddStay(newRatedStay(2))
		sitter.AddStay(newRatedStay(5))

		beforeCount := sitter.NumberOfStays()
		beforeRatings := sitter.RatingsScore()
		beforeRank := sitter.OverallSitterRank()

		stay := newRatedStay(1)
		sitter.AddStay(stay)
		sitter.RemoveStay(stay)

		assert.Equal(t, beforeCount, sitter.NumberOfStays())
		assert.InDelta(t, beforeRatings, sitter.RatingsScore(), 1e-12)
		assert.InDelta(t, beforeRank, sitter.OverallSitterRank(), 1e-12)
	})

	t.Run("Removes only one duplicate", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		stay := newRatedStay(4)
		sitter.AddStay(stay)
		sitter.AddStay(stay)

		sitter.RemoveStay(stay)
		assert.Equal(t, 1, sitter.NumberOfStays())
		assert.True(t, sitter.HasStay(stay.ID))
	})

	t.Run("Matches by identity not pointer", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		stay := newRatedStay(4)
		sitter.AddStay(stay)

		copyOfStay := *stay
		sitter.RemoveStay(&copyOfStay)
		assert.Equal(t, 0, sitter.NumberOfStays())
		assert.Equal(t, sitter.SitterScore(), sitter.OverallSitterRank())
	})

	t.Run("Unknown stay is a no-op that still recomputes", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com", newRatedStay(3))
		assert.False(t, sitter.Ranked())

		sitter.RemoveStay(newRatedStay(1))
		assert.Equal(t, 1, sitter.NumberOfStays())
		assert.True(t, sitter.Ranked())
		assert.Equal(t, 3.0, sitter.RatingsScore())
	})

	t.Run("Nil stay is tolerated", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		assert.NotPanics(t, func() { sitter.RemoveStay(nil) })
		assert.True(t, sitter.Ranked())
	})

	t.Run("Removing the last stay resets ratings to zero", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		stay := newRatedStay(5)
		sitter.AddStay(stay)
		sitter.RemoveStay(stay)

		assert.Equal(t, 0.0, sitter.RatingsScore())
		assert.Equal(t, sitter.SitterScore(), sitter.OverallSitterRank())
	})
}

func TestRecomputeIsIdempotent(t *testing.T) {
	sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com", newRatedStay(1), newRatedStay(4))

	sitter.UpdateRatingsScore()
	sitter.UpdateOverallRank()
	ratings, rank := sitter.RatingsScore(), sitter.OverallSitterRank()

	sitter.UpdateRatingsScore()
	sitter.UpdateOverallRank()
	assert.Equal(t, ratings, sitter.RatingsScore())
	assert.Equal(t, rank, sitter.OverallSitterRank())
}

func TestStaysReturnsCopy(t *testing.T) {
	sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com", newRatedStay(1))

	stays := sitter.Stays()
	stays[0] = newRatedStay(5)
	assert.Equal(t, 1.0, sitter.Ratings()[0])
}

func TestReplaceStays(t *testing.T) {
	sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com", newRatedStay(1))
	sitter.ReplaceStays([]*Stay{newRatedStay(5), newRatedStay(3)})

	assert.Equal(t, 2, sitter.NumberOfStays())
	assert.Equal(t, 4.0, sitter.RatingsScore())
	assert.True(t, sitter.Ranked())
}

func TestApplyRefreshesRankOnRename(t *testing.T) {
	sitter := NewSitterFromRequest(&SitterRequest{Name: "Al", PhoneNumber: "1", EmailAddress: "al@example.com"})
	before := sitter.OverallSitterRank()

	sitter.Apply(&SitterRequest{Name: "Alexandria", PhoneNumber: "1", EmailAddress: "al@example.com"})
	assert.Greater(t, sitter.OverallSitterRank(), before)
	assert.Equal(t, SitterScore("Alexandria"), sitter.OverallSitterRank())
}

func TestSitterValidate(t *testing.T) {
	testCases := []struct {
		name   string
		sitter *Sitter
		field  string
	}{
		{name: "Valid", sitter: NewSitter("Ann", "", "555", "ann@example.com")},
		{name: "Missing name", sitter: NewSitter("  ", "", "555", "ann@example.com"), field: "name"},
		{name: "Missing phone", sitter: NewSitter("Ann", "", "", "ann@example.com"), field: "phone_number"},
		{name: "Missing email", sitter: NewSitter("Ann", "", "555", " "), field: "email_address"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sitter.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestSitterEqualsAndString(t *testing.T) {
	a := NewSitter("Ann", "img", "555", "ann@example.com")
	b := NewSitter("Ann", "img", "555", "ann@example.com", newRatedStay(3))
	c := NewSitter("Ann", "other", "555", "ann@example.com")

	assert.True(t, a.Equals(b), "identity fields match regardless of ID and stays")
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
	assert.Equal(t, `Name: "Ann", PhoneNumber: "555", EmailAddress: "ann@example.com"`, a.String())
}

func TestSitterMarshalJSON(t *testing.T) {
	t.Run("Unranked sitter has null scores", func(t *testing.T) {
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")

		data, err := json.Marshal(sitter)
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Nil(t, body["ratings_score"])
		assert.Nil(t, body["overall_sitter_rank"])
		assert.InDelta(t, SitterScore("Ann Lee"), body["sitter_score"], 1e-12)
		assert.Equal(t, []interface{}{}, body["stays"])
	})

	t.Run("Ranked sitter exposes derived fields", func(t *testing.T) {
		stay := newRatedStay(4)
		sitter := NewSitter("Ann Lee", "", "555-0100", "ann@example.com")
		sitter.AddStay(stay)

		data, err := json.Marshal(sitter)
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, 4.0, body["ratings_score"])
		assert.InDelta(t, sitter.OverallSitterRank(), body["overall_sitter_rank"], 1e-12)
		assert.Equal(t, 1.0, body["number_of_stays"])
		assert.Equal(t, []interface{}{stay.ID}, body["stays"])
	})
}
