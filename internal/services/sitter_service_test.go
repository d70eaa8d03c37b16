package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annLeeScore = 4.0 / 26.0 * 5.0

func TestSitterServiceCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("new sitter ranks on its name", func(t *testing.T) {
		sitter := env.createSitter(t, "Ann Lee", "ann@example.com")

		assert.True(t, sitter.Ranked())
		assert.Equal(t, 0, sitter.NumberOfStays())
		assert.InDelta(t, annLeeScore, sitter.OverallSitterRank(), 1e-9)

		rank, ok := env.cache.rank(sitter.ID)
		require.True(t, ok)
		assert.InDelta(t, annLeeScore, rank, 1e-9)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		_, err := env.sitters.CreateSitter(&models.SitterRequest{Name: " ", PhoneNumber: "1", EmailAddress: "x@example.com"})
		assert.ErrorIs(t, err, models.ErrNameRequired)
	})

	t.Run("email must be unique", func(t *testing.T) {
		_, err := env.sitters.CreateSitter(&models.SitterRequest{Name: "Other", PhoneNumber: "1", EmailAddress: "ann@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("bad IDs", func(t *testing.T) {
		_, err := env.sitters.GetSitter("not-a-uuid")
		assert.ErrorIs(t, err, ErrInvalidID)

		_, err = env.sitters.GetSitter("6f1c1a52-4d0c-4b8f-9a39-4b1a4c3c2d10")
		assert.ErrorIs(t, err, ErrSitterNotFound)
	})
}

func TestSitterServiceStayMutations(t *testing.T) {
	env := newTestEnv(t)
	sitter := env.createSitter(t, "Ann Lee", "ann@example.com")

	five := env.createStay(t, nil, 5)
	three := env.createStay(t, nil, 3)

	updated, err := env.sitters.AddStay(sitter.ID, five.ID)
	require.NoError(t, err)
	assert.InDelta(t, annLeeScore*0.9+5*0.1, updated.OverallSitterRank(), 1e-9)

	updated, err = env.sitters.AddStay(sitter.ID, three.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.RatingsScore())
	assert.InDelta(t, annLeeScore*0.8+4*0.2, updated.OverallSitterRank(), 1e-9)

	attached, err := env.stayRepo.GetByID(five.ID)
	require.NoError(t, err)
	assert.True(t, attached.BelongsTo(sitter.ID))

	t.Run("duplicates count twice and are removed one at a time", func(t *testing.T) {
		withDup, err := env.sitters.AddStay(sitter.ID, five.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{five.ID, three.ID, five.ID}, withDup.StayIDs())
		assert.InDelta(t, 13.0/3.0, withDup.RatingsScore(), 1e-9)

		afterOne, err := env.sitters.RemoveStay(sitter.ID, five.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{three.ID, five.ID}, afterOne.StayIDs())

		stay, err := env.stayRepo.GetByID(five.ID)
		require.NoError(t, err)
		assert.True(t, stay.BelongsTo(sitter.ID), "still referenced once")
	})

	t.Run("removing an unknown stay only recomputes", func(t *testing.T) {
		before, err := env.sitters.GetSitter(sitter.ID)
		require.NoError(t, err)

		after, err := env.sitters.RemoveStay(sitter.ID, "6f1c1a52-4d0c-4b8f-9a39-4b1a4c3c2d10")
		require.NoError(t, err)
		assert.Equal(t, before.StayIDs(), after.StayIDs())
		assert.Equal(t, before.OverallSitterRank(), after.OverallSitterRank())
	})

	t.Run("removing the last reference releases the stay", func(t *testing.T) {
		after, err := env.sitters.RemoveStay(sitter.ID, five.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{three.ID}, after.StayIDs())

		stay, err := env.stayRepo.GetByID(five.ID)
		require.NoError(t, err)
		assert.Nil(t, stay.SitterID)
	})

	t.Run("add then remove restores the rank", func(t *testing.T) {
		before, err := env.sitters.GetSitter(sitter.ID)
		require.NoError(t, err)

		_, err = env.sitters.AddStay(sitter.ID, five.ID)
		require.NoError(t, err)
		after, err := env.sitters.RemoveStay(sitter.ID, five.ID)
		require.NoError(t, err)

		assert.Equal(t, before.StayIDs(), after.StayIDs())
		assert.InDelta(t, before.OverallSitterRank(), after.OverallSitterRank(), 1e-12)
	})

	t.Run("missing stay", func(t *testing.T) {
		_, err := env.sitters.AddStay(sitter.ID, "6f1c1a52-4d0c-4b8f-9a39-4b1a4c3c2d10")
		assert.ErrorIs(t, err, ErrStayNotFound)
	})
}

func TestSitterServiceMovesStayBetweenSitters(t *testing.T) {
	env := newTestEnv(t)
	ann := env.createSitter(t, "Ann Lee", "ann@example.com")
	bob := env.createSitter(t, "Bob Ray", "bob@example.com")

	stay := env.createStay(t, &ann.ID, 5)

	loaded, err := env.sitters.GetSitter(ann.ID)
	require.NoError(t, err)
	require.Equal(t, []string{stay.ID}, loaded.StayIDs())

	moved, err := env.sitters.AddStay(bob.ID, stay.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{stay.ID}, moved.StayIDs())

	loaded, err = env.sitters.GetSitter(ann.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.StayIDs())
	assert.InDelta(t, annLeeScore, loaded.OverallSitterRank(), 1e-9)

	stored, err := env.stayRepo.GetByID(stay.ID)
	require.NoError(t, err)
	assert.True(t, stored.BelongsTo(bob.ID))
}

func TestSitterServiceConcurrentMovesKeepOneOwner(t *testing.T) {
	env := newTestEnv(t)
	ann := env.createSitter(t, "Ann Lee", "ann@example.com")
	bob := env.createSitter(t, "Bob Ray", "bob@example.com")

	for round := 0; round < 10; round++ {
		stay := env.createStay(t, nil, 4)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, sitterID := range []string{ann.ID, bob.ID} {
			wg.Add(1)
			go func(sitterID string) {
				defer wg.Done()
				if _, err := env.sitters.AddStay(sitterID, stay.ID); err != nil {
					errs <- err
				}
			}(sitterID)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := env.stayRepo.GetByID(stay.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.SitterID)

		holders, err := env.sitterRepo.GetSitterIDsByStayID(stay.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{*stored.SitterID}, holders, "round %d", round)
	}
}

func TestSitterServiceConcurrentAdds(t *testing.T) {
	env := newTestEnv(t)
	sitter := env.createSitter(t, "Ann Lee", "ann@example.com")

	const n = 12
	stays := make([]*models.Stay, n)
	for i := range stays {
		stays[i] = env.createStay(t, nil, float64(i%5)+1)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, stay := range stays {
		wg.Add(1)
		go func(stayID string) {
			defer wg.Done()
			if _, err := env.sitters.AddStay(sitter.ID, stayID); err != nil {
				errs <- err
			}
		}(stay.ID)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	loaded, err := env.sitters.GetSitter(sitter.ID)
	require.NoError(t, err)
	assert.Equal(t, n, loaded.NumberOfStays())
	assert.Equal(t, loaded.RatingsScore(), loaded.OverallSitterRank(), "ten or more stays trust ratings fully")
}

func TestSitterServiceUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	sitter := env.createSitter(t, "Ann Lee", "ann@example.com")
	env.createSitter(t, "Bob Ray", "bob@example.com")
	stay := env.createStay(t, &sitter.ID, 4)

	updated, err := env.sitters.UpdateSitter(sitter.ID, &models.SitterRequest{
		Name:         "abcdefghijklmnopqrstuvwxyz",
		PhoneNumber:  "555-0199",
		EmailAddress: "ann@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.SitterScore())
	assert.Equal(t, []string{stay.ID}, updated.StayIDs(), "stays survive identity edits")
	assert.InDelta(t, 5.0*0.9+4*0.1, updated.OverallSitterRank(), 1e-9)

	_, err = env.sitters.UpdateSitter(sitter.ID, &models.SitterRequest{
		Name:         "Ann",
		PhoneNumber:  "1",
		EmailAddress: "bob@example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, env.sitters.DeleteSitter(sitter.ID))
	assert.ErrorIs(t, env.sitters.DeleteSitter(sitter.ID), ErrSitterNotFound)

	_, ok := env.cache.rank(sitter.ID)
	assert.False(t, ok)

	orphan, err := env.stayRepo.GetByID(stay.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.SitterID)
}

func TestSitterServiceRecomputeAll(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		sitter := env.createSitter(t, fmt.Sprintf("Sitter %c", 'A'+i), fmt.Sprintf("s%d@example.com", i))
		env.createStay(t, &sitter.ID, float64(i+3))
	}

	updated, err := env.sitters.RecomputeAll()
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	sitters, err := env.sitters.ListSitters(models.SitterQuery{Sort: models.SortByRank, Desc: true})
	require.NoError(t, err)
	require.Len(t, sitters, 3)
	for _, sitter := range sitters {
		rank, ok := env.cache.rank(sitter.ID)
		require.True(t, ok)
		assert.Equal(t, sitter.OverallSitterRank(), rank)
	}
}

func TestSitterServiceTopSitters(t *testing.T) {
	env := newTestEnv(t)
	low := env.createSitter(t, "Al", "al@example.com")
	high := env.createSitter(t, "abcdefghijklmnopqrstuvwxyz", "abc@example.com")
	ann := env.createSitter(t, "Ann Lee", "ann@example.com")

	t.Run("database until the cache is rebuilt", func(t *testing.T) {
		env.cache.set(low.ID, 100)

		top, err := env.sitters.TopSitters(3)
		require.NoError(t, err)
		assert.Equal(t, []string{high.ID, ann.ID, low.ID}, sitterIDs(top))
	})

	t.Run("from cache", func(t *testing.T) {
		require.NoError(t, env.sitters.RebuildRankCache())

		rank, ok := env.cache.rank(low.ID)
		require.True(t, ok)
		assert.InDelta(t, low.OverallSitterRank(), rank, 1e-9)

		// Only the cache knows this rank, so reading it proves the cache served the call.
		env.cache.set(ann.ID, 100)
		t.Cleanup(func() { env.cache.set(ann.ID, ann.OverallSitterRank()) })

		top, err := env.sitters.TopSitters(2)
		require.NoError(t, err)
		assert.Equal(t, []string{ann.ID, high.ID}, sitterIDs(top))
	})

	t.Run("falls back to the database", func(t *testing.T) {
		env.cache.err = errors.New("connection refused")
		defer func() { env.cache.err = nil }()

		top, err := env.sitters.TopSitters(3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, high.ID, top[0].ID)
		assert.Equal(t, low.ID, top[2].ID)
	})
}

func TestSitterServiceTopSittersAfterCacheOutage(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sitters.RebuildRankCache())

	env.cache.err = errors.New("connection refused")
	low := env.createSitter(t, "Al", "al@example.com")
	high := env.createSitter(t, "abcdefghijklmnopqrstuvwxyz", "abc@example.com")
	ann := env.createSitter(t, "Ann Lee", "ann@example.com")
	env.cache.err = nil

	_, err := env.sitters.RecomputeSitter(low.ID)
	require.NoError(t, err)

	top, err := env.sitters.TopSitters(3)
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID, ann.ID, low.ID}, sitterIDs(top), "writes missed during the outage")

	refreshed, err := env.sitters.RefreshRankCache()
	require.NoError(t, err)
	assert.True(t, refreshed)

	for _, sitter := range []*models.Sitter{low, high, ann} {
		_, ok := env.cache.rank(sitter.ID)
		assert.True(t, ok, sitter.Name)
	}

	top, err = env.sitters.TopSitters(3)
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID, ann.ID, low.ID}, sitterIDs(top))

	refreshed, err = env.sitters.RefreshRankCache()
	require.NoError(t, err)
	assert.False(t, refreshed, "nothing to do once the cache is current")
}

func TestSitterServiceRebuildRankCache(t *testing.T) {
	env := newTestEnv(t)
	ann := env.createSitter(t, "Ann Lee", "ann@example.com")
	env.cache.set("d7a3c1e0-0000-4000-8000-000000000001", 9)

	t.Run("drops leftovers", func(t *testing.T) {
		require.NoError(t, env.sitters.RebuildRankCache())

		_, ok := env.cache.rank("d7a3c1e0-0000-4000-8000-000000000001")
		assert.False(t, ok)
		rank, ok := env.cache.rank(ann.ID)
		require.True(t, ok)
		assert.InDelta(t, annLeeScore, rank, 1e-9)
	})

	t.Run("failure keeps the database in charge", func(t *testing.T) {
		env.cache.err = errors.New("connection refused")
		assert.Error(t, env.sitters.RebuildRankCache())
		env.cache.err = nil

		env.cache.set(ann.ID, -1)
		bob := env.createSitter(t, "Bob Ray", "bob@example.com")
		env.cache.set(bob.ID, -2)

		top, err := env.sitters.TopSitters(1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, bob.ID, top[0].ID)
	})

	t.Run("disabled cache", func(t *testing.T) {
		sitters := NewSitterService(env.sitterRepo, env.stayRepo, nil, nil)
		assert.NoError(t, sitters.RebuildRankCache())

		refreshed, err := sitters.RefreshRankCache()
		require.NoError(t, err)
		assert.False(t, refreshed)
	})
}

func sitterIDs(sitters []*models.Sitter) []string {
	ids := make([]string, len(sitters))
	for i, sitter := range sitters {
		ids[i] = sitter.ID
	}
	return ids
}
