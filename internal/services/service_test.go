package services

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/pkg/database"
	"github.com/alimgiray/pawrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	sitterRepo *repositories.SitterRepository
	stayRepo   *repositories.StayRepository
	ownerRepo  *repositories.OwnerRepository
	jobRepo    *repositories.JobRepository
	cache      *memoryRankCache
	metrics    *metrics.Manager

	sitters *SitterService
	stays   *StayService
	owners  *OwnerService
	jobs    *JobService
	export  *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		sitterRepo: repositories.NewSitterRepository(db),
		stayRepo:   repositories.NewStayRepository(db),
		ownerRepo:  repositories.NewOwnerRepository(db),
		jobRepo:    repositories.NewJobRepository(db),
		cache:      newMemoryRankCache(),
		metrics:    metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry())),
	}
	env.sitters = NewSitterService(env.sitterRepo, env.stayRepo, env.cache, env.metrics)
	env.stays = NewStayService(env.stayRepo, env.ownerRepo, env.sitters)
	env.owners = NewOwnerService(env.ownerRepo)
	env.jobs = NewJobService(env.jobRepo, env.sitterRepo)
	env.export = NewExportService(env.sitters)
	return env
}

func (e *testEnv) createSitter(t *testing.T, name, email string) *models.Sitter {
	t.Helper()
	sitter, err := e.sitters.CreateSitter(&models.SitterRequest{
		Name:         name,
		PhoneNumber:  "555-0100",
		EmailAddress: email,
	})
	require.NoError(t, err)
	return sitter
}

func (e *testEnv) createStay(t *testing.T, sitterID *string, rating float64) *models.Stay {
	t.Helper()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	stay, err := e.stays.CreateStay(&models.StayRequest{
		SitterID:  sitterID,
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
		Rating:    rating,
	})
	require.NoError(t, err)
	return stay
}

// memoryRankCache is an in-process RankCache for tests
type memoryRankCache struct {
	mu    sync.Mutex
	ranks map[string]float64
	err   error
}

func newMemoryRankCache() *memoryRankCache {
	return &memoryRankCache{ranks: make(map[string]float64)}
}

func (c *memoryRankCache) SetRank(_ context.Context, sitterID string, rank float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.ranks[sitterID] = rank
	return nil
}

func (c *memoryRankCache) Remove(_ context.Context, sitterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.ranks, sitterID)
	return nil
}

func (c *memoryRankCache) Reset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.ranks = make(map[string]float64)
	return nil
}

func (c *memoryRankCache) Top(_ context.Context, limit int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}

	ids := make([]string, 0, len(c.ranks))
	for id := range c.ranks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.ranks[ids[i]] > c.ranks[ids[j]] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (c *memoryRankCache) set(sitterID string, rank float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ranks[sitterID] = rank
}

func (c *memoryRankCache) rank(sitterID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rank, ok := c.ranks[sitterID]
	return rank, ok
}
