package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/pkg/logger"
	"github.com/alimgiray/pawrank/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// SitterService owns every change to a sitter's stay history. Mutations of
// the same sitter are serialized so concurrent stay changes are never lost.
// A stay is locked before any sitter, and sitters are locked in ID order.
type SitterService struct {
	sitterRepo *repositories.SitterRepository
	stayRepo   *repositories.StayRepository
	rankCache  RankCache
	metrics    *metrics.Manager
	locks      *keyedMutex
	stayLocks  *keyedMutex

	// cacheStale is set while the rank cache may miss sitters or hold old
	// ranks; TopSitters reads the database until a rebuild clears it.
	cacheStale    atomic.Bool
	cacheFailures atomic.Uint64
	rebuilding    atomic.Bool
}

// NewSitterService creates a new sitter service. A nil cache disables caching.
func NewSitterService(sitterRepo *repositories.SitterRepository, stayRepo *repositories.StayRepository, rankCache RankCache, m *metrics.Manager) *SitterService {
	if rankCache == nil {
		rankCache = NoopRankCache{}
	}
	s := &SitterService{
		sitterRepo: sitterRepo,
		stayRepo:   stayRepo,
		rankCache:  rankCache,
		metrics:    m,
		locks:      newKeyedMutex(),
		stayLocks:  newKeyedMutex(),
	}
	// An external cache starts empty or left over from an earlier run.
	_, noop := rankCache.(NoopRankCache)
	s.cacheStale.Store(!noop)
	return s
}

// CreateSitter validates and stores a new sitter with an empty stay history
func (s *SitterService) CreateSitter(req *models.SitterRequest) (*models.Sitter, error) {
	sitter := models.NewSitterFromRequest(req)
	if err := sitter.Validate(); err != nil {
		return nil, err
	}

	if err := s.sitterRepo.Create(sitter); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create sitter: %w", err)
	}

	s.cacheRank(sitter)
	return sitter, nil
}

// GetSitter loads a sitter with its stays resolved and scores recomputed
func (s *SitterService) GetSitter(id string) (*models.Sitter, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.load(id)
}

// ListSitters returns sitters matching the query
func (s *SitterService) ListSitters(q models.SitterQuery) ([]*models.Sitter, error) {
	q.Normalize()
	sitters, err := s.sitterRepo.GetAll(q)
	if err != nil {
		return nil, fmt.Errorf("failed to list sitters: %w", err)
	}
	return sitters, nil
}

// UpdateSitter replaces the identity fields of a sitter
func (s *SitterService) UpdateSitter(id string, req *models.SitterRequest) (*models.Sitter, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	sitter, err := s.load(id)
	if err != nil {
		return nil, err
	}

	sitter.Apply(req)
	if err := sitter.Validate(); err != nil {
		return nil, err
	}

	if err := s.sitterRepo.Update(sitter); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSitterNotFound
		}
		return nil, fmt.Errorf("failed to update sitter: %w", err)
	}

	s.cacheRank(sitter)
	return sitter, nil
}

// DeleteSitter removes a sitter. Its stays stay behind, detached.
func (s *SitterService) DeleteSitter(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.sitterRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSitterNotFound
		}
		return fmt.Errorf("failed to delete sitter: %w", err)
	}

	ctx := context.Background()
	if err := s.rankCache.Remove(ctx, id); err != nil {
		s.cacheWriteFailed(err, id)
	}
	return nil
}

// AddStay appends an existing stay to a sitter's history. A stay that
// currently belongs to another sitter is moved.
func (s *SitterService) AddStay(sitterID, stayID string) (*models.Sitter, error) {
	if err := validateID(sitterID); err != nil {
		return nil, err
	}
	if err := validateID(stayID); err != nil {
		return nil, err
	}

	unlock := s.lockStay(stayID)
	defer unlock()

	return s.addStay(sitterID, stayID)
}

// addStay expects the caller to hold the stay lock. The target history, the
// previous owner's history and the stay row are written in one transaction.
func (s *SitterService) addStay(sitterID, stayID string) (*models.Sitter, error) {
	stay, err := s.getStay(stayID)
	if err != nil {
		return nil, err
	}

	var previousID string
	if stay.SitterID != nil && *stay.SitterID != sitterID {
		previousID = *stay.SitterID
	}

	unlock := s.locks.LockAll(sitterID, previousID)
	defer unlock()

	sitter, err := s.load(sitterID)
	if err != nil {
		return nil, err
	}

	var previous *models.Sitter
	if previousID != "" {
		previous, err = s.load(previousID)
		if err != nil && !errors.Is(err, ErrSitterNotFound) {
			return nil, err
		}
	}

	removed := 0
	if previous != nil {
		for previous.HasStay(stayID) {
			previous.RemoveStay(&models.Stay{ID: stayID})
			removed++
		}
	}

	stay.SitterID = &sitterID
	sitter.AddStay(stay)
	if err := s.sitterRepo.AttachStay(sitter, stayID, previous); err != nil {
		return nil, storeError(err, "failed to attach stay")
	}

	s.metrics.IncStayMutation(metrics.OpAddStay)
	for i := 0; i < removed; i++ {
		s.metrics.IncStayMutation(metrics.OpRemoveStay)
	}
	s.cacheRank(sitter)
	if previous != nil {
		s.cacheRank(previous)
	}

	logger.WithFields(logrus.Fields{
		"sitter_id":  sitterID,
		"stay_id":    stayID,
		"moved_from": previousID,
		"rank":       sitter.OverallSitterRank(),
	}).Debug("Stay added to sitter")
	return sitter, nil
}

// RemoveStay drops one occurrence of a stay from a sitter's history. Removing
// a stay the sitter does not have still recomputes the scores.
func (s *SitterService) RemoveStay(sitterID, stayID string) (*models.Sitter, error) {
	if err := validateID(sitterID); err != nil {
		return nil, err
	}
	if err := validateID(stayID); err != nil {
		return nil, err
	}

	unlockStay := s.lockStay(stayID)
	defer unlockStay()
	unlock := s.locks.Lock(sitterID)
	defer unlock()

	sitter, err := s.load(sitterID)
	if err != nil {
		return nil, err
	}

	had := sitter.HasStay(stayID)
	sitter.RemoveStay(&models.Stay{ID: stayID})
	if had && !sitter.HasStay(stayID) {
		err = s.sitterRepo.ReleaseStay(sitter, stayID)
	} else {
		err = s.sitterRepo.SaveStays(sitter)
	}
	if err != nil {
		return nil, storeError(err, "failed to save sitter stays")
	}

	s.metrics.IncStayMutation(metrics.OpRemoveStay)
	s.cacheRank(sitter)
	return sitter, nil
}

// detachStay removes every occurrence of a stay from a sitter and clears the
// stay's reference to it. A sitter that no longer exists is ignored. The
// caller holds the stay lock.
func (s *SitterService) detachStay(sitterID, stayID string) error {
	unlock := s.locks.Lock(sitterID)
	defer unlock()

	sitter, err := s.load(sitterID)
	if err != nil {
		if errors.Is(err, ErrSitterNotFound) {
			return nil
		}
		return err
	}

	if !sitter.HasStay(stayID) {
		return nil
	}
	for sitter.HasStay(stayID) {
		sitter.RemoveStay(&models.Stay{ID: stayID})
		s.metrics.IncStayMutation(metrics.OpRemoveStay)
	}

	if err := s.sitterRepo.ReleaseStay(sitter, stayID); err != nil {
		return storeError(err, "failed to detach stay")
	}
	s.cacheRank(sitter)
	return nil
}

// detachStayEverywhere removes a stay from every sitter that references it.
// The caller holds the stay lock.
func (s *SitterService) detachStayEverywhere(stayID string) error {
	sitterIDs, err := s.sitterRepo.GetSitterIDsByStayID(stayID)
	if err != nil {
		return fmt.Errorf("failed to find sitters for stay: %w", err)
	}

	for _, sitterID := range sitterIDs {
		if err := s.detachStay(sitterID, stayID); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeSitter recomputes and persists one sitter's scores
func (s *SitterService) RecomputeSitter(id string) (*models.Sitter, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	sitter, err := s.load(id)
	if err != nil {
		return nil, err
	}

	sitter.Recompute()
	if err := s.sitterRepo.Update(sitter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSitterNotFound
		}
		return nil, fmt.Errorf("failed to store recomputed scores: %w", err)
	}

	s.metrics.IncRankRecompute()
	s.cacheRank(sitter)
	return sitter, nil
}

// RecomputeAll recomputes every sitter and returns how many were updated.
// Sitters deleted while the pass runs are skipped. A stale rank cache is
// rebuilt afterwards.
func (s *SitterService) RecomputeAll() (int, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRecomputeAll(time.Since(start))
	}()

	ids, err := s.sitterRepo.ListIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list sitters: %w", err)
	}

	updated := 0
	var errs []error
	for _, id := range ids {
		if _, err := s.RecomputeSitter(id); err != nil {
			if errors.Is(err, ErrSitterNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("sitter %s: %w", id, err))
			continue
		}
		updated++
	}

	logger.WithFields(logrus.Fields{
		"sitters":  updated,
		"failures": len(errs),
		"elapsed":  time.Since(start).String(),
	}).Info("Recomputed sitter ranks")

	if _, err := s.RefreshRankCache(); err != nil {
		logger.WithError(err).Warn("Rank cache rebuild failed")
	}

	return updated, errors.Join(errs...)
}

// RebuildRankCache replaces the cached ranking with every sitter's current
// rank. The cache is only trusted again when no cache write failed while the
// rebuild ran. A rebuild already in progress makes this a no-op.
func (s *SitterService) RebuildRankCache() error {
	if _, noop := s.rankCache.(NoopRankCache); noop {
		return nil
	}
	if !s.rebuilding.CompareAndSwap(false, true) {
		return nil
	}
	defer s.rebuilding.Store(false)

	start := time.Now()
	failures := s.cacheFailures.Load()
	s.cacheStale.Store(true)
	ctx := context.Background()

	if err := s.rankCache.Reset(ctx); err != nil {
		s.cacheWriteFailed(err, "")
		return fmt.Errorf("failed to reset rank cache: %w", err)
	}

	ids, err := s.sitterRepo.ListIDs()
	if err != nil {
		return fmt.Errorf("failed to list sitters: %w", err)
	}

	for _, id := range ids {
		if err := s.cacheCurrentRank(ctx, id); err != nil {
			return err
		}
	}

	if s.cacheFailures.Load() != failures {
		return errors.New("rank cache write failed during rebuild")
	}
	s.cacheStale.Store(false)

	logger.WithFields(logrus.Fields{
		"sitters": len(ids),
		"elapsed": time.Since(start).String(),
	}).Info("Rank cache rebuilt")
	return nil
}

// RefreshRankCache rebuilds the rank cache if a failed write left it behind
// the database. It reports whether a rebuild was attempted.
func (s *SitterService) RefreshRankCache() (bool, error) {
	if !s.cacheStale.Load() {
		return false, nil
	}
	return true, s.RebuildRankCache()
}

// TopSitters returns the best ranked sitters, read from the rank cache when
// it is in step with the database and from the database otherwise.
func (s *SitterService) TopSitters(limit int) ([]*models.Sitter, error) {
	q := models.SitterQuery{Sort: models.SortByRank, Desc: true, Limit: limit}
	q.Normalize()

	if s.cacheStale.Load() {
		return s.ListSitters(q)
	}

	ids, err := s.rankCache.Top(context.Background(), q.Limit)
	if err != nil {
		if !errors.Is(err, ErrRankCacheDisabled) {
			s.cacheFailed(err, "")
		}
		return s.ListSitters(q)
	}

	sitters := make([]*models.Sitter, 0, len(ids))
	for _, id := range ids {
		sitter, err := s.load(id)
		if err != nil {
			if errors.Is(err, ErrSitterNotFound) {
				continue
			}
			return nil, err
		}
		sitters = append(sitters, sitter)
	}
	if len(sitters) < q.Limit {
		// The cache ran short; the database holds the full ranking.
		return s.ListSitters(q)
	}
	return sitters, nil
}

func (s *SitterService) lockStay(stayID string) func() {
	return s.stayLocks.Lock(stayID)
}

func (s *SitterService) load(id string) (*models.Sitter, error) {
	sitter, err := s.sitterRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSitterNotFound
		}
		return nil, fmt.Errorf("failed to load sitter: %w", err)
	}
	return sitter, nil
}

func (s *SitterService) getStay(id string) (*models.Stay, error) {
	stay, err := s.stayRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStayNotFound
		}
		return nil, fmt.Errorf("failed to load stay: %w", err)
	}
	return stay, nil
}

func (s *SitterService) cacheCurrentRank(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	sitter, err := s.load(id)
	if err != nil {
		if errors.Is(err, ErrSitterNotFound) {
			return nil
		}
		return err
	}

	if err := s.rankCache.SetRank(ctx, sitter.ID, sitter.OverallSitterRank()); err != nil {
		s.cacheWriteFailed(err, sitter.ID)
		return fmt.Errorf("failed to cache rank: %w", err)
	}
	return nil
}

func (s *SitterService) cacheRank(sitter *models.Sitter) {
	if err := s.rankCache.SetRank(context.Background(), sitter.ID, sitter.OverallSitterRank()); err != nil {
		s.cacheWriteFailed(err, sitter.ID)
	}
}

// cacheWriteFailed marks the cache stale; a missed write can leave a sitter
// out of the ranking or ranked by an old score.
func (s *SitterService) cacheWriteFailed(err error, sitterID string) {
	s.cacheFailures.Add(1)
	s.cacheStale.Store(true)
	s.cacheFailed(err, sitterID)
}

func (s *SitterService) cacheFailed(err error, sitterID string) {
	s.metrics.IncRankCacheError()
	entry := logger.WithError(err)
	if sitterID != "" {
		entry = entry.WithField("sitter_id", sitterID)
	}
	entry.Warn("Rank cache unavailable")
}

// storeError maps a missing sitter row to ErrSitterNotFound
func storeError(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSitterNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
