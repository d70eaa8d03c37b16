package workers

import (
	"context"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/pkg/logger"
	"github.com/alimgiray/pawrank/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// RankRecomputer is the part of the sitter service the rank worker drives
type RankRecomputer interface {
	RecomputeSitter(id string) (*models.Sitter, error)
	RecomputeAll() (int, error)
	// RefreshRankCache rebuilds the rank cache if it fell behind
	RefreshRankCache() (bool, error)
}

// RankWorker handles recompute_ranks jobs
type RankWorker struct {
	*BaseWorker
	jobRepo      *repositories.JobRepository
	recomputer   RankRecomputer
	metrics      *metrics.Manager
	pollInterval time.Duration
}

// NewRankWorker creates a new rank worker
func NewRankWorker(workerID string, jobRepo *repositories.JobRepository, recomputer RankRecomputer, m *metrics.Manager, pollInterval time.Duration) *RankWorker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &RankWorker{
		BaseWorker:   NewBaseWorker(workerID, models.JobTypeRecomputeRanks),
		jobRepo:      jobRepo,
		recomputer:   recomputer,
		metrics:      m,
		pollInterval: pollInterval,
	}
}

// Start begins the rank worker process
func (w *RankWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)

	log := logger.WithField("worker_id", w.WorkerID)
	log.Info("Rank worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Rank worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			log.Info("Rank worker stopping")
			return nil
		default:
		}

		processed, err := w.RunOnce()
		if err != nil {
			log.WithError(err).Error("Rank worker error getting job")
		}
		if processed {
			continue
		}

		if refreshed, err := w.recomputer.RefreshRankCache(); err != nil {
			log.WithError(err).Warn("Rank worker could not rebuild the rank cache")
		} else if refreshed {
			log.Info("Rank worker rebuilt the rank cache")
		}

		select {
		case <-ctx.Done():
		case <-w.StopChan:
		case <-time.After(w.pollInterval):
		}
	}
}

// RunOnce claims and processes at most one pending job. It reports whether
// a job was processed.
func (w *RankWorker) RunOnce() (bool, error) {
	job, err := w.jobRepo.GetNextPendingJob(w.JobType, w.WorkerID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	w.processJob(job)
	return true, nil
}

func (w *RankWorker) processJob(job *models.Job) {
	log := logger.WithFields(logrus.Fields{
		"worker_id": w.WorkerID,
		"job_id":    job.ID,
	})
	log.Info("Rank worker processing job")

	var err error
	if job.SitterID != nil {
		log = log.WithField("sitter_id", *job.SitterID)
		_, err = w.recomputer.RecomputeSitter(*job.SitterID)
	} else {
		var count int
		count, err = w.recomputer.RecomputeAll()
		log = log.WithField("sitters", count)
	}

	if err != nil {
		log.WithError(err).Error("Rank recompute failed")
		job.MarkFailed(err.Error())
	} else {
		job.MarkCompleted()
	}

	if err := w.jobRepo.Update(job); err != nil {
		log.WithError(err).Error("Rank worker error updating job")
		return
	}

	w.metrics.IncJobProcessed(string(job.JobType), string(job.Status))
	log.WithField("status", job.Status).Info("Rank worker finished job")
}
