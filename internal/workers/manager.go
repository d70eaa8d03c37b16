package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/pkg/config"
	"github.com/alimgiray/pawrank/pkg/logger"
	"github.com/alimgiray/pawrank/pkg/metrics"
)

// WorkerManager manages the background workers
type WorkerManager struct {
	workers    []Worker
	jobRepo    *repositories.JobRepository
	recomputer RankRecomputer
	metrics    *metrics.Manager
	cfg        config.WorkersConfig
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(jobRepo *repositories.JobRepository, recomputer RankRecomputer, m *metrics.Manager, cfg config.WorkersConfig) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers:    make([]Worker, 0),
		jobRepo:    jobRepo,
		recomputer: recomputer,
		metrics:    m,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// StartAll starts the configured number of rank workers
func (wm *WorkerManager) StartAll() error {
	rankWorkers := wm.cfg.RankWorkers
	if rankWorkers < 0 {
		return fmt.Errorf("invalid rank worker count: %d", rankWorkers)
	}

	logger.Infof("Starting workers - Rank: %d", rankWorkers)

	for i := 0; i < rankWorkers; i++ {
		worker := NewRankWorker(fmt.Sprintf("rank-%d", i+1), wm.jobRepo, wm.recomputer, wm.metrics, wm.cfg.PollInterval)
		wm.workers = append(wm.workers, worker)
		wm.startWorker(worker)
	}

	logger.Infof("Started %d total workers", len(wm.workers))
	return nil
}

// StopAll gracefully stops all workers
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	wm.cancel()

	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Error stopping worker")
		}
	}

	wm.wg.Wait()

	logger.Info("All workers stopped")
	return nil
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && err != context.Canceled {
			logger.WithError(err).WithField("worker_id", worker.GetWorkerID()).Error("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus returns whether each worker is running
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool)
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
