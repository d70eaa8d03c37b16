package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
)

// JobService handles job creation and lookup
type JobService struct {
	jobRepo    *repositories.JobRepository
	sitterRepo *repositories.SitterRepository
}

// NewJobService creates a new job service
func NewJobService(jobRepo *repositories.JobRepository, sitterRepo *repositories.SitterRepository) *JobService {
	return &JobService{
		jobRepo:    jobRepo,
		sitterRepo: sitterRepo,
	}
}

// EnqueueRecompute queues a rank recompute for one sitter, or for all
// sitters when sitterID is nil
func (s *JobService) EnqueueRecompute(sitterID *string) (*models.Job, error) {
	if sitterID != nil {
		if err := validateID(*sitterID); err != nil {
			return nil, err
		}
		if _, err := s.sitterRepo.GetByID(*sitterID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSitterNotFound
			}
			return nil, fmt.Errorf("failed to load sitter: %w", err)
		}
	}

	hasActive, err := s.HasActiveJob(models.JobTypeRecomputeRanks, sitterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing jobs: %w", err)
	}
	if hasActive {
		return nil, ErrJobAlreadyActive
	}

	job := models.NewJob(models.JobTypeRecomputeRanks, sitterID)
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

// HasActiveJob checks if an identical job is pending or in progress
func (s *JobService) HasActiveJob(jobType models.JobType, sitterID *string) (bool, error) {
	jobs, err := s.jobRepo.GetActiveJobs(jobType)
	if err != nil {
		return false, err
	}

	for _, job := range jobs {
		if job.Targets(sitterID) {
			return true, nil
		}
	}
	return false, nil
}

// GetJob retrieves a job by ID
func (s *JobService) GetJob(id string) (*models.Job, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return job, nil
}
