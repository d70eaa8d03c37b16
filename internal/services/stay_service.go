package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/pkg/logger"
)

// StayService manages stays and keeps the owning sitter's history in step
// with each stay's sitter reference.
type StayService struct {
	stayRepo      *repositories.StayRepository
	ownerRepo     *repositories.OwnerRepository
	sitterService *SitterService
}

// NewStayService creates a new stay service
func NewStayService(stayRepo *repositories.StayRepository, ownerRepo *repositories.OwnerRepository, sitterService *SitterService) *StayService {
	return &StayService{
		stayRepo:      stayRepo,
		ownerRepo:     ownerRepo,
		sitterService: sitterService,
	}
}

// CreateStay stores a stay and appends it to its sitter's history. If the
// stay cannot be attached it is deleted again.
func (s *StayService) CreateStay(req *models.StayRequest) (*models.Stay, error) {
	stay := models.NewStayFromRequest(req)
	if err := s.validate(stay); err != nil {
		return nil, err
	}
	if stay.SitterID != nil {
		if err := validateID(*stay.SitterID); err != nil {
			return nil, err
		}
	}

	// The sitter reference is written when the stay joins the history.
	sitterID := stay.SitterID
	stay.SitterID = nil
	if err := s.stayRepo.Create(stay); err != nil {
		return nil, fmt.Errorf("failed to create stay: %w", err)
	}

	if sitterID != nil {
		unlock := s.sitterService.lockStay(stay.ID)
		_, err := s.sitterService.addStay(*sitterID, stay.ID)
		unlock()
		if err != nil {
			if delErr := s.stayRepo.Delete(stay.ID); delErr != nil {
				logger.WithError(delErr).WithField("stay_id", stay.ID).Error("Failed to remove unattached stay")
			}
			return nil, err
		}
		stay.SitterID = sitterID
	}
	return stay, nil
}

// GetStay retrieves a stay by ID
func (s *StayService) GetStay(id string) (*models.Stay, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	stay, err := s.stayRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStayNotFound
		}
		return nil, fmt.Errorf("failed to load stay: %w", err)
	}
	return stay, nil
}

// ListStays returns all stays, optionally narrowed to one sitter or owner
func (s *StayService) ListStays(sitterID, ownerID string) ([]*models.Stay, error) {
	switch {
	case sitterID != "":
		if err := validateID(sitterID); err != nil {
			return nil, err
		}
		return s.stayRepo.GetBySitterID(sitterID)
	case ownerID != "":
		if err := validateID(ownerID); err != nil {
			return nil, err
		}
		return s.stayRepo.GetByOwnerID(ownerID)
	default:
		return s.stayRepo.GetAll()
	}
}

// UpdateStay rewrites a stay. A changed rating re-ranks its sitter and a
// changed sitter moves the stay between histories.
func (s *StayService) UpdateStay(id string, req *models.StayRequest) (*models.Stay, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	unlock := s.sitterService.lockStay(id)
	defer unlock()

	stay, err := s.GetStay(id)
	if err != nil {
		return nil, err
	}

	previousSitterID := stay.SitterID
	stay.Apply(req)
	if err := s.validate(stay); err != nil {
		return nil, err
	}
	if err := s.validateSitter(stay); err != nil {
		return nil, err
	}

	// A new sitter is written by the move itself, together with both histories.
	newSitterID := stay.SitterID
	moving := newSitterID != nil && !sameRef(previousSitterID, newSitterID)
	if moving {
		stay.SitterID = previousSitterID
	}

	if err := s.stayRepo.Update(stay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStayNotFound
		}
		return nil, fmt.Errorf("failed to update stay: %w", err)
	}

	switch {
	case moving:
		if _, err := s.sitterService.addStay(*newSitterID, stay.ID); err != nil {
			return nil, err
		}
		stay.SitterID = newSitterID
	case sameRef(previousSitterID, stay.SitterID):
		if stay.SitterID != nil {
			if _, err := s.sitterService.RecomputeSitter(*stay.SitterID); err != nil && !errors.Is(err, ErrSitterNotFound) {
				return nil, err
			}
		}
	default:
		if err := s.sitterService.detachStay(*previousSitterID, stay.ID); err != nil {
			return nil, err
		}
	}

	return stay, nil
}

// DeleteStay removes the stay from every sitter history, then deletes it
func (s *StayService) DeleteStay(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	unlock := s.sitterService.lockStay(id)
	defer unlock()

	if _, err := s.GetStay(id); err != nil {
		return err
	}

	if err := s.sitterService.detachStayEverywhere(id); err != nil {
		return err
	}

	if err := s.stayRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStayNotFound
		}
		return fmt.Errorf("failed to delete stay: %w", err)
	}
	return nil
}

func (s *StayService) validate(stay *models.Stay) error {
	if err := stay.Validate(); err != nil {
		return err
	}

	if stay.OwnerID != nil {
		if err := validateID(*stay.OwnerID); err != nil {
			return err
		}
		if _, err := s.ownerRepo.GetByID(*stay.OwnerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOwnerNotFound
			}
			return fmt.Errorf("failed to load owner: %w", err)
		}
	}
	return nil
}

func (s *StayService) validateSitter(stay *models.Stay) error {
	if stay.SitterID == nil {
		return nil
	}
	_, err := s.sitterService.GetSitter(*stay.SitterID)
	return err
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
