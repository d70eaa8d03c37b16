package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/repositories"
)

type OwnerService struct {
	ownerRepo *repositories.OwnerRepository
}

// NewOwnerService creates a new owner service
func NewOwnerService(ownerRepo *repositories.OwnerRepository) *OwnerService {
	return &OwnerService{ownerRepo: ownerRepo}
}

// CreateOwner validates and stores a new owner
func (s *OwnerService) CreateOwner(req *models.OwnerRequest) (*models.Owner, error) {
	owner := models.NewOwner(req.Name, req.Image, req.PhoneNumber, req.EmailAddress, req.Pets)
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Create(owner); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}
	return owner, nil
}

// GetOwner retrieves an owner by ID
func (s *OwnerService) GetOwner(id string) (*models.Owner, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	owner, err := s.ownerRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	return owner, nil
}

// ListOwners returns every owner
func (s *OwnerService) ListOwners() ([]*models.Owner, error) {
	return s.ownerRepo.GetAll()
}

// UpdateOwner replaces an owner's contact details
func (s *OwnerService) UpdateOwner(id string, req *models.OwnerRequest) (*models.Owner, error) {
	owner, err := s.GetOwner(id)
	if err != nil {
		return nil, err
	}

	owner.Apply(req)
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Update(owner); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to update owner: %w", err)
	}
	return owner, nil
}

// DeleteOwner removes an owner. Their stays keep existing without an owner.
func (s *OwnerService) DeleteOwner(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := s.ownerRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOwnerNotFound
		}
		return fmt.Errorf("failed to delete owner: %w", err)
	}
	return nil
}
