package services

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidID        = errors.New("invalid ID format")
	ErrSitterNotFound   = errors.New("sitter not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrStayNotFound     = errors.New("stay not found")
	ErrJobNotFound      = errors.New("job not found")
	ErrDuplicateEmail   = errors.New("email address is already in use")
	ErrJobAlreadyActive = errors.New("a recompute job is already pending or in progress")
)

// validateID checks that id is a well-formed UUID
func validateID(id string) error {
	if id == "" {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
