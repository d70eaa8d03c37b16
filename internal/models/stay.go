package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stay is one completed sitting engagement. Rating is expected in 0..5 but
// is stored as given.
type Stay struct {
	ID        string    `json:"id"`
	SitterID  *string   `json:"sitter_id"`
	OwnerID   *string   `json:"owner_id"`
	Pets      string    `json:"pets"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StayRequest is the payload for creating or updating a stay
type StayRequest struct {
	SitterID  *string   `json:"sitter_id"`
	OwnerID   *string   `json:"owner_id"`
	Pets      string    `json:"pets"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review"`
}

// NewStay creates a new Stay with a generated UUID
func NewStay(startDate, endDate time.Time, rating float64) *Stay {
	return &Stay{
		ID:        uuid.New().String(),
		StartDate: startDate,
		EndDate:   endDate,
		Rating:    rating,
	}
}

// NewStayFromRequest builds a stay from a request payload
func NewStayFromRequest(req *StayRequest) *Stay {
	stay := NewStay(req.StartDate, req.EndDate, req.Rating)
	stay.Apply(req)
	return stay
}

// Apply copies the request fields onto the stay
func (s *Stay) Apply(req *StayRequest) {
	s.SitterID = normalizeRef(req.SitterID)
	s.OwnerID = normalizeRef(req.OwnerID)
	s.Pets = strings.TrimSpace(req.Pets)
	s.StartDate = req.StartDate
	s.EndDate = req.EndDate
	s.Rating = req.Rating
	s.Review = strings.TrimSpace(req.Review)
}

// Validate checks that both dates are set and in order
func (s *Stay) Validate() error {
	if s.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Message: "start date is required"}
	}
	if s.EndDate.IsZero() {
		return &ValidationError{Field: "end_date", Message: "end date is required"}
	}
	if s.EndDate.Before(s.StartDate) {
		return &ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	}
	return nil
}

// BelongsTo reports whether the stay is attached to the given sitter
func (s *Stay) BelongsTo(sitterID string) bool {
	return s.SitterID != nil && *s.SitterID == sitterID
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
