package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sitter is a pet-sitting provider together with its stay history and the
// rank derived from it. The stay list is only changed through AddStay,
// RemoveStay and ReplaceStays, each of which recomputes RatingsScore and
// OverallSitterRank before returning.
//
// A Sitter is not safe for concurrent mutation; callers serialise access
// per sitter.
type Sitter struct {
	ID           string
	Name         string
	Image        string
	PhoneNumber  string
	EmailAddress string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	stays             []*Stay
	ratingsScore      float64
	overallSitterRank float64
	ranked            bool
}

// SitterRequest is the payload for creating or updating a sitter
type SitterRequest struct {
	Name         string `json:"name" binding:"required"`
	Image        string `json:"image"`
	PhoneNumber  string `json:"phone_number" binding:"required"`
	EmailAddress string `json:"email_address" binding:"required,email"`
}

// NewSitter creates a sitter with a generated UUID. The derived scores stay
// unset until the first recompute.
func NewSitter(name, image, phoneNumber, emailAddress string, stays ...*Stay) *Sitter {
	s := &Sitter{
		ID: uuid.New().String(),
	}
	s.setIdentity(name, image, phoneNumber, emailAddress)

	for _, stay := range stays {
		if stay != nil {
			s.stays = append(s.stays, stay)
		}
	}
	return s
}

// NewSitterFromRequest creates a sitter from a request and ranks it
func NewSitterFromRequest(req *SitterRequest) *Sitter {
	s := NewSitter(req.Name, req.Image, req.PhoneNumber, req.EmailAddress)
	s.Recompute()
	return s
}

// Apply copies identity fields from a request. A name change moves the
// sitter score, so the rank is refreshed as well.
func (s *Sitter) Apply(req *SitterRequest) {
	s.setIdentity(req.Name, req.Image, req.PhoneNumber, req.EmailAddress)
	s.Recompute()
}

func (s *Sitter) setIdentity(name, image, phoneNumber, emailAddress string) {
	s.Name = strings.TrimSpace(name)
	s.Image = strings.TrimSpace(image)
	s.PhoneNumber = strings.TrimSpace(phoneNumber)
	s.EmailAddress = strings.TrimSpace(emailAddress)
}

// Validate checks that name, phone number and email are present
func (s *Sitter) Validate() error {
	return validateContact(s.Name, s.PhoneNumber, s.EmailAddress)
}

// SitterScore is derived from the name on every read and never stored.
func (s *Sitter) SitterScore() float64 {
	return SitterScore(s.Name)
}

// RatingsScore returns the cached mean stay rating.
func (s *Sitter) RatingsScore() float64 {
	return s.ratingsScore
}

// OverallSitterRank returns the cached blended rank.
func (s *Sitter) OverallSitterRank() float64 {
	return s.overallSitterRank
}

// Ranked reports whether the derived scores have been computed yet.
func (s *Sitter) Ranked() bool {
	return s.ranked
}

// Stays returns the stay history in insertion order
func (s *Sitter) Stays() []*Stay {
	out := make([]*Stay, len(s.stays))
	copy(out, s.stays)
	return out
}

// StayIDs returns the IDs of the stay history in insertion order
func (s *Sitter) StayIDs() []string {
	ids := make([]string, len(s.stays))
	for i, stay := range s.stays {
		ids[i] = stay.ID
	}
	return ids
}

// NumberOfStays returns the length of the stay history, duplicates included
func (s *Sitter) NumberOfStays() int {
	return len(s.stays)
}

// HasStay reports whether a stay with the given ID is in the history
func (s *Sitter) HasStay(stayID string) bool {
	return s.indexOfStay(stayID) >= 0
}

// Ratings returns the rating of every stay in history order
func (s *Sitter) Ratings() []float64 {
	ratings := make([]float64, len(s.stays))
	for i, stay := range s.stays {
		ratings[i] = stay.Rating
	}
	return ratings
}

// UpdateRatingsScore recomputes RatingsScore from the current stays. It must
// run before UpdateOverallRank.
func (s *Sitter) UpdateRatingsScore() {
	s.ratingsScore = RatingsScore(s.Ratings())
}

// UpdateOverallRank recomputes OverallSitterRank from the name, the cached
// RatingsScore and the stay count.
func (s *Sitter) UpdateOverallRank() {
	s.overallSitterRank = OverallRank(s.SitterScore(), s.ratingsScore, len(s.stays))
	s.ranked = true
}

// Recompute refreshes both derived scores in the required order
func (s *Sitter) Recompute() {
	s.UpdateRatingsScore()
	s.UpdateOverallRank()
}

// AddStay appends a stay to the history and recomputes. Duplicates are kept.
func (s *Sitter) AddStay(stay *Stay) {
	if stay != nil {
		s.stays = append(s.stays, stay)
	}
	s.Recompute()
}

// RemoveStay drops the first stay whose ID matches and recomputes. Removing
// a stay that is not in the history leaves the list unchanged.
func (s *Sitter) RemoveStay(stay *Stay) {
	if stay != nil {
		if i := s.indexOfStay(stay.ID); i >= 0 {
			s.stays = append(s.stays[:i:i], s.stays[i+1:]...)
		}
	}
	s.Recompute()
}

// ReplaceStays swaps in a freshly resolved stay history and recomputes.
func (s *Sitter) ReplaceStays(stays []*Stay) {
	s.stays = s.stays[:0:0]
	for _, stay := range stays {
		if stay != nil {
			s.stays = append(s.stays, stay)
		}
	}
	s.Recompute()
}

func (s *Sitter) indexOfStay(stayID string) int {
	for i, stay := range s.stays {
		if stay.ID == stayID {
			return i
		}
	}
	return -1
}

// Equals compares the identity fields of two sitters
func (s *Sitter) Equals(other *Sitter) bool {
	if other == nil {
		return false
	}
	return s.Name == other.Name &&
		s.Image == other.Image &&
		s.PhoneNumber == other.PhoneNumber &&
		s.EmailAddress == other.EmailAddress
}

// String returns the sitter's contact fields for log output
func (s *Sitter) String() string {
	return fmt.Sprintf("Name: %q, PhoneNumber: %q, EmailAddress: %q", s.Name, s.PhoneNumber, s.EmailAddress)
}

type sitterJSON struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	PhoneNumber       string    `json:"phone_number"`
	EmailAddress      string    `json:"email_address"`
	Stays             []string  `json:"stays"`
	NumberOfStays     int       `json:"number_of_stays"`
	SitterScore       float64   `json:"sitter_score"`
	RatingsScore      *float64  `json:"ratings_score"`
	OverallSitterRank *float64  `json:"overall_sitter_rank"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MarshalJSON exposes the derived scores alongside the identity fields.
// The cached scores are null until the sitter has been ranked.
func (s *Sitter) MarshalJSON() ([]byte, error) {
	out := sitterJSON{
		ID:            s.ID,
		Name:          s.Name,
		Image:         s.Image,
		PhoneNumber:   s.PhoneNumber,
		EmailAddress:  s.EmailAddress,
		Stays:         s.StayIDs(),
		NumberOfStays: len(s.stays),
		SitterScore:   s.SitterScore(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.ranked {
		ratings, rank := s.ratingsScore, s.overallSitterRank
		out.RatingsScore = &ratings
		out.OverallSitterRank = &rank
	}
	return json.Marshal(out)
}
