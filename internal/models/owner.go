package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Owner is a pet owner who books stays
type Owner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	PhoneNumber  string    `json:"phone_number"`
	EmailAddress string    `json:"email_address"`
	Pets         string    `json:"pets"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OwnerRequest is the payload for creating or updating an owner
type OwnerRequest struct {
	Name         string `json:"name" binding:"required"`
	Image        string `json:"image"`
	PhoneNumber  string `json:"phone_number" binding:"required"`
	EmailAddress string `json:"email_address" binding:"required,email"`
	Pets         string `json:"pets"`
}

// NewOwner creates a new Owner with a generated UUID
func NewOwner(name, image, phoneNumber, emailAddress, pets string) *Owner {
	return &Owner{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Image:        strings.TrimSpace(image),
		PhoneNumber:  strings.TrimSpace(phoneNumber),
		EmailAddress: strings.TrimSpace(emailAddress),
		Pets:         strings.TrimSpace(pets),
	}
}

// Apply copies the request fields onto the owner, trimming whitespace
func (o *Owner) Apply(req *OwnerRequest) {
	o.Name = strings.TrimSpace(req.Name)
	o.Image = strings.TrimSpace(req.Image)
	o.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	o.EmailAddress = strings.TrimSpace(req.EmailAddress)
	o.Pets = strings.TrimSpace(req.Pets)
}

// Validate checks that name, phone number and email are present
func (o *Owner) Validate() error {
	return validateContact(o.Name, o.PhoneNumber, o.EmailAddress)
}

func validateContact(name, phoneNumber, emailAddress string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(phoneNumber) == "" {
		return ErrPhoneNumberRequired
	}
	if strings.TrimSpace(emailAddress) == "" {
		return ErrEmailAddressRequired
	}
	return nil
}
