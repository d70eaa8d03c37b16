package models

// ValidationError reports a missing or malformed field on an entity
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNameRequired         = &ValidationError{Field: "name", Message: "name is required"}
	ErrPhoneNumberRequired  = &ValidationError{Field: "phone_number", Message: "phone number is required"}
	ErrEmailAddressRequired = &ValidationError{Field: "email_address", Message: "email address is required"}
)
