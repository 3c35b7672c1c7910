package utils

import (
	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/pkg/errors"
)

var ErrInvalidEmail = errors.New("email address is invalid")

// ValidateEmailAddress checks the address syntax and returns the cleaned form.
// System-generated addresses (bounces, auto-responders) are rejected the same
// as malformed ones.
func ValidateEmailAddress(email string) (string, error) {
	validation := mailvalidate.ValidateEmailSyntax(email)
	if !validation.IsValid || validation.IsSystemGenerated {
		return "", ErrInvalidEmail
	}
	return validation.CleanEmail, nil
}
