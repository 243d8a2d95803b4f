package utils

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
)

// NormalizeEmail lowercases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address syntax and, when checkHost is set, that
// its domain accepts mail
func ValidateEmail(email string, checkHost bool) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if !checkHost {
		return nil
	}
	if err := checkmail.ValidateHost(email); err != nil {
		return fmt.Errorf("email domain does not accept mail: %w", err)
	}
	return nil
}
