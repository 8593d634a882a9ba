// internal/utils/validators.go
// Validation utility functions

package utils

import (
	"fmt"
	"regexp"
)

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	// Check for at least one uppercase letter
	if !regexp.MustCompile(`[A-Z]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	// Check for at least one lowercase letter
	if !regexp.MustCompile(`[a-z]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	// Check for at least one number
	if !regexp.MustCompile(`[0-9]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// ValidateTournamentName validates tournament name
func ValidateTournamentName(name string) error {
	if len(name) < 3 {
		return fmt.Errorf("tournament name must be at least 3 characters long")
	}
	if len(name) > 255 {
		return fmt.Errorf("tournament name must not exceed 255 characters")
	}
	return nil
}
