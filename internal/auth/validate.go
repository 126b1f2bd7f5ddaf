package auth

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 6
	// bcrypt only hashes the first 72 bytes, so anything longer must be
	// rejected here rather than silently truncated or failed downstream.
	maxPasswordLen = 72
	minNameLen     = 2
	maxNameLen     = 50
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

// ValidateUsername enforces the username shape: 3-30 characters of
// letters, digits, underscores, and hyphens.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters", ErrInvalidInput, minUsernameLen)
	}
	if len(username) > maxUsernameLen {
		return fmt.Errorf("%w: username cannot exceed %d characters", ErrInvalidInput, maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username can only contain letters, numbers, underscores, and hyphens", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword enforces length bounds only; complexity rules are a
// product decision left to the boundary.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password cannot exceed %d characters", ErrInvalidInput, maxPasswordLen)
	}
	return nil
}

// ValidateEmail checks the address shape. Addresses are normalized to
// lower case before storage.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}

// ValidateName enforces display-name length bounds.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minNameLen)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: name cannot exceed %d characters", ErrInvalidInput, maxNameLen)
	}
	return nil
}
