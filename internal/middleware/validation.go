package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateUserID validates a user identifier taken from a URL path.
func ValidateUserID(id string) error {
	if len(id) == 0 {
		return errors.New("user ID cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("user ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("user ID must be valid UTF-8")
	}
	if strings.ContainsRune(id, ':') {
		return errors.New("user ID must not contain ':'")
	}
	return nil
}
