package util

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidateUsername checks the registration username rule
// (3-20 characters: letters, digits, underscore).
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username must be 3-20 letters, digits or underscores")
	}
	return nil
}

// ValidatePassword checks the minimum password rule (6-72 characters,
// the upper bound being the bcrypt input limit).
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 72 {
		return fmt.Errorf("password too long, max 72 characters")
	}
	return nil
}

// ValidateContent checks that letter content is non-empty after trimming.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is empty")
	}
	if len(content) > 20000 {
		return fmt.Errorf("content too long, max 20000 characters")
	}
	return nil
}
