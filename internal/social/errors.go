package social

import (
	"fmt"
	"strings"
)

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

// Validate rejects announcements a network would refuse.
func Validate(provider string, a Announcement, limit int) error {
	text := a.String()
	if strings.TrimSpace(text) == "" {
		return ValidationError{Provider: provider, Reason: "announcement is empty"}
	}
	if n := len([]rune(text)); limit > 0 && n > limit {
		return ValidationError{Provider: provider, Reason: fmt.Sprintf("announcement is %d characters, limit is %d", n, limit)}
	}
	return nil
}
