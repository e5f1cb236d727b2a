package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by every adapter.
const (
	CodeNotConfigured       = "NOT_CONFIGURED"
	CodeInvalidAPIKey       = "INVALID_API_KEY"
	CodeMissingDatabaseID   = "MISSING_DATABASE_ID"
	CodeAPIError            = "API_ERROR"
	CodeValidation          = "VALIDATION_ERROR"
	CodeNetwork             = "NETWORK_ERROR"
	CodeDecode              = "DECODE_ERROR"
	CodeUnknown             = "UNKNOWN_ERROR"
	CodeNoCollection        = "NO_COLLECTION"
	CodeBlogError           = "BLOG_ERROR"
	CodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
)

// Error is the single error carrier returned across adapter boundaries.
type Error struct {
	Platform   Platform
	Code       string
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Platform != "" {
		b.WriteString(e.Platform.DisplayName())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code so callers can write
// errors.Is(err, &cms.Error{Code: cms.CodeNotConfigured}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code && (t.Platform == "" || t.Platform == e.Platform)
}

// NewError builds an error for platform with the given code.
func NewError(platform Platform, code, format string, args ...any) *Error {
	return &Error{Platform: platform, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotConfigured reports that an adapter lacks mandatory credentials.
func NotConfigured(platform Platform) *Error {
	return NewError(platform, CodeNotConfigured, "%s adapter is not configured", platform.DisplayName())
}

// HasCode reports whether err carries the given unified error code.
func HasCode(err error, code string) bool {
	var cmsErr *Error
	return errors.As(err, &cmsErr) && cmsErr.Code == code
}

// AsError converts any error into the unified carrier. Errors that already are
// an *Error are returned unchanged.
func AsError(err error, platform Platform) *Error {
	if err == nil {
		return nil
	}
	var cmsErr *Error
	if errors.As(err, &cmsErr) {
		if cmsErr.Platform == "" {
			cmsErr.Platform = platform
		}
		return cmsErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Platform: platform, Code: CodeNetwork, Message: err.Error(), Err: err}
	}
	return &Error{Platform: platform, Code: CodeUnknown, Message: err.Error(), Err: err}
}

// MissingConfigError is returned when required configuration is missing.
type MissingConfigError struct {
	Platform  Platform
	Variables []string
}

func (e MissingConfigError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Platform.DisplayName())
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Platform.DisplayName(), strings.Join(e.Variables, ", "))
}
