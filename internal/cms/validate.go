package cms

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var errBlank = errors.New("cannot be blank")

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// Validate performs the local checks every adapter runs before talking to
// its platform.
func (p Post) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.By(notBlank)),
		validation.Field(&p.Content, validation.When(strings.TrimSpace(p.ContentHTML) == "", validation.By(notBlank))),
		validation.Field(&p.PublishStatus, validation.In(StatusDraft, StatusPublic, StatusUnlisted)),
		validation.Field(&p.CanonicalURL, is.URL),
	)
	if err == nil {
		return nil
	}

	details := map[string]any{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			details[strings.ToLower(field)] = fieldErr.Error()
		}
	}
	return &Error{
		Code:    CodeValidation,
		Message: "invalid post: " + err.Error(),
		Details: details,
		Err:     err,
	}
}

// ValidateFor runs Validate and stamps the resulting error with platform.
func (p Post) ValidateFor(platform Platform) error {
	if err := p.Validate(); err != nil {
		return AsError(err, platform)
	}
	return nil
}

// EffectiveStatus returns the requested status, defaulting to draft.
func (p Post) EffectiveStatus() Status {
	if p.PublishStatus == "" {
		return StatusDraft
	}
	return p.PublishStatus
}

// UniqueTags returns the post's trimmed tags without blanks or
// case-insensitive duplicates, preserving the first spelling seen.
func (p Post) UniqueTags() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
