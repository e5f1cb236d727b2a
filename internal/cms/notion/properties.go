package notion

import (
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
)

// PropertyMapping names the database properties that receive each post field.
type PropertyMapping struct {
	Title         string `env:"TITLE" yaml:"title"`
	Tags          string `env:"TAGS" yaml:"tags"`
	Status        string `env:"STATUS" yaml:"status"`
	CanonicalURL  string `env:"CANONICAL_URL" yaml:"canonical_url"`
	PublishedDate string `env:"PUBLISHED_DATE" yaml:"published_date"`
}

// DefaultPropertyMapping returns the conventional property names.
func DefaultPropertyMapping() PropertyMapping {
	return PropertyMapping{
		Title:         "Name",
		Tags:          "Tags",
		Status:        "Status",
		CanonicalURL:  "Canonical URL",
		PublishedDate: "Published Date",
	}
}

// withDefaults fills every empty name with its conventional default.
func (m PropertyMapping) withDefaults() PropertyMapping {
	d := DefaultPropertyMapping()
	if m.Title == "" {
		m.Title = d.Title
	}
	if m.Tags == "" {
		m.Tags = d.Tags
	}
	if m.Status == "" {
		m.Status = d.Status
	}
	if m.CanonicalURL == "" {
		m.CanonicalURL = d.CanonicalURL
	}
	if m.PublishedDate == "" {
		m.PublishedDate = d.PublishedDate
	}
	return m
}

// Property types the mapper knows how to encode.
const (
	PropTitle       = "title"
	PropRichText    = "rich_text"
	PropMultiSelect = "multi_select"
	PropSelect      = "select"
	PropStatus      = "status"
	PropURL         = "url"
	PropDate        = "date"
)

// StatusLabel is the option name written to select/status properties.
func StatusLabel(status cms.Status) string {
	switch status {
	case cms.StatusPublic:
		return "Published"
	case cms.StatusUnlisted:
		return "Unlisted"
	default:
		return "Draft"
	}
}

// MapProperties builds the page properties for post against a database
// schema. The title always lands on a title-typed property; every other
// field is written only when the mapped property exists, encoded for its type.
func MapProperties(schema map[string]PropertySchema, mapping PropertyMapping, post cms.Post, now time.Time) map[string]any {
	mapping = mapping.withDefaults()
	props := map[string]any{}

	titleProp := mapping.Title
	if p, ok := schema[titleProp]; !ok || p.Type != PropTitle {
		for name, p := range schema {
			if p.Type == PropTitle {
				titleProp = name
				break
			}
		}
	}
	props[titleProp] = map[string]any{PropTitle: plainSpans(post.Title, nil)}

	if p, ok := schema[mapping.Tags]; ok {
		tags := post.UniqueTags()
		if v := encodeTags(p.Type, tags); v != nil && len(tags) > 0 {
			props[mapping.Tags] = v
		}
	}

	if p, ok := schema[mapping.Status]; ok {
		label := StatusLabel(post.EffectiveStatus())
		switch p.Type {
		case PropSelect:
			props[mapping.Status] = map[string]any{PropSelect: map[string]string{"name": label}}
		case PropStatus:
			props[mapping.Status] = map[string]any{PropStatus: map[string]string{"name": label}}
		case PropRichText:
			props[mapping.Status] = map[string]any{PropRichText: plainSpans(label, nil)}
		}
	}

	if p, ok := schema[mapping.CanonicalURL]; ok && post.CanonicalURL != "" {
		switch p.Type {
		case PropURL:
			props[mapping.CanonicalURL] = map[string]any{PropURL: post.CanonicalURL}
		case PropRichText:
			props[mapping.CanonicalURL] = map[string]any{PropRichText: plainSpans(post.CanonicalURL, nil)}
		}
	}

	if p, ok := schema[mapping.PublishedDate]; ok && p.Type == PropDate && post.EffectiveStatus() == cms.StatusPublic {
		props[mapping.PublishedDate] = map[string]any{PropDate: map[string]string{"start": now.UTC().Format("2006-01-02")}}
	}

	return props
}

func encodeTags(propType string, tags []string) any {
	switch propType {
	case PropMultiSelect:
		opts := make([]map[string]string, 0, len(tags))
		for _, t := range tags {
			// commas are not allowed in select option names
			opts = append(opts, map[string]string{"name": strings.ReplaceAll(t, ",", " ")})
		}
		return map[string]any{PropMultiSelect: opts}
	case PropSelect:
		if len(tags) == 0 {
			return nil
		}
		return map[string]any{PropSelect: map[string]string{"name": strings.ReplaceAll(tags[0], ",", " ")}}
	case PropRichText:
		return map[string]any{PropRichText: plainSpans(strings.Join(tags, ", "), nil)}
	}
	return nil
}
