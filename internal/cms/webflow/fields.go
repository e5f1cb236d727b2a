package webflow

import (
	"strings"

	"github.com/blacktop/xpublish/internal/markdown"
	"github.com/goliatone/go-slug"
)

const excerptLength = 200

// Candidate field slugs for each post attribute, in preference order.
var (
	nameFields      = []string{"name", "title"}
	bodyFields      = []string{"post-body", "body", "content", "post-content"}
	excerptFields   = []string{"post-summary", "excerpt", "summary", "description"}
	tagFields       = []string{"tags"}
	canonicalFields = []string{"canonical-url", "canonical"}
)

// PickField finds the field for a post attribute. An exact slug match wins,
// in candidate order; otherwise the first field whose slug or display name
// contains a candidate is used. It returns nil when nothing matches.
func PickField(fields []Field, candidates ...string) *Field {
	for _, cand := range candidates {
		for i := range fields {
			if strings.EqualFold(fields[i].Slug, cand) {
				return &fields[i]
			}
		}
	}
	for _, cand := range candidates {
		cand = strings.ToLower(cand)
		for i := range fields {
			if strings.Contains(strings.ToLower(fields[i].Slug), cand) ||
				strings.Contains(strings.ToLower(fields[i].DisplayName), cand) {
				return &fields[i]
			}
		}
	}
	return nil
}

// PostFields holds the already rendered values of a post.
type PostFields struct {
	Title        string
	Markdown     string
	HTML         string
	Tags         []string
	CanonicalURL string
}

// MapFields builds item field data for a collection schema. Name and slug are
// always present; the other attributes are written only when a matching field
// exists.
func MapFields(fields []Field, post PostFields) map[string]any {
	data := map[string]any{}

	nameKey := "name"
	if f := PickField(fields, nameFields...); f != nil {
		nameKey = f.Slug
	}
	data[nameKey] = post.Title

	itemSlug, err := slug.Normalize(post.Title)
	if err != nil || itemSlug == "" {
		itemSlug = fallbackSlug(post.Title)
	}
	data["slug"] = itemSlug

	if f := PickField(fields, bodyFields...); f != nil && f.Slug != nameKey {
		if f.Type == FieldPlainText {
			data[f.Slug] = post.Markdown
		} else {
			data[f.Slug] = post.HTML
		}
	}

	if f := PickField(fields, excerptFields...); f != nil {
		if _, taken := data[f.Slug]; !taken {
			if excerpt := markdown.Excerpt(post.Markdown, excerptLength); excerpt != "" {
				data[f.Slug] = excerpt
			}
		}
	}

	if f := PickField(fields, tagFields...); f != nil && f.Type == FieldPlainText && len(post.Tags) > 0 {
		data[f.Slug] = strings.Join(post.Tags, ", ")
	}

	if f := PickField(fields, canonicalFields...); f != nil && post.CanonicalURL != "" {
		if _, taken := data[f.Slug]; !taken {
			data[f.Slug] = post.CanonicalURL
		}
	}

	return data
}

// fallbackSlug keeps ASCII letters and digits, joining runs with hyphens.
func fallbackSlug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		s = "post"
	}
	return s
}
