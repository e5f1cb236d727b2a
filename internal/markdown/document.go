package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/blacktop/xpublish/internal/cms"
)

// Document is a markdown file with optional YAML/TOML front matter.
type Document struct {
	Title           string   `yaml:"title" toml:"title"`
	Tags            []string `yaml:"tags" toml:"tags"`
	Status          string   `yaml:"status" toml:"status"`
	CanonicalURL    string   `yaml:"canonical_url" toml:"canonical_url"`
	NotifyFollowers bool     `yaml:"notify_followers" toml:"notify_followers"`
	Body            string   `yaml:"-" toml:"-"`
}

// ParseDocument splits front matter from the body. When no title is set in
// front matter, a leading "# " heading is promoted to the title and removed
// from the body.
func ParseDocument(src []byte) (Document, error) {
	var doc Document
	body, err := frontmatter.Parse(bytes.NewReader(src), &doc)
	if err != nil {
		return Document{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	text := strings.TrimLeft(string(body), "\r\n")
	if doc.Title == "" {
		first, rest, _ := strings.Cut(text, "\n")
		if title, ok := strings.CutPrefix(strings.TrimSpace(first), "# "); ok {
			doc.Title = strings.TrimSpace(title)
			text = strings.TrimLeft(rest, "\r\n")
		}
	}
	doc.Body = text
	return doc, nil
}

// Post converts the document into a publish request.
func (d Document) Post() (cms.Post, error) {
	status, err := cms.ParseStatus(d.Status)
	if err != nil {
		return cms.Post{}, err
	}
	return cms.Post{
		Title:           d.Title,
		Content:         d.Body,
		Tags:            append([]string(nil), d.Tags...),
		PublishStatus:   status,
		CanonicalURL:    d.CanonicalURL,
		NotifyFollowers: d.NotifyFollowers,
	}, nil
}

var (
	excerptImage  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	excerptLink   = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	excerptMarker = strings.NewReplacer("**", "", "__", "", "~~", "", "*", "", "`", "")
)

// Excerpt returns the first paragraph of src as plain text, truncated to at
// most max characters at a word boundary.
func Excerpt(src string, max int) string {
	var paragraph []string
	inFence := false
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			if len(paragraph) > 0 {
				break
			}
			continue
		}
		if inFence {
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, ">") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraph) > 0 {
				break
			}
			continue
		}
		paragraph = append(paragraph, trimmed)
	}
	if len(paragraph) == 0 {
		return ""
	}

	text := strings.Join(paragraph, " ")
	text = excerptImage.ReplaceAllString(text, "")
	text = excerptLink.ReplaceAllString(text, "$1")
	text = strings.Join(strings.Fields(excerptMarker.Replace(text)), " ")

	if max <= 0 || len([]rune(text)) <= max {
		return text
	}
	runes := []rune(text)[:max]
	cut := string(runes)
	if i := strings.LastIndexAny(cut, " \t"); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
