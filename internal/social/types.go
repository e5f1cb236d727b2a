// Package social announces published posts on social networks.
package social

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Character limits of the supported networks.
const (
	LimitTwitter  = 280
	LimitBluesky  = 300
	LimitMastodon = 500
)

// Announcement is the short note shared after a post goes live. Text never
// contains Link; each network attaches the link its own way.
type Announcement struct {
	Text  string
	Link  string
	Title string
}

// String renders the announcement as plain text with the link on its own
// paragraph.
func (a Announcement) String() string {
	if a.Link == "" {
		return a.Text
	}
	if a.Text == "" {
		return a.Link
	}
	return a.Text + "\n\n" + a.Link
}

// Poster abstracts a social network that can publish content.
type Poster interface {
	Name() string
	Post(ctx context.Context, a Announcement) error
}

// LimitFor returns the character limit of the named network, 0 if unknown.
func LimitFor(name string) int {
	switch strings.ToLower(name) {
	case "twitter", "x":
		return LimitTwitter
	case "bluesky":
		return LimitBluesky
	case "mastodon":
		return LimitMastodon
	}
	return 0
}

// Compose builds announcement text for a post. The title is shortened and
// hashtags are dropped from the end until the text plus the link paragraph
// fits in limit runes. A limit of 0 disables trimming.
func Compose(title, link string, tags []string, limit int) string {
	title = strings.Join(strings.Fields(title), " ")

	reserved := 0
	if link != "" {
		reserved = utf8.RuneCountInString(link) + 2
	}

	if limit > 0 {
		title = truncate(title, limit-reserved)
	}

	text := title
	seen := map[string]bool{}
	for _, tag := range tags {
		h := Hashtag(tag)
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		candidate := text + " " + h
		if text == title {
			candidate = text + "\n\n" + h
		}
		if text == "" {
			candidate = h
		}
		if limit > 0 && utf8.RuneCountInString(candidate)+reserved > limit {
			break
		}
		seen[strings.ToLower(h)] = true
		text = candidate
	}
	return text
}

// Hashtag turns a tag into a hashtag by dropping everything but letters,
// digits and underscores. It returns "" when nothing is left.
func Hashtag(tag string) string {
	var b strings.Builder
	for _, r := range tag {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
