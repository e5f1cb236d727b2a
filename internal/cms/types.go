package cms

import (
	"context"
	"fmt"
	"strings"
)

// Status is the requested visibility of a published post.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPublic   Status = "public"
	StatusUnlisted Status = "unlisted"
)

// ParseStatus accepts the three known statuses case-insensitively. An empty
// value is treated as a draft.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case "", StatusDraft:
		return StatusDraft, nil
	case StatusPublic:
		return StatusPublic, nil
	case StatusUnlisted:
		return StatusUnlisted, nil
	}
	return "", fmt.Errorf("unknown publish status %q", value)
}

// Post is the platform-agnostic input to a publish operation.
type Post struct {
	Title           string
	Content         string // markdown
	ContentHTML     string
	Tags            []string
	PublishStatus   Status
	CanonicalURL    string
	NotifyFollowers bool
}

// PublishResult describes content created on a platform.
type PublishResult struct {
	Success  bool
	PostID   string
	URL      string
	Metadata map[string]any
}

// User is the account or integration a set of credentials belongs to.
type User struct {
	ID       string
	Username string
	Name     string
	URL      string
	ImageURL string
}

// Publication is a publish destination owned by a user, such as a Medium
// publication, a Shopify blog or a Webflow collection.
type Publication struct {
	ID          string
	Name        string
	Description string
	URL         string
	ImageURL    string
}

// Adapter publishes generic posts to one content platform.
type Adapter interface {
	Name() string
	IsConfigured() bool
	Publish(ctx context.Context, post Post) (*PublishResult, error)
	GetUser(ctx context.Context) (*User, error)
}

// PublicationLister is implemented by adapters whose platform has more than
// one publish destination per account.
type PublicationLister interface {
	GetPublications(ctx context.Context) ([]Publication, error)
}
