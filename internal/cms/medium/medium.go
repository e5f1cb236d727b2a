// Package medium publishes posts through the Medium API.
package medium

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/rest"
	"github.com/blacktop/xpublish/internal/logutil"
)

const (
	platform = cms.Medium

	defaultBaseURL = "https://api.medium.com/v1"

	maxTags      = 5
	maxTagLength = 25
)

// Config holds a Medium integration token and an optional publication.
type Config struct {
	IntegrationToken string `env:"INTEGRATION_TOKEN" yaml:"integration_token"`
	PublicationID    string `env:"PUBLICATION_ID" yaml:"publication_id"`
}

// Client implements cms.Adapter for Medium. The authenticated user is cached
// after the first successful lookup; a Client must not be shared between
// goroutines.
type Client struct {
	cfg  Config
	api  *rest.Client
	user *User
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.api.HTTP = hc }
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.api.BaseURL = base }
}

// New constructs a Medium adapter. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.IntegrationToken = strings.TrimSpace(cfg.IntegrationToken)
	cfg.PublicationID = strings.TrimSpace(cfg.PublicationID)

	c := &Client{cfg: cfg}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  defaultBaseURL,
		HTTP:     rest.DefaultHTTPClient(),
		Header: http.Header{
			"Accept":         []string{"application/json"},
			"Accept-Charset": []string{"utf-8"},
		},
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+cfg.IntegrationToken)
			return nil
		},
		DecodeError: decodeError,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the platform display name.
func (c *Client) Name() string { return platform.DisplayName() }

// IsConfigured reports whether an integration token is set.
func (c *Client) IsConfigured() bool { return c.cfg.IntegrationToken != "" }

// GetUser returns the token owner, fetching it once per Client.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	u, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	return &cms.User{ID: u.ID, Username: u.Username, Name: u.Name, URL: u.URL, ImageURL: u.ImageURL}, nil
}

func (c *Client) me(ctx context.Context) (*User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if c.user != nil {
		return c.user, nil
	}
	var resp struct {
		Data User `json:"data"`
	}
	if _, err := c.api.Get(ctx, "/me", nil, &resp); err != nil {
		return nil, err
	}
	c.user = &resp.Data
	return c.user, nil
}

// GetPublications lists the publications the user belongs to.
func (c *Client) GetPublications(ctx context.Context) ([]cms.Publication, error) {
	u, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []Publication `json:"data"`
	}
	if _, err := c.api.Get(ctx, "/users/"+url.PathEscape(u.ID)+"/publications", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]cms.Publication, 0, len(resp.Data))
	for _, p := range resp.Data {
		out = append(out, cms.Publication{ID: p.ID, Name: p.Name, Description: p.Description, URL: p.URL, ImageURL: p.ImageURL})
	}
	return out, nil
}

// Publish creates a Medium story on the configured publication, or on the
// user's profile when no publication is set.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	req := CreatePostRequest{
		Title:           post.Title,
		ContentFormat:   FormatMarkdown,
		Content:         post.Content,
		Tags:            SanitizeTags(post.Tags),
		CanonicalURL:    post.CanonicalURL,
		PublishStatus:   string(post.EffectiveStatus()),
		NotifyFollowers: post.NotifyFollowers,
	}
	if strings.TrimSpace(post.ContentHTML) != "" {
		req.ContentFormat = FormatHTML
		req.Content = post.ContentHTML
	}

	var (
		created *Post
		err     error
	)
	if c.cfg.PublicationID != "" {
		created, err = c.CreatePublicationPost(ctx, c.cfg.PublicationID, req)
	} else {
		var u *User
		if u, err = c.me(ctx); err == nil {
			created, err = c.CreatePost(ctx, u.ID, req)
		}
	}
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	logutil.Debugf("medium post created: id=%s status=%s", created.ID, created.PublishStatus)

	return &cms.PublishResult{
		Success: true,
		PostID:  created.ID,
		URL:     created.URL,
		Metadata: map[string]any{
			"authorId":      created.AuthorID,
			"publishStatus": created.PublishStatus,
			"tags":          created.Tags,
		},
	}, nil
}

// CreatePost creates a story on a user's profile.
func (c *Client) CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*Post, error) {
	return c.createPost(ctx, "/users/"+url.PathEscape(userID)+"/posts", req)
}

// CreatePublicationPost creates a story inside a publication.
func (c *Client) CreatePublicationPost(ctx context.Context, publicationID string, req CreatePostRequest) (*Post, error) {
	return c.createPost(ctx, "/publications/"+url.PathEscape(publicationID)+"/posts", req)
}

func (c *Client) createPost(ctx context.Context, path string, req CreatePostRequest) (*Post, error) {
	var resp struct {
		Data Post `json:"data"`
	}
	if _, err := c.api.Post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

var disallowedTagChars = regexp.MustCompile(`[^\p{L}\p{N} \-]+`)

// SanitizeTags prepares tags for Medium: disallowed characters are stripped,
// tags are capped at 25 characters, blanks and case-insensitive duplicates
// are dropped and at most five are kept.
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, maxTags)
	seen := map[string]struct{}{}
	for _, tag := range tags {
		clean := disallowedTagChars.ReplaceAllString(tag, "")
		clean = strings.Join(strings.Fields(clean), " ")
		if r := []rune(clean); len(r) > maxTagLength {
			clean = strings.TrimSpace(string(r[:maxTagLength]))
		}
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func decodeError(body map[string]any) (string, string) {
	first := rest.FirstError(body, "errors")
	if first == nil {
		return "", ""
	}
	return rest.StringField(first, "message"), rest.StringField(first, "code")
}
