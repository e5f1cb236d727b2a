// Package wordpress publishes posts through the WordPress REST API.
package wordpress

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/rest"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/markdown"
)

const (
	platform = cms.WordPress

	apiPath = "/wp-json/wp/v2"

	codeTermExists = "term_exists"
)

// Config holds the site URL and either an application password or an OAuth2
// access token.
type Config struct {
	URL         string `env:"URL" yaml:"url"`
	Username    string `env:"USERNAME" yaml:"username"`
	Password    string `env:"PASSWORD" yaml:"password"` // application password
	AccessToken string `env:"ACCESS_TOKEN" yaml:"access_token"`
}

// Client implements cms.Adapter for WordPress.
type Client struct {
	cfg      Config
	api      *rest.Client
	renderer markdown.Renderer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.api.HTTP = hc }
}

// WithRenderer sets the markdown renderer used when a post has no HTML.
func WithRenderer(r markdown.Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// New constructs a WordPress adapter. Basic credentials take precedence over
// an access token. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)

	authorization := ""
	switch {
	case cfg.Username != "" && cfg.Password != "":
		authorization = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password))
	case cfg.AccessToken != "":
		authorization = "Bearer " + cfg.AccessToken
	}

	c := &Client{cfg: cfg}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  cfg.URL + apiPath,
		HTTP:     rest.DefaultHTTPClient(),
		Header:   http.Header{"Accept": []string{"application/json"}},
		Authorize: func(req *http.Request) error {
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}
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

// IsConfigured reports whether the site URL and one complete credential set
// are present.
func (c *Client) IsConfigured() bool {
	if c.cfg.URL == "" {
		return false
	}
	return (c.cfg.Username != "" && c.cfg.Password != "") || c.cfg.AccessToken != ""
}

// MapStatus translates a generic status into a WordPress post status.
func MapStatus(status cms.Status) string {
	switch status {
	case cms.StatusPublic:
		return "publish"
	case cms.StatusUnlisted:
		return "private"
	default:
		return "draft"
	}
}

// Publish creates a post, resolving tag names to term IDs first.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	tagIDs := make([]int64, 0, len(post.Tags))
	for _, name := range post.UniqueTags() {
		tag, err := c.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, cms.AsError(err, platform)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	content, err := markdown.RenderPost(c.renderer, post.Content, post.ContentHTML)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	created, err := c.CreatePost(ctx, PostRequest{
		Title:   post.Title,
		Content: content,
		Status:  MapStatus(post.EffectiveStatus()),
		Tags:    tagIDs,
	})
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	logutil.Debugf("wordpress post created: id=%d status=%s tags=%d", created.ID, created.Status, len(tagIDs))

	return &cms.PublishResult{
		Success: true,
		PostID:  strconv.FormatInt(created.ID, 10),
		URL:     created.Link,
		Metadata: map[string]any{
			"status": created.Status,
			"slug":   created.Slug,
			"tags":   tagIDs,
		},
	}, nil
}

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	var u User
	if _, err := c.api.Get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	link := u.Link
	if link == "" {
		link = u.URL
	}
	return &cms.User{
		ID:       strconv.FormatInt(u.ID, 10),
		Username: u.Slug,
		Name:     u.Name,
		URL:      link,
		ImageURL: largestAvatar(u.AvatarURLs),
	}, nil
}

func largestAvatar(urls map[string]string) string {
	best, bestSize := "", -1
	for size, u := range urls {
		n, err := strconv.Atoi(size)
		if err == nil && n > bestSize {
			best, bestSize = u, n
		}
	}
	return best
}

// CreatePost creates a post.
func (c *Client) CreatePost(ctx context.Context, req PostRequest) (*Post, error) {
	var post Post
	if _, err := c.api.Post(ctx, "/posts", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPost fetches a post by ID.
func (c *Client) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if _, err := c.api.Get(ctx, fmt.Sprintf("/posts/%d", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost changes the non-zero fields of req on an existing post.
func (c *Client) UpdatePost(ctx context.Context, id int64, req PostRequest) (*Post, error) {
	var post Post
	if _, err := c.api.Post(ctx, fmt.Sprintf("/posts/%d", id), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost trashes a post, or removes it permanently when force is set.
func (c *Client) DeletePost(ctx context.Context, id int64, force bool) error {
	q := url.Values{}
	if force {
		q.Set("force", "true")
	}
	_, err := c.api.Do(ctx, rest.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/posts/%d", id),
		Query:  q,
	}, nil)
	return err
}

// ListPosts lists posts.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) (*ListResult[Post], error) {
	return list[Post](ctx, c, "/posts", opts)
}

// ListCategories lists categories.
func (c *Client) ListCategories(ctx context.Context, opts ListOptions) (*ListResult[Category], error) {
	return list[Category](ctx, c, "/categories", opts)
}

// ListTags lists tags.
func (c *Client) ListTags(ctx context.Context, opts ListOptions) (*ListResult[Tag], error) {
	return list[Tag](ctx, c, "/tags", opts)
}

// ListMedia lists media attachments.
func (c *Client) ListMedia(ctx context.Context, opts ListOptions) (*ListResult[Media], error) {
	return list[Media](ctx, c, "/media", opts)
}

func list[T any](ctx context.Context, c *Client, path string, opts ListOptions) (*ListResult[T], error) {
	var items []T
	resp, err := c.api.Get(ctx, path, opts.values(), &items)
	if err != nil {
		return nil, err
	}
	return &ListResult[T]{
		Items:      items,
		Total:      headerInt(resp.Header, "X-WP-Total", len(items)),
		TotalPages: headerInt(resp.Header, "X-WP-TotalPages", 1),
	}, nil
}

func headerInt(h http.Header, key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
	if err != nil {
		return fallback
	}
	return n
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	if _, err := c.api.Post(ctx, "/tags", Tag{Name: name}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetOrCreateTag returns the tag whose name matches name case-insensitively,
// creating it when the search finds none. A term_exists conflict from a
// concurrent creation resolves to the existing term.
func (c *Client) GetOrCreateTag(ctx context.Context, name string) (*Tag, error) {
	found, err := c.ListTags(ctx, ListOptions{Search: name, PerPage: 100})
	if err != nil {
		return nil, err
	}
	for i := range found.Items {
		if strings.EqualFold(html.UnescapeString(found.Items[i].Name), name) {
			return &found.Items[i], nil
		}
	}

	tag, err := c.CreateTag(ctx, name)
	if err == nil {
		return tag, nil
	}
	if rest.PlatformCode(err) == codeTermExists {
		if data, ok := rest.ResponseBody(err)["data"].(map[string]any); ok {
			if id, ok := data["term_id"].(float64); ok {
				logutil.Debugf("wordpress tag %q already exists as term %d", name, int64(id))
				return &Tag{ID: int64(id), Name: name}, nil
			}
		}
	}
	return nil, err
}

// UploadMedia uploads a file to the media library.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, body io.Reader) (*Media, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var media Media
	_, err := c.api.Do(ctx, rest.Request{
		Method:      http.MethodPost,
		Path:        "/media",
		Body:        body,
		ContentType: contentType,
		Header: http.Header{
			"Content-Disposition": []string{mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
		},
	}, &media)
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func decodeError(body map[string]any) (string, string) {
	return rest.StringField(body, "message"), rest.StringField(body, "code")
}
