// Package ghost publishes posts through the Ghost Admin API.
package ghost

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/rest"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/markdown"
	"github.com/golang-jwt/jwt"
)

const (
	platform = cms.Ghost

	defaultAPIVersion = "v5.0"
	adminPath         = "/ghost/api/admin"
	adminAudience     = "/admin/"
	tokenTTL          = 5 * time.Minute
)

// Config holds the credentials of a Ghost custom integration.
type Config struct {
	URL         string `env:"URL" yaml:"url"`
	AdminAPIKey string `env:"ADMIN_API_KEY" yaml:"admin_api_key"` // "id:secret"
	APIVersion  string `env:"API_VERSION" yaml:"api_version"`
}

// Client implements cms.Adapter for Ghost.
type Client struct {
	cfg      Config
	api      *rest.Client
	renderer markdown.Renderer
	now      func() time.Time
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

// New constructs a Ghost adapter. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.AdminAPIKey = strings.TrimSpace(cfg.AdminAPIKey)
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	c := &Client{cfg: cfg, now: time.Now}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  cfg.URL + adminPath,
		HTTP:     rest.DefaultHTTPClient(),
		Header: http.Header{
			"Accept-Version": []string{cfg.APIVersion},
			"Accept":         []string{"application/json"},
		},
		Authorize:   c.authorize,
		DecodeError: decodeError,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the platform display name.
func (c *Client) Name() string { return platform.DisplayName() }

// IsConfigured reports whether the site URL and admin key are set.
func (c *Client) IsConfigured() bool {
	return c.cfg.URL != "" && c.cfg.AdminAPIKey != ""
}

// authorize signs a fresh token for every request; Ghost rejects tokens
// older than five minutes.
func (c *Client) authorize(req *http.Request) error {
	token, err := GenerateToken(c.cfg.AdminAPIKey, c.now())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Ghost "+token)
	return nil
}

// GenerateToken signs a short-lived admin token from an "id:secret" key.
func GenerateToken(apiKey string, now time.Time) (string, error) {
	id, secret, ok := strings.Cut(apiKey, ":")
	if !ok || id == "" || secret == "" {
		return "", cms.NewError(platform, cms.CodeInvalidAPIKey, "admin API key must have the form id:secret")
	}
	key, err := hex.DecodeString(secret)
	if err != nil {
		return "", &cms.Error{
			Platform: platform,
			Code:     cms.CodeInvalidAPIKey,
			Message:  "admin API key secret is not hex encoded",
			Err:      err,
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
		"aud": adminAudience,
	})
	token.Header["kid"] = id

	signed, err := token.SignedString(key)
	if err != nil {
		return "", &cms.Error{Platform: platform, Code: cms.CodeInvalidAPIKey, Message: "sign admin token: " + err.Error(), Err: err}
	}
	return signed, nil
}

// Publish creates a Ghost post from a generic post.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	html, err := markdown.RenderPost(c.renderer, post.Content, post.ContentHTML)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	tags := make([]Tag, 0, len(post.Tags))
	for _, name := range post.UniqueTags() {
		tags = append(tags, Tag{Name: name})
	}

	created, err := c.CreatePost(ctx, Post{
		Title:        post.Title,
		HTML:         html,
		Status:       MapStatus(post.EffectiveStatus()),
		Tags:         tags,
		CanonicalURL: post.CanonicalURL,
	})
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	logutil.Debugf("ghost post created: id=%s status=%s", created.ID, created.Status)

	postURL := created.URL
	if postURL == "" && created.Slug != "" {
		postURL = c.cfg.URL + "/" + created.Slug + "/"
	}
	return &cms.PublishResult{
		Success: true,
		PostID:  created.ID,
		URL:     postURL,
		Metadata: map[string]any{
			"uuid":   created.UUID,
			"slug":   created.Slug,
			"status": created.Status,
		},
	}, nil
}

// MapStatus converts a generic status into a Ghost post status.
func MapStatus(status cms.Status) string {
	switch status {
	case cms.StatusPublic, cms.StatusUnlisted:
		return "published"
	default:
		return "draft"
	}
}

// GetUser returns the site the integration belongs to. Integration tokens
// cannot read staff users, so the site stands in for the account.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	site, err := c.GetSite(ctx)
	if err != nil {
		return nil, err
	}
	id := site.URL
	if u, err := url.Parse(site.URL); err == nil && u.Host != "" {
		id = u.Host
	}
	return &cms.User{
		ID:       id,
		Username: site.Title,
		Name:     site.Title,
		URL:      site.URL,
		ImageURL: site.Icon,
	}, nil
}

// GetSite returns basic site metadata.
func (c *Client) GetSite(ctx context.Context) (*Site, error) {
	var resp struct {
		Site Site `json:"site"`
	}
	if _, err := c.api.Get(ctx, "/site/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Site, nil
}

// CreatePost creates a post from HTML content.
func (c *Client) CreatePost(ctx context.Context, post Post) (*Post, error) {
	var resp postsEnvelope
	_, err := c.api.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "/posts/",
		Query:  url.Values{"source": {"html"}},
		Body:   postsEnvelope{Posts: []Post{post}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.first()
}

// GetPost fetches a post by ID.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var resp postsEnvelope
	if _, err := c.api.Get(ctx, "/posts/"+url.PathEscape(id)+"/", url.Values{"formats": {"html"}}, &resp); err != nil {
		return nil, err
	}
	return resp.first()
}

// UpdatePost edits a post. Ghost requires post.UpdatedAt to match the stored
// value to detect concurrent edits.
func (c *Client) UpdatePost(ctx context.Context, id string, post Post) (*Post, error) {
	if post.UpdatedAt == "" {
		return nil, cms.NewError(platform, cms.CodeValidation, "updated_at is required to update a post")
	}
	var resp postsEnvelope
	_, err := c.api.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Path:   "/posts/" + url.PathEscape(id) + "/",
		Query:  url.Values{"source": {"html"}},
		Body:   postsEnvelope{Posts: []Post{post}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.first()
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.api.Do(ctx, rest.Request{Method: http.MethodDelete, Path: "/posts/" + url.PathEscape(id) + "/"}, nil)
	return err
}

// ListOptions filters list calls.
type ListOptions struct {
	Limit  int
	Page   int
	Filter string // NQL, e.g. "status:published"
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Filter != "" {
		v.Set("filter", o.Filter)
	}
	return v
}

// ListPosts returns a page of posts.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]Post, Pagination, error) {
	var resp struct {
		Posts []Post `json:"posts"`
		Meta  meta   `json:"meta"`
	}
	if _, err := c.api.Get(ctx, "/posts/", opts.values(), &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Posts, resp.Meta.Pagination, nil
}

// ListTags returns a page of tags.
func (c *Client) ListTags(ctx context.Context, opts ListOptions) ([]Tag, Pagination, error) {
	var resp struct {
		Tags []Tag `json:"tags"`
		Meta meta  `json:"meta"`
	}
	if _, err := c.api.Get(ctx, "/tags/", opts.values(), &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Tags, resp.Meta.Pagination, nil
}

func decodeError(body map[string]any) (string, string) {
	first := rest.FirstError(body, "errors")
	if first == nil {
		return "", ""
	}
	message := rest.StringField(first, "message")
	if ctx := rest.StringField(first, "context"); ctx != "" && message != "" {
		message = fmt.Sprintf("%s: %s", message, ctx)
	}
	return message, rest.StringField(first, "type")
}
