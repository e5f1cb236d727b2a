// Package notion publishes posts as pages of a Notion database.
package notion

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/rest"
	"github.com/blacktop/xpublish/internal/logutil"
)

const (
	platform = cms.Notion

	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// maxChildren is the number of blocks Notion accepts per request.
	maxChildren = 100
)

// Config holds an internal integration token and the target database.
type Config struct {
	Token      string          `env:"TOKEN" yaml:"token"`
	DatabaseID string          `env:"DATABASE_ID" yaml:"database_id"`
	Properties PropertyMapping `env:",prefix=PROPERTY_" yaml:"properties"`
}

// Client implements cms.Adapter for Notion.
type Client struct {
	cfg Config
	api *rest.Client
	now func() time.Time
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

// New constructs a Notion adapter. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.DatabaseID = strings.TrimSpace(cfg.DatabaseID)
	cfg.Properties = cfg.Properties.withDefaults()

	c := &Client{cfg: cfg, now: time.Now}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  defaultBaseURL,
		HTTP:     rest.DefaultHTTPClient(),
		Header: http.Header{
			"Notion-Version": []string{apiVersion},
			"Accept":         []string{"application/json"},
		},
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+cfg.Token)
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

// IsConfigured reports whether an integration token is set. A database ID is
// only needed for Publish.
func (c *Client) IsConfigured() bool { return c.cfg.Token != "" }

// Publish creates a database page from post, with the markdown body
// converted into blocks.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if c.cfg.DatabaseID == "" {
		return nil, cms.NewError(platform, cms.CodeMissingDatabaseID, "a default database ID is required to publish")
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	db, err := c.GetDatabase(ctx, c.cfg.DatabaseID)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	blocks := ToBlocks(post.Content)
	first := blocks
	var remaining []Block
	if len(blocks) > maxChildren {
		first, remaining = blocks[:maxChildren], blocks[maxChildren:]
	}

	page, err := c.CreatePage(ctx, CreatePageRequest{
		Parent:     Parent{DatabaseID: c.cfg.DatabaseID},
		Properties: MapProperties(db.Properties, c.cfg.Properties, post, c.now()),
		Children:   first,
	})
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	if len(remaining) > 0 {
		if err := c.AppendBlocks(ctx, page.ID, remaining); err != nil {
			return nil, cms.AsError(err, platform)
		}
	}
	logutil.Debugf("notion page created: id=%s blocks=%d", page.ID, len(blocks))

	return &cms.PublishResult{
		Success: true,
		PostID:  page.ID,
		URL:     page.URL,
		Metadata: map[string]any{
			"databaseId":  c.cfg.DatabaseID,
			"blockCount":  len(blocks),
			"createdTime": page.CreatedTime,
		},
	}, nil
}

// GetUser returns the bot user behind the integration token.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	var u User
	if _, err := c.api.Get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	name := u.Name
	if u.Bot != nil && u.Bot.WorkspaceName != "" {
		name = u.Bot.WorkspaceName
	}
	return &cms.User{ID: u.ID, Username: u.Name, Name: name, ImageURL: u.AvatarURL}, nil
}

// GetPublications lists the databases shared with the integration.
func (c *Client) GetPublications(ctx context.Context) ([]cms.Publication, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	dbs, err := c.SearchDatabases(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]cms.Publication, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, cms.Publication{ID: db.ID, Name: PlainTextOf(db.Title), URL: db.URL})
	}
	return out, nil
}

// GetDatabase returns a database with its property schema.
func (c *Client) GetDatabase(ctx context.Context, id string) (*Database, error) {
	var db Database
	if _, err := c.api.Get(ctx, "/databases/"+url.PathEscape(id), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDatabase returns one page of database rows.
func (c *Client) QueryDatabase(ctx context.Context, id string, query QueryRequest) (*PageList, error) {
	var list PageList
	if _, err := c.api.Post(ctx, "/databases/"+url.PathEscape(id)+"/query", query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SearchDatabases finds databases shared with the integration by title.
func (c *Client) SearchDatabases(ctx context.Context, query string) ([]Database, error) {
	body := map[string]any{
		"filter": map[string]string{"property": "object", "value": "database"},
	}
	if query != "" {
		body["query"] = query
	}
	var resp struct {
		Results []Database `json:"results"`
	}
	if _, err := c.api.Post(ctx, "/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CreatePage creates a page with at most 100 child blocks.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if len(req.Children) > maxChildren {
		return nil, cms.NewError(platform, cms.CodeValidation, "a page can be created with at most %d blocks", maxChildren)
	}
	var page Page
	if _, err := c.api.Post(ctx, "/pages", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPage fetches a page by ID.
func (c *Client) GetPage(ctx context.Context, id string) (*Page, error) {
	var page Page
	if _, err := c.api.Get(ctx, "/pages/"+url.PathEscape(id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArchivePage moves a page to the trash.
func (c *Client) ArchivePage(ctx context.Context, id string) (*Page, error) {
	var page Page
	_, err := c.api.Do(ctx, rest.Request{
		Method: http.MethodPatch,
		Path:   "/pages/" + url.PathEscape(id),
		Body:   map[string]bool{"archived": true},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// AppendBlocks appends children to a block or page in batches of 100.
func (c *Client) AppendBlocks(ctx context.Context, parentID string, blocks []Block) error {
	for start := 0; start < len(blocks); start += maxChildren {
		end := start + maxChildren
		if end > len(blocks) {
			end = len(blocks)
		}
		_, err := c.api.Do(ctx, rest.Request{
			Method: http.MethodPatch,
			Path:   "/blocks/" + url.PathEscape(parentID) + "/children",
			Body:   map[string][]Block{"children": blocks[start:end]},
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeError(body map[string]any) (string, string) {
	return rest.StringField(body, "message"), rest.StringField(body, "code")
}
