// Package webflow publishes posts as items of a Webflow CMS collection.
package webflow

import (
	"context"
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
	platform = cms.Webflow

	defaultBaseURL = "https://api.webflow.com/v2"
)

// Config holds a Webflow site API token. SiteID and CollectionID are
// optional; without them the first site and the most blog-like collection
// are used.
type Config struct {
	APIToken     string `env:"API_TOKEN" yaml:"api_token"`
	SiteID       string `env:"SITE_ID" yaml:"site_id"`
	CollectionID string `env:"COLLECTION_ID" yaml:"collection_id"`
}

// Client implements cms.Adapter for Webflow. The resolved site, its
// collection list and fetched collection schemas are cached for the life of
// the Client, which must not be shared between goroutines.
type Client struct {
	cfg      Config
	api      *rest.Client
	renderer markdown.Renderer

	site        *Site
	collections []Collection
	schemas     map[string]*Collection
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

// WithRenderer sets the markdown renderer used when a post has no HTML.
func WithRenderer(r markdown.Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// New constructs a Webflow adapter. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
	cfg.SiteID = strings.TrimSpace(cfg.SiteID)
	cfg.CollectionID = strings.TrimSpace(cfg.CollectionID)

	c := &Client{cfg: cfg, schemas: map[string]*Collection{}}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  defaultBaseURL,
		HTTP:     rest.DefaultHTTPClient(),
		Header:   http.Header{"Accept": []string{"application/json"}},
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+cfg.APIToken)
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

// IsConfigured reports whether an API token is set.
func (c *Client) IsConfigured() bool { return c.cfg.APIToken != "" }

// Publish creates a collection item from post. Public posts are published
// live right away; everything else stays a draft.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	site, err := c.resolveSite(ctx)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	collection, err := c.resolveCollection(ctx, site.ID)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	html, err := markdown.RenderPost(c.renderer, post.Content, post.ContentHTML)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	public := post.EffectiveStatus() == cms.StatusPublic
	item, err := c.CreateItem(ctx, collection.ID, Item{
		IsDraft: !public,
		FieldData: MapFields(collection.Fields, PostFields{
			Title:        post.Title,
			Markdown:     post.Content,
			HTML:         html,
			Tags:         post.UniqueTags(),
			CanonicalURL: post.CanonicalURL,
		}),
	})
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	published := false
	if public {
		if err := c.PublishItems(ctx, collection.ID, item.ID); err != nil {
			return nil, cms.AsError(err, platform)
		}
		published = true
	}
	logutil.Debugf("webflow item created: id=%s collection=%s published=%t", item.ID, collection.ID, published)

	return &cms.PublishResult{
		Success: true,
		PostID:  item.ID,
		URL:     ItemURL(site, collection, item.Slug()),
		Metadata: map[string]any{
			"siteId":       site.ID,
			"collectionId": collection.ID,
			"isDraft":      item.IsDraft,
			"published":    published,
		},
	}, nil
}

// ItemURL builds the public URL of an item: the first custom domain of the
// site, or its webflow.io staging domain.
func ItemURL(site *Site, collection *Collection, itemSlug string) string {
	base := "https://" + site.ShortName + ".webflow.io"
	if len(site.CustomDomains) > 0 && site.CustomDomains[0].URL != "" {
		base = site.CustomDomains[0].URL
		if !strings.Contains(base, "://") {
			base = "https://" + base
		}
	}
	return strings.TrimRight(base, "/") + "/" + collection.Slug + "/" + itemSlug
}

// GetUser returns the user who authorized the token.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	var who AuthorizedBy
	if _, err := c.api.Get(ctx, "/token/authorized_by", nil, &who); err != nil {
		return nil, err
	}
	return &cms.User{
		ID:       who.ID,
		Username: who.Email,
		Name:     strings.TrimSpace(who.FirstName + " " + who.LastName),
	}, nil
}

// GetPublications lists the collections of the resolved site.
func (c *Client) GetPublications(ctx context.Context) ([]cms.Publication, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	site, err := c.resolveSite(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := c.siteCollections(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	out := make([]cms.Publication, 0, len(collections))
	for i := range collections {
		col := &collections[i]
		out = append(out, cms.Publication{
			ID:          col.ID,
			Name:        col.DisplayName,
			Description: site.DisplayName,
			URL:         strings.TrimSuffix(ItemURL(site, col, ""), "/"),
		})
	}
	return out, nil
}

func (c *Client) resolveSite(ctx context.Context) (*Site, error) {
	if c.site != nil {
		return c.site, nil
	}
	if c.cfg.SiteID != "" {
		site, err := c.GetSite(ctx, c.cfg.SiteID)
		if err != nil {
			return nil, err
		}
		c.site = site
		return site, nil
	}
	sites, err := c.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, cms.NewError(platform, cms.CodeNoCollection, "no site is accessible with this token")
	}
	c.site = &sites[0]
	return c.site, nil
}

func (c *Client) siteCollections(ctx context.Context, siteID string) ([]Collection, error) {
	if c.collections != nil {
		return c.collections, nil
	}
	collections, err := c.ListCollections(ctx, siteID)
	if err != nil {
		return nil, err
	}
	c.collections = collections
	return collections, nil
}

// resolveCollection returns the configured collection, else the first one
// that looks like a blog, else the first one; always with its fields.
func (c *Client) resolveCollection(ctx context.Context, siteID string) (*Collection, error) {
	id := c.cfg.CollectionID
	if id == "" {
		collections, err := c.siteCollections(ctx, siteID)
		if err != nil {
			return nil, err
		}
		picked := pickCollection(collections)
		if picked == nil {
			return nil, cms.NewError(platform, cms.CodeNoCollection, "site %s has no CMS collections", siteID)
		}
		id = picked.ID
	}
	return c.GetCollection(ctx, id)
}

func pickCollection(collections []Collection) *Collection {
	for i := range collections {
		slug := strings.ToLower(collections[i].Slug)
		name := strings.ToLower(collections[i].DisplayName)
		for _, hint := range []string{"blog", "post"} {
			if strings.Contains(slug, hint) || strings.Contains(name, hint) {
				return &collections[i]
			}
		}
	}
	if len(collections) > 0 {
		return &collections[0]
	}
	return nil
}

// ResetCache drops the cached site, collection list and schemas.
func (c *Client) ResetCache() {
	c.site = nil
	c.collections = nil
	c.schemas = map[string]*Collection{}
}

// GetSite fetches a site by ID.
func (c *Client) GetSite(ctx context.Context, id string) (*Site, error) {
	var site Site
	if _, err := c.api.Get(ctx, "/sites/"+url.PathEscape(id), nil, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// ListSites lists the sites the token can access.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	var resp struct {
		Sites []Site `json:"sites"`
	}
	if _, err := c.api.Get(ctx, "/sites", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sites, nil
}

// ListCollections lists the collections of a site, without fields.
func (c *Client) ListCollections(ctx context.Context, siteID string) ([]Collection, error) {
	var resp struct {
		Collections []Collection `json:"collections"`
	}
	if _, err := c.api.Get(ctx, "/sites/"+url.PathEscape(siteID)+"/collections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// GetCollection fetches a collection with its field schema. Schemas are
// cached per collection.
func (c *Client) GetCollection(ctx context.Context, id string) (*Collection, error) {
	if col, ok := c.schemas[id]; ok {
		return col, nil
	}
	var col Collection
	if _, err := c.api.Get(ctx, "/collections/"+url.PathEscape(id), nil, &col); err != nil {
		return nil, err
	}
	c.schemas[id] = &col
	return &col, nil
}

// CreateItem adds an item to a collection. The cached schema of that
// collection is dropped.
func (c *Client) CreateItem(ctx context.Context, collectionID string, item Item) (*Item, error) {
	var created Item
	if _, err := c.api.Post(ctx, "/collections/"+url.PathEscape(collectionID)+"/items", item, &created); err != nil {
		return nil, err
	}
	delete(c.schemas, collectionID)
	return &created, nil
}

// PublishItems publishes staged items to the live site.
func (c *Client) PublishItems(ctx context.Context, collectionID string, itemIDs ...string) error {
	body := map[string][]string{"itemIds": itemIDs}
	_, err := c.api.Post(ctx, "/collections/"+url.PathEscape(collectionID)+"/items/publish", body, nil)
	return err
}

// ListItems returns one page of collection items.
func (c *Client) ListItems(ctx context.Context, collectionID string, offset, limit int) (*ItemList, error) {
	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var list ItemList
	if _, err := c.api.Get(ctx, "/collections/"+url.PathEscape(collectionID)+"/items", q, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func decodeError(body map[string]any) (string, string) {
	msg := rest.StringField(body, "message")
	if details, ok := body["details"].([]any); ok && len(details) > 0 {
		var parts []string
		for _, d := range details {
			if m, ok := d.(map[string]any); ok {
				if field, text := rest.StringField(m, "param"), rest.StringField(m, "description"); text != "" {
					parts = append(parts, strings.TrimSpace(field+" "+text))
				}
			}
		}
		if len(parts) > 0 {
			msg = strings.TrimSpace(msg + ": " + strings.Join(parts, "; "))
		}
	}
	return msg, rest.StringField(body, "code")
}
