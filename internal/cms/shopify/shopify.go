// Package shopify publishes posts as articles of a Shopify store blog.
package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/rest"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/markdown"
	"github.com/goliatone/go-slug"
)

const (
	platform = cms.Shopify

	defaultAPIVersion = "2024-01"
	defaultBlogTitle  = "Blog"
)

// Config holds an Admin API access token for one store.
type Config struct {
	ShopDomain  string `env:"SHOP_DOMAIN" yaml:"shop_domain"` // e.g. my-store.myshopify.com
	AccessToken string `env:"ACCESS_TOKEN" yaml:"access_token"`
	APIVersion  string `env:"API_VERSION" yaml:"api_version"`
	BlogID      string `env:"BLOG_ID" yaml:"blog_id"`
}

// Client implements cms.Adapter for Shopify.
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

// WithBaseURL points the client at a different Admin API root.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.api.BaseURL = base }
}

// WithRenderer sets the markdown renderer used when a post has no HTML.
func WithRenderer(r markdown.Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// New constructs a Shopify adapter. No network calls are made.
func New(cfg Config, opts ...Option) *Client {
	cfg.ShopDomain = normalizeDomain(cfg.ShopDomain)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.BlogID = strings.TrimSpace(cfg.BlogID)
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	c := &Client{cfg: cfg}
	c.api = &rest.Client{
		Platform: platform,
		BaseURL:  fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.APIVersion),
		HTTP:     rest.DefaultHTTPClient(),
		Header:   http.Header{"Accept": []string{"application/json"}},
		Authorize: func(req *http.Request) error {
			req.Header.Set("X-Shopify-Access-Token", cfg.AccessToken)
			return nil
		},
		DecodeError: decodeError,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}

// Name returns the platform display name.
func (c *Client) Name() string { return platform.DisplayName() }

// IsConfigured reports whether the shop domain and access token are set.
func (c *Client) IsConfigured() bool {
	return c.cfg.ShopDomain != "" && c.cfg.AccessToken != ""
}

// Publish creates an article on the configured blog, creating a default blog
// when the store has none.
func (c *Client) Publish(ctx context.Context, post cms.Post) (*cms.PublishResult, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	if err := post.ValidateFor(platform); err != nil {
		return nil, err
	}

	blog, err := c.GetOrCreateBlog(ctx)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	html, err := markdown.RenderPost(c.renderer, post.Content, post.ContentHTML)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}

	published := post.EffectiveStatus() == cms.StatusPublic
	article := Article{
		Title:     post.Title,
		BodyHTML:  html,
		Tags:      strings.Join(post.UniqueTags(), ", "),
		Published: &published,
	}
	if handle, err := slug.Normalize(post.Title); err == nil {
		article.Handle = handle
	}

	created, err := c.CreateArticle(ctx, blog.ID, article)
	if err != nil {
		return nil, cms.AsError(err, platform)
	}
	logutil.Debugf("shopify article created: id=%d blog=%d published=%t", created.ID, blog.ID, published)

	handle := created.Handle
	if handle == "" {
		handle = article.Handle
	}
	return &cms.PublishResult{
		Success: true,
		PostID:  strconv.FormatInt(created.ID, 10),
		URL:     fmt.Sprintf("https://%s/blogs/%s/%s", c.cfg.ShopDomain, blog.Handle, handle),
		Metadata: map[string]any{
			"blogId":    blog.ID,
			"published": published,
			"createdAt": created.CreatedAt,
		},
	}, nil
}

// GetUser returns the store as the account behind the token.
func (c *Client) GetUser(ctx context.Context) (*cms.User, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	shop, err := c.GetShop(ctx)
	if err != nil {
		return nil, err
	}
	domain := shop.Domain
	if domain == "" {
		domain = c.cfg.ShopDomain
	}
	return &cms.User{
		ID:       strconv.FormatInt(shop.ID, 10),
		Username: shop.MyshopifyDomain,
		Name:     shop.Name,
		URL:      "https://" + domain,
	}, nil
}

// GetPublications lists the store's blogs.
func (c *Client) GetPublications(ctx context.Context) ([]cms.Publication, error) {
	if !c.IsConfigured() {
		return nil, cms.NotConfigured(platform)
	}
	blogs, err := c.ListBlogs(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]cms.Publication, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, cms.Publication{
			ID:   strconv.FormatInt(b.ID, 10),
			Name: b.Title,
			URL:  fmt.Sprintf("https://%s/blogs/%s", c.cfg.ShopDomain, b.Handle),
		})
	}
	return out, nil
}

// GetShop returns the store settings.
func (c *Client) GetShop(ctx context.Context) (*Shop, error) {
	var resp struct {
		Shop Shop `json:"shop"`
	}
	if _, err := c.api.Get(ctx, "/shop.json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Shop, nil
}

// GetOrCreateBlog resolves the blog to publish into: the configured blog,
// else the first blog of the store, else a newly created one. Two clients
// racing on an empty store may each create a blog.
func (c *Client) GetOrCreateBlog(ctx context.Context) (*Blog, error) {
	if c.cfg.BlogID != "" {
		return c.GetBlog(ctx, c.cfg.BlogID)
	}

	blogs, err := c.ListBlogs(ctx, ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(blogs) > 0 {
		return &blogs[0], nil
	}

	logutil.Debugf("shopify store has no blog, creating %q", defaultBlogTitle)
	blog, err := c.CreateBlog(ctx, Blog{Title: defaultBlogTitle})
	if err != nil {
		cause := cms.AsError(err, platform)
		return nil, &cms.Error{
			Platform:   platform,
			Code:       cms.CodeBlogError,
			Message:    "create default blog: " + cause.Message,
			StatusCode: cause.StatusCode,
			Details:    cause.Details,
			Err:        err,
		}
	}
	return blog, nil
}

// GetBlog fetches a blog by ID.
func (c *Client) GetBlog(ctx context.Context, id string) (*Blog, error) {
	var resp struct {
		Blog Blog `json:"blog"`
	}
	if _, err := c.api.Get(ctx, "/blogs/"+url.PathEscape(id)+".json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Blog, nil
}

// ListBlogs lists the store's blogs.
func (c *Client) ListBlogs(ctx context.Context, opts ListOptions) ([]Blog, error) {
	var resp struct {
		Blogs []Blog `json:"blogs"`
	}
	if _, err := c.api.Get(ctx, "/blogs.json", opts.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Blogs, nil
}

// CreateBlog creates a blog.
func (c *Client) CreateBlog(ctx context.Context, blog Blog) (*Blog, error) {
	var resp struct {
		Blog Blog `json:"blog"`
	}
	if _, err := c.api.Post(ctx, "/blogs.json", map[string]Blog{"blog": blog}, &resp); err != nil {
		return nil, err
	}
	return &resp.Blog, nil
}

// CreateArticle creates an article in a blog.
func (c *Client) CreateArticle(ctx context.Context, blogID int64, article Article) (*Article, error) {
	var resp struct {
		Article Article `json:"article"`
	}
	path := fmt.Sprintf("/blogs/%d/articles.json", blogID)
	if _, err := c.api.Post(ctx, path, map[string]Article{"article": article}, &resp); err != nil {
		return nil, err
	}
	return &resp.Article, nil
}

// ListArticles lists the articles of a blog.
func (c *Client) ListArticles(ctx context.Context, blogID int64, opts ListOptions) ([]Article, error) {
	var resp struct {
		Articles []Article `json:"articles"`
	}
	path := fmt.Sprintf("/blogs/%d/articles.json", blogID)
	if _, err := c.api.Get(ctx, path, opts.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// ListProducts lists catalog products.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	if _, err := c.api.Get(ctx, "/products.json", opts.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ListCustomCollections lists manually curated collections.
func (c *Client) ListCustomCollections(ctx context.Context, opts ListOptions) ([]CustomCollection, error) {
	var resp struct {
		CustomCollections []CustomCollection `json:"custom_collections"`
	}
	if _, err := c.api.Get(ctx, "/custom_collections.json", opts.values(), &resp); err != nil {
		return nil, err
	}
	return resp.CustomCollections, nil
}

// ListCollects lists product to collection links, optionally for one collection.
func (c *Client) ListCollects(ctx context.Context, collectionID int64, opts ListOptions) ([]Collect, error) {
	q := opts.values()
	if collectionID != 0 {
		q.Set("collection_id", strconv.FormatInt(collectionID, 10))
	}
	var resp struct {
		Collects []Collect `json:"collects"`
	}
	if _, err := c.api.Get(ctx, "/collects.json", q, &resp); err != nil {
		return nil, err
	}
	return resp.Collects, nil
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.SinceID > 0 {
		q.Set("since_id", strconv.FormatInt(o.SinceID, 10))
	}
	if o.Fields != "" {
		q.Set("fields", o.Fields)
	}
	return q
}

// decodeError handles both shapes Shopify uses: "errors" as a plain string,
// or as an object of field name to messages.
func decodeError(body map[string]any) (string, string) {
	switch v := body["errors"].(type) {
	case string:
		return v, ""
	case map[string]any:
		fields := make([]string, 0, len(v))
		for field := range v {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			switch msgs := v[field].(type) {
			case []any:
				for _, m := range msgs {
					parts = append(parts, fmt.Sprintf("%s %v", field, m))
				}
			default:
				parts = append(parts, fmt.Sprintf("%s %v", field, msgs))
			}
		}
		return strings.Join(parts, "; "), ""
	}
	return rest.StringField(body, "error"), ""
}
