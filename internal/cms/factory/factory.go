// Package factory builds CMS adapters from a platform identifier.
package factory

import (
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/ghost"
	"github.com/blacktop/xpublish/internal/cms/medium"
	"github.com/blacktop/xpublish/internal/cms/notion"
	"github.com/blacktop/xpublish/internal/cms/shopify"
	"github.com/blacktop/xpublish/internal/cms/webflow"
	"github.com/blacktop/xpublish/internal/cms/wordpress"
	"github.com/blacktop/xpublish/internal/markdown"
)

// New returns the adapter for platform. It performs no network calls; use
// IsConfigured or MissingConfig to check the credentials.
func New(platform cms.Platform, cfg Config) (cms.Adapter, error) {
	renderer, err := markdown.NewRenderer(cfg.Renderer)
	if err != nil {
		return nil, &cms.Error{Platform: platform, Code: cms.CodeValidation, Message: err.Error(), Err: err}
	}

	switch platform {
	case cms.Ghost:
		return ghost.New(cfg.Ghost, ghost.WithRenderer(renderer)), nil
	case cms.Medium:
		return medium.New(cfg.Medium), nil
	case cms.Notion:
		return notion.New(cfg.Notion), nil
	case cms.Shopify:
		return shopify.New(cfg.Shopify, shopify.WithRenderer(renderer)), nil
	case cms.Webflow:
		return webflow.New(cfg.Webflow, webflow.WithRenderer(renderer)), nil
	case cms.WordPress:
		return wordpress.New(cfg.WordPress, wordpress.WithRenderer(renderer)), nil
	}
	return nil, &cms.Error{
		Code:    cms.CodeUnsupportedPlatform,
		Message: "unsupported CMS platform: " + string(platform),
	}
}

// NewByName parses name case-insensitively and builds its adapter.
func NewByName(name string, cfg Config) (cms.Adapter, error) {
	platform, err := cms.ParsePlatform(name)
	if err != nil {
		return nil, err
	}
	return New(platform, cfg)
}

// Configured returns an adapter for every platform with credentials set, in
// cms.Platforms order.
func Configured(cfg Config) []cms.Adapter {
	var out []cms.Adapter
	for _, p := range cms.Platforms {
		a, err := New(p, cfg)
		if err != nil || !a.IsConfigured() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// MissingConfig reports the environment variables that must be set before
// publishing to platform, or nil when its mandatory settings are present.
func MissingConfig(platform cms.Platform, cfg Config) error {
	var missing []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, EnvPrefix+name)
		}
	}

	switch platform {
	case cms.Ghost:
		need(cfg.Ghost.URL, "GHOST_URL")
		need(cfg.Ghost.AdminAPIKey, "GHOST_ADMIN_API_KEY")
	case cms.Medium:
		need(cfg.Medium.IntegrationToken, "MEDIUM_INTEGRATION_TOKEN")
	case cms.Notion:
		need(cfg.Notion.Token, "NOTION_TOKEN")
		need(cfg.Notion.DatabaseID, "NOTION_DATABASE_ID")
	case cms.Shopify:
		need(cfg.Shopify.ShopDomain, "SHOPIFY_SHOP_DOMAIN")
		need(cfg.Shopify.AccessToken, "SHOPIFY_ACCESS_TOKEN")
	case cms.Webflow:
		need(cfg.Webflow.APIToken, "WEBFLOW_API_TOKEN")
	case cms.WordPress:
		need(cfg.WordPress.URL, "WORDPRESS_URL")
		if cfg.WordPress.AccessToken == "" {
			need(cfg.WordPress.Username, "WORDPRESS_USERNAME")
			need(cfg.WordPress.Password, "WORDPRESS_PASSWORD")
		}
	default:
		return &cms.Error{Code: cms.CodeUnsupportedPlatform, Message: "unsupported CMS platform: " + string(platform)}
	}

	if len(missing) == 0 {
		return nil
	}
	return cms.MissingConfigError{Platform: platform, Variables: missing}
}
