package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/blacktop/xpublish/internal/cms/ghost"
	"github.com/blacktop/xpublish/internal/cms/medium"
	"github.com/blacktop/xpublish/internal/cms/notion"
	"github.com/blacktop/xpublish/internal/cms/shopify"
	"github.com/blacktop/xpublish/internal/cms/webflow"
	"github.com/blacktop/xpublish/internal/cms/wordpress"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "XPUBLISH_"

// Config aggregates the credentials of every platform.
type Config struct {
	Ghost          ghost.Config          `env:",prefix=GHOST_" yaml:"ghost"`
	Medium         medium.Config         `env:",prefix=MEDIUM_" yaml:"medium"`
	Notion         notion.Config         `env:",prefix=NOTION_" yaml:"notion"`
	Shopify        shopify.Config        `env:",prefix=SHOPIFY_" yaml:"shopify"`
	Webflow        webflow.Config        `env:",prefix=WEBFLOW_" yaml:"webflow"`
	WordPress      wordpress.Config      `env:",prefix=WORDPRESS_" yaml:"wordpress"`
	WordPressOAuth wordpress.OAuthConfig `env:",prefix=WORDPRESS_OAUTH_" yaml:"wordpress_oauth"`

	// Renderer names the markdown renderer for platforms that take HTML.
	Renderer string `env:"RENDERER" yaml:"renderer"`
}

// LoadConfig reads the configuration from XPUBLISH_* environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	return Load(ctx, "", envconfig.OsLookuper())
}

// Load reads an optional YAML integrations file and overlays the variables
// found through lookuper, so the environment always wins over the file.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           &cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	}); err != nil {
		return Config{}, fmt.Errorf("parsing env vars: %w", err)
	}
	return cfg, nil
}
