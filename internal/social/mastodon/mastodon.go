package mastodon

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/social"
	mastodonapi "github.com/mattn/go-mastodon"
)

const (
	envServer       = "XPUBLISH_MASTODON_SERVER"
	envAccessToken  = "XPUBLISH_MASTODON_ACCESS_TOKEN"
	envClientID     = "XPUBLISH_MASTODON_CLIENT_ID"
	envClientSecret = "XPUBLISH_MASTODON_CLIENT_SECRET"
	envVisibility   = "XPUBLISH_MASTODON_VISIBILITY"

	providerName   = "mastodon"
	requestTimeout = 30 * time.Second
)

// Config contains the settings needed to reach a Mastodon server.
type Config struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string

	// Visibility is one of public, unlisted, private or direct. Empty keeps
	// the account default.
	Visibility string
}

// Client wraps the Mastodon API client.
type Client struct {
	client     *mastodonapi.Client
	visibility string
}

// New constructs a Mastodon poster based on environment configuration.
func New(ctx context.Context) (social.Poster, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}

// NewWithConfig constructs a Mastodon poster from explicit settings.
func NewWithConfig(cfg Config) *Client {
	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		AccessToken:  cfg.AccessToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient, visibility: cfg.Visibility}
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post publishes a new toot with the link on its own paragraph.
func (c *Client) Post(ctx context.Context, a social.Announcement) error {
	if err := social.Validate(providerName, a, social.LimitMastodon); err != nil {
		return err
	}

	status, err := c.client.PostStatus(ctx, &mastodonapi.Toot{
		Status:     a.String(),
		Visibility: c.visibility,
	})
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	logutil.Debugf("mastodon status posted: id=%s url=%s", status.ID, status.URL)

	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
		Visibility:   strings.ToLower(strings.TrimSpace(os.Getenv(envVisibility))),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, envServer)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Config{}, social.MissingEnvError{Provider: providerName, Variables: missing}
	}

	switch cfg.Visibility {
	case "", "public", "unlisted", "private", "direct":
	default:
		return Config{}, social.ValidationError{Provider: providerName, Reason: fmt.Sprintf("unknown visibility %q", cfg.Visibility)}
	}

	return cfg, nil
}
