package wordpress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultOAuthBase is the WordPress.com OAuth2 server.
const DefaultOAuthBase = "https://public-api.wordpress.com/oauth2"

// OAuthConfig describes a WordPress.com application.
type OAuthConfig struct {
	ClientID     string   `env:"CLIENT_ID" yaml:"client_id"`
	ClientSecret string   `env:"CLIENT_SECRET" yaml:"client_secret"`
	RedirectURL  string   `env:"REDIRECT_URL" yaml:"redirect_url"`
	Scopes       []string `env:"SCOPES" yaml:"scopes"`

	// BaseURL overrides DefaultOAuthBase.
	BaseURL string `env:"BASE_URL" yaml:"base_url"`
}

func (o OAuthConfig) config() *oauth2.Config {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = DefaultOAuthBase
	}
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		RedirectURL:  o.RedirectURL,
		Scopes:       o.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Token is the result of a code exchange. WordPress.com scopes the token to
// the blog chosen during authorization.
type Token struct {
	AccessToken string
	TokenType   string
	BlogID      string
	BlogURL     string
	Scope       string
}

// AuthorizationURL returns the URL to send the user to, along with the state
// value to verify on the callback. A random state is generated when state is
// empty.
func AuthorizationURL(cfg OAuthConfig, state string) (string, string, error) {
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return "", "", cms.NewError(platform, cms.CodeNotConfigured, "OAuth client ID and redirect URL are required")
	}
	if state == "" {
		state = uuid.NewString()
	}
	return cfg.config().AuthCodeURL(state), state, nil
}

// ExchangeCode trades an authorization code for an access token.
func ExchangeCode(ctx context.Context, cfg OAuthConfig, code string) (*Token, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, cms.NewError(platform, cms.CodeNotConfigured, "OAuth client ID, secret and redirect URL are required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, cms.NewError(platform, cms.CodeValidation, "authorization code is empty")
	}

	tok, err := cfg.config().Exchange(ctx, code)
	if err != nil {
		e := &cms.Error{Platform: platform, Code: cms.CodeInvalidAPIKey, Message: "exchange authorization code: " + err.Error(), Err: err}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			e.StatusCode = re.Response.StatusCode
			e.Details = map[string]any{"platform_code": re.ErrorCode}
		}
		return nil, e
	}

	return &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		BlogID:      extraString(tok, "blog_id"),
		BlogURL:     extraString(tok, "blog_url"),
		Scope:       extraString(tok, "scope"),
	}, nil
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
