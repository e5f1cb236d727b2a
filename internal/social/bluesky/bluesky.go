package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/social"
	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	envHandle      = "XPUBLISH_BLUESKY_HANDLE"
	envAppPassword = "XPUBLISH_BLUESKY_APP_PASSWORD"
	envPDSURL      = "XPUBLISH_BLUESKY_PDS_URL"

	// DefaultPDSURL is used when no PDS is configured.
	DefaultPDSURL = "https://bsky.social"

	providerName   = "bluesky"
	requestTimeout = 30 * time.Second
)

// Config allows the caller to supply defaults prior to reading environment variables.
type Config struct {
	PDSURL string
}

// Client implements the social.Poster interface for Bluesky.
type Client struct {
	client *xrpc.Client
	now    func() time.Time
}

// New logs in with an app password and returns a Bluesky poster.
func New(ctx context.Context, base Config) (social.Poster, error) {
	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}

	userAgent := "xpublish/1"
	xrpcClient := &xrpc.Client{
		Client:    &http.Client{Timeout: requestTimeout},
		Host:      cfg.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: cfg.Handle,
		Password:   cfg.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	logutil.Debugf("bluesky session created: handle=%s", session.Handle)

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient, now: time.Now}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post creates a Bluesky post whose link and hashtags are rich text facets.
// The link also becomes an external embed card titled after the post.
func (c *Client) Post(ctx context.Context, a social.Announcement) error {
	if err := social.Validate(providerName, a, social.LimitBluesky); err != nil {
		return err
	}

	text := a.String()
	post := &bsky.FeedPost{
		LexiconTypeID: "app.bsky.feed.post",
		CreatedAt:     c.now().UTC().Format(time.RFC3339),
		Text:          text,
		Facets:        Facets(text, a.Link),
	}
	if a.Link != "" {
		post.Embed = &bsky.FeedPost_Embed{
			EmbedExternal: &bsky.EmbedExternal{
				LexiconTypeID: "app.bsky.embed.external",
				External:      &bsky.EmbedExternal_External{
					Uri:         a.Link,
					Title:       a.Title,
					Description: a.Text,
				},
			},
		}
	}

	out, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       c.client.Auth.Did,
		Record: &util.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	logutil.Debugf("bluesky post created: uri=%s", out.Uri)

	return nil
}

// Facets marks the link and every hashtag in text. Offsets are UTF-8 byte
// positions, as the AT protocol requires.
func Facets(text, link string) []*bsky.RichtextFacet {
	var facets []*bsky.RichtextFacet

	for i := 0; i < len(text); {
		j := strings.IndexByte(text[i:], '#')
		if j < 0 {
			break
		}
		start := i + j
		end := start + 1
		for end < len(text) && !isTagBoundary(text[end]) {
			end++
		}
		if end > start+1 && (start == 0 || isTagBoundary(text[start-1])) {
			facets = append(facets, &bsky.RichtextFacet{
				Index: &bsky.RichtextFacet_ByteSlice{ByteStart: int64(start), ByteEnd: int64(end)},
				Features: []*bsky.RichtextFacet_Features_Elem{{
					RichtextFacet_Tag: &bsky.RichtextFacet_Tag{
						LexiconTypeID: "app.bsky.richtext.facet#tag",
						Tag:           text[start+1 : end],
					},
				}},
			})
		}
		i = end
	}

	if link != "" {
		if start := strings.LastIndex(text, link); start >= 0 {
			facets = append(facets, &bsky.RichtextFacet{
				Index: &bsky.RichtextFacet_ByteSlice{ByteStart: int64(start), ByteEnd: int64(start + len(link))},
				Features: []*bsky.RichtextFacet_Features_Elem{{
					RichtextFacet_Link: &bsky.RichtextFacet_Link{
						LexiconTypeID: "app.bsky.richtext.facet#link",
						Uri:           link,
					},
				}},
			})
		}
	}

	return facets
}

func isTagBoundary(b byte) bool {
	switch b {
	case ' ', '\n', '\t', '\r':
		return true
	}
	return false
}

// ProviderConfig merges defaults with environment-defined values.
type ProviderConfig struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

func loadConfig(base Config) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}

	if cfg.PDSURL == "" {
		cfg.PDSURL = strings.TrimSpace(base.PDSURL)
	}
	if cfg.PDSURL == "" {
		cfg.PDSURL = DefaultPDSURL
	}

	var missing []string
	if cfg.Handle == "" {
		missing = append(missing, envHandle)
	}
	if cfg.AppPassword == "" {
		missing = append(missing, envAppPassword)
	}

	if len(missing) > 0 {
		return ProviderConfig{}, social.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
