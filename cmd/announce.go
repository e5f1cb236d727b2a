package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/social"
	"github.com/blacktop/xpublish/internal/social/bluesky"
	"github.com/blacktop/xpublish/internal/social/mastodon"
	"github.com/blacktop/xpublish/internal/social/twitter"
)

var supportedAnnouncers = map[string]struct{}{
	"bluesky":  {},
	"mastodon": {},
	"twitter":  {},
}

var allAnnouncers = []string{"bluesky", "mastodon", "twitter"}

var posterConstructors = map[string]func(context.Context) (social.Poster, error){
	"bluesky": func(ctx context.Context) (social.Poster, error) {
		return bluesky.New(ctx, bluesky.Config{PDSURL: bluesky.DefaultPDSURL})
	},
	"mastodon": func(ctx context.Context) (social.Poster, error) {
		return mastodon.New(ctx)
	},
	"twitter": func(ctx context.Context) (social.Poster, error) {
		return twitter.New(ctx)
	},
}

func normalizeAnnouncers(values []string) ([]string, error) {
	result := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "x" {
			raw = "twitter"
		}
		if raw == "" {
			continue
		}
		if raw == "all" {
			return append([]string(nil), allAnnouncers...), nil
		}
		if _, ok := supportedAnnouncers[raw]; !ok {
			return nil, fmt.Errorf("unsupported announce target %q", raw)
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		result = append(result, raw)
	}

	if len(result) == 0 {
		return nil, errors.New("no announce targets selected")
	}

	sort.Strings(result)
	return result, nil
}

// announceLink picks the URL to share: the first successful public publish
// in target order, preferring the canonical URL when one is set.
func announceLink(post cms.Post, outcomes []outcome) string {
	if post.EffectiveStatus() != cms.StatusPublic {
		return ""
	}
	if post.CanonicalURL != "" {
		return post.CanonicalURL
	}
	for _, o := range outcomes {
		if o.err == nil && o.result != nil && o.result.URL != "" {
			return o.result.URL
		}
	}
	return ""
}

func buildPosters(ctx context.Context, names []string) ([]social.Poster, error) {
	posters := make([]social.Poster, 0, len(names))
	var errs []error
	for _, name := range names {
		constructor, ok := posterConstructors[name]
		if !ok {
			errs = append(errs, fmt.Errorf("announce target %q is not implemented", name))
			continue
		}
		poster, err := constructor(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		posters = append(posters, poster)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return posters, nil
}

func announce(ctx context.Context, out io.Writer, names []string, post cms.Post, outcomes []outcome) error {
	link := announceLink(post, outcomes)
	if link == "" {
		logutil.Warnf("skipping announcements: no public post URL")
		return nil
	}

	posters, err := buildPosters(ctx, names)
	if err != nil {
		return err
	}
	return dispatch(ctx, posters, post, link, out)
}

func dispatch(ctx context.Context, posters []social.Poster, post cms.Post, link string, out io.Writer) error {
	var errs []error
	for _, poster := range posters {
		a := social.Announcement{
			Text:  social.Compose(post.Title, link, post.UniqueTags(), social.LimitFor(poster.Name())),
			Link:  link,
			Title: post.Title,
		}
		fmt.Fprintf(out, "announcing on %s...\n", poster.Name())
		if err := poster.Post(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", poster.Name(), err))
			continue
		}
		fmt.Fprintf(out, "announced on %s\n", poster.Name())
	}

	return errors.Join(errs...)
}
