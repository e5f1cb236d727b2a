package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/history"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/blacktop/xpublish/internal/markdown"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	targetsFlag      []string
	statusFlag       string
	tagsFlag         []string
	titleFlag        string
	canonicalURLFlag string
	notifyFlag       bool
	rendererFlag     string
	announceFlag     []string
	dryRun           bool
	recordHistory    bool
)

func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [file]",
		Short: "Publish a markdown post",
		Long: "Publish reads a markdown file (or stdin) with optional front matter and publishes it " +
			"to every selected platform concurrently. Flags override front matter values.",
		Args: cobra.MaximumNArgs(1),
		RunE: runPublish,
		Example: `  xpublish publish post.md --target ghost,wordpress --status public --tag go
  xpublish publish post.md --dry-run`,
	}

	cmd.Flags().StringSliceVarP(&targetsFlag, "target", "t", nil, "Platforms to publish to (ghost, medium, notion, shopify, webflow, wordpress, or all)")
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Publish status: draft, public or unlisted")
	cmd.Flags().StringSliceVar(&tagsFlag, "tag", nil, "Tags to add to the post")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Post title")
	cmd.Flags().StringVar(&canonicalURLFlag, "canonical-url", "", "Canonical URL of the original post")
	cmd.Flags().BoolVar(&notifyFlag, "notify", false, "Notify followers where the platform supports it")
	cmd.Flags().StringVar(&rendererFlag, "renderer", "", "Markdown renderer: builtin or goldmark")
	cmd.Flags().StringSliceVar(&announceFlag, "announce", nil, "Announce the published post on bluesky, mastodon, twitter, or all")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print actions without publishing")
	cmd.Flags().BoolVar(&recordHistory, "history", true, "Record successful publishes in the history database")
	cmd.Flags().SortFlags = false

	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	post, err := buildPost(cmd, src)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if rendererFlag != "" {
		cfg.Renderer = rendererFlag
	}

	targets, err := resolveTargets(targetsFlag, cfg)
	if err != nil {
		return err
	}

	var posters []string
	if len(announceFlag) > 0 {
		if posters, err = normalizeAnnouncers(announceFlag); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if dryRun {
		for _, t := range targets {
			fmt.Fprintf(out, "[dry-run] would publish %q to %s as %s\n", post.Title, t.adapter.Name(), post.EffectiveStatus())
		}
		for _, name := range posters {
			fmt.Fprintf(out, "[dry-run] would announce on %s\n", name)
		}
		return nil
	}

	outcomes := publishAll(ctx, targets, post)

	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			fmt.Fprintf(out, "%s: failed: %v\n", o.target.adapter.Name(), o.err)
			errs = append(errs, fmt.Errorf("%s: %w", o.target.platform, o.err))
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", o.target.adapter.Name(), o.result.URL)
	}

	if recordHistory {
		if err := saveHistory(ctx, post, outcomes); err != nil {
			logutil.Warnf("history not recorded: %v", err)
		}
	}

	if len(posters) > 0 {
		if err := announce(ctx, out, posters, post, outcomes); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func readSource(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read post: %w", err)
		}
		return data, nil
	}

	stdin := cmd.InOrStdin()
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return nil, errors.New("no post given: pass a markdown file or pipe one on stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("post is empty")
	}
	return data, nil
}

func buildPost(cmd *cobra.Command, src []byte) (cms.Post, error) {
	doc, err := markdown.ParseDocument(src)
	if err != nil {
		return cms.Post{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		doc.Title = titleFlag
	}
	if flags.Changed("status") {
		doc.Status = statusFlag
	}
	if flags.Changed("canonical-url") {
		doc.CanonicalURL = canonicalURLFlag
	}
	if flags.Changed("notify") {
		doc.NotifyFollowers = notifyFlag
	}
	doc.Tags = append(doc.Tags, tagsFlag...)

	post, err := doc.Post()
	if err != nil {
		return cms.Post{}, err
	}
	if err := post.Validate(); err != nil {
		return cms.Post{}, err
	}
	return post, nil
}

type outcome struct {
	target target
	result *cms.PublishResult
	err    error
}

// publishAll publishes post to every target concurrently. Outcomes keep the
// order of targets.
func publishAll(ctx context.Context, targets []target, post cms.Post) []outcome {
	outcomes := make([]outcome, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log := logutil.With("platform", t.platform)
			start := time.Now()
			res, err := t.adapter.Publish(ctx, post)
			if err != nil {
				log.Debug("publish failed", "err", err, "took", time.Since(start))
			} else {
				log.Debug("published", "url", res.URL, "took", time.Since(start))
			}
			outcomes[i] = outcome{target: t, result: res, err: err}
		}()
	}
	wg.Wait()

	return outcomes
}

func saveHistory(ctx context.Context, post cms.Post, outcomes []outcome) error {
	path, err := resolveHistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var errs []error
	for _, o := range outcomes {
		if o.err != nil || o.result == nil {
			continue
		}
		_, err := store.Record(ctx, history.Entry{
			Platform: string(o.target.platform),
			PostID:   o.result.PostID,
			URL:      o.result.URL,
			Title:    post.Title,
			Status:   string(post.EffectiveStatus()),
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func resolveHistoryPath() (string, error) {
	if historyPath != "" {
		return historyPath, nil
	}
	if env := os.Getenv("XPUBLISH_HISTORY_DB"); env != "" {
		return env, nil
	}
	return history.DefaultPath()
}
