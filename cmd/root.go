/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"

	"github.com/blacktop/xpublish/internal/cms/factory"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	historyPath string
)

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which cancels in-flight
// publishes when done.
func ExecuteContext(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xpublish",
		Short: "Publish markdown to blogging platforms",
		Long: "xpublish publishes one markdown post to Ghost, Medium, Notion, Shopify, Webflow and WordPress, " +
			"then optionally announces it on Bluesky, Mastodon and X.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logutil.SetVerbose(verbose)
		},
		Example: `  xpublish publish post.md --target ghost --target medium --status public
  cat post.md | xpublish publish --target all --announce bluesky,mastodon
  xpublish whoami`,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML integrations file (environment variables take precedence)")
	cmd.PersistentFlags().StringVar(&historyPath, "history-db", "", "Path to the publish history database")

	cmd.AddCommand(
		newPublishCommand(),
		newWhoamiCommand(),
		newPublicationsCommand(),
		newWordPressCommand(),
		newHistoryCommand(),
		newCompletionCommand(),
	)

	return cmd
}

func loadConfig(ctx context.Context) (factory.Config, error) {
	return factory.Load(ctx, configPath, envconfig.OsLookuper())
}
