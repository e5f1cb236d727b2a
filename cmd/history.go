package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/blacktop/xpublish/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit    int
		platform string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveHistoryPath()
			if err != nil {
				return err
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []history.Entry
			if platform != "" {
				entries, err = store.ForPlatform(cmd.Context(), strings.ToLower(platform))
			} else {
				entries, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PUBLISHED\tPLATFORM\tSTATUS\tTITLE\tURL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.PublishedAt.Local().Format(time.DateTime), e.Platform, e.Status, e.Title, e.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only show one platform")
	return cmd
}
