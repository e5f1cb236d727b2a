package cmd

import (
	"errors"
	"fmt"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/spf13/cobra"
)

func newWhoamiCommand() *cobra.Command {
	var targets []string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind each configured platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			resolved, err := resolveTargets(targets, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, t := range resolved {
				user, err := t.adapter.GetUser(ctx)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", t.platform, err))
					continue
				}
				fmt.Fprintf(out, "%s: %s", t.adapter.Name(), displayUser(user))
				if user.URL != "" {
					fmt.Fprintf(out, " <%s>", user.URL)
				}
				fmt.Fprintln(out)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Platforms to query (default: all configured)")
	return cmd
}

func displayUser(u *cms.User) string {
	switch {
	case u.Name != "" && u.Username != "" && u.Name != u.Username:
		return fmt.Sprintf("%s (@%s)", u.Name, u.Username)
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	}
	return u.ID
}

func newPublicationsCommand() *cobra.Command {
	var targets []string
	cmd := &cobra.Command{
		Use:   "publications",
		Short: "List publish destinations such as Medium publications or Shopify blogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			resolved, err := resolveTargets(targets, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, t := range resolved {
				lister, ok := t.adapter.(cms.PublicationLister)
				if !ok {
					continue
				}
				pubs, err := lister.GetPublications(ctx)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", t.platform, err))
					continue
				}
				fmt.Fprintf(out, "%s:\n", t.adapter.Name())
				if len(pubs) == 0 {
					fmt.Fprintln(out, "  (none)")
				}
				for _, p := range pubs {
					fmt.Fprintf(out, "  %s\t%s", p.ID, p.Name)
					if p.URL != "" {
						fmt.Fprintf(out, "\t%s", p.URL)
					}
					fmt.Fprintln(out)
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Platforms to query (default: all configured)")
	return cmd
}
