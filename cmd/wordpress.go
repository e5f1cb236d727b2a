package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blacktop/xpublish/internal/cms/wordpress"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newWordPressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordpress",
		Short: "WordPress.com OAuth helpers",
	}
	cmd.AddCommand(newWordPressAuthURLCommand(), newWordPressExchangeCommand())
	return cmd
}

func newWordPressAuthURLCommand() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the WordPress.com authorization URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			authURL, issued, err := wordpress.AuthorizationURL(cfg.WordPressOAuth, state)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, authURL)
			fmt.Fprintf(out, "state: %s\n", issued)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "State value to round-trip (random when empty)")
	return cmd
}

func newWordPressExchangeCommand() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "exchange --code CODE",
		Short: "Exchange an authorization code for an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.WordPressOAuth.ClientSecret == "" {
				secret, err := promptSecret(cmd, "WordPress.com client secret: ")
				if err != nil {
					return err
				}
				cfg.WordPressOAuth.ClientSecret = secret
			}

			tok, err := wordpress.ExchangeCode(cmd.Context(), cfg.WordPressOAuth, code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "access token: %s\n", tok.AccessToken)
			if tok.BlogURL != "" {
				fmt.Fprintf(out, "blog: %s (%s)\n", tok.BlogURL, tok.BlogID)
			}
			if tok.Scope != "" {
				fmt.Fprintf(out, "scope: %s\n", tok.Scope)
			}
			fmt.Fprintln(out, "set XPUBLISH_WORDPRESS_ACCESS_TOKEN to use it")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the redirect")
	cmd.MarkFlagRequired("code")
	return cmd
}

func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	file, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return "", errors.New("client secret not configured: set XPUBLISH_WORDPRESS_OAUTH_CLIENT_SECRET")
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	secret, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
