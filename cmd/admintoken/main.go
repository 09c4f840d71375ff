// Command admintoken mints and inspects the bearer tokens accepted by the
// admin API.
//
//	admintoken issue --email jj@a.test --hosts go.a.test --ttl 720h
//	admintoken verify <token>
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"url-redirector/internal/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var secret string

	root := &cobra.Command{
		Use:           "admintoken",
		Short:         "Mint and inspect admin tokens for the redirect server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if secret != "" {
				return nil
			}
			_ = godotenv.Load()
			secret = os.Getenv("ADMIN_JWT_SECRET")
			if secret == "" {
				return errors.New("no signing secret: pass --secret or set ADMIN_JWT_SECRET")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&secret, "secret", "", "HMAC signing secret (default $ADMIN_JWT_SECRET)")

	root.AddCommand(newIssueCmd(&secret), newVerifyCmd(&secret))
	return root
}

func newIssueCmd(secret *string) *cobra.Command {
	var (
		hosts []string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue --email EMAIL [--email EMAIL...]",
		Short: "Print an admin token for each email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			emails, err := cmd.Flags().GetStringSlice("email")
			if err != nil {
				return err
			}
			if len(emails) == 0 {
				return errors.New("at least one --email is required")
			}
			now := time.Now()
			for _, email := range emails {
				email = strings.TrimSpace(email)
				tok, err := auth.Issue(*secret, email, hosts, ttl, now)
				if err != nil {
					return fmt.Errorf("issue token for %s: %w", email, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", email, tok)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("email", nil, "admin identity to embed (repeatable)")
	cmd.Flags().StringSliceVar(&hosts, "hosts", nil, "restrict the token to these hosts (default: all hosts)")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}

func newVerifyCmd(secret *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := auth.NewVerifier(*secret).Claims(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
}
