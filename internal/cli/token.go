package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pwaspark/pwagen/internal/auth"
)

func newTokenCommand(opts *globalOptions) *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with auth.jwtsecret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			v, err := auth.NewVerifier(settings.Auth.JWTSecret, settings.Auth.Issuer, settings.Auth.Audience)
			if err != nil {
				return err
			}
			token, err := v.Issue(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID to put in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
