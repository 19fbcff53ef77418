package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/FixtureCharts/src/api"
	"github.com/iafilius/FixtureCharts/src/config"
)

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the chart API",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := api.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.CookieName, cfg.Auth.Issuer)
			tok, err := auth.IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
