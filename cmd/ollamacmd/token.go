package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/ollamacmd/auth/jwt"
	"github.com/kbukum/ollamacmd/validation"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the HTTP bridge",
	Long: `token signs a JWT with bridge.jwt.secret. With --session the token
only grants access to that session's commands and events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "warn")
		if err != nil {
			return err
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}

		session, _ := cmd.Flags().GetString("session")
		if session != "" {
			if err := validation.New().SessionID("session", session).Validate(); err != nil {
				return err
			}
		}
		if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
			cfg.Bridge.JWT.TTL = ttl
		}
		if !cfg.Bridge.JWT.Enabled() {
			return fmt.Errorf("bridge.jwt.secret is not set")
		}

		svc, err := jwt.NewService(&cfg.Bridge.JWT)
		if err != nil {
			return err
		}
		token, err := svc.Generate(session)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("session", "", "bind the token to one session")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default bridge.jwt.ttl)")
	rootCmd.AddCommand(tokenCmd)
}
