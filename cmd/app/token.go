package main

import (
	"fmt"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/spf13/cobra"
)

var (
	tokenCaller string
	tokenRole   string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token for a caller",
	RunE:  mintToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenCaller, "id", "", "caller id, e.g. livreur1")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "client, restaurant, manager or driver")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("id")
	_ = tokenCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(tokenCmd)
}

func mintToken(c *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	role, err := kernel.ParseRole(tokenRole)
	if err != nil {
		return err
	}
	ttl := tokenTTL
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := httpin.IssueToken([]byte(cfg.Auth.JWTSecret), tokenCaller, role, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.OutOrStdout(), token)
	return nil
}
