package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dharmasync/internal/auth"
	"github.com/sandeepkv93/dharmasync/internal/model"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenName   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID == "" {
			return fmt.Errorf("--user is required")
		}
		if err := cfg.RequireAuthSecret(); err != nil {
			return err
		}
		issuer, err := auth.NewIssuer([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
		if err != nil {
			return err
		}
		token, _, err := issuer.Issue(model.User{ID: tokenUserID, Email: tokenEmail, Name: tokenName})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id to embed in the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name claim")
}
