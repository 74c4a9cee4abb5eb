package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gobarber/backend/internal/auth"
)

var tokenUserID string

// tokenCmd signs a bearer token for local testing against the API.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for a user id",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := cfg.RequireSecret()
		if err != nil {
			return err
		}
		userID, err := uuid.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}
		token, err := auth.Issue(secret, userID, cfg.TokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id to put in the token subject")
	_ = tokenCmd.MarkFlagRequired("user")
}
