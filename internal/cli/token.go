package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kanban/internal/auth"
	"kanban/internal/storage"
)

// NewTokenCommand creates the token command, which signs a bearer token for
// an existing user.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive user id")
			}
			cfg, store, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if cfg.JWTSecret == "" {
				return errors.New("jwtSecret is required to sign tokens (set KANBAN_JWT_SECRET)")
			}
			if _, err := store.GetUser(cmd.Context(), userID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("user %d does not exist", userID)
				}
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.TokenTTL.Duration
			}

			token, err := auth.IssueToken([]byte(cfg.JWTSecret), userID, ttl)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry (default from config)")

	return cmd
}
