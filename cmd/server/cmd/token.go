package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placedir/server/internal/auth"
)

var (
	tokenSubject string
	tokenRole    string
)

// tokenCmd mints a JWT for local testing against a dev server. It signs with
// the same secret the server loads, so the token is accepted immediately.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a JWT for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if cfg.Environment == "production" {
			return fmt.Errorf("refusing to mint test tokens in production")
		}
		if tokenRole != auth.RoleUser && tokenRole != auth.RoleAdmin {
			return fmt.Errorf("unknown role %q (want %s or %s)", tokenRole, auth.RoleUser, auth.RoleAdmin)
		}

		signer, err := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
		if err != nil {
			return fmt.Errorf("init signer: %w", err)
		}
		token, err := signer.Mint(tokenSubject, tokenRole)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(out, "\nTest with:\ncurl -H 'Authorization: Bearer %s' http://localhost:%d/api/v1/places\n", token, cfg.Server.Port)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "dev-user", "token subject (user id)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleUser, "token role (USER or ADMIN)")
}
