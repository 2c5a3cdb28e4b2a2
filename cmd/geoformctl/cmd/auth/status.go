package auth

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		client, err := cfg.ClientProvider.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		me, err := client.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to verify token: %w", err)
		}

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printf("Account ID: %s\n", me.ID)
		pterm.Info.Printf("Username: %s\n", me.Username)
		if creds, err := cfg.ClientProvider.Credentials(); err == nil && creds != nil {
			pterm.Info.Printf("Token expires at: %s\n", creds.ExpiresAt.Format(time.RFC1123))
		}
		return nil
	},
}
