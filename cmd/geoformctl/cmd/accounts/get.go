package accounts

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/config"
	"github.com/terraconstructs/geoform/pkg/sdk"
)

var getUsername string

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show an account by id or username",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		client, err := cfg.ClientProvider.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		var account *sdk.Account
		switch {
		case getUsername != "" && len(args) == 0:
			account, err = client.FindAccount(cmd.Context(), getUsername)
		case getUsername == "" && len(args) == 1:
			account, err = client.GetAccount(cmd.Context(), args[0])
		case getUsername == "" && len(args) == 0:
			account, err = client.Me(cmd.Context())
		default:
			return fmt.Errorf("pass either an id or --username, not both")
		}
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}

		return renderAccount(account)
	},
}
