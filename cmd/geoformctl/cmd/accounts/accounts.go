package accounts

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/pkg/sdk"
)

// AccountsCmd is the parent command for account operations
var AccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Create and look up accounts",
}

func init() {
	createCmd.Flags().StringVar(&createUsername, "username", "", "Email address used as the username")
	createCmd.Flags().StringVar(&createPassword, "password", "", "Password (use --stdin to avoid shell history)")
	createCmd.Flags().BoolVar(&createStdin, "stdin", false, "Read password from stdin instead of --password flag")

	getCmd.Flags().StringVar(&getUsername, "username", "", "Look the account up by username instead of id")

	AccountsCmd.AddCommand(createCmd)
	AccountsCmd.AddCommand(getCmd)
}

func renderAccount(a *sdk.Account) error {
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"ID", "USERNAME", "CREATED_AT"},
		{a.ID, a.Username, a.CreatedAt.Format(time.RFC3339)},
	}).Render()
}
