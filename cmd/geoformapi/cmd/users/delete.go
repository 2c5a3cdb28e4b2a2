package users

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformapi/cmd/cmdutil"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/repository"
)

var (
	deleteIDFlag       string
	deleteUsernameFlag string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Soft-delete a user account",
	Long:  `Marks an account as deleted. Its bearer tokens are rejected from then on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (deleteIDFlag == "") == (deleteUsernameFlag == "") {
			return fmt.Errorf("exactly one of --id or --username is required")
		}

		rt, err := cmdutil.RuntimeFrom(cmd.Context())
		if err != nil {
			return err
		}

		bundle, err := cmdutil.NewAccountBundle(rt.Config, logging.Component(rt.Logger, "db"))
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := cmd.Context()
		id := deleteIDFlag
		if deleteUsernameFlag != "" {
			account, err := bundle.Service.GetByUsername(ctx, deleteUsernameFlag)
			if err != nil {
				if errors.Is(err, repository.ErrAccountNotFound) {
					return fmt.Errorf("no account with username %q", deleteUsernameFlag)
				}
				return fmt.Errorf("failed to look up account: %w", err)
			}
			id = account.ID
		}

		if err := bundle.Service.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return fmt.Errorf("no account with id %q", id)
			}
			return fmt.Errorf("failed to delete account: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account %s deleted\n", id)
		return nil
	},
}
