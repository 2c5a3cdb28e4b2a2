package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for account management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long:  `Commands for managing user accounts directly from the server.`,
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Email address used as the username")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the account (use --stdin to avoid shell history)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	deleteCmd.Flags().StringVar(&deleteIDFlag, "id", "", "Id of the account to delete")
	deleteCmd.Flags().StringVar(&deleteUsernameFlag, "username", "", "Username of the account to delete")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(deleteCmd)
}
