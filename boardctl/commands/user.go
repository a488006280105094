package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"boardify-api/domain"
)

var (
	// User flags
	username   string
	password   string
	bcryptCost int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// userCreateCmd registers an account even when self-registration is disabled
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := domain.NewUserService(st, domain.NewBCryptHasher(bcryptCost), true)
		if err != nil {
			return err
		}
		return createUser(ctx, cmd.OutOrStdout(), users, domain.Credentials{Username: username, Password: password})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	userCreateCmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	userCreateCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 10, "bcrypt cost")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}

type registrar interface {
	Register(ctx context.Context, c domain.Credentials) (domain.User, error)
}

func createUser(ctx context.Context, w io.Writer, users registrar, creds domain.Credentials) error {
	u, err := users.Register(ctx, creds)
	if err != nil {
		return fmt.Errorf("create user %q: %w", creds.Username, err)
	}
	if jsonOutput {
		return writeJSON(w, u)
	}
	_, err = fmt.Fprintf(w, "created user %s (%s)\n", u.Username, u.ID)
	return err
}
