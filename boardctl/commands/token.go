package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"boardify-api/api"
	"boardify-api/domain"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <username>",
	Short: "Print a bearer token for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if secretKey == "" {
			return fmt.Errorf("--secret flag or SECRET_KEY is required")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := domain.NewUserService(st, domain.NewBCryptHasher(0), false)
		if err != nil {
			return err
		}
		return issueToken(ctx, cmd.OutOrStdout(), api.NewAuth([]byte(secretKey), tokenTTL, users), users, args[0])
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", api.DefaultTokenTTL, "Token lifetime")
}

type tokenIssuer interface {
	IssueToken(username string) (string, time.Time, error)
}

type userFinder interface {
	UserByUsername(ctx context.Context, username string) (domain.User, error)
}

func issueToken(ctx context.Context, w io.Writer, issuer tokenIssuer, users userFinder, name string) error {
	if _, err := users.UserByUsername(ctx, name); err != nil {
		return fmt.Errorf("user %q: %w", name, err)
	}
	token, expiresAt, err := issuer.IssueToken(name)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"expires_at":   expiresAt.UTC(),
		})
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
