package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boardify-api/storage"
)

var (
	// Global flags
	dbURL      string
	secretKey  string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "Administer a Boardify deployment",
	Long: `boardctl talks to the Boardify PostgreSQL database directly.

Examples:
  boardctl user create --username alice --password s3cret
  boardctl token issue alice
  boardctl boards list --json`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", os.Getenv("DATABASE_URL"), "Database connection URL (defaults to $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&secretKey, "secret", os.Getenv("SECRET_KEY"), "Token signing secret (defaults to $SECRET_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func openStore(ctx context.Context) (*storage.Storage, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("--db flag or DATABASE_URL is required")
	}
	st, err := storage.New(ctx, dbURL, storage.Options{MaxConns: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return st, nil
}
