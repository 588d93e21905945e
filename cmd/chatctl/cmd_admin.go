package main

import (
	"fmt"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/database"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue a signed token for a user",
	Long:  `Sign a JWT for the given user with the service's CHAT_AUTH_SECRET.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres migrations",
	Long:  `Run all pending migrations against CHAT_DATABASE_URL.`,
	RunE:  runMigrate,
}

func loadConfig() (*config.Config, error) {
	config.LoadEnvFiles()
	return config.Load()
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AuthSecret == "" {
		return fmt.Errorf("CHAT_AUTH_SECRET is not set")
	}
	cfg.AuthEnabled = true

	token, err := auth.NewValidator(cfg, zerolog.Nop()).Issue(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("CHAT_DATABASE_URL is not set")
	}
	version, err := database.Migrate(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
	return nil
}
