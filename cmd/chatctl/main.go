package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/client"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Command-line client for the HelloB chat service",
	Long: `chatctl talks to the chat API as one user.

Examples:
  # Issue a token for a user (needs CHAT_AUTH_SECRET)
  chatctl token guest-42

  # Open a conversation with a host and follow it
  chatctl open host-7 --user guest-42
  chatctl tail <conversation-id> --user guest-42

  # Apply database migrations
  chatctl migrate`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(tailCmd)

	rootCmd.PersistentFlags().String("server", envOr("CHAT_SERVER", "http://localhost:8080"), "Chat API base URL")
	rootCmd.PersistentFlags().String("token", os.Getenv("CHAT_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().String("user", os.Getenv("CHAT_USER"), "User id, used when the server runs without auth")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Request timeout")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	user, _ := cmd.Flags().GetString("user")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if token == "" && user == "" {
		return nil, fmt.Errorf("either --token or --user is required")
	}
	opts := []client.Option{client.WithTimeout(timeout)}
	if token != "" {
		opts = append(opts, client.WithToken(token))
	} else {
		opts = append(opts, client.WithUserID(user))
	}
	return client.New(server, opts...), nil
}
