package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vetlabs/vetassist/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetassist",
		Short: "Vetassist CLI - Spanish-language veterinary assistant",
		Long: `Vetassist CLI talks to a running vetassist API server.

Environment variables:
  VETASSIST_API_KEY   Service token for authentication (omit when the server runs without auth)
  VETASSIST_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-key", "", "Service token for authentication (overrides env)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")

	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.HealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
