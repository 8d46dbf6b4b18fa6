package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vetlabs/vetassist/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetassistd",
		Short: "Vetassist daemon and admin CLI",
		Long:  "Vetassist daemon for running the API server and managing the knowledge index",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.ResetCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
