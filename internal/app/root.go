package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath             string
	noBranchProtection bool

	// RootCmd is the root command for repovault
	RootCmd = &cobra.Command{
		Use:   "repovault",
		Short: "Local metadata store for hosting-service repositories",
		Long: `repovault keeps a normalized local database of the repositories you
work with: remote owners and repositories (including fork lineage),
protected branches, and the working copies on disk that map to them.

It never talks to the network itself. Remote metadata enters through
descriptor documents produced by a hosting-service API client, and
repovault deduplicates them into canonical records.

Examples:
  # Register a working copy
  repovault add ~/src/hello-world

  # Link it to its remote identity
  repovault attach ~/src/hello-world --descriptor repo.json --branches main,release

  # Show everything repovault knows
  repovault list

  # Is a branch protected on the remote?
  repovault protected ~/src/hello-world main

  # Keep missing flags in sync with the filesystem
  repovault watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("repovault: local metadata store for hosting-service repositories")
			fmt.Println()
			fmt.Println("Run 'repovault list' to see registered repositories.")
			fmt.Println("Run 'repovault --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.repovault/repovault.db)")
	RootCmd.PersistentFlags().BoolVar(&noBranchProtection, "no-branch-protection", false, "do not persist protected-branch data")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(addCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(attachCmd)
	RootCmd.AddCommand(protectedCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	// Create .repovault directory if it doesn't exist
	vaultDir := filepath.Join(home, ".repovault")
	if err := os.MkdirAll(vaultDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create repovault directory: %w", err)
	}

	return filepath.Join(vaultDir, "repovault.db"), nil
}
