package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a working copy",
	Long: `Register a working copy on disk. Adding a path that is already
registered is a no-op and reports the existing record.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	path, err := normalizePath(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	repo, err := st.AddRepository(path)
	if err != nil {
		return fmt.Errorf("failed to add repository: %w", err)
	}

	fmt.Printf("Registered %s (id %d)\n", repo.Path, repo.ID)
	return nil
}
