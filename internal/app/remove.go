package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove a working copy from the store",
	Long: `Remove a registered working copy. Only the metadata record is
deleted; nothing on disk is touched. Remote repository records stay in
place since other working copies may share them.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	path, err := normalizePath(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	repo, err := findByPath(st, path)
	if err != nil {
		return fmt.Errorf("failed to look up repository: %w", err)
	}
	if repo == nil {
		fmt.Printf("%s is not registered\n", path)
		return nil
	}

	if err := st.RemoveRepository(repo.ID); err != nil {
		return fmt.Errorf("failed to remove repository: %w", err)
	}

	fmt.Printf("Removed %s\n", path)
	return nil
}
