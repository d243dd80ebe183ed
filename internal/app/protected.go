package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var protectedCmd = &cobra.Command{
	Use:   "protected <path> <branch>",
	Short: "Check whether a branch is protected on the remote",
	Args:  cobra.ExactArgs(2),
	RunE:  runProtected,
}

func runProtected(cmd *cobra.Command, args []string) error {
	path, err := normalizePath(args[0])
	if err != nil {
		return err
	}
	branch := args[1]

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
		return fmt.Errorf("%s is not registered", path)
	}
	if repo.GitHubRepository == nil {
		return fmt.Errorf("%s is not linked to a remote repository (run 'repovault attach')", path)
	}

	protected, err := st.IsBranchProtected(repo.GitHubRepository, branch)
	if err != nil {
		return fmt.Errorf("failed to check branch protection: %w", err)
	}

	if protected {
		fmt.Printf("%s is protected\n", branch)
	} else {
		fmt.Printf("%s is not protected\n", branch)
	}
	return nil
}
