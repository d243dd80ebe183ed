package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repovault/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered working copies",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	repos, err := st.ListRepositories()
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	fmt.Print(output.RenderRepositoryTable(repos))
	return nil
}
