package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repovault/internal/config"
	"github.com/blackwell-systems/repovault/internal/github"
)

var (
	attachDescriptorPath string
	attachBranches       string
	attachEndpoint       string

	attachCmd = &cobra.Command{
		Use:   "attach <path>",
		Short: "Link a working copy to its remote repository",
		Long: `Link a registered working copy to its remote identity and refresh
the protected-branch set.

repovault performs no network fetches; the remote metadata comes from
a descriptor document (the repository shape returned by the hosting
service API) read from --descriptor. The owner, fork lineage, and
repository records are deduplicated into canonical rows.

The endpoint defaults to the config file at
$XDG_CONFIG_HOME/repovault/endpoint, then to the public API.`,
		Example: `  # Link and record two protected branches
  repovault attach ~/src/hello --descriptor hello.json --branches main,release

  # Enterprise instance
  repovault attach ~/src/hello --descriptor hello.json --endpoint https://ghe.example.com/api/v3`,
		Args: cobra.ExactArgs(1),
		RunE: runAttach,
	}
)

func init() {
	attachCmd.Flags().StringVar(&attachDescriptorPath, "descriptor", "", "path to the repository descriptor JSON (required)")
	attachCmd.Flags().StringVar(&attachBranches, "branches", "", "comma-separated protected branch names")
	attachCmd.Flags().StringVar(&attachEndpoint, "endpoint", "", "hosting-service API endpoint")
	attachCmd.MarkFlagRequired("descriptor")
}

func runAttach(cmd *cobra.Command, args []string) error {
	path, err := normalizePath(args[0])
	if err != nil {
		return err
	}

	desc, err := loadDescriptor(attachDescriptorPath)
	if err != nil {
		return err
	}

	endpoint := attachEndpoint
	if endpoint == "" {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to locate config directory: %w", err)
		}
		endpoint, err = config.LoadEndpoint(dir)
		if err != nil {
			return fmt.Errorf("failed to load endpoint config: %w", err)
		}
	}

	var branches []github.BranchDescriptor
	if attachBranches != "" {
		for _, name := range strings.Split(attachBranches, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			branches = append(branches, github.BranchDescriptor{Name: name})
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// Registering is idempotent, so attach works whether or not the
	// path was added beforehand.
	repo, err := st.AddRepository(path)
	if err != nil {
		return fmt.Errorf("failed to register repository: %w", err)
	}

	attached, err := st.AttachGitHubRepository(repo, endpoint, desc, branches)
	if err != nil {
		return fmt.Errorf("failed to attach remote repository: %w", err)
	}

	gh := attached.GitHubRepository
	fmt.Printf("Linked %s to %s/%s\n", attached.Path, gh.Owner.Login, gh.Name)
	if len(branches) > 0 {
		fmt.Printf("Recorded %d protected branch(es)\n", len(branches))
	}
	return nil
}

func loadDescriptor(path string) (*github.RepositoryDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	var desc github.RepositoryDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if desc.Name == "" || desc.Owner.Login == "" {
		return nil, fmt.Errorf("descriptor must carry name and owner.login")
	}
	return &desc, nil
}
