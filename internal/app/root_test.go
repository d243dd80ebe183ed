package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/repovault/internal/github"
	"github.com/blackwell-systems/repovault/internal/store"
)

// runCommand executes the root command with the given arguments.
func runCommand(t *testing.T, args ...string) {
	t.Helper()
	RootCmd.SetArgs(args)
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// openVerifyStore opens the test database for direct inspection.
func openVerifyStore(t *testing.T, dbFile string) *store.Store {
	t.Helper()
	st, err := store.New(dbFile)
	if err != nil {
		t.Fatalf("failed to open verification store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func writeDescriptor(t *testing.T, dir string) string {
	t.Helper()
	desc := github.RepositoryDescriptor{
		Name:          "hello-world",
		Owner:         github.OwnerDescriptor{Login: "OctoCat"},
		Private:       false,
		HTMLURL:       "https://github.com/octocat/hello-world",
		DefaultBranch: "main",
		CloneURL:      "https://github.com/octocat/hello-world.git",
		Parent: &github.RepositoryDescriptor{
			Name:          "hello-world",
			Owner:         github.OwnerDescriptor{Login: "upstream"},
			Private:       false,
			HTMLURL:       "https://github.com/upstream/hello-world",
			DefaultBranch: "main",
			CloneURL:      "https://github.com/upstream/hello-world.git",
		},
	}
	data, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("failed to marshal descriptor: %v", err)
	}
	path := filepath.Join(dir, "descriptor.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}
	return path
}

func TestAddAttachListRemove(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "repovault.db")
	repoPath := filepath.Join(dir, "hello-world")
	if err := os.Mkdir(repoPath, 0755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}
	descPath := writeDescriptor(t, dir)

	runCommand(t, "add", repoPath, "--db", dbFile)

	st := openVerifyStore(t, dbFile)
	repos, err := st.ListRepositories()
	if err != nil {
		t.Fatalf("ListRepositories() failed: %v", err)
	}
	if len(repos) != 1 || repos[0].Path != repoPath {
		t.Fatalf("expected one registered repository at %s, got %v", repoPath, repos)
	}

	runCommand(t, "attach", repoPath,
		"--db", dbFile,
		"--descriptor", descPath,
		"--branches", "main,release",
		"--endpoint", "https://api.github.com")

	repos, err = st.ListRepositories()
	if err != nil {
		t.Fatalf("ListRepositories() failed: %v", err)
	}
	gh := repos[0].GitHubRepository
	if gh == nil {
		t.Fatal("repository should be linked after attach")
	}
	if gh.Owner.Login != "octocat" {
		t.Errorf("owner login = %s, want octocat (lowercased)", gh.Owner.Login)
	}
	if gh.Parent == nil || gh.Parent.Owner.Login != "upstream" {
		t.Error("fork parent should be resolved and linked")
	}

	protected, err := st.IsBranchProtected(gh, "release")
	if err != nil {
		t.Fatalf("IsBranchProtected() failed: %v", err)
	}
	if !protected {
		t.Error("release should be protected after attach")
	}

	runCommand(t, "protected", repoPath, "main", "--db", dbFile)

	runCommand(t, "list", "--db", dbFile)

	runCommand(t, "remove", repoPath, "--db", dbFile)
	repos, err = st.ListRepositories()
	if err != nil {
		t.Fatalf("ListRepositories() failed: %v", err)
	}
	if len(repos) != 0 {
		t.Errorf("expected no repositories after remove, got %d", len(repos))
	}
}

func TestGetDBPathUsesFlag(t *testing.T) {
	orig := dbPath
	t.Cleanup(func() { dbPath = orig })

	dbPath = "/tmp/custom.db"
	path, err := getDBPath()
	if err != nil {
		t.Fatalf("getDBPath() failed: %v", err)
	}
	if path != "/tmp/custom.db" {
		t.Errorf("getDBPath() = %s, want /tmp/custom.db", path)
	}
}
