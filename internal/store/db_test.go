package store

import (
	"testing"

	"github.com/blackwell-systems/repovault/internal/github"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := New(":memory:", opts...)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}

// countRows returns the number of rows in the named table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// testDescriptor builds a remote repository descriptor with the given
// fork lineage, outermost first.
func testDescriptor(login, name string, parent *github.RepositoryDescriptor) *github.RepositoryDescriptor {
	return &github.RepositoryDescriptor{
		Name:          name,
		Owner:         github.OwnerDescriptor{Login: login},
		Private:       false,
		HTMLURL:       "https://github.com/" + login + "/" + name,
		DefaultBranch: "main",
		CloneURL:      "https://github.com/" + login + "/" + name + ".git",
		Parent:        parent,
	}
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
	if !store.trackProtection {
		t.Error("branch protection tracking should default to enabled")
	}
}

func TestNewWithBranchProtectionDisabled(t *testing.T) {
	store, err := New(":memory:", WithBranchProtection(false))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.trackProtection {
		t.Error("WithBranchProtection(false) should disable tracking")
	}
}

func TestCreateSchema(t *testing.T) {
	store := newTestStore(t)

	// Verify tables exist by querying sqlite_master
	tables := []string{"owners", "github_repositories", "protected_branches", "local_repositories"}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Verify indexes exist
	indexes := []string{"idx_github_repos_clone_url", "idx_github_repos_owner", "idx_protected_repo"}
	for _, index := range indexes {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}
}

func TestCreateSchemaIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateSchema(); err != nil {
		t.Errorf("CreateSchema() should be idempotent: %v", err)
	}
}
