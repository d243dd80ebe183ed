package store

import (
	"testing"
	"time"
)

const testEndpoint = "https://api.github.com"

func TestUpsertRepositoryTwiceSameIdentity(t *testing.T) {
	store := newTestStore(t)

	desc := testDescriptor("octocat", "hello-world", nil)

	first, err := store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}
	second, err := store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() (repeat) failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("repeated upsert returned ID %d, want %d", second.ID, first.ID)
	}
	if got := countRows(t, store, "github_repositories"); got != 1 {
		t.Errorf("github_repositories rows = %d, want 1", got)
	}
	if got := countRows(t, store, "owners"); got != 1 {
		t.Errorf("owners rows = %d, want 1", got)
	}
}

func TestUpsertRepositoryForkChain(t *testing.T) {
	store := newTestStore(t)

	// grandparent <- parent <- fork, three levels deep
	grandparent := testDescriptor("upstream", "project", nil)
	parent := testDescriptor("middle", "project", grandparent)
	fork := testDescriptor("octocat", "project", parent)

	repo, err := store.UpsertRepository(testEndpoint, fork)
	if err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}

	if got := countRows(t, store, "github_repositories"); got != 3 {
		t.Errorf("github_repositories rows = %d, want 3", got)
	}

	// The returned snapshot carries the chain as nested values.
	if repo.Parent == nil {
		t.Fatal("fork should have a parent")
	}
	if repo.Parent.Owner.Login != "middle" {
		t.Errorf("parent owner = %s, want middle", repo.Parent.Owner.Login)
	}
	if repo.Parent.Parent == nil {
		t.Fatal("parent should have a parent")
	}
	if repo.Parent.Parent.Owner.Login != "upstream" {
		t.Errorf("grandparent owner = %s, want upstream", repo.Parent.Parent.Owner.Login)
	}
	if repo.Parent.Parent.Parent != nil {
		t.Error("chain should end at the grandparent")
	}
}

func TestUpsertRepositoryLowercasesOwnerLogin(t *testing.T) {
	store := newTestStore(t)

	upper := testDescriptor("OctoCat", "hello-world", nil)
	repo, err := store.UpsertRepository(testEndpoint, upper)
	if err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}
	if repo.Owner.Login != "octocat" {
		t.Errorf("owner login = %s, want octocat", repo.Owner.Login)
	}

	// A differently-cased login is the same owner, not a new row.
	lower := testDescriptor("octocat", "other-repo", nil)
	lower.CloneURL = "https://github.com/octocat/other-repo.git"
	if _, err := store.UpsertRepository(testEndpoint, lower); err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}
	if got := countRows(t, store, "owners"); got != 1 {
		t.Errorf("owners rows = %d, want 1", got)
	}
}

func TestUpsertRepositorySeparateEndpointsSeparateOwners(t *testing.T) {
	store := newTestStore(t)

	desc := testDescriptor("octocat", "hello-world", nil)
	if _, err := store.UpsertRepository(testEndpoint, desc); err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}

	enterprise := testDescriptor("octocat", "hello-world", nil)
	enterprise.CloneURL = "https://ghe.example.com/octocat/hello-world.git"
	if _, err := store.UpsertRepository("https://ghe.example.com/api/v3", enterprise); err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}

	if got := countRows(t, store, "owners"); got != 2 {
		t.Errorf("owners rows = %d, want 2 (one per endpoint)", got)
	}
}

func TestUpsertRepositoryPreservesPruneDate(t *testing.T) {
	store := newTestStore(t)

	desc := testDescriptor("octocat", "hello-world", nil)
	repo, err := store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}

	pruned := time.Now().UTC().Truncate(time.Second)
	if err := store.SetLastPruneDate(repo, pruned); err != nil {
		t.Fatalf("SetLastPruneDate() failed: %v", err)
	}

	// Refresh remote metadata; the local-only prune date must survive.
	desc.DefaultBranch = "trunk"
	updated, err := store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() (refresh) failed: %v", err)
	}
	if updated.LastPruneDate == nil || !updated.LastPruneDate.Equal(pruned) {
		t.Errorf("prune date after fast-path upsert = %v, want %v", updated.LastPruneDate, pruned)
	}

	// The clone-URL fast path does not rewrite the row, so force the
	// slow path too by changing the clone URL.
	desc.CloneURL = "git@github.com:octocat/hello-world.git"
	updated, err = store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() (clone URL change) failed: %v", err)
	}

	if updated.LastPruneDate == nil {
		t.Fatal("prune date should survive an identity upsert")
	}
	if !updated.LastPruneDate.Equal(pruned) {
		t.Errorf("prune date = %v, want %v", updated.LastPruneDate, pruned)
	}
	if updated.ID != repo.ID {
		t.Errorf("identifier changed across upsert: %d != %d", updated.ID, repo.ID)
	}
	if updated.DefaultBranch != "trunk" {
		t.Errorf("default branch = %s, want trunk (remote fields replaced)", updated.DefaultBranch)
	}
}

func TestUpsertRepositoryPreservesProtectedBranches(t *testing.T) {
	store := newTestStore(t)

	repo := attachTestRemote(t, store, "/home/user/src/hello-world", branchList("main", "release"))
	gh := repo.GitHubRepository

	// Metadata refresh that misses the clone-URL fast path and rewrites
	// the existing (owner, name) row.
	desc := testDescriptor("octocat", "hello-world", nil)
	desc.CloneURL = "git@github.com:octocat/hello-world.git"
	updated, err := store.UpsertRepository(testEndpoint, desc)
	if err != nil {
		t.Fatalf("UpsertRepository() (clone URL change) failed: %v", err)
	}
	if updated.ID != gh.ID {
		t.Fatalf("identifier changed across upsert: %d != %d", updated.ID, gh.ID)
	}

	if got := countRows(t, store, "protected_branches"); got != 2 {
		t.Errorf("protected_branches rows = %d, want 2 after metadata refresh", got)
	}

	// Answer from storage, not from the cache entries written during
	// attach.
	store.purgeProtection(gh.ID)
	for _, branch := range []string{"main", "release"} {
		protected, err := store.IsBranchProtected(updated, branch)
		if err != nil {
			t.Fatalf("IsBranchProtected(%s) failed: %v", branch, err)
		}
		if !protected {
			t.Errorf("IsBranchProtected(%s) = false, want true after metadata refresh", branch)
		}
	}
}

func TestRepositoryByIDNotFound(t *testing.T) {
	store := newTestStore(t)

	repo, err := store.RepositoryByID(999)
	if err != nil {
		t.Fatalf("RepositoryByID() failed: %v", err)
	}
	if repo != nil {
		t.Errorf("RepositoryByID() = %+v, want nil for unknown id", repo)
	}
}

func TestRepositoryByIDReconstructsChain(t *testing.T) {
	store := newTestStore(t)

	parent := testDescriptor("upstream", "project", nil)
	fork := testDescriptor("octocat", "project", parent)

	created, err := store.UpsertRepository(testEndpoint, fork)
	if err != nil {
		t.Fatalf("UpsertRepository() failed: %v", err)
	}

	loaded, err := store.RepositoryByID(created.ID)
	if err != nil {
		t.Fatalf("RepositoryByID() failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("RepositoryByID() returned nil for a persisted repository")
	}
	if loaded.Parent == nil || loaded.Parent.Owner.Login != "upstream" {
		t.Error("reconstruction should include the parent chain")
	}
	if loaded.CloneURL != fork.CloneURL {
		t.Errorf("clone URL = %s, want %s", loaded.CloneURL, fork.CloneURL)
	}
}
