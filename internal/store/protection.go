package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/blackwell-systems/repovault/internal/github"
)

// branchKey addresses one branch of one remote repository in the
// protection cache.
type branchKey struct {
	repoID int64
	name   string
}

// IsBranchProtected reports whether the remote enforces protection on
// the named branch of repo. The cache is consulted first; a miss
// falls through to the protected_branches table. Only positive
// answers are cached, so a branch that is not protected costs a
// storage lookup every time. A store opened with protection tracking
// disabled answers false without consulting rows an earlier run may
// have left behind. Fails with ErrIntegrity if repo was never
// persisted.
func (s *Store) IsBranchProtected(repo *GitHubRepository, branch string) (bool, error) {
	if repo == nil || repo.ID == 0 {
		return false, fmt.Errorf("github repository was never persisted: %w", ErrIntegrity)
	}
	if !s.trackProtection {
		return false, nil
	}

	key := branchKey{repoID: repo.ID, name: branch}
	if protected, ok := s.protection.Get(key); ok {
		return protected, nil
	}

	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM protected_branches WHERE repo_id = ? AND name = ?`,
		repo.ID, branch,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up protected branch %s: %w", branch, err)
	}

	s.protection.Add(key, true)
	return true, nil
}

// purgeProtection drops every cache entry belonging to one remote
// repository.
func (s *Store) purgeProtection(repoID int64) {
	for _, key := range s.protection.Keys() {
		if key.repoID == repoID {
			s.protection.Remove(key)
		}
	}
}

// replaceProtectedBranches swaps the stored branch set for a remote
// repository: delete everything, then insert the new list. The rows
// are never patched incrementally.
func (s *Store) replaceProtectedBranches(tx dbtx, repoID int64, branches []github.BranchDescriptor) error {
	if _, err := tx.Exec(
		`DELETE FROM protected_branches WHERE repo_id = ?`, repoID,
	); err != nil {
		return fmt.Errorf("failed to clear protected branches for repository %d: %w", repoID, err)
	}

	for _, b := range branches {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO protected_branches (repo_id, name) VALUES (?, ?)`,
			repoID, b.Name,
		); err != nil {
			return fmt.Errorf("failed to insert protected branch %s: %w", b.Name, err)
		}
	}
	return nil
}
