package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/blackwell-systems/repovault/internal/github"
)

// AddRepository registers a working copy by path. Adding a path that
// is already registered returns the existing record instead of
// creating a second row; path uniqueness is enforced here, not by a
// schema constraint.
func (s *Store) AddRepository(path string) (*LocalRepository, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	repo, err := s.addRepository(tx, path)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit repository add: %w", err)
	}

	s.changed()
	return repo, nil
}

func (s *Store) addRepository(tx dbtx, path string) (*LocalRepository, error) {
	var id int64
	err := tx.QueryRow(
		`SELECT id FROM local_repositories WHERE path = ?`, path,
	).Scan(&id)
	switch {
	case err == nil:
		// already registered; reuse the row
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`
			INSERT INTO local_repositories (path, github_repository_id, missing, last_stash_check_date)
			VALUES (?, NULL, 0, NULL)`, path,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert local repository %s: %w", path, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get local repository ID: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up local repository %s: %w", path, err)
	}

	repo, err := s.localByID(tx, id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("local repository %d vanished during add: %w", id, ErrIntegrity)
	}
	return repo, nil
}

// RemoveRepository deletes a working copy record. The delete is
// idempotent: removing an id that was never added is not an error,
// and subscribers are notified either way.
func (s *Store) RemoveRepository(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM local_repositories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete local repository %d: %w", id, err)
	}
	s.stash.Remove(id)
	s.changed()
	return nil
}

// ListRepositories returns every registered working copy with its
// linked remote repository reconstructed. Ordering follows the
// storage scan and is not guaranteed stable.
func (s *Store) ListRepositories() ([]*LocalRepository, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Collect the scan results first; reconstruction issues its own
	// queries and the transaction holds a single connection.
	type row struct {
		id        int64
		path      string
		ghID      sql.NullInt64
		missing   bool
		stashDate sql.NullString
	}
	rows, err := tx.Query(`
		SELECT id, path, github_repository_id, missing, last_stash_check_date
		FROM local_repositories`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list local repositories: %w", err)
	}
	var scanned []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.path, &r.ghID, &r.missing, &r.stashDate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan local repository row: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating local repositories: %w", err)
	}
	rows.Close()

	var repos []*LocalRepository
	for _, r := range scanned {
		repo, err := s.assembleLocal(tx, r.id, r.path, r.ghID, r.missing, r.stashDate)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// UpdatePath moves a working copy record to a new path. Fields not
// being changed, including the stash-check date, are preserved.
// Fails with ErrIntegrity if the repository was never persisted.
func (s *Store) UpdatePath(repo *LocalRepository, newPath string) (*LocalRepository, error) {
	return s.updateLocal(repo, func(cur *LocalRepository) {
		cur.Path = newPath
	})
}

// UpdateMissing records whether the working copy's path was present
// on disk at last check. Fields not being changed are preserved.
// Fails with ErrIntegrity if the repository was never persisted.
func (s *Store) UpdateMissing(repo *LocalRepository, missing bool) (*LocalRepository, error) {
	return s.updateLocal(repo, func(cur *LocalRepository) {
		cur.Missing = missing
	})
}

// updateLocal reads the current row, applies mutate to the snapshot,
// and writes the full row back so untouched fields survive.
func (s *Store) updateLocal(repo *LocalRepository, mutate func(*LocalRepository)) (*LocalRepository, error) {
	if repo == nil || repo.ID == 0 {
		return nil, fmt.Errorf("local repository was never persisted: %w", ErrIntegrity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	cur, err := s.localByID(tx, repo.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if cur == nil {
		tx.Rollback()
		return nil, fmt.Errorf("local repository %d does not exist: %w", repo.ID, ErrIntegrity)
	}

	mutate(cur)

	if err := s.writeLocal(tx, cur); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit repository update: %w", err)
	}

	s.changed()
	return cur, nil
}

// writeLocal persists every column of a local repository snapshot.
func (s *Store) writeLocal(tx dbtx, repo *LocalRepository) error {
	var ghID sql.NullInt64
	if repo.GitHubRepository != nil {
		ghID = sql.NullInt64{Int64: repo.GitHubRepository.ID, Valid: true}
	}
	var stashDate sql.NullString
	if repo.LastStashCheckDate != nil {
		stashDate = sql.NullString{String: formatTime(*repo.LastStashCheckDate), Valid: true}
	}
	_, err := tx.Exec(`
		UPDATE local_repositories
		SET path = ?, github_repository_id = ?, missing = ?, last_stash_check_date = ?
		WHERE id = ?`,
		repo.Path, ghID, repo.Missing, stashDate, repo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update local repository %d: %w", repo.ID, err)
	}
	return nil
}

// AttachGitHubRepository links a working copy to its remote identity
// and refreshes the protected-branch set in the same transaction.
// The remote descriptor is upserted through the identity resolver;
// when branch-protection tracking is enabled, the stored branch rows
// are replaced wholesale and the protection cache refreshed ahead of
// the durable write. Fails with ErrIntegrity if the repository was
// never persisted.
func (s *Store) AttachGitHubRepository(repo *LocalRepository, endpoint string, desc *github.RepositoryDescriptor, branches []github.BranchDescriptor) (*LocalRepository, error) {
	if repo == nil || repo.ID == 0 {
		return nil, fmt.Errorf("local repository was never persisted: %w", ErrIntegrity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	gh, err := s.upsertRepository(tx, endpoint, desc)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := tx.Exec(
		`UPDATE local_repositories SET github_repository_id = ? WHERE id = ?`,
		gh.ID, repo.ID,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to link local repository %d: %w", repo.ID, err)
	}

	if s.trackProtection {
		// Refresh the cache before the storage-level replace so
		// concurrent readers never see a stale answer during the
		// delete+insert window.
		s.purgeProtection(gh.ID)
		for _, b := range branches {
			s.protection.Add(branchKey{repoID: gh.ID, name: b.Name}, true)
		}
		if err := s.replaceProtectedBranches(tx, gh.ID, branches); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	updated, err := s.localByID(tx, repo.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if updated == nil {
		tx.Rollback()
		return nil, fmt.Errorf("local repository %d does not exist: %w", repo.ID, ErrIntegrity)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit repository attach: %w", err)
	}

	s.changed()
	return updated, nil
}

// localByID reconstructs a LocalRepository snapshot including its
// linked remote repository. Returns (nil, nil) if no such row exists.
func (s *Store) localByID(q dbtx, id int64) (*LocalRepository, error) {
	var (
		path      string
		ghID      sql.NullInt64
		missing   bool
		stashDate sql.NullString
	)
	err := q.QueryRow(`
		SELECT path, github_repository_id, missing, last_stash_check_date
		FROM local_repositories
		WHERE id = ?`, id,
	).Scan(&path, &ghID, &missing, &stashDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load local repository %d: %w", id, err)
	}
	return s.assembleLocal(q, id, path, ghID, missing, stashDate)
}

func (s *Store) assembleLocal(q dbtx, id int64, path string, ghID sql.NullInt64, missing bool, stashDate sql.NullString) (*LocalRepository, error) {
	var gh *GitHubRepository
	if ghID.Valid {
		var err error
		gh, err = s.repositoryByID(q, ghID.Int64)
		if err != nil {
			return nil, err
		}
		if gh == nil {
			return nil, fmt.Errorf("local repository %d references missing github repository %d: %w", id, ghID.Int64, ErrIntegrity)
		}
	}

	checked, err := parseNullableTime(stashDate)
	if err != nil {
		return nil, err
	}

	return &LocalRepository{
		ID:                 id,
		Path:               path,
		GitHubRepository:   gh,
		Missing:            missing,
		LastStashCheckDate: checked,
	}, nil
}
