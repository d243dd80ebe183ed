package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetLastStashCheckDate records when the working copy was last checked
// for stashed changes. Storage is updated first, then the cache, then
// subscribers are notified. Fails with ErrIntegrity if the repository
// was never persisted.
func (s *Store) SetLastStashCheckDate(repo *LocalRepository, t time.Time) error {
	if repo == nil || repo.ID == 0 {
		return fmt.Errorf("local repository was never persisted: %w", ErrIntegrity)
	}

	res, err := s.db.Exec(
		`UPDATE local_repositories SET last_stash_check_date = ? WHERE id = ?`,
		formatTime(t), repo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stash-check date for repository %d: %w", repo.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stash-check date update for repository %d: %w", repo.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("local repository %d vanished before stash-check date update: %w", repo.ID, ErrIntegrity)
	}

	s.stash.Add(repo.ID, t)
	s.changed()
	return nil
}

// LastStashCheckDate returns the last stash-check timestamp, or nil if
// none was ever recorded. Cached values are served without a storage
// read. Fails with ErrIntegrity if the repository was never persisted.
func (s *Store) LastStashCheckDate(repo *LocalRepository) (*time.Time, error) {
	if repo == nil || repo.ID == 0 {
		return nil, fmt.Errorf("local repository was never persisted: %w", ErrIntegrity)
	}

	if t, ok := s.stash.Get(repo.ID); ok {
		return &t, nil
	}

	var ns sql.NullString
	err := s.db.QueryRow(
		`SELECT last_stash_check_date FROM local_repositories WHERE id = ?`,
		repo.ID,
	).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stash-check date for repository %d: %w", repo.ID, err)
	}

	t, err := parseNullableTime(ns)
	if err != nil {
		return nil, err
	}
	if t != nil {
		s.stash.Add(repo.ID, *t)
	}
	return t, nil
}

// SetLastPruneDate records when remote branches of a repository were
// last pruned. Prune dates are written rarely, so there is no cache;
// the github_repositories row is hit directly. Fails with ErrIntegrity
// if the repository was never persisted.
func (s *Store) SetLastPruneDate(repo *GitHubRepository, t time.Time) error {
	if repo == nil || repo.ID == 0 {
		return fmt.Errorf("github repository was never persisted: %w", ErrIntegrity)
	}

	res, err := s.db.Exec(
		`UPDATE github_repositories SET last_prune_date = ? WHERE id = ?`,
		formatTime(t), repo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prune date for repository %d: %w", repo.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check prune date update for repository %d: %w", repo.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("github repository %d vanished before prune date update: %w", repo.ID, ErrIntegrity)
	}

	s.changed()
	return nil
}

// LastPruneDate returns the last prune timestamp, or nil if none was
// ever recorded. Fails with ErrIntegrity if the repository was never
// persisted.
func (s *Store) LastPruneDate(repo *GitHubRepository) (*time.Time, error) {
	if repo == nil || repo.ID == 0 {
		return nil, fmt.Errorf("github repository was never persisted: %w", ErrIntegrity)
	}

	var ns sql.NullString
	err := s.db.QueryRow(
		`SELECT last_prune_date FROM github_repositories WHERE id = ?`,
		repo.ID,
	).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prune date for repository %d: %w", repo.ID, err)
	}

	return parseNullableTime(ns)
}
