package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/repovault/internal/github"
)

// UpsertRepository resolves a remote repository descriptor into a
// single canonical GitHubRepository row, creating or updating owner
// and repository records as needed. The descriptor's parent (fork
// source) chain is resolved recursively first, so resolving a fork
// N levels deep produces N+1 repository rows.
//
// The whole resolution runs in one transaction; the returned value
// carries the reconstructed parent chain as nested snapshots.
func (s *Store) UpsertRepository(endpoint string, desc *github.RepositoryDescriptor) (*GitHubRepository, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	repo, err := s.upsertRepository(tx, endpoint, desc)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit repository upsert: %w", err)
	}

	s.changed()
	return repo, nil
}

// RepositoryByID reconstructs a GitHubRepository snapshot, including
// its full parent chain. Returns (nil, nil) if no such row exists.
func (s *Store) RepositoryByID(id int64) (*GitHubRepository, error) {
	return s.repositoryByID(s.db, id)
}

// upsertRepository is the transactional body of UpsertRepository.
func (s *Store) upsertRepository(tx dbtx, endpoint string, desc *github.RepositoryDescriptor) (*GitHubRepository, error) {
	// Fast path: a clone URL we have seen before is the same
	// repository. Reconstruct it without touching owner or parent
	// rows.
	var existingID int64
	err := tx.QueryRow(
		`SELECT id FROM github_repositories WHERE clone_url = ? LIMIT 1`,
		desc.CloneURL,
	).Scan(&existingID)
	switch {
	case err == nil:
		repo, err := s.repositoryByID(tx, existingID)
		if err != nil {
			return nil, err
		}
		if repo == nil {
			return nil, fmt.Errorf("github repository %d vanished during upsert: %w", existingID, ErrIntegrity)
		}
		return repo, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to the full upsert
	default:
		return nil, fmt.Errorf("failed to look up repository by clone URL: %w", err)
	}

	// Resolve the fork source first; depth is bounded by the remote
	// data's actual fork lineage.
	var parentID sql.NullInt64
	if desc.Parent != nil {
		parent, err := s.upsertRepository(tx, endpoint, desc.Parent)
		if err != nil {
			return nil, err
		}
		parentID = sql.NullInt64{Int64: parent.ID, Valid: true}
	}

	ownerID, err := s.upsertOwner(tx, endpoint, desc.Owner.Login)
	if err != nil {
		return nil, err
	}

	// An existing (owner, name) row keeps its identifier and its
	// local-only prune date; everything remote-sourced is replaced.
	// The row is updated in place rather than REPLACEd: with foreign
	// keys on, REPLACE deletes the old row first, which would cascade
	// away the repository's protected-branch set.
	var repoID int64
	err = tx.QueryRow(
		`SELECT id FROM github_repositories WHERE owner_id = ? AND name = ?`,
		ownerID, desc.Name,
	).Scan(&repoID)
	switch {
	case err == nil:
		_, err = tx.Exec(`
			UPDATE github_repositories
			SET owner_id = ?, name = ?, private = ?, html_url = ?, default_branch = ?, clone_url = ?, parent_id = ?
			WHERE id = ?`,
			ownerID, desc.Name, desc.Private, desc.HTMLURL,
			desc.DefaultBranch, desc.CloneURL, parentID, repoID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update repository %s: %w", desc.Name, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`
			INSERT INTO github_repositories
			(owner_id, name, private, html_url, default_branch, clone_url, parent_id, last_prune_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
			ownerID, desc.Name, desc.Private, desc.HTMLURL,
			desc.DefaultBranch, desc.CloneURL, parentID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert repository %s: %w", desc.Name, err)
		}
		repoID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get repository ID: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up repository %s: %w", desc.Name, err)
	}

	repo, err := s.repositoryByID(tx, repoID)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("github repository %d vanished during upsert: %w", repoID, ErrIntegrity)
	}
	return repo, nil
}

// upsertOwner returns the id of the Owner row for (endpoint, login),
// inserting it if absent. Logins are compared and stored lowercased.
func (s *Store) upsertOwner(tx dbtx, endpoint, login string) (int64, error) {
	login = strings.ToLower(login)

	var id int64
	err := tx.QueryRow(
		`SELECT id FROM owners WHERE endpoint = ? AND login = ?`,
		endpoint, login,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up owner %s: %w", login, err)
	}

	res, err := tx.Exec(
		`INSERT INTO owners (login, endpoint) VALUES (?, ?)`,
		login, endpoint,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert owner %s: %w", login, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get owner ID: %w", err)
	}
	return id, nil
}

// repositoryByID loads a github_repositories row and assembles the
// value snapshot: owner, remote fields, and the recursively
// reconstructed parent chain. A repository row whose owner or parent
// row is missing signals corrupted state and fails with ErrIntegrity.
func (s *Store) repositoryByID(q dbtx, id int64) (*GitHubRepository, error) {
	var (
		ownerID       int64
		name          string
		private       bool
		htmlURL       string
		defaultBranch string
		cloneURL      string
		parentID      sql.NullInt64
		lastPrune     sql.NullString
	)
	err := q.QueryRow(`
		SELECT owner_id, name, private, html_url, default_branch, clone_url, parent_id, last_prune_date
		FROM github_repositories
		WHERE id = ?`, id,
	).Scan(&ownerID, &name, &private, &htmlURL, &defaultBranch, &cloneURL, &parentID, &lastPrune)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load repository %d: %w", id, err)
	}

	owner := &Owner{ID: ownerID}
	err = q.QueryRow(
		`SELECT login, endpoint FROM owners WHERE id = ?`, ownerID,
	).Scan(&owner.Login, &owner.Endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("github repository %d references missing owner %d: %w", id, ownerID, ErrIntegrity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load owner %d: %w", ownerID, err)
	}

	var parent *GitHubRepository
	if parentID.Valid {
		parent, err = s.repositoryByID(q, parentID.Int64)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("github repository %d references missing parent %d: %w", id, parentID.Int64, ErrIntegrity)
		}
	}

	pruneDate, err := parseNullableTime(lastPrune)
	if err != nil {
		return nil, err
	}

	return &GitHubRepository{
		ID:            id,
		Owner:         owner,
		Name:          name,
		Private:       private,
		HTMLURL:       htmlURL,
		DefaultBranch: defaultBranch,
		CloneURL:      cloneURL,
		Parent:        parent,
		LastPruneDate: pruneDate,
	}, nil
}
