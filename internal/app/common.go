package app

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/repovault/internal/store"
)

// openStore opens the database behind the --db flag and makes sure the
// schema exists. Callers own the returned store and must close it.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	st, err := store.New(path, store.WithBranchProtection(!noBranchProtection))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return st, nil
}

// normalizePath resolves a repository path argument to an absolute
// path so the same working copy always maps to the same record.
func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// findByPath returns the registered repository at path, or nil if the
// path is not registered.
func findByPath(st *store.Store, path string) (*store.LocalRepository, error) {
	repos, err := st.ListRepositories()
	if err != nil {
		return nil, err
	}
	for _, repo := range repos {
		if repo.Path == path {
			return repo, nil
		}
	}
	return nil, nil
}
