package store

import "time"

// Owner is the account (user or organization) holding a remote
// repository, identified by lowercased login plus hosting endpoint.
// Owner rows are immutable once created.
type Owner struct {
	ID       int64
	Login    string
	Endpoint string
}

// GitHubRepository is the canonical persisted identity of a remote
// repository. Parent, when non-nil, is the fully reconstructed fork
// source; the chain nests as deep as the remote fork lineage does.
//
// LastPruneDate is local-only state. It never comes from the remote
// source and survives identity upserts untouched.
type GitHubRepository struct {
	ID            int64
	Owner         *Owner
	Name          string
	Private       bool
	HTMLURL       string
	DefaultBranch string
	CloneURL      string
	Parent        *GitHubRepository
	LastPruneDate *time.Time
}

// LocalRepository is a working copy on disk, optionally linked to a
// GitHubRepository. Missing records that the path was absent at last
// check. Values handed out by the store are snapshots reconstructed
// from storage; mutating them has no effect on persisted state.
type LocalRepository struct {
	ID                 int64
	Path               string
	GitHubRepository   *GitHubRepository
	Missing            bool
	LastStashCheckDate *time.Time
}
