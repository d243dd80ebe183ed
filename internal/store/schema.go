package store

const schema = `
CREATE TABLE IF NOT EXISTS owners (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    login TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    UNIQUE (endpoint, login)
);

CREATE TABLE IF NOT EXISTS github_repositories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    private BOOLEAN NOT NULL,
    html_url TEXT,
    default_branch TEXT,
    clone_url TEXT,
    parent_id INTEGER,
    last_prune_date TEXT,
    UNIQUE (owner_id, name),
    FOREIGN KEY (owner_id) REFERENCES owners(id),
    FOREIGN KEY (parent_id) REFERENCES github_repositories(id)
);

CREATE TABLE IF NOT EXISTS protected_branches (
    repo_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (repo_id, name),
    FOREIGN KEY (repo_id) REFERENCES github_repositories(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS local_repositories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    github_repository_id INTEGER,
    missing BOOLEAN NOT NULL DEFAULT 0,
    last_stash_check_date TEXT,
    FOREIGN KEY (github_repository_id) REFERENCES github_repositories(id)
);

CREATE INDEX IF NOT EXISTS idx_github_repos_clone_url ON github_repositories(clone_url);
CREATE INDEX IF NOT EXISTS idx_github_repos_owner ON github_repositories(owner_id);
CREATE INDEX IF NOT EXISTS idx_protected_repo ON protected_branches(repo_id);
`
