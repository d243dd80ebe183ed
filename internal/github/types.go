// Package github defines the wire shapes the hosting-service API
// client hands to the store. The store never talks to the network
// itself; callers obtain these descriptors elsewhere and pass them in.
package github

// OwnerDescriptor identifies the account that holds a remote
// repository.
type OwnerDescriptor struct {
	Login string `json:"login"`
}

// RepositoryDescriptor is the raw repository document returned by the
// hosting service. Parent, when non-nil, describes the fork source and
// recurses with the same shape.
type RepositoryDescriptor struct {
	Name          string                `json:"name"`
	Owner         OwnerDescriptor       `json:"owner"`
	Private       bool                  `json:"private"`
	HTMLURL       string                `json:"html_url"`
	DefaultBranch string                `json:"default_branch"`
	CloneURL      string                `json:"clone_url"`
	Parent        *RepositoryDescriptor `json:"parent,omitempty"`
}

// BranchDescriptor names a single protected branch.
type BranchDescriptor struct {
	Name string `json:"name"`
}
