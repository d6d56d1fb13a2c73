package engine

// InstallResult represents the result of an install.
type InstallResult struct {
	// Path is the absolute install location
	Path string `json:"path"`

	// Links is the number of links applied across all repositories
	Links int `json:"links"`

	// Copied is true when the tree had to be copied across devices
	Copied bool `json:"copied,omitempty"`
}

// ArchiveResult represents the result of an archive.
type ArchiveResult struct {
	// Path is the absolute path of the written archive
	Path string `json:"path"`

	// Digest is the SHA-256 of the archive file
	Digest string `json:"digest"`

	// Links is the number of links applied across all repositories
	Links int `json:"links"`
}

// PlanResult lists every link a merge applies, grouped by repository.
type PlanResult struct {
	Repositories []RepositoryPlan `json:"repositories"`
}

// Links returns the total number of planned links.
func (r *PlanResult) Links() int {
	n := 0
	for _, repo := range r.Repositories {
		n += len(repo.Links)
	}
	return n
}

// RepositoryPlan is the contribution of one repository to a merge.
type RepositoryPlan struct {
	Git string `json:"git"`
	Ref string `json:"ref"`

	// Mode is "mirror" when the repository has no file overlays, else "overlay"
	Mode string `json:"mode"`

	// Links are in application order
	Links []PlannedLink `json:"links"`
}

// PlannedLink is one applied link.
type PlannedLink struct {
	// Location is relative to the merge root, slash separated
	Location string `json:"location"`

	// Target is the absolute path inside the fetched tree
	Target string `json:"target"`

	// Kind is "file" or "dir"
	Kind string `json:"kind"`
}

const (
	ModeMirror  = "mirror"
	ModeOverlay = "overlay"
)
