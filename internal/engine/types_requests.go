package engine

import "github.com/danieljhkim/reponimous/internal/manifest"

// InstallRequest represents a request to install a merged tree.
type InstallRequest struct {
	// Repos are merged in order; later repositories win
	Repos []manifest.RepositoryOverlay

	// Path is where the merge root is moved; it must not exist
	Path string

	// CWD resolves a relative Path (default: the process working directory)
	CWD string
}

// ArchiveRequest represents a request to archive a merged tree.
type ArchiveRequest struct {
	// Repos are merged in order; later repositories win
	Repos []manifest.RepositoryOverlay

	// Dir is the directory that receives the archive (default: CWD)
	Dir string

	// Name is the archive file name (default: reponimous-<timestamp>.tgz)
	Name string

	// CWD resolves a relative Dir (default: the process working directory)
	CWD string
}

// PlanRequest represents a request to preview a merge.
type PlanRequest struct {
	// Repos are merged in order; later repositories win
	Repos []manifest.RepositoryOverlay
}
