package planner

// LinkPlan is a single link to place in a merge root.
type LinkPlan struct {
	// Target is the absolute path inside a fetched source tree
	Target string

	// Location is the absolute path inside the merge root
	Location string

	// Kind is KindFile or KindDir, describing the target
	Kind string
}

// Link target kinds
const (
	KindFile = "file"
	KindDir  = "dir"
)
