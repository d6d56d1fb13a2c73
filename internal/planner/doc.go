// Package planner decides where every overlay match lands in a merge root.
//
// The planner expands a repository's glob patterns, applies the destination
// resolution rules and hands each resulting LinkPlan to the linker. When a
// repository declares no overlays, Mirror links its whole tree instead.
//
// Key responsibilities:
//   - Expand patterns in declared order, skipping version-control metadata
//   - Resolve link locations (default placement, directory placement, rename)
//   - Create parent directories before any link is made
//   - Mirror whole trees with the same metadata exclusion
package planner
