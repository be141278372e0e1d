// Package projectdiff keeps the merged diff document synchronized with
// per-file change hunks as tracked roots are rescanned. The controller
// serializes all mutation; rescans run in the background and deliver
// path-sorted change snapshots to the excerpt reconciler, which computes
// a minimal edit script of insertions, removals and expansions against
// the merged document.
package projectdiff
