// Package buffer provides the text buffer substrate for the diff view:
// a mutable, thread-safe text buffer with immutable snapshots and
// edit-stable anchors.
//
// A Snapshot is a frozen view of the buffer, safe to share across
// goroutines. Anchors are positions that survive concurrent edits; they
// are registered against the buffer, shifted on every mutation, and
// resolved to concrete offsets or line/column points against a Snapshot.
// Anchor pairs (AnchorRange) mark hunk and excerpt spans so that the
// reconciler can compare old and new ranges in one coordinate system
// even when the underlying text moved.
package buffer
