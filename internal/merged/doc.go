// Package merged implements the merged diff document: an ordered sequence
// of excerpts, each a padded window into some source buffer. The document
// supports insert-after, remove and expand-in-place while preserving the
// relative order and identity of untouched excerpts, which is what lets
// the reconciler apply minimal edit scripts without disturbing the view.
package merged
