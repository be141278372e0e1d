// Package project defines the tracked-root model the diff view observes:
// root and file identity, the project event stream, and reference-counted
// shared ownership of open source buffers.
package project
