package gocrdt

import "errors"

// Error taxonomy for local apply/batch failures (spec §7). Callers
// distinguish them with errors.Is; no failure mutates the tree.
var (
	// ErrNotFound is returned when a path segment, or the anchor
	// sibling named by an Add, does not resolve to an existing node.
	ErrNotFound = errors.New("gocrdt: path does not resolve to an existing node")

	// ErrParentDeleted is returned when the node an Add would insert
	// beneath has been tombstoned; a deleted node accepts no new
	// children. Only that node's own tombstone is checked, not those
	// of its ancestors.
	ErrParentDeleted = errors.New("gocrdt: parent node is deleted")

	// ErrTimestampConflict is returned when an Add's timestamp
	// collides with an existing sibling's timestamp but the payloads
	// differ, so the delivery cannot be treated as an idempotent
	// duplicate. Spec §9 flags this as malformed-remote behavior left
	// open by the specification; we reject rather than silently
	// overwrite.
	ErrTimestampConflict = errors.New("gocrdt: timestamp already in use with a different payload")
)
