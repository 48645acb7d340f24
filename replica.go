package gocrdt

// ReplicaId identifies one participant in a replicated tree. It is a
// compact non-negative integer, not a UUID: the value is embedded
// directly into the low bits of every Timestamp this replica mints, so
// keeping it small keeps the low bits small.
type ReplicaId uint32

// NewReplicaId constructs a ReplicaId from a plain integer. Negative
// values are clamped to zero; callers are expected to supply values in
// [0, maxReplicas) as configured on the owning Tree.
func NewReplicaId(id int) ReplicaId {
	if id < 0 {
		return 0
	}
	return ReplicaId(id)
}

// Int projects the ReplicaId back to a plain integer, e.g. for logging
// or for indexing into a caller-side replica table.
func (r ReplicaId) Int() int {
	return int(r)
}
