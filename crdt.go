// Package gocrdt implements a replicated ordered tree: an
// operation-based CRDT (CmRDT) for a hierarchical, ordered collection
// of opaque payloads. Multiple replicas apply Add/Delete/Batch
// operations independently, in any order and with any duplication, and
// converge to identical trees once every replica has observed every
// operation.
//
// The tree's own convergence comes from its operations being
// idempotent and commutative (see Tree.Apply), not from a merge of two
// whole-state snapshots. Alongside it, the package keeps one
// state-based CRDT (CvRDT), ReplicaActivity, for per-replica
// diagnostics that can be merged the conventional join-semilattice way
// via the CRDT interface below.
package gocrdt

import "errors"

// errTypeMismatch is returned by a CvRDT's Merge when the argument is
// not an instance of the same concrete type.
var errTypeMismatch = errors.New("gocrdt: incompatible CRDT type in Merge")

// CRDT is the interface satisfied by state-based (CvRDT) types in this
// package, currently just ReplicaActivity. The tree itself is
// operation-based and exposes a different surface (Apply, Batch,
// OperationsSince) because merging two whole trees by state would
// throw away the ordering information an operation log carries.
//
// Implementing types must ensure that their internal state can be
// merged commutatively, associatively, and idempotently to satisfy the
// mathematical properties of a Join-Semilattice.
type CRDT interface {
	// Value returns the current consolidated state of the CRDT.
	Value() any

	// Merge combines the state of a remote CRDT into the local
	// instance. Implementations should type-assert the argument and
	// return errTypeMismatch (or an equivalent) on mismatch.
	Merge(other CRDT) error
}
