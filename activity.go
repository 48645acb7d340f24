package gocrdt

import "sync"

// ActivityCount is a per-replica snapshot of how much that replica has
// contributed to a tree: how many Adds and Deletes it has authored,
// and the net number of live nodes it has contributed (Adds minus
// Deletes).
type ActivityCount struct {
	Adds    int
	Deletes int
}

// Net returns Adds minus Deletes, mirroring PNCounter.Value().
func (c ActivityCount) Net() int {
	return c.Adds - c.Deletes
}

// ReplicaActivity is a state-based CRDT tracking, per ReplicaId, how
// many Add and Delete operations that replica has contributed. It is
// structured exactly like the teacher's GCounter/PNCounter pair: Adds
// and Deletes are each a grow-only per-slot counter, so the two can be
// merged independently with plain slot-wise max, the same join used by
// GCounter.Merge. Unlike the tree's own operation-based merge (via
// Apply/OperationsSince), ReplicaActivity is a CvRDT: two snapshots
// converge by state merge, not by replaying operations.
type ReplicaActivity struct {
	mu      sync.RWMutex
	adds    map[ReplicaId]int
	deletes map[ReplicaId]int
}

func newReplicaActivity() *ReplicaActivity {
	return &ReplicaActivity{
		adds:    make(map[ReplicaId]int),
		deletes: make(map[ReplicaId]int),
	}
}

func (a *ReplicaActivity) recordAdd(id ReplicaId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adds[id]++
}

func (a *ReplicaActivity) recordDelete(id ReplicaId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletes[id]++
}

// Value returns the consolidated per-replica activity snapshot. It
// satisfies the CRDT interface.
func (a *ReplicaActivity) Value() any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[ReplicaId]ActivityCount, len(a.adds)+len(a.deletes))
	for id, n := range a.adds {
		c := out[id]
		c.Adds = n
		out[id] = c
	}
	for id, n := range a.deletes {
		c := out[id]
		c.Deletes = n
		out[id] = c
	}
	return out
}

// Merge combines the state of another ReplicaActivity into this one by
// taking the per-replica, per-kind maximum, the same join-semilattice
// rule GCounter.Merge uses.
func (a *ReplicaActivity) Merge(other CRDT) error {
	o, ok := other.(*ReplicaActivity)
	if !ok {
		return errTypeMismatch
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	o.mu.RLock()
	defer o.mu.RUnlock()

	for id, n := range o.adds {
		if n > a.adds[id] {
			a.adds[id] = n
		}
	}
	for id, n := range o.deletes {
		if n > a.deletes[id] {
			a.deletes[id] = n
		}
	}
	return nil
}

func (a *ReplicaActivity) clone() *ReplicaActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cp := newReplicaActivity()
	for id, n := range a.adds {
		cp.adds[id] = n
	}
	for id, n := range a.deletes {
		cp.deletes[id] = n
	}
	return cp
}
