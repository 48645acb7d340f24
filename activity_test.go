package gocrdt

import "testing"

func TestReplicaActivity_RecordsAddsAndDeletes(t *testing.T) {
	a := newReplicaActivity()
	a.recordAdd(0)
	a.recordAdd(0)
	a.recordDelete(0)

	snapshot := a.Value().(map[ReplicaId]ActivityCount)
	if got := snapshot[0].Net(); got != 1 {
		t.Errorf("Expected net 1, got %d", got)
	}
}

func TestReplicaActivity_Merge(t *testing.T) {
	nodeA := newReplicaActivity()
	nodeB := newReplicaActivity()

	nodeA.recordAdd(1) // A = 1 add for replica 1
	nodeB.recordDelete(1) // B = 1 delete for replica 1

	if err := nodeA.Merge(nodeB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := nodeB.Merge(nodeA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapA := nodeA.Value().(map[ReplicaId]ActivityCount)
	snapB := nodeB.Value().(map[ReplicaId]ActivityCount)

	if snapA[1].Net() != 0 || snapB[1].Net() != 0 {
		t.Errorf("Expected convergence at net 0, got A=%d, B=%d", snapA[1].Net(), snapB[1].Net())
	}

	// Idempotent re-merge.
	if err := nodeA.Merge(nodeB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodeA.Value().(map[ReplicaId]ActivityCount)[1].Net() != 0 {
		t.Errorf("Idempotency failed: expected net 0 after re-merge")
	}
}

func TestReplicaActivity_MergeTypeMismatch(t *testing.T) {
	a := newReplicaActivity()
	if err := a.Merge(fakeCRDT{}); err == nil {
		t.Error("Expected error merging incompatible CRDT type")
	}
}

type fakeCRDT struct{}

func (fakeCRDT) Value() any          { return nil }
func (fakeCRDT) Merge(CRDT) error    { return nil }
