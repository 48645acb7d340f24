package gocrdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These tests exercise the concrete end-to-end scenarios from spec §8,
// all against replica id 0 with maxReplicas 1 (so timestamps equal
// their own counter value, matching the scenarios verbatim).

func TestScenario_S1_SingleAdd(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	require.NoError(t, tree.Apply(NewAdd(0, 1, []Timestamp{0}, "a")))

	v, ok := tree.Get([]Timestamp{1})
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.Equal(t, []Operation{NewAdd(0, 1, []Timestamp{0}, "a")}, tree.OperationsSince(0))
	require.Equal(t, NewAdd(0, 1, []Timestamp{0}, "a"), tree.LastOperation())
}

func TestScenario_S2_BatchOfTwoAdds(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	require.NoError(t, tree.Batch(AddLeaf("a"), AddLeaf("b")))

	va, ok := tree.Get([]Timestamp{1})
	require.True(t, ok)
	require.Equal(t, "a", va)

	vb, ok := tree.Get([]Timestamp{2})
	require.True(t, ok)
	require.Equal(t, "b", vb)

	wantLog := []Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewAdd(0, 2, []Timestamp{1}, "b"),
	}
	require.Equal(t, wantLog, tree.OperationsSince(0))
	require.Equal(t, NewBatch(wantLog), tree.LastOperation())
}

func TestScenario_S3_BranchAndLeaf(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	require.NoError(t, tree.Batch(AddBranch("a"), AddLeaf("b")))

	v, ok := tree.Get([]Timestamp{1, 2})
	require.True(t, ok)
	require.Equal(t, "b", v)

	wantLog := []Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewAdd(0, 2, []Timestamp{1, 0}, "b"),
	}
	require.Equal(t, wantLog, tree.OperationsSince(0))
}

func TestScenario_S4_AddIntoDeletedBranchIsAtomic(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	failing := NewBatch([]Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewDelete(0, []Timestamp{1}),
		NewAdd(0, 2, []Timestamp{1, 0}, "b"),
	})
	err := tree.Apply(failing)
	require.ErrorIs(t, err, ErrParentDeleted)
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 0, tree.LogLen())

	// The valid prefix, applied alone, succeeds.
	ok := Init(Options{ID: 0, MaxReplicas: 1})
	require.NoError(t, ok.Apply(NewBatch([]Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewDelete(0, []Timestamp{1}),
	})))
	_, found := ok.Get([]Timestamp{1})
	require.False(t, found)
	require.Equal(t, 2, ok.LogLen())
}

func TestScenario_S5_IdempotentAdd(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	add := NewAdd(0, 1, []Timestamp{0}, "a")
	require.NoError(t, tree.Apply(NewBatch([]Operation{add, add, add, add})))

	v, ok := tree.Get([]Timestamp{1})
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.Equal(t, []Operation{add}, tree.OperationsSince(0))
	require.Equal(t, NewBatch([]Operation{add}), tree.LastOperation())
}

func TestScenario_DuplicateAddRetransmittedAfterDelete(t *testing.T) {
	// A retransmitted Add for a node whose Delete has already been
	// merged must still be recognized as the idempotent duplicate it
	// is (spec §4.5.3 step 3) rather than ErrTimestampConflict, and
	// must not roll back the Delete that already took effect.
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	add := NewAdd(0, 1, []Timestamp{0}, "a")
	del := NewDelete(0, []Timestamp{1})

	require.NoError(t, tree.Apply(NewBatch([]Operation{add, del, add})))

	_, found := tree.Get([]Timestamp{1})
	require.False(t, found, "node should remain deleted")
	require.Equal(t, 2, tree.LogLen(), "the retransmitted Add must not be logged again")

	wantLog := []Operation{add, del}
	require.Equal(t, wantLog, tree.OperationsSince(0))
}

func TestScenario_S6_InsertionBetweenSiblings(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	require.NoError(t, tree.Apply(NewBatch([]Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewAdd(0, 2, []Timestamp{1}, "c"),
		NewAdd(0, 3, []Timestamp{1}, "b"),
	})))

	root := tree.Root()
	children := root.Children()
	require.Len(t, children, 3)
	require.Equal(t, Timestamp(1), children[0].Timestamp())
	require.Equal(t, Timestamp(3), children[1].Timestamp())
	require.Equal(t, Timestamp(2), children[2].Timestamp())

	require.Len(t, tree.OperationsSince(0), 3)
}

func TestScenario_S7_OperationsSince(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	require.NoError(t, tree.Apply(NewBatch([]Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewAdd(0, 2, []Timestamp{1}, "b"),
		NewDelete(0, []Timestamp{2}),
		NewBatch(nil),
	})))

	all := tree.OperationsSince(0)
	require.Len(t, all, 3) // two Adds + one Delete; the empty nested Batch contributes nothing
	for _, op := range all {
		require.NotEqual(t, OpBatch, op.Kind)
	}

	suffix := tree.OperationsSince(1)
	require.Len(t, suffix, 2)
	require.Equal(t, OpAdd, suffix[0].Kind)
	require.Equal(t, Timestamp(2), suffix[0].Timestamp)
	require.Equal(t, OpDelete, suffix[1].Kind)

	require.Empty(t, tree.OperationsSince(Timestamp(1<<40)))
}

func TestScenario_S8_BatchAtomicityOnMissingAnchor(t *testing.T) {
	tree := Init(Options{ID: 0, MaxReplicas: 1})

	err := tree.Apply(NewBatch([]Operation{
		NewAdd(0, 1, []Timestamp{0}, "a"),
		NewAdd(0, 2, []Timestamp{9}, "b"),
	}))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 0, tree.LogLen())
}
