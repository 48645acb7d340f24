package gocrdt

// cursor is the per-batch bookkeeping described in spec §4.5.2/§9: it
// tracks the current target parent (by path from root) and the anchor
// within that parent's children that the next builder should attach
// after. It is reset at the start of every Batch call, never shared
// across calls.
type cursor struct {
	parentPath []Timestamp
	anchor     Timestamp
}

func newCursor() *cursor {
	return &cursor{}
}

func (c *cursor) addPath() []Timestamp {
	path := make([]Timestamp, len(c.parentPath)+1)
	copy(path, c.parentPath)
	path[len(path)-1] = c.anchor
	return path
}

// Builder is a deferred local edit: it does not touch tree state when
// constructed. Only when consumed by Tree.Batch does it receive the
// replica id, the in-flight scratch state's allocator, and the
// batch's cursor, synthesizing a fresh Add or Delete operation.
type Builder func(id ReplicaId, s *treeState, cur *cursor) Operation

// AddLeaf synthesizes an Add under the cursor's current parent,
// anchored after whatever the cursor currently points to. Subsequent
// builders in the same batch will anchor after this new node, still
// under the same parent.
func AddLeaf(payload any) Builder {
	return func(id ReplicaId, s *treeState, cur *cursor) Operation {
		ts := s.clock.next()
		op := NewAdd(id, ts, cur.addPath(), payload)
		cur.anchor = ts
		return op
	}
}

// AddBranch is like AddLeaf but also shifts the cursor into the new
// node's children, anchored at the front (0), so the next builder in
// the batch targets this node's children instead of its siblings.
func AddBranch(payload any) Builder {
	return func(id ReplicaId, s *treeState, cur *cursor) Operation {
		ts := s.clock.next()
		op := NewAdd(id, ts, cur.addPath(), payload)
		cur.parentPath = append(append([]Timestamp{}, cur.parentPath...), ts)
		cur.anchor = 0
		return op
	}
}

// DeleteAt synthesizes a Delete targeting path. It does not affect the
// cursor: deletes do not change where subsequent adds land.
func DeleteAt(path []Timestamp) Builder {
	return func(id ReplicaId, s *treeState, cur *cursor) Operation {
		return NewDelete(id, path)
	}
}
