package gocrdt

// Node is one element of the replicated tree: an identity (Timestamp),
// an optional opaque payload, a tombstone flag, and an ordered set of
// children. Parent is a non-owning back-reference used to reconstruct
// a node's Path without threading it through every call site.
//
// Nodes are never destroyed once created; Delete only flips the
// tombstone flag (spec §3.6).
type Node struct {
	timestamp  Timestamp
	payload    any
	hasPayload bool
	deleted    bool

	// anchor is the sibling timestamp this node was inserted
	// after (0 meaning "front of the children list"). It fixes where
	// this node was placed among its parent's children; later siblings
	// are positioned by insertSibling in tree.go from their own anchor
	// and the timestamps of the siblings that follow it.
	anchor Timestamp

	children []*Node
	parent   *Node
}

func newRoot() *Node {
	return &Node{timestamp: 0}
}

func newNode(ts Timestamp, anchor Timestamp, payload any) *Node {
	return &Node{
		timestamp:  ts,
		anchor:     anchor,
		payload:    payload,
		hasPayload: true,
	}
}

// Payload returns the node's opaque value and whether one is present.
// The root and any tombstoned node report false.
func (n *Node) Payload() (any, bool) {
	if n.deleted {
		return nil, false
	}
	return n.payload, n.hasPayload
}

// Deleted reports whether this node is a tombstone.
func (n *Node) Deleted() bool {
	return n.deleted
}

// Timestamp returns this node's unique identity.
func (n *Node) Timestamp() Timestamp {
	return n.timestamp
}

// Parent returns this node's containing node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns this node's children in their deterministic order.
// The returned slice is owned by the caller; mutating it does not
// affect the tree.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildByTimestamp locates a direct child by its identity.
func (n *Node) ChildByTimestamp(ts Timestamp) (*Node, bool) {
	for _, c := range n.children {
		if c.timestamp == ts {
			return c, true
		}
	}
	return nil, false
}

// Path reconstructs the sequence of timestamps from the root down to
// this node, by walking parent back-references. The root's own path is
// the empty slice.
func (n *Node) Path() []Timestamp {
	if n.parent == nil {
		return nil
	}
	var rev []Timestamp
	for cur := n; cur.parent != nil; cur = cur.parent {
		rev = append(rev, cur.timestamp)
	}
	path := make([]Timestamp, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// markDeleted flips the tombstone flag. The payload is left in place
// rather than cleared: Payload() already hides it once deleted is
// true, and applyAdd's duplicate-delivery check needs the original
// payload to still be there to recognize a retransmitted Add against
// an already-tombstoned node as the idempotent no-op it is.
func (n *Node) markDeleted() {
	n.deleted = true
}

// clone deep-copies this node and its entire subtree. Parent pointers
// in the copy are rewired to point within the new subtree.
func (n *Node) clone() *Node {
	cp := &Node{
		timestamp:  n.timestamp,
		payload:    n.payload,
		hasPayload: n.hasPayload,
		deleted:    n.deleted,
		anchor:     n.anchor,
	}
	cp.children = make([]*Node, len(n.children))
	for i, c := range n.children {
		childCopy := c.clone()
		childCopy.parent = cp
		cp.children[i] = childCopy
	}
	return cp
}
