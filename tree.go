package gocrdt

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// logEntry pairs a logged, already-effective Add or Delete with the
// sequencing key operationsSince filters on. For an Add, seq is the
// node's own Timestamp. A Delete carries no timestamp in its
// peer-facing shape (spec §6), so seq is minted from the same
// allocator purely to give every log entry a key; it never leaks into
// the Operation value itself. Entries are kept in application order,
// and seq is not guaranteed to increase along the log: a remote Add
// whose timestamp is lower than an entry already logged is appended
// with that lower key.
type logEntry struct {
	op  Operation
	seq Timestamp
}

// treeState is the mutable guts of a Tree: everything Apply/Batch
// touch. It is cloned wholesale before a speculative apply and only
// swapped into the owning Tree if every sub-operation in the call
// succeeds, which is what gives Batch its all-or-nothing semantics
// (spec §4.5.3, testable property 4).
type treeState struct {
	root     *Node
	log      []logEntry
	last     Operation
	clock    *allocator
	activity *ReplicaActivity
}

func newTreeState(id ReplicaId, maxReplicas int) *treeState {
	return &treeState{
		root:     newRoot(),
		clock:    newAllocator(id, maxReplicas),
		activity: newReplicaActivity(),
		last:     NewBatch(nil),
	}
}

func (s *treeState) clone() *treeState {
	return &treeState{
		root:     s.root.clone(),
		log:      append([]logEntry(nil), s.log...),
		last:     s.last,
		clock:    s.clock.clone(),
		activity: s.activity.clone(),
	}
}

// resolve walks path from the root, returning the addressed node.
func (s *treeState) resolve(path []Timestamp) (*Node, bool) {
	cur := s.root
	for _, ts := range path {
		next, ok := cur.ChildByTimestamp(ts)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// insertSibling finds the index at which a node anchored at anchorTS
// with identity newTS belongs among parent's children, per the
// ordering rule in spec §4.5.4: a new sibling lands after its anchor,
// past the run of following siblings with higher timestamps (later
// concurrent inserts at that point, and whatever was anchored after
// them), so among siblings sharing the same anchor the one with the
// higher timestamp sits closer to the anchor and the resulting order
// does not depend on arrival order. This is the
// teacher's RGA.integrate logic (rga.go), ported from a flat linked
// list scan to an indexed slice scan over one parent's children.
func insertSibling(children []*Node, anchorTS, newTS Timestamp) (int, bool) {
	start := 0
	if anchorTS != 0 {
		idx := -1
		for i, c := range children {
			if c.timestamp == anchorTS {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, false
		}
		start = idx + 1
	}

	i := start
	for i < len(children) && children[i].timestamp > newTS {
		i++
	}
	return i, true
}

// applyAdd applies a single Add against this state, returning whether
// it changed state (false for an idempotent duplicate).
func (s *treeState) applyAdd(op Operation) (bool, error) {
	parent, ok := s.resolve(op.parentPath())
	if !ok {
		return false, ErrNotFound
	}
	if parent.deleted {
		return false, ErrParentDeleted
	}

	if existing, ok := parent.ChildByTimestamp(op.Timestamp); ok {
		if reflect.DeepEqual(existing.payload, op.Payload) {
			return false, nil
		}
		return false, ErrTimestampConflict
	}

	anchor := op.anchor()
	idx, ok := insertSibling(parent.children, anchor, op.Timestamp)
	if !ok {
		return false, ErrNotFound
	}

	child := newNode(op.Timestamp, anchor, op.Payload)
	child.parent = parent
	parent.children = append(parent.children, nil)
	copy(parent.children[idx+1:], parent.children[idx:])
	parent.children[idx] = child

	s.clock.observe(op.Timestamp)
	s.activity.recordAdd(op.ReplicaID)
	s.log = append(s.log, logEntry{op: op, seq: op.Timestamp})
	return true, nil
}

// applyDelete applies a single Delete against this state, returning
// whether it changed state (false if already tombstoned).
func (s *treeState) applyDelete(op Operation) (bool, error) {
	target, ok := s.resolve(op.Path)
	if !ok {
		return false, ErrNotFound
	}
	if target == s.root {
		// The root is immortal (spec §3.5): an empty path resolves to
		// it, and a malformed/adversarial Delete must not be allowed
		// to tombstone it and freeze the whole tree.
		return false, ErrNotFound
	}
	if target.deleted {
		return false, nil
	}

	target.markDeleted()
	seq := s.clock.next()
	s.activity.recordDelete(op.ReplicaID)
	s.log = append(s.log, logEntry{op: op, seq: seq})
	return true, nil
}

// applyOps applies ops in order, recursing into nested Batches and
// flattening them, returning the effective (state-changing) operations
// in application order. The first error aborts with no further
// changes attempted; the caller is responsible for discarding this
// state rather than committing it.
func (s *treeState) applyOps(ops []Operation) ([]Operation, error) {
	var effective []Operation
	for _, op := range ops {
		switch op.Kind {
		case OpBatch:
			sub, err := s.applyOps(op.Ops)
			if err != nil {
				return nil, err
			}
			effective = append(effective, sub...)
		case OpAdd:
			changed, err := s.applyAdd(op)
			if err != nil {
				return nil, err
			}
			if changed {
				effective = append(effective, op)
			}
		case OpDelete:
			changed, err := s.applyDelete(op)
			if err != nil {
				return nil, err
			}
			if changed {
				effective = append(effective, op)
			}
		}
	}
	return effective, nil
}

// Tree is the replicated ordered tree container (spec §4.5). It owns
// its root, operation log, and timestamp allocator exclusively; all
// mutation is serialized through mu, matching the teacher's
// RWMutex-guarded CRDTs (GCounter, PNCounter, RGA).
type Tree struct {
	mu          sync.RWMutex
	id          ReplicaId
	maxReplicas int
	instanceID  uuid.UUID
	state       *treeState
}

// Options configures a new Tree (spec §4.5.1's init({id, maxReplicas})).
type Options struct {
	ID          ReplicaId
	MaxReplicas int
}

// Init constructs a tree containing only the root: no payload, not
// deleted, no children, no parent, an empty log, and a timestamp
// allocator keyed by opts.ID with a shift width derived from
// opts.MaxReplicas.
func Init(opts Options) *Tree {
	maxReplicas := opts.MaxReplicas
	if maxReplicas < 1 {
		maxReplicas = 1
	}
	return &Tree{
		id:          opts.ID,
		maxReplicas: maxReplicas,
		instanceID:  uuid.New(),
		state:       newTreeState(opts.ID, maxReplicas),
	}
}

// InstanceID returns a UUID minted once at Init, identifying this tree
// instance for diagnostics independent of its compact ReplicaId (see
// SPEC_FULL.md's DOMAIN STACK section). It plays no role in merge
// semantics.
func (t *Tree) InstanceID() uuid.UUID {
	return t.instanceID
}

// ReplicaID returns this tree's configured ReplicaId.
func (t *Tree) ReplicaID() ReplicaId {
	return t.id
}

// Apply applies a single, fully-formed Operation — Add, Delete, or
// Batch — received from a local builder or a remote peer (spec
// §4.5.3). On success the tree is mutated in place; on failure the
// tree is left exactly as it was (validate-then-commit, see
// DESIGN.md's resolution of the "pure value" open question).
func (t *Tree) Apply(op Operation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	scratch := t.state.clone()

	if op.Kind == OpBatch {
		effective, err := scratch.applyOps(op.Ops)
		if err != nil {
			return err
		}
		scratch.last = NewBatch(effective)
	} else {
		_, err := scratch.applyOps([]Operation{op})
		if err != nil {
			return err
		}
		scratch.last = op
	}

	t.state = scratch
	return nil
}

// Batch runs a sequence of deferred local builders (AddLeaf, AddBranch,
// DeleteAt) against the tree atomically: either every builder's
// synthesized operation takes effect, or none do (spec §4.5.3). An
// empty batch is always a successful no-op.
func (t *Tree) Batch(builders ...Builder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	scratch := t.state.clone()
	cur := newCursor()

	ops := make([]Operation, len(builders))
	for i, b := range builders {
		ops[i] = b(t.id, scratch, cur)
	}

	effective, err := scratch.applyOps(ops)
	if err != nil {
		return err
	}

	scratch.last = NewBatch(effective)
	t.state = scratch
	return nil
}

// Get returns the payload at path and whether it is observable: the
// path must resolve to an existing, non-tombstoned node that carries a
// payload (the root never does).
func (t *Tree) Get(path []Timestamp) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.state.resolve(path)
	if !ok {
		return nil, false
	}
	return n.Payload()
}

// Node returns the Node addressed by path, for callers that need more
// than its payload (e.g. walking Children or calling Path).
func (t *Tree) Node(path []Timestamp) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.resolve(path)
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.root
}

// LastOperation returns the Operation associated with the most recent
// successful Apply or Batch call: a bare Add/Delete for a single
// Apply, or a Batch wrapping the effective sub-operations (even of
// length one or zero) for a Batch call (spec §4.5.5, §9).
func (t *Tree) LastOperation() Operation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.last
}

// OperationsSince returns the subsequence of the log with a
// sequencing key strictly greater than ts, in log order, with any
// Batch wrapper already flattened away — the log only ever stores
// atomic Add/Delete entries (spec §4.5.5).
func (t *Tree) OperationsSince(ts Timestamp) []Operation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Operation
	for _, e := range t.state.log {
		if e.seq > ts {
			out = append(out, e.op)
		}
	}
	return out
}

// Len returns the number of non-root, non-tombstoned nodes in the
// tree.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var count func(n *Node) int
	count = func(n *Node) int {
		c := 0
		if !n.deleted && n.hasPayload {
			c = 1
		}
		for _, child := range n.children {
			c += count(child)
		}
		return c
	}
	return count(t.state.root)
}

// LogLen returns the number of entries in the operation log.
func (t *Tree) LogLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.state.log)
}

// Activity returns the tree's per-replica diagnostic counters.
func (t *Tree) Activity() *ReplicaActivity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.activity
}

// Clone returns a tree holding an independent deep copy of this
// tree's current state: mutating the clone never affects the
// original, and vice versa (spec §5's "the tree is a pure value").
func (t *Tree) Clone() *Tree {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Tree{
		id:          t.id,
		maxReplicas: t.maxReplicas,
		instanceID:  uuid.New(),
		state:       t.state.clone(),
	}
}
