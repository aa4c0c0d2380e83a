// Package state implements the session state store: a tree of named subtrees
// with shallow-merge dispatch and synchronous change notification.
package state

// Tree is one named branch of the state tree.
type Tree map[string]any

// Cloner lets container values stored in a Tree control how snapshots copy
// them. Values that do not implement it are copied by the built-in rules.
type Cloner interface {
	CloneValue() any
}

// Store holds the full state tree. All mutation goes through Dispatch;
// Snapshot and Subtree hand out copies, so callers can never corrupt the
// tree directly. Like the event bus, a Store is confined to its session's
// event loop goroutine and is not safe for concurrent use.
type Store struct {
	subtrees    map[string]Tree
	subscribers []func()
}

func New() *Store {
	return &Store{subtrees: make(map[string]Tree)}
}

// NewWith seeds the store. The initial trees are copied in.
func NewWith(initial map[string]Tree) *Store {
	s := New()
	for key, tree := range initial {
		s.subtrees[key] = copyTree(tree)
	}
	return s
}

// Dispatch shallow-merges patch into the named subtree: fields present in
// patch overwrite, absent fields survive, other subtrees are untouched. A
// key with no existing subtree gets one. After the merge every subscriber is
// invoked once, in subscription order, with the merge already visible.
//
// There is no queue. A dispatch issued from inside a subscriber runs to
// completion, merge and fan-out included, before the outer dispatch reaches
// its remaining subscribers, so nested dispatches must not assume atomicity
// across the outer fan-out.
func (s *Store) Dispatch(key string, patch Tree) {
	subtree, ok := s.subtrees[key]
	if !ok {
		subtree = make(Tree, len(patch))
		s.subtrees[key] = subtree
	}
	for field, value := range patch {
		subtree[field] = value
	}
	for i := 0; i < len(s.subscribers); i++ {
		s.subscribers[i]()
	}
}

// Subscribe registers fn for every future dispatch. Callbacks receive no
// payload; they re-read state through Snapshot or Subtree. Subscriptions are
// not revocable: a store lives exactly as long as its session, and every
// subscriber shares that lifetime.
func (s *Store) Subscribe(fn func()) {
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns a copy of the full tree. Mutating the copy, including the
// container values inside it, does not touch the store.
func (s *Store) Snapshot() map[string]Tree {
	out := make(map[string]Tree, len(s.subtrees))
	for key, tree := range s.subtrees {
		out[key] = copyTree(tree)
	}
	return out
}

// Subtree returns a copy of one named subtree, or nil when it does not exist.
func (s *Store) Subtree(key string) Tree {
	tree, ok := s.subtrees[key]
	if !ok {
		return nil
	}
	return copyTree(tree)
}

func copyTree(t Tree) Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Cloner:
		return val.CloneValue()
	case Tree:
		return copyTree(val)
	case map[string]any:
		return map[string]any(copyTree(Tree(val)))
	case map[string]struct{}:
		out := make(map[string]struct{}, len(val))
		for k := range val {
			out[k] = struct{}{}
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		// Scalars and struct values copy by assignment.
		return v
	}
}
