package model

import (
	"sort"
	"strconv"
	"sync"
)

// Tree is the arena of model nodes for one root shape. Nodes are created on
// first access and cached by canonical path, so repeated lookups of the same
// path return the same *Node for the lifetime of the tree (until the node is
// pruned from an array).
type Tree struct {
	mu    sync.Mutex
	root  *Node
	nodes map[string]*Node
}

// NewTree creates a tree for the given root shape.
func NewTree(shape *Shape) *Tree {
	if shape == nil {
		shape = Object()
	}
	t := &Tree{nodes: make(map[string]*Node)}
	t.root = &Node{tree: t, shape: shape}
	t.nodes[""] = t.root
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Shape returns the root shape.
func (t *Tree) Shape() *Shape { return t.root.shape }

// Lookup materializes the node at a canonical path. It returns false when the
// path does not fit the declared shape.
func (t *Tree) Lookup(path string) (*Node, bool) {
	t.mu.Lock()
	if n, ok := t.nodes[path]; ok {
		t.mu.Unlock()
		return n, true
	}
	t.mu.Unlock()

	n := t.root
	for _, seg := range Split(path) {
		switch n.Kind() {
		case KindObject:
			n = n.Field(seg)
		case KindArray:
			i, ok := IndexOf(seg)
			if !ok {
				return nil, false
			}
			n = n.Index(i)
		default:
			return nil, false
		}
		if n == nil {
			return nil, false
		}
	}
	return n, true
}

// Materialized returns the currently cached nodes ordered by path.
func (t *Tree) Materialized() []*Node {
	t.mu.Lock()
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// Prune drops cached nodes addressing items of the array at arrayPath whose
// index is length or greater, together with their descendants. It returns the
// dropped nodes.
func (t *Tree) Prune(arrayPath string, length int) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dropped []*Node
	for p, n := range t.nodes {
		if StaleIndex(p, arrayPath, length) {
			delete(t.nodes, p)
			n.detached = true
			dropped = append(dropped, n)
		}
	}
	return dropped
}

// StaleIndex reports whether path lies under an item of arrayPath at an index
// of length or greater.
func StaleIndex(path, arrayPath string, length int) bool {
	idx, _, ok := ItemIndex(path, arrayPath)
	return ok && idx >= length
}

func (t *Tree) child(parent *Node, seg string, shape *Shape) *Node {
	p := Join(parent.path, seg)
	if shape == nil {
		shape = Any()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[p]; ok {
		return n
	}
	n := &Node{tree: t, parent: parent, name: seg, path: p, shape: shape}
	t.nodes[p] = n
	return n
}

// Node is a position in the value tree. Nodes only describe where a value
// lives; they never hold the value itself.
type Node struct {
	tree     *Tree
	parent   *Node
	name     string
	path     string
	shape    *Shape
	detached bool
}

// Name is the property key or array index of the node ("" at the root).
func (n *Node) Name() string { return n.name }

// Path is the canonical path of the node.
func (n *Node) Path() string { return n.path }

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Shape returns the declared shape.
func (n *Node) Shape() *Shape { return n.shape }

// Kind returns the declared kind.
func (n *Node) Kind() Kind { return n.shape.Kind }

// Tree returns the arena owning the node.
func (n *Node) Tree() *Tree { return n.tree }

// Detached reports whether the node was pruned from its tree.
func (n *Node) Detached() bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.detached
}

// Field returns the child node of an object field, or nil when the node is
// not an object or has no such field.
func (n *Node) Field(name string) *Node {
	fs, ok := n.shape.Field(name)
	if !ok {
		return nil
	}
	return n.tree.child(n, name, fs)
}

// Index returns the child node for an array index, or nil when the node is
// not an array.
func (n *Node) Index(i int) *Node {
	if n.shape.Kind != KindArray || i < 0 {
		return nil
	}
	item := n.shape.Item
	if item == nil {
		item = Any()
	}
	return n.tree.child(n, strconv.Itoa(i), item)
}

// Fields returns the nodes of every declared field in declaration order.
func (n *Node) Fields() []*Node {
	if n.shape.Kind != KindObject {
		return nil
	}
	out := make([]*Node, 0, len(n.shape.Fields))
	for _, f := range n.shape.Fields {
		out = append(out, n.tree.child(n, f.Name, f.Shape))
	}
	return out
}

// Items returns one node per item of the array found at this node's path in
// root. Indices are taken from the current value, never from the cache.
func (n *Node) Items(root any) []*Node {
	if n.shape.Kind != KindArray {
		return nil
	}
	v, _ := Resolve(root, n.path)
	arr, _ := v.([]any)
	out := make([]*Node, len(arr))
	for i := range arr {
		out[i] = n.Index(i)
	}
	return out
}

func (n *Node) String() string {
	if n.path == "" {
		return "<root>"
	}
	return n.path
}
