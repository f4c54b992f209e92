package formbind

import (
	"context"
	"slices"

	"github.com/reoring/formbind/model"
)

// Node is the binder-side controller of one model node. It holds the node's
// validators; its value, errors and flags live in the owning Binder and are
// read through it.
type Node struct {
	binder     *Binder
	model      *model.Node
	validators []Validator
}

// Path is the canonical path of the node ("" at the root).
func (n *Node) Path() string { return n.model.Path() }

// Name is the property key or array index of the node.
func (n *Node) Name() string { return n.model.Name() }

// Model returns the model node.
func (n *Node) Model() *model.Node { return n.model }

// Binder returns the owning binder.
func (n *Node) Binder() *Binder { return n.binder }

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node {
	if p := n.model.Parent(); p != nil {
		return n.binder.For(p)
	}
	return nil
}

// Field returns the node of an object field, or nil.
func (n *Node) Field(name string) *Node {
	return n.binder.For(n.model.Field(name))
}

// Index returns the node of an array item, or nil.
func (n *Node) Index(i int) *Node {
	return n.binder.For(n.model.Index(i))
}

// Items returns one node per item of the current array value.
func (n *Node) Items() []*Node {
	b := n.binder
	b.mu.Lock()
	root := b.value
	b.mu.Unlock()
	ms := n.model.Items(root)
	out := make([]*Node, len(ms))
	for i, m := range ms {
		out[i] = b.For(m)
	}
	return out
}

// Value returns the current value at the node's path, or nil when an
// intermediate is missing.
func (n *Node) Value() any {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	v, _ := model.Resolve(b.value, n.Path())
	return v
}

// SetValue writes v at the node's path. It clears the node's own errors
// (not its descendants'), marks the node and its ancestors dirty and
// notifies once. Writes through a node whose array item was removed are
// ignored.
func (n *Node) SetValue(v any) {
	b := n.binder
	path := n.Path()
	b.update(func() {
		if !b.addressableLocked(path) {
			return
		}
		b.value = model.Assoc(b.value, path, v)
		kept := b.errors[:0]
		for _, e := range b.errors {
			if e.Property != path {
				kept = append(kept, e)
			}
		}
		b.errors = kept
		b.markDirtyLocked(path)
		b.reconcileLocked()
	})
}

// DefaultValue returns the value at the node's path in the last value read,
// or the structural empty value of the node's shape when absent there.
func (n *Node) DefaultValue() any {
	b := n.binder
	b.mu.Lock()
	v, ok := model.Resolve(b.defaultValue, n.Path())
	b.mu.Unlock()
	if ok {
		return v
	}
	return model.Empty(n.model.Shape())
}

// AppendItem appends the structural empty item to an array node and returns
// the new item's node. It returns nil for non-array nodes and for arrays
// inside a removed item.
func (n *Node) AppendItem() *Node { return n.insertItem(-1, nil, true) }

// AppendItemValue appends v to an array node.
func (n *Node) AppendItemValue(v any) *Node { return n.insertItem(-1, v, false) }

// PrependItem inserts the structural empty item at index 0. State of
// existing items moves with them.
func (n *Node) PrependItem() *Node { return n.insertItem(0, nil, true) }

// PrependItemValue inserts v at index 0.
func (n *Node) PrependItemValue(v any) *Node { return n.insertItem(0, v, false) }

func (n *Node) insertItem(at int, v any, empty bool) *Node {
	if n.model.Kind() != model.KindArray {
		return nil
	}
	if empty {
		v = model.Empty(n.model.Shape().Item)
	}
	b := n.binder
	path := n.Path()
	var idx int
	b.update(func() {
		if !b.addressableLocked(path) {
			idx = -1
			return
		}
		size := model.Len(b.value, path)
		idx = at
		if idx < 0 || idx > size {
			idx = size
		}
		if idx < size {
			b.shiftLocked(path, idx, 1)
		}
		b.value = model.InsertIndex(b.value, path, idx, v)
		b.markDirtyLocked(path)
	})
	if idx < 0 {
		return nil
	}
	m, _ := b.tree.Lookup(model.JoinIndex(path, idx))
	return b.For(m)
}

// RemoveItem removes the item at index i of an array node. State of later
// items moves down with them; state and nodes past the new end are dropped.
func (n *Node) RemoveItem(i int) {
	if n.model.Kind() != model.KindArray {
		return
	}
	b := n.binder
	path := n.Path()
	b.update(func() {
		if i < 0 || i >= model.Len(b.value, path) {
			return
		}
		item := model.JoinIndex(path, i)
		b.dropStateLocked(func(p string) bool { return model.Within(p, item) })
		b.shiftLocked(path, i+1, -1)
		b.value = model.RemoveIndex(b.value, path, i)
		b.markDirtyLocked(path)
		b.reconcileLocked()
	})
}

// RemoveSelf removes this item from its parent array.
func (n *Node) RemoveSelf() {
	p := n.Parent()
	if p == nil {
		return
	}
	if i, ok := model.IndexOf(n.Name()); ok {
		p.RemoveItem(i)
	}
}

// Visited reports the visited flag.
func (n *Node) Visited() bool {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visited[n.Path()]
}

// SetVisited sets the visited flag. The flag is metadata for field adapters;
// validation ignores it.
func (n *Node) SetVisited(v bool) {
	b := n.binder
	b.update(func() {
		if v {
			b.visited[n.Path()] = true
		} else {
			delete(b.visited, n.Path())
		}
	})
}

// Dirty reports whether the node or a descendant was written since the last
// read.
func (n *Node) Dirty() bool {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty[n.Path()]
}

// Validators returns the node's validators in attachment order.
func (n *Node) Validators() []Validator {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(n.validators)
}

// AddValidator appends v. Adding the same validator twice runs it twice.
func (n *Node) AddValidator(v Validator) {
	n.binder.update(func() { n.validators = append(n.validators, v) })
}

// RemoveValidator detaches the first occurrence of v. Its findings are
// dropped by the next validation pass over the node.
func (n *Node) RemoveValidator(v Validator) {
	n.binder.update(func() {
		if i := slices.IndexFunc(n.validators, func(x Validator) bool { return sameValidator(x, v) }); i >= 0 {
			n.validators = slices.Delete(n.validators, i, i+1)
		}
	})
}

// Required reports whether any of the node's own validators implies a
// mandatory value.
func (n *Node) Required() bool {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.ContainsFunc(n.validators, impliesRequired)
}

// OwnErrors returns the errors targeting exactly this node.
func (n *Node) OwnErrors() []ValueError {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []ValueError
	for _, e := range b.errors {
		if e.Property == n.Path() {
			out = append(out, e.ValueError)
		}
	}
	return out
}

// Errors returns the errors targeting this node or a descendant, in tree
// order.
func (n *Node) Errors() []ValueError {
	b := n.binder
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorsWithinLocked(n.Path())
}

// Invalid reports whether Errors is non-empty.
func (n *Node) Invalid() bool { return len(n.Errors()) > 0 }

// ErrorMessage returns the message of the first own error, or "".
func (n *Node) ErrorMessage() string {
	if errs := n.OwnErrors(); len(errs) > 0 {
		return errs[0].Message
	}
	return ""
}

// Validate runs the validators of this node and its descendants and returns
// their failures in depth-first pre-order. All validators start without
// waiting on each other; the order of the result depends only on tree
// position. The binder's stored errors for the subtree are replaced.
func (n *Node) Validate(ctx context.Context) []ValueError {
	return n.binder.validate(ctx, n)
}

func (n *Node) String() string { return n.model.String() }
