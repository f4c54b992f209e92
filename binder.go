package formbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/reoring/formbind/internal/ctxlog"
	"github.com/reoring/formbind/internal/engine"
	"github.com/reoring/formbind/model"
)

// SaveFunc persists a submitted value. Returning an *EndpointValidationError
// (directly or wrapped) marks the failure as a server validation failure.
type SaveFunc func(ctx context.Context, value any) (any, error)

// ConstraintFactory turns a declared constraint into a validator. It may
// return a nil validator to ignore the constraint.
type ConstraintFactory func(c model.Constraint, shape *model.Shape) (Validator, error)

// Options configure a Binder. The zero value is usable.
type Options struct {
	// OnChange is called after every state change, outside the binder lock.
	OnChange func()
	// OnSubmit is the save operation used by Submit.
	OnSubmit SaveFunc
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Constraints, when set, attaches validators for the constraints declared
	// on a shape when its node is first materialized.
	Constraints ConstraintFactory
	// Parameters maps server parameter names; defaults to
	// DefaultParameterMapper.
	Parameters ParameterMapper
	// Interpolate overrides the process-wide interpolation callback.
	Interpolate InterpolateFunc
	// MaxConcurrency bounds concurrently running validators in one pass
	// (0 = unbounded).
	MaxConcurrency int
	// RejectDuplicateKeys makes ReadJSON fail on objects with repeated keys
	// instead of keeping the last occurrence.
	RejectDuplicateKeys bool
}

// State is the lifecycle state of a Binder.
type State uint8

const (
	StatePristine State = iota
	StateDirty
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StatePristine:
		return "pristine"
	case StateDirty:
		return "dirty"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Binder owns a bound value, the node tree over it and the error, visited
// and dirty bookkeeping for every path. The embedded *Node is the root node,
// so validators added to the binder are record-level validators.
type Binder struct {
	*Node

	opts Options
	log  *slog.Logger
	tree *model.Tree

	mu           sync.Mutex
	value        any
	defaultValue any
	nodes        map[*model.Node]*Node
	visited      map[string]bool
	dirty        map[string]bool
	errors       []storedError
	phase        State
	validating   int
	submitting   bool
}

// storedError remembers which node's validator produced an error so that a
// later pass over that node replaces it even when it was redirected
// elsewhere.
type storedError struct {
	ValueError
	origin string
}

// New binds the structural empty value of shape.
func New(shape *model.Shape, opts Options) *Binder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Parameters == nil {
		opts.Parameters = DefaultParameterMapper
	}
	b := &Binder{
		opts:    opts,
		log:     opts.Logger,
		tree:    model.NewTree(shape),
		nodes:   make(map[*model.Node]*Node),
		visited: make(map[string]bool),
		dirty:   make(map[string]bool),
	}
	b.value = model.Empty(b.tree.Shape())
	b.defaultValue = b.value
	b.mu.Lock()
	b.Node = b.nodeLocked(b.tree.Root())
	b.mu.Unlock()
	return b
}

// LoggerFrom returns the logger a binder placed in the context passed to
// validators, or slog.Default().
func LoggerFrom(ctx context.Context) *slog.Logger { return ctxlog.FromContext(ctx) }

// Tree returns the model tree of the binder.
func (b *Binder) Tree() *model.Tree { return b.tree }

// For returns the node bound to m. The same model node always yields the
// same *Node.
func (b *Binder) For(m *model.Node) *Node {
	if m == nil || m.Tree() != b.tree {
		return nil
	}
	if m.Detached() {
		fresh, ok := b.tree.Lookup(m.Path())
		if !ok {
			return nil
		}
		m = fresh
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nodeLocked(m)
}

// Lookup returns the node at a dotted, bracketed or JSON Pointer path.
func (b *Binder) Lookup(path string) (*Node, error) {
	p, err := model.ParsePath(path)
	if err != nil {
		return nil, err
	}
	m, ok := b.tree.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	return b.For(m), nil
}

// At is Lookup for paths known to be valid; it returns nil otherwise.
func (b *Binder) At(path string) *Node {
	n, err := b.Lookup(path)
	if err != nil {
		return nil
	}
	return n
}

// EmptyValue returns the structural empty value of the bound shape.
func (b *Binder) EmptyValue() any { return model.Empty(b.tree.Shape()) }

// Read replaces the bound value and the default value, clears every error,
// visited and dirty flag and keeps attached validators.
func (b *Binder) Read(v any) {
	b.update(func() {
		v = model.Clone(v)
		b.value = v
		b.defaultValue = v
		clear(b.visited)
		clear(b.dirty)
		b.errors = nil
		b.phase = StatePristine
		b.reconcileLocked()
	})
}

// Reset reads the current default value again.
func (b *Binder) Reset() {
	b.mu.Lock()
	v := b.defaultValue
	b.mu.Unlock()
	b.Read(v)
}

// Clear reads the structural empty value.
func (b *Binder) Clear() { b.Read(b.EmptyValue()) }

// State returns the lifecycle state.
func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.validating > 0 {
		return StateValidating
	}
	return b.phase
}

// Validating reports whether a validation pass is in flight.
func (b *Binder) Validating() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validating > 0
}

// Submitting reports whether a save call is in flight.
func (b *Binder) Submitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitting
}

// Submit validates and saves with Options.OnSubmit.
func (b *Binder) Submit(ctx context.Context) (any, error) {
	if b.opts.OnSubmit == nil {
		return nil, ErrNoSubmitHandler
	}
	return b.SubmitTo(ctx, b.opts.OnSubmit)
}

// SubmitTo validates the whole tree and, when valid, calls save with the
// current value. Local failures and server validation failures are returned
// as *ValidationError; any other save error is returned unchanged.
func (b *Binder) SubmitTo(ctx context.Context, save SaveFunc) (any, error) {
	if errs := b.Validate(ctx); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	var value any
	b.update(func() {
		b.submitting = true
		value = b.value
	})
	b.log.Debug("submitting value")

	res, err := save(ctx, value)
	if err == nil {
		b.update(func() { b.submitting = false })
		b.log.Debug("submit succeeded")
		return res, nil
	}

	var sv *EndpointValidationError
	if !errors.As(err, &sv) {
		b.update(func() { b.submitting = false })
		b.log.Debug("submit failed", "error", err)
		return nil, err
	}

	// The interpolation callback may read node state, so messages are
	// formatted outside the lock.
	var pending []pendingServerError
	b.mu.Lock()
	for _, d := range sv.ValidationErrorData {
		pending = append(pending, b.serverErrorLocked(d))
	}
	b.mu.Unlock()

	interp := b.interpolator()
	fresh := make([]storedError, len(pending))
	for i, p := range pending {
		fresh[i] = p.err
		fresh[i].Message = formatMessage(interp, p.err.Message, p.err.Validator, p.node)
	}

	var all []ValueError
	b.update(func() {
		b.submitting = false
		b.errors = append(b.errors, fresh...)
		if len(b.errors) > 0 {
			b.phase = StateInvalid
		}
		all = b.errorsWithinLocked("")
	})
	b.log.Debug("submit rejected by server", "errors", len(sv.ValidationErrorData))
	return nil, &ValidationError{Errors: all}
}

// pendingServerError is a server error resolved against the tree whose
// message is not yet interpolated.
type pendingServerError struct {
	err  storedError
	node *Node
}

func (b *Binder) serverErrorLocked(d ValidationErrorData) pendingServerError {
	name, message := d.ParameterName, d.Message
	var value any
	if p, v, m, ok := splitServerMessage(d.Message); ok {
		name, value, message = p, v, m
	}
	property := name
	if p, ok := b.opts.Parameters(b.tree.Shape(), name); ok {
		property = p
		if value == nil {
			value, _ = model.Resolve(b.value, p)
		}
	}
	var node *Node
	if m, ok := b.tree.Lookup(property); ok {
		node = b.nodeLocked(m)
	}
	return pendingServerError{
		err: storedError{
			ValueError: ValueError{
				Property:         property,
				Message:          message,
				Value:            value,
				Validator:        NewServerValidator(message),
				ValidatorMessage: d.ValidatorMessage,
			},
			origin: property,
		},
		node: node,
	}
}

func (b *Binder) interpolator() InterpolateFunc {
	if b.opts.Interpolate != nil {
		return b.opts.Interpolate
	}
	return InterpolateMessage()
}

// update runs fn under the binder lock and then notifies the host once.
func (b *Binder) update(fn func()) {
	b.mu.Lock()
	fn()
	b.mu.Unlock()
	b.notify()
}

func (b *Binder) notify() {
	if b.opts.OnChange != nil {
		b.opts.OnChange()
	}
}

func (b *Binder) nodeLocked(m *model.Node) *Node {
	if n, ok := b.nodes[m]; ok {
		return n
	}
	n := &Node{binder: b, model: m}
	if b.opts.Constraints != nil {
		for _, c := range m.Shape().Constraints {
			v, err := b.opts.Constraints(c, m.Shape())
			if err != nil {
				b.log.Warn("ignoring constraint", "property", m.Path(), "constraint", c.Name, "error", err)
				continue
			}
			if v != nil {
				n.validators = append(n.validators, v)
			}
		}
	}
	b.nodes[m] = n
	return n
}

// addressableLocked reports whether every array index along path exists in
// the bound value. Missing objects do not count; writes create them.
func (b *Binder) addressableLocked(path string) bool {
	cur := b.value
	for _, seg := range model.Split(path) {
		switch c := cur.(type) {
		case map[string]any:
			cur = c[seg]
		case []any:
			i, ok := model.IndexOf(seg)
			if !ok || i >= len(c) {
				return false
			}
			cur = c[i]
		default:
			cur = nil
		}
	}
	return true
}

// liveLocked returns the model node n currently stands for. A node pruned
// from its array is re-resolved by path while that path addresses an
// existing item again.
func (b *Binder) liveLocked(n *Node) (*model.Node, bool) {
	if !n.model.Detached() {
		return n.model, true
	}
	path := n.Path()
	if !b.addressableLocked(path) {
		return nil, false
	}
	return b.tree.Lookup(path)
}

func (b *Binder) markDirtyLocked(path string) {
	for {
		b.dirty[path] = true
		if path == "" {
			break
		}
		path, _ = model.Parent(path)
	}
	b.phase = StateDirty
}

// reconcileLocked drops cached nodes and path-keyed state addressing array
// items that no longer exist in the bound value.
func (b *Binder) reconcileLocked() {
	for _, m := range b.tree.Materialized() {
		if m.Kind() != model.KindArray || m.Detached() {
			continue
		}
		n := model.Len(b.value, m.Path())
		for _, gone := range b.tree.Prune(m.Path(), n) {
			delete(b.nodes, gone)
		}
		b.dropStateLocked(func(p string) bool { return model.StaleIndex(p, m.Path(), n) })
	}
}

func (b *Binder) dropStateLocked(stale func(string) bool) {
	for p := range b.visited {
		if stale(p) {
			delete(b.visited, p)
		}
	}
	for p := range b.dirty {
		if stale(p) {
			delete(b.dirty, p)
		}
	}
	kept := b.errors[:0]
	for _, e := range b.errors {
		if !stale(e.Property) {
			kept = append(kept, e)
		}
	}
	b.errors = kept
}

// shiftLocked renumbers path-keyed state under arrayPath: items at index
// from or above move by delta.
func (b *Binder) shiftLocked(arrayPath string, from, delta int) {
	move := func(p string) string {
		i, rest, ok := model.ItemIndex(p, arrayPath)
		if !ok || i < from {
			return p
		}
		return model.Join(model.JoinIndex(arrayPath, i+delta), rest)
	}
	b.visited = remapKeys(b.visited, move)
	b.dirty = remapKeys(b.dirty, move)
	for i := range b.errors {
		b.errors[i].Property = move(b.errors[i].Property)
		b.errors[i].origin = move(b.errors[i].origin)
	}
}

func remapKeys(m map[string]bool, move func(string) string) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[move(k)] = v
	}
	return out
}

func (b *Binder) errorsWithinLocked(path string) []ValueError {
	var out []ValueError
	for _, e := range b.errors {
		if model.Within(e.Property, path) {
			out = append(out, e.ValueError)
		}
	}
	return out
}

type task struct {
	node      *Node
	validator Validator
	value     any
}

// collectLocked lists the validators of m and its descendants in depth-first
// pre-order: a node's own validators in attachment order, then each child.
// Children of missing object or array values are not visited.
func (b *Binder) collectLocked(m *model.Node, root any, out []task) []task {
	n := b.nodeLocked(m)
	v, _ := model.Resolve(root, m.Path())
	for _, val := range n.validators {
		out = append(out, task{node: n, validator: val, value: v})
	}
	switch m.Kind() {
	case model.KindObject:
		if _, ok := v.(map[string]any); ok {
			for _, c := range m.Fields() {
				out = b.collectLocked(c, root, out)
			}
		}
	case model.KindArray:
		if arr, ok := v.([]any); ok {
			for i := range arr {
				out = b.collectLocked(m.Index(i), root, out)
			}
		}
	}
	return out
}

func (b *Binder) validate(ctx context.Context, n *Node) []ValueError {
	b.mu.Lock()
	m, ok := b.liveLocked(n)
	if !ok {
		b.mu.Unlock()
		return nil
	}
	tasks := b.collectLocked(m, b.value, nil)
	b.validating++
	b.mu.Unlock()
	b.notify()

	interp := b.interpolator()
	vctx := ctxlog.WithLogger(ctx, b.log)
	results := engine.Run(vctx, len(tasks), b.opts.MaxConcurrency, func(ctx context.Context, i int) []storedError {
		return b.runTask(ctx, tasks[i], interp)
	})

	var fresh []storedError
	for _, r := range results {
		fresh = append(fresh, r...)
	}
	b.update(func() {
		b.validating--
		b.mergeLocked(n.Path(), fresh)
		if b.validating == 0 {
			b.phase = StateValid
			if len(b.errors) > 0 {
				b.phase = StateInvalid
			}
		}
	})
	out := make([]ValueError, len(fresh))
	for i, e := range fresh {
		out[i] = e.ValueError
	}
	return out
}

func (b *Binder) runTask(ctx context.Context, t task, interp InterpolateFunc) []storedError {
	own := t.node.Path()
	res, err := engine.Call(func() (Result, error) {
		return t.validator.Validate(ctx, t.value, t.node)
	})
	if err != nil {
		name := validatorName(t.validator)
		b.log.Error("validator failed unexpectedly", "validator", name, "property", own, "error", err)
		msg := fmt.Sprintf("validator %q failed unexpectedly", name)
		return []storedError{{
			ValueError: ValueError{
				Property:  own,
				Message:   formatMessage(interp, msg, t.validator, t.node),
				Value:     t.value,
				Validator: t.validator,
				Cause:     err,
			},
			origin: own,
		}}
	}
	targets := res.Expand(own, t.validator.Message())
	if len(targets) == 0 {
		return nil
	}
	out := make([]storedError, 0, len(targets))
	for _, tg := range targets {
		out = append(out, storedError{
			ValueError: ValueError{
				Property:  tg.Path,
				Message:   formatMessage(interp, tg.Message, t.validator, t.node),
				Value:     t.value,
				Validator: t.validator,
			},
			origin: own,
		})
	}
	return out
}

// mergeLocked replaces the stored errors that a pass over scope owns, those
// targeting a path inside scope or produced by a validator declared inside
// it, with fresh. Fresh errors take the position of the first replaced
// entry, or else go before the first entry whose origin follows scope in
// tree order.
func (b *Binder) mergeLocked(scope string, fresh []storedError) {
	out := make([]storedError, 0, len(b.errors)+len(fresh))
	at := -1
	for _, e := range b.errors {
		if model.Within(e.Property, scope) || model.Within(e.origin, scope) {
			if at < 0 {
				at = len(out)
			}
			continue
		}
		out = append(out, e)
	}
	if at < 0 {
		shape := b.tree.Shape()
		at = slices.IndexFunc(out, func(e storedError) bool { return model.Compare(shape, e.origin, scope) > 0 })
		if at < 0 {
			at = len(out)
		}
	}
	b.errors = slices.Insert(out, at, fresh...)
}
