// Package scope implements the per-function Scope Tracker: a tree of lexical scopes used during
// lowering to resolve variable/label lookups, and the flattened label/goto legality check that runs
// once the whole function has been lowered.
package scope

import (
	"fmt"

	"jcc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// FunctionPoint is a (block, insertion index) location at which a later fix-up step inserts
// destructor/undeclare operations ahead of a terminator.
type FunctionPoint struct {
	Block int
	Index int
}

// opKind differentiates the four scope-operation vocabulary entries.
type opKind int

const (
	opVarDecl opKind = iota
	opLabel
	opGoto
	opChildScope
)

// scopeOp is one entry in a Scope's ordered operation list.
type scopeOp struct {
	kind     opKind
	name     string        // variable or label name; goto target name for opGoto.
	varType  *types.Type   // set for opVarDecl.
	point    FunctionPoint // declare/label/goto site.
	child    *Scope        // set for opChildScope.
}

// Scope is one lexical scope: an ordered list of scope-operations plus loop/unsafe metadata.
//
// IsLoop and IsBreakable are independent: a switch scope is breakable but not a loop, so `continue`
// inside a switch passes through it to the nearest enclosing loop while `break` stops at the switch.
type Scope struct {
	id          int
	Parent      *Scope
	ops         []*scopeOp
	Unsafe      bool
	IsLoop      bool
	IsBreakable bool
	BreakBID    int
	ContBID     int
}

// GotoFixup is one legal goto's teardown list: the variables (innermost-declared-first) that must be
// undeclared ahead of the jump, handed back to the lowering pass.
type GotoFixup struct {
	Point    FunctionPoint
	Teardown []string
}

// Tracker owns the scope tree for one function body.
type Tracker struct {
	Root   *Scope
	stack  []*Scope
	seq    int
	labels map[string]*scopeOp // function-wide label namespace.
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewTracker creates a Tracker with a single root scope, the function's top-level body scope.
func NewTracker() *Tracker {
	root := &Scope{id: 0}
	return &Tracker{Root: root, stack: []*Scope{root}, seq: 1, labels: make(map[string]*scopeOp)}
}

// current returns the innermost open scope.
func (t *Tracker) current() *Scope {
	return t.stack[len(t.stack)-1]
}

// ScopePush opens a child scope of the current scope. unsafe is inherited from the parent if true.
func (t *Tracker) ScopePush(unsafe bool) *Scope {
	parent := t.current()
	child := &Scope{
		id:     t.seq,
		Parent: parent,
		Unsafe: parent.Unsafe || unsafe,
	}
	t.seq++
	parent.ops = append(parent.ops, &scopeOp{kind: opChildScope, child: child})
	t.stack = append(t.stack, child)
	return child
}

// ScopePushLoop opens a child scope marked as a loop: both breakable and continuable.
func (t *Tracker) ScopePushLoop(breakBID, contBID int) *Scope {
	s := t.ScopePush(false)
	s.IsLoop = true
	s.IsBreakable = true
	s.BreakBID = breakBID
	s.ContBID = contBID
	return s
}

// ScopePushSwitch opens a child scope that is breakable but not continuable: `continue` inside it
// targets whatever loop encloses the switch, if any.
func (t *Tracker) ScopePushSwitch(breakBID int) *Scope {
	s := t.ScopePush(false)
	s.IsBreakable = true
	s.BreakBID = breakBID
	return s
}

// ScopePop closes the current scope, returning control to its parent.
func (t *Tracker) ScopePop() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// DeclareVariable records a variable declaration in the current scope. Redeclaring the same name
// within the same scope is an error; shadowing in a nested scope is not.
func (t *Tracker) DeclareVariable(name string, ty *types.Type, pt FunctionPoint) error {
	cur := t.current()
	for _, op := range cur.ops {
		if op.kind == opVarDecl && op.name == name {
			return fmt.Errorf("variable %q already declared in this scope", name)
		}
	}
	cur.ops = append(cur.ops, &scopeOp{kind: opVarDecl, name: name, varType: ty, point: pt})
	return nil
}

// DeclareLabel records a function-wide label. Duplicate label names are an error.
func (t *Tracker) DeclareLabel(name string, pt FunctionPoint) error {
	if _, dup := t.labels[name]; dup {
		return fmt.Errorf("label %q already defined in this function", name)
	}
	op := &scopeOp{kind: opLabel, name: name, point: pt}
	t.current().ops = append(t.current().ops, op)
	t.labels[name] = op
	return nil
}

// DeclareGoto records a goto statement's target and site; legality is decided later by Fixups.
func (t *Tracker) DeclareGoto(label string, pt FunctionPoint) {
	t.current().ops = append(t.current().ops, &scopeOp{kind: opGoto, name: label, point: pt})
}

// QueryVariable searches the scope chain from the current scope outward to the root.
func (t *Tracker) QueryVariable(name string) (*types.Type, bool) {
	for s := t.current(); s != nil; s = s.Parent {
		for _, op := range s.ops {
			if op.kind == opVarDecl && op.name == name {
				return op.varType, true
			}
		}
	}
	return nil, false
}

// QueryLabel reports whether a label with the given name exists anywhere in the function.
func (t *Tracker) QueryLabel(name string) bool {
	_, ok := t.labels[name]
	return ok
}

// IsUnsafe reports whether the current scope is (transitively) marked unsafe.
func (t *Tracker) IsUnsafe() bool {
	return t.current().Unsafe
}

// IsInLoop reports whether the current scope is nested inside a loop scope.
func (t *Tracker) IsInLoop() bool {
	for s := t.current(); s != nil; s = s.Parent {
		if s.IsLoop {
			return true
		}
	}
	return false
}

// BreakTarget returns the nearest enclosing breakable (loop or switch) scope's break block id, plus the
// teardown list (innermost-scope-first, latest-declared-first) of every variable in scope between here
// and that scope's parent, since a break leaves the breakable scope itself entirely.
func (t *Tracker) BreakTarget() (blockID int, teardown []string, ok bool) {
	for s := t.current(); s != nil; s = s.Parent {
		if s.IsBreakable {
			return s.BreakBID, teardownFor(t.current(), s.Parent), true
		}
	}
	return 0, nil, false
}

// ContinueTarget returns the nearest enclosing loop scope's continue block id, passing through any
// intervening switch scopes, plus the teardown list up to and including the loop scope's own variables:
// a continue starts the next iteration fresh, so the loop body's declarations are re-entered rather than
// carried across iterations.
func (t *Tracker) ContinueTarget() (blockID int, teardown []string, ok bool) {
	for s := t.current(); s != nil; s = s.Parent {
		if s.IsLoop {
			return s.ContBID, teardownFor(t.current(), s.Parent), true
		}
	}
	return 0, nil, false
}

// TeardownToRoot returns the teardown list (innermost-scope-first, latest-declared-first) of every
// variable live anywhere from the current scope up to and including the function's root scope (its
// parameters and top-level locals), used when a function exits via `return` or falls off the end: unlike
// a break/continue/goto target, the root scope itself does not survive the jump.
func (t *Tracker) TeardownToRoot() []string {
	return teardownFor(t.current(), nil)
}

// OwnVariables returns the names of variables declared directly in the current scope (not any
// ancestor), in declaration order. Used when closing a scope to emit its teardown.
func (t *Tracker) OwnVariables() []string {
	var names []string
	for _, op := range t.current().ops {
		if op.kind == opVarDecl {
			names = append(names, op.name)
		}
	}
	return names
}

