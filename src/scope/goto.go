package scope

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// flatOp is one scope-operation in source order, tagged with the scope that owns it. Flattening the
// scope tree into this single array is what makes the goto/label legality check a linear scan instead
// of a tree walk.
type flatOp struct {
	kind  opKind
	name  string
	owner *Scope
	point FunctionPoint
}

// flatten walks the scope tree in source order, producing the array flatOp form plus a name -> index
// map for labels.
func flatten(root *Scope) ([]flatOp, map[string]int) {
	var out []flatOp
	labels := make(map[string]int)
	var walk func(s *Scope)
	walk = func(s *Scope) {
		for _, op := range s.ops {
			switch op.kind {
			case opChildScope:
				walk(op.child)
			case opLabel:
				labels[op.name] = len(out)
				out = append(out, flatOp{kind: op.kind, name: op.name, owner: s, point: op.point})
			default:
				out = append(out, flatOp{kind: op.kind, name: op.name, owner: s, point: op.point})
			}
		}
	}
	walk(root)
	return out, labels
}

// isAncestorOrSelf reports whether anc is s or one of s's ancestors.
func isAncestorOrSelf(s, anc *Scope) bool {
	for n := s; n != nil; n = n.Parent {
		if n == anc {
			return true
		}
	}
	return false
}

// commonAncestor returns the lowest scope that is an ancestor-or-self of both a and b.
func commonAncestor(a, b *Scope) *Scope {
	for x := a; x != nil; x = x.Parent {
		if isAncestorOrSelf(b, x) {
			return x
		}
	}
	return nil
}

// Fixups walks every goto recorded against the tracker and decides legality: a goto is legal only if
// its target label exists and no variable declared between the goto and the label, in a scope that is
// still live at the label, is skipped past. For each legal goto it also computes the teardown list:
// every variable declared in a scope the jump leaves (but the label does not re-enter), innermost and
// latest-declared first.
func (t *Tracker) Fixups() ([]GotoFixup, []error) {
	flat, labelIdx := flatten(t.Root)

	var fixups []GotoFixup
	var errs []error

	for g, op := range flat {
		if op.kind != opGoto {
			continue
		}
		l, ok := labelIdx[op.name]
		if !ok {
			known := maps.Keys(labelIdx)
			slices.Sort(known)
			errs = append(errs, fmt.Errorf("goto references undefined label %q (declared: %v)", op.name, known))
			continue
		}

		if g < l {
			if skipped, ok := skippedDeclaration(flat, g, l); ok {
				errs = append(errs, fmt.Errorf(
					"goto to %q skips declaration of variable %q", op.name, skipped))
				continue
			}
		}

		fixups = append(fixups, GotoFixup{
			Point:    op.point,
			Teardown: teardownFor(op.owner, flat[l].owner),
		})
	}

	return fixups, errs
}

// skippedDeclaration scans flat[g+1:l] for a var_decl whose owning scope is still active at the label
// (an ancestor-or-self of the label's scope); its name is what the jump would skip initializing.
func skippedDeclaration(flat []flatOp, g, l int) (string, bool) {
	labelScope := flat[l].owner
	for i := g + 1; i < l; i++ {
		op := flat[i]
		if op.kind == opVarDecl && isAncestorOrSelf(labelScope, op.owner) {
			return op.name, true
		}
	}
	return "", false
}

// teardownFor lists, innermost-scope-first and latest-declared-first within each scope, the variables
// declared in scopes that `from` leaves to reach its common ancestor with `to` but that `to` does not
// also live inside.
func teardownFor(from, to *Scope) []string {
	anc := commonAncestor(from, to)
	var names []string
	for s := from; s != nil && s != anc; s = s.Parent {
		var scopeVars []string
		for _, op := range s.ops {
			if op.kind == opVarDecl {
				scopeVars = append(scopeVars, op.name)
			}
		}
		slices.Reverse(scopeVars)
		names = append(names, scopeVars...)
	}
	return names
}
