package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
)

// assignedSet is a forward-dataflow fact: the set of local variable names definitely assigned a value
// at some program point. A name absent from the set is either not yet assigned or not yet declared;
// the distinction never matters here, since lowering only ever produces a local_variable operand for a
// name already resolved in scope, so any operand referencing a tracked name is necessarily declared.
type assignedSet map[string]bool

// checkUseBeforeAssignment runs a forward fixpoint dataflow (meet = intersection over predecessors)
// tracking which declared locals are definitely assigned at each block boundary, and reports every read
// of a local that is not yet definitely assigned on some incoming path.
func checkUseBeforeAssignment(f *mir.Function, errs *source.Errors) {
	f.ComputePreds()

	tmpToVar := make(map[int]string)
	for _, b := range f.OrderedBlocks() {
		for _, op := range b.Operations {
			if op.Op == mir.OpLocalVariable {
				tmpToVar[op.Result] = op.Name
			}
		}
	}

	entry := assignedSet{}
	for _, a := range f.Args {
		entry[a.Name] = true
	}

	// Lowering binds each parameter with a local_declare at the head of BB0; those declares keep the
	// parameter assigned instead of clearing it like any other declare.
	paramDecls := make(map[*mir.Operation]bool)
	if b0 := f.Blocks[0]; b0 != nil {
		for _, op := range b0.Operations {
			if len(paramDecls) == len(f.Args) || op.Op != mir.OpLocalDeclare || !entry[op.Name] {
				break
			}
			paramDecls[op] = true
		}
	}

	in := make(map[int]assignedSet)
	out := make(map[int]assignedSet)
	in[0] = entry

	blocks := f.OrderedBlocks()
	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			var merged assignedSet
			if b.Id == 0 {
				merged = entry
			} else {
				merged = meet(b.Preds, out)
			}
			if !setsEqual(in[b.Id], merged) {
				in[b.Id] = merged
				changed = true
			}
			next := transfer(b, in[b.Id], tmpToVar, paramDecls, nil, "", false)
			if !setsEqual(out[b.Id], next) {
				out[b.Id] = next
				changed = true
			}
		}
	}

	// The fixpoint loop above may run the transfer function against intermediate, not-yet-converged
	// states; diagnostics are only meaningful once every block's in-state has stabilized, so report in
	// a final pass over the converged result instead of during convergence.
	for _, b := range blocks {
		transfer(b, in[b.Id], tmpToVar, paramDecls, errs, f.Name, true)
	}
}

func meet(preds []int, out map[int]assignedSet) assignedSet {
	result := assignedSet{}
	first := true
	for _, p := range preds {
		s, ok := out[p]
		if !ok {
			continue
		}
		if first {
			for k := range s {
				result[k] = true
			}
			first = false
			continue
		}
		for k := range result {
			if !s[k] {
				delete(result, k)
			}
		}
	}
	return result
}

func setsEqual(a, b assignedSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// transfer applies one block's operations to inState, returning the resulting out-state. When report is
// true it also emits diagnostics for reads of a not-yet-definitely-assigned local; errs/fnName are
// unused (and may be nil/empty) otherwise.
func transfer(b *mir.BasicBlock, inState assignedSet, tmpToVar map[int]string, paramDecls map[*mir.Operation]bool, errs *source.Errors, fnName string, report bool) assignedSet {
	state := assignedSet{}
	for k := range inState {
		state[k] = true
	}

	for _, op := range b.Operations {
		switch op.Op {
		case mir.OpLocalDeclare:
			if !paramDecls[op] {
				delete(state, op.Name)
			}
			continue
		case mir.OpLocalUndeclare:
			delete(state, op.Name)
			continue
		}

		skip := -1
		if op.Op == mir.OpAssign && len(op.Operands) == 2 {
			skip = 0
		}
		for i, tmp := range op.Operands {
			if i == skip {
				continue
			}
			name, ok := tmpToVar[tmp]
			if !ok || state[name] {
				continue
			}
			if report {
				errs.Simple(source.IDAnalysis, "use before assignment", op.Ref,
					"function %q: %q is read before being definitely assigned", fnName, name)
			}
		}
		if op.Op == mir.OpAssign && len(op.Operands) == 2 {
			if name, ok := tmpToVar[op.Operands[0]]; ok {
				state[name] = true
			}
		}
	}
	return state
}
