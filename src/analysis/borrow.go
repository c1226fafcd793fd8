package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

// loan is one addressof-derived borrow: the temporary it produced, the name of the local it was taken
// from (its referent, found by tracing through dot/array_index/dereference back to a local_variable
// root), and whether it is ever written through.
//
// The MIR has a single addressof opcode with no mut/immut distinction, so mutability is inferred after
// the fact: a loan is mutable if a direct dereference of its temporary is ever the assignment target
// of an assign operation.
type loan struct {
	tmp      int
	referent string
	mutable  bool
	ref      source.Ref
}

// checkBorrows runs a Polonius-style check over f's MIR: it tracks the live range of every pointer
// produced by addressof (a loan), and rejects a loan that is still live when its referent goes out of
// scope, two co-live loans of the same referent when at least one is mutable, and a read of a local
// whose value has been moved out by an earlier by-value composite argument pass.
func checkBorrows(f *mir.Function, errs *source.Errors) {
	f.ComputePreds()
	blocks := f.OrderedBlocks()

	loans := collectLoans(f)
	markMutableLoans(f, loans)
	liveOut := computeLiveOut(f, blocks)

	for _, b := range blocks {
		bounds := liveBoundaries(b, liveOut[b.Id])
		checkLoansOutliveReferent(f, b, bounds, loans, errs)
		checkAliasingMutableLoans(f, bounds, loans, errs)
	}

	checkUseAfterMove(f, errs)
}

// collectLoans finds every addressof operation in f and records the local it was ultimately taken from.
func collectLoans(f *mir.Function) []*loan {
	var loans []*loan
	for _, b := range f.OrderedBlocks() {
		for _, op := range b.Operations {
			if op.Op != mir.OpAddressOf {
				continue
			}
			loans = append(loans, &loan{
				tmp:      op.Result,
				referent: rootName(f, op.Operands[0]),
				ref:      op.Ref,
			})
		}
	}
	return loans
}

// rootName traces an lvalue-producing temporary back to the local_variable it ultimately addresses,
// following member access, array indexing and dereference. It returns "" when the chain bottoms out at
// something with no named root (a call result, a literal), in which case the loan is still tracked for
// liveness but never participates in aliasing or outlives-referent checks.
func rootName(f *mir.Function, tmp int) string {
	def, ok := f.TempDef[tmp]
	if !ok {
		return ""
	}
	switch def.Op {
	case mir.OpLocalVariable:
		return def.Name
	case mir.OpDot, mir.OpArrayIndex, mir.OpDereference:
		return rootName(f, def.Operands[0])
	}
	return ""
}

// markMutableLoans flags every loan that is ever written through: an assign whose target is a direct
// dereference of the loan's own temporary.
func markMutableLoans(f *mir.Function, loans []*loan) {
	byTmp := make(map[int]*loan, len(loans))
	for _, l := range loans {
		byTmp[l.tmp] = l
	}
	for _, b := range f.OrderedBlocks() {
		for _, op := range b.Operations {
			if op.Op != mir.OpAssign || len(op.Operands) != 2 {
				continue
			}
			lhs, ok := f.TempDef[op.Operands[0]]
			if !ok || lhs.Op != mir.OpDereference {
				continue
			}
			if l, ok := byTmp[lhs.Operands[0]]; ok {
				l.mutable = true
			}
		}
	}
}

// computeLiveOut runs the standard backward dataflow (live-out = union of successors' live-in; live-in
// = use ∪ (live-out − def)) to a fixpoint, giving the set of temporaries live on exit from each block.
func computeLiveOut(f *mir.Function, blocks []*mir.BasicBlock) map[int]map[int]bool {
	use := make(map[int]map[int]bool)
	def := make(map[int]map[int]bool)
	for _, b := range blocks {
		u, d := map[int]bool{}, map[int]bool{}
		for _, op := range b.Operations {
			for _, t := range op.Operands {
				if !d[t] {
					u[t] = true
				}
			}
			if op.HasResult() {
				d[op.Result] = true
			}
		}
		use[b.Id], def[b.Id] = u, d
	}

	liveIn := make(map[int]map[int]bool)
	liveOut := make(map[int]map[int]bool)
	for _, b := range blocks {
		liveIn[b.Id] = map[int]bool{}
		liveOut[b.Id] = map[int]bool{}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			out := map[int]bool{}
			for _, s := range b.Successors() {
				for t := range liveIn[s] {
					out[t] = true
				}
			}
			in := map[int]bool{}
			for t := range use[b.Id] {
				in[t] = true
			}
			for t := range out {
				if !def[b.Id][t] {
					in[t] = true
				}
			}
			if !tmpSetEqual(liveOut[b.Id], out) {
				liveOut[b.Id] = out
				changed = true
			}
			if !tmpSetEqual(liveIn[b.Id], in) {
				liveIn[b.Id] = in
				changed = true
			}
		}
	}
	return liveOut
}

func tmpSetEqual(a, b map[int]bool) bool {
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

// liveBoundaries replays a block's operations backward from its live-out set, producing the live set at
// every boundary between operations: bounds[i] is live immediately before operation i executes, and
// bounds[len(ops)] is the block's live-out set.
func liveBoundaries(b *mir.BasicBlock, out map[int]bool) []map[int]bool {
	n := len(b.Operations)
	bounds := make([]map[int]bool, n+1)
	cur := map[int]bool{}
	for t := range out {
		cur[t] = true
	}
	bounds[n] = cur
	for i := n - 1; i >= 0; i-- {
		op := b.Operations[i]
		next := map[int]bool{}
		for t := range cur {
			next[t] = true
		}
		if op.HasResult() {
			delete(next, op.Result)
		}
		for _, t := range op.Operands {
			next[t] = true
		}
		bounds[i] = next
		cur = next
	}
	return bounds
}

// checkLoansOutliveReferent reports a loan whose temporary is still live immediately after its
// referent's local_undeclare.
func checkLoansOutliveReferent(f *mir.Function, b *mir.BasicBlock, bounds []map[int]bool, loans []*loan, errs *source.Errors) {
	for i, op := range b.Operations {
		if op.Op != mir.OpLocalUndeclare {
			continue
		}
		after := bounds[i+1]
		for _, l := range loans {
			if l.referent == "" || l.referent != op.Name {
				continue
			}
			if after[l.tmp] {
				errs.Simple(source.IDAnalysis, "loan outlives referent", l.ref,
					"function %q: a borrow of %q is still live after %q goes out of scope", f.Name, l.referent, l.referent)
			}
		}
	}
}

// checkAliasingMutableLoans reports any two loans of the same named referent that are simultaneously
// live at some program point, when at least one of them is mutable.
func checkAliasingMutableLoans(f *mir.Function, bounds []map[int]bool, loans []*loan, errs *source.Errors) {
	reported := make(map[[2]int]bool)
	for _, live := range bounds {
		for i := 0; i < len(loans); i++ {
			for j := i + 1; j < len(loans); j++ {
				a, b := loans[i], loans[j]
				if a.referent == "" || a.referent != b.referent {
					continue
				}
				if !a.mutable && !b.mutable {
					continue
				}
				if !live[a.tmp] || !live[b.tmp] {
					continue
				}
				key := [2]int{a.tmp, b.tmp}
				if reported[key] {
					continue
				}
				reported[key] = true
				errs.Simple(source.IDAnalysis, "conflicting borrows", b.ref,
					"function %q: %q is borrowed mutably while another borrow of it is still live", f.Name, a.referent)
			}
		}
	}
}

// movedSet is a forward-dataflow fact: the set of local variable names whose value has been moved out
// by an earlier by-value pass of a composite-typed argument, and not since reassigned.
type movedSet map[string]bool

// checkUseAfterMove runs a forward fixpoint (meet = union: moved on any incoming path is moved) tracking
// which locals have had their composite value moved into a call, reporting any read before the next
// assignment to that local. This codebase has no explicit move operator; moving is inferred at the one
// point a composite can conceptually leave its owner's hands, a by-value call argument.
func checkUseAfterMove(f *mir.Function, errs *source.Errors) {
	blocks := f.OrderedBlocks()

	in := make(map[int]movedSet)
	out := make(map[int]movedSet)

	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			merged := movedSet{}
			if b.Id != 0 {
				for _, p := range b.Preds {
					for k := range out[p] {
						merged[k] = true
					}
				}
			}
			if !movedSetsEqual(in[b.Id], merged) {
				in[b.Id] = merged
				changed = true
			}
			next := transferMoves(f, b, in[b.Id], nil, false)
			if !movedSetsEqual(out[b.Id], next) {
				out[b.Id] = next
				changed = true
			}
		}
	}

	for _, b := range blocks {
		transferMoves(f, b, in[b.Id], errs, true)
	}
}

func movedSetsEqual(a, b movedSet) bool {
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

func transferMoves(f *mir.Function, b *mir.BasicBlock, inState movedSet, errs *source.Errors, report bool) movedSet {
	state := movedSet{}
	for k := range inState {
		state[k] = true
	}

	localName := func(tmp int) (string, bool) {
		def, ok := f.TempDef[tmp]
		if !ok || def.Op != mir.OpLocalVariable {
			return "", false
		}
		return def.Name, true
	}

	for _, op := range b.Operations {
		skip := -1
		if op.Op == mir.OpAssign && len(op.Operands) == 2 {
			skip = 0
		}
		for i, tmp := range op.Operands {
			if i == skip {
				continue
			}
			name, ok := localName(tmp)
			if !ok || !state[name] {
				continue
			}
			if report {
				errs.Simple(source.IDAnalysis, "use after move", op.Ref,
					"function %q: %q is used after its value was moved", f.Name, name)
			}
		}

		switch {
		case op.Op == mir.OpAssign && len(op.Operands) == 2:
			if name, ok := localName(op.Operands[0]); ok {
				delete(state, name)
			}
		case op.Op == mir.OpFunctionCall && len(op.Operands) > 1:
			for _, argTmp := range op.Operands[1:] {
				def, ok := f.TempDef[argTmp]
				if !ok || def.Op != mir.OpLocalVariable || def.Type == nil || def.Type.Tag != types.TagComposite {
					continue
				}
				state[def.Name] = true
			}
		}
	}
	return state
}
