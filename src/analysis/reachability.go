package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
)

// checkReachability traces every block reachable from BB0 via jump/jump_conditional targets. A
// non-empty block the trace never reaches is a lowering self-check failure (lowering must never
// produce dead blocks), not a user-facing dead-code warning. It also rejects any operation found after
// a block's terminator, another self-check: BasicBlock.Terminator only recognizes a terminator in the
// last slot, so a stray operation after one would otherwise be silently ignored by codegen.
func checkReachability(f *mir.Function, errs *source.Errors) {
	reached := make(map[int]bool)
	var walk func(id int)
	walk = func(id int) {
		if reached[id] {
			return
		}
		reached[id] = true
		b, ok := f.Blocks[id]
		if !ok {
			return
		}
		for _, succ := range b.Successors() {
			walk(succ)
		}
	}
	walk(0)

	for _, b := range f.OrderedBlocks() {
		if !reached[b.Id] && len(b.Operations) > 0 {
			errs.Simple(source.IDAnalysis, "unreachable block", f.Ref,
				"function %q: block %s is never reached but is not empty", f.Name, b.Name())
		}
		for i, op := range b.Operations {
			if op.Op.IsTerminator() && i != len(b.Operations)-1 {
				errs.Simple(source.IDAnalysis, "operation after terminator", op.Ref,
					"function %q: block %s has an operation following its terminator", f.Name, b.Name())
				break
			}
		}
	}
}
