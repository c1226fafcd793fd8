package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

// checkReturnCoverage verifies every block ends in a terminator and, for a non-void function, that
// every terminating path ends in `return` (not falling off the end or terminating via `return_void`),
// with the returned value's type matching the function's declared return type.
func checkReturnCoverage(f *mir.Function, errs *source.Errors) {
	isVoid := f.Return.Tag == types.TagPrimitive && f.Return.Prim == types.Void

	for _, b := range f.OrderedBlocks() {
		term := b.Terminator()
		if term == nil {
			errs.Simple(source.IDAnalysis, "missing terminator", f.Ref,
				"function %q: block %s does not end in a terminator", f.Name, b.Name())
			continue
		}
		switch term.Op {
		case mir.OpReturnVoid:
			if !isVoid {
				errs.Simple(source.IDAnalysis, "missing return value", term.Ref,
					"function %q returns %s but a path returns no value", f.Name, f.Return.Canonical)
			}
		case mir.OpReturn:
			if isVoid {
				errs.Simple(source.IDAnalysis, "unexpected return value", term.Ref,
					"function %q is void but a path returns a value", f.Name)
				continue
			}
			if len(term.Operands) == 1 {
				if retTy := tempType(f, term.Operands[0]); retTy != nil && retTy != f.Return {
					errs.Simple(source.IDAnalysis, "return type mismatch", term.Ref,
						"function %q declares return type %s but a path returns %s",
						f.Name, f.Return.Canonical, retTy.Canonical)
				}
			}
		case mir.OpJump, mir.OpJumpConditional:
			// Not a function exit; reachability already validated its targets exist.
		}
	}
}

// tempType looks up the declared type of temporary id within f.
func tempType(f *mir.Function, id int) *types.Type {
	if id < 0 || id >= len(f.Temps) {
		return nil
	}
	return f.Temps[id].Type
}
