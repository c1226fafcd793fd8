package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

// checkTypeCompleteness walks every type reachable from f's signature and temporaries and reports an
// error at the declaring reference for each one that is not types.Type.Complete. A forward-declared
// composite that never got a body is the usual cause: the type table interned it as an incomplete
// placeholder and nothing later completed it.
func checkTypeCompleteness(f *mir.Function, errs *source.Errors) {
	seen := make(map[*types.Type]bool)

	check := func(t *types.Type) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		if !t.Complete {
			errs.Simple(source.IDAnalysis, "incomplete type", f.Ref,
				"function %q references incomplete type %q", f.Name, t.Canonical)
		}
	}

	check(f.Return)
	for _, a := range f.Args {
		check(a.Type)
	}
	for _, tmp := range f.Temps {
		check(tmp.Type)
	}
	for _, b := range f.OrderedBlocks() {
		for _, op := range b.Operations {
			check(op.Type)
		}
	}
}
