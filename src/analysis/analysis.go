// Package analysis runs the fixed sequence of whole-function checks that must pass before codegen
// is allowed to consume a mir.Program: type completeness, reachability, return coverage, scope
// pairing, use-before-assignment and borrow checking. Each pass reports into the shared source.Errors
// sink and leaves the MIR unmodified; none of them rewrite operations.
package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
)

// Run executes every pass, in the fixed order the passes depend on (later passes assume earlier ones
// already rejected structurally malformed MIR), against every function of prog. It reports whether
// codegen may proceed: false if any pass added an IDAnalysis-banded error.
func Run(prog *mir.Program, errs *source.Errors) bool {
	for _, f := range prog.Functions {
		checkTypeCompleteness(f, errs)
	}
	for _, f := range prog.Functions {
		checkReachability(f, errs)
	}
	for _, f := range prog.Functions {
		checkReturnCoverage(f, errs)
	}
	for _, f := range prog.Functions {
		checkScopePairing(f, errs)
	}
	for _, f := range prog.Functions {
		checkUseBeforeAssignment(f, errs)
	}
	for _, f := range prog.Functions {
		checkBorrows(f, errs)
	}
	return !errs.HasErrorsOfType(source.IDAnalysis)
}
