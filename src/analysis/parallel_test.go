package analysis

import (
	"fmt"
	"testing"

	"jcc/src/mir"
	"jcc/src/source"
)

func simpleFunction(name string) *mir.Function {
	i32 := u32()
	f := mir.NewFunction(name, i32, nil, false, source.Ref{})
	b := f.Blocks[0]
	tmp := f.NewTemp(i32)
	f.Emit(b, &mir.Operation{Op: mir.OpLiteralInt, Result: tmp, Type: i32, IntValue: 1})
	f.Emit(b, &mir.Operation{Op: mir.OpReturn, Result: -1, Operands: []int{tmp}})
	return f
}

func TestRunParallelAgreesWithRunOnCleanProgram(t *testing.T) {
	prog := mir.NewProgram()
	for i := 0; i < 9; i++ {
		prog.AddFunction(simpleFunction(fmt.Sprintf("f%d", i)))
	}
	errs := newErrs()
	if ok := RunParallel(prog, errs, 4); !ok {
		t.Fatalf("expected RunParallel to accept a clean program, errors: %v", errs.All())
	}
}

func TestRunParallelCollectsErrorsFromEveryWorker(t *testing.T) {
	prog := mir.NewProgram()
	for i := 0; i < 6; i++ {
		f := mir.NewFunction(fmt.Sprintf("bad%d", i), u32(), nil, false, source.Ref{})
		// no terminator: every one of these functions should fail return coverage.
		prog.AddFunction(f)
	}
	errs := newErrs()
	if ok := RunParallel(prog, errs, 3); ok {
		t.Fatalf("expected RunParallel to reject functions with no terminator")
	}
	if errs.Len() < 6 {
		t.Fatalf("expected at least one error per bad function, got %d errors", errs.Len())
	}
}
