package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

func ptrTo(t *types.Type) *types.Type {
	return &types.Type{Canonical: t.Canonical + "*", Tag: types.TagPointer, Target: t, Complete: true}
}

func addressOf(f *mir.Function, b *mir.BasicBlock, operand int, ty *types.Type) int {
	tmp := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpAddressOf, Result: tmp, Operands: []int{operand}, Type: ty})
	return tmp
}

func dereference(f *mir.Function, b *mir.BasicBlock, operand int, ty *types.Type) int {
	tmp := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpDereference, Result: tmp, Operands: []int{operand}, Type: ty})
	return tmp
}

func TestBorrowAcceptsLoanThatDoesNotOutliveReferent(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	xTmp := readLocal(f, b, "x", u32())
	p := addressOf(f, b, xTmp, ptrTo(u32()))
	dereference(f, b, p, u32())
	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkBorrows(f, errs)
	require.False(t, errs.HasErrors())
}

func TestBorrowRejectsLoanThatOutlivesReferent(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	xTmp := readLocal(f, b, "x", u32())
	p := addressOf(f, b, xTmp, ptrTo(u32()))
	undeclareLocal(f, b, "x")
	dereference(f, b, p, u32())
	returnVoid(f, b)

	errs := newErrs()
	checkBorrows(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Title, "loan outlives referent")
}

// Two loans of the same local whose live ranges overlap (both are created before either is used) and
// at least one is written through: this is the case NLL-style borrow checking actually rejects. Two
// shared loans that never overlap in time are accepted, which is what
// TestBorrowAcceptsTwoSequentialSharedLoans covers.
func TestBorrowRejectsAliasingMutableLoans(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	xTmp1 := readLocal(f, b, "x", u32())
	p1 := addressOf(f, b, xTmp1, ptrTo(u32()))
	xTmp2 := readLocal(f, b, "x", u32())
	p2 := addressOf(f, b, xTmp2, ptrTo(u32()))

	d1 := dereference(f, b, p1, u32())
	assign(f, b, d1, literal(f, b, 1, u32()), u32())
	dereference(f, b, p2, u32())

	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkBorrows(f, errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.All()[0].Title, "conflicting borrows")
}

func TestBorrowAcceptsTwoSequentialSharedLoans(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	xTmp1 := readLocal(f, b, "x", u32())
	p1 := addressOf(f, b, xTmp1, ptrTo(u32()))
	dereference(f, b, p1, u32())

	xTmp2 := readLocal(f, b, "x", u32())
	p2 := addressOf(f, b, xTmp2, ptrTo(u32()))
	dereference(f, b, p2, u32())

	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkBorrows(f, errs)
	require.False(t, errs.HasErrors())
}

func TestUseAfterMoveRejectsReadOfMovedComposite(t *testing.T) {
	composite := &types.Type{Canonical: "struct S", Tag: types.TagComposite, Complete: true}
	funcPtr := &types.Type{Canonical: "void(*)(struct S)", Tag: types.TagFuncPtr}
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "s", composite)

	sTmp1 := readLocal(f, b, "s", composite)
	callee1 := f.NewTemp(funcPtr)
	f.Emit(b, &mir.Operation{Op: mir.OpSymbol, Result: callee1, Name: "consume"})
	f.Emit(b, &mir.Operation{Op: mir.OpFunctionCall, Result: f.NewTemp(voidType()), Operands: []int{callee1, sTmp1}})

	sTmp2 := readLocal(f, b, "s", composite)
	callee2 := f.NewTemp(funcPtr)
	f.Emit(b, &mir.Operation{Op: mir.OpSymbol, Result: callee2, Name: "consume_again"})
	f.Emit(b, &mir.Operation{Op: mir.OpFunctionCall, Result: f.NewTemp(voidType()), Operands: []int{callee2, sTmp2}})

	undeclareLocal(f, b, "s")
	returnVoid(f, b)

	errs := newErrs()
	checkUseAfterMove(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Title, "use after move")
}

func TestUseAfterMoveAcceptsReassignmentBeforeReread(t *testing.T) {
	composite := &types.Type{Canonical: "struct S", Tag: types.TagComposite, Complete: true}
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "s", composite)
	sTmp := readLocal(f, b, "s", composite)
	callee := f.NewTemp(&types.Type{Canonical: "void(*)(struct S)", Tag: types.TagFuncPtr})
	f.Emit(b, &mir.Operation{Op: mir.OpSymbol, Result: callee, Name: "consume"})
	f.Emit(b, &mir.Operation{Op: mir.OpFunctionCall, Result: f.NewTemp(voidType()), Operands: []int{callee, sTmp}})

	lhs := readLocal(f, b, "s", composite)
	rhs := f.NewTemp(composite)
	f.Emit(b, &mir.Operation{Op: mir.OpSymbol, Result: rhs, Name: "make_s"})
	assign(f, b, lhs, rhs, composite)
	readLocal(f, b, "s", composite)

	undeclareLocal(f, b, "s")
	returnVoid(f, b)

	errs := newErrs()
	checkUseAfterMove(f, errs)
	require.False(t, errs.HasErrors())
}
