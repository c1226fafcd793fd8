package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/mir"
	"jcc/src/source"
)

func TestUseBeforeAssignmentAcceptsReadAfterAssign(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	lhs := readLocal(f, b, "x", u32())
	rhs := literal(f, b, 1, u32())
	assign(f, b, lhs, rhs, u32())
	use(f, b, readLocal(f, b, "x", u32()), u32())
	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkUseBeforeAssignment(f, errs)
	require.False(t, errs.HasErrors())
}

func TestUseBeforeAssignmentRejectsReadOfUnassignedLocal(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	use(f, b, readLocal(f, b, "x", u32()), u32())
	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkUseBeforeAssignment(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Messages[0].Text, "\"x\"")
}

func TestUseBeforeAssignmentTreatsParametersAsAssigned(t *testing.T) {
	f := newFunction("f", voidType(), []mir.Param{{Name: "p", Type: u32()}})
	b := f.Blocks[0]
	declareLocal(f, b, "p", u32())
	use(f, b, readLocal(f, b, "p", u32()), u32())
	undeclareLocal(f, b, "p")
	returnVoid(f, b)

	errs := newErrs()
	checkUseBeforeAssignment(f, errs)
	require.False(t, errs.HasErrors())
}

func TestUseBeforeAssignmentRejectsReadOnOnePathOfAMerge(t *testing.T) {
	f := newVoidFunction("f")
	entry := f.Blocks[0]
	declareLocal(f, entry, "x", u32())
	thenB := f.NewBlock()
	elseB := f.NewBlock()
	join := f.NewBlock()

	cond := literal(f, entry, 1, u32())
	jumpIf(f, entry, cond, thenB.Id, elseB.Id)

	rhs := literal(f, thenB, 1, u32())
	assign(f, thenB, readLocal(f, thenB, "x", u32()), rhs, u32())
	jump(f, thenB, join.Id)

	jump(f, elseB, join.Id)

	use(f, join, readLocal(f, join, "x", u32()), u32())
	undeclareLocal(f, join, "x")
	returnVoid(f, join)

	errs := newErrs()
	checkUseBeforeAssignment(f, errs)
	require.True(t, errs.HasErrors())
}
