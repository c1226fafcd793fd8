package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/mir"
	"jcc/src/source"
)

func TestReachabilityAcceptsLinearFunction(t *testing.T) {
	f := newVoidFunction("f")
	returnVoid(f, f.Blocks[0])

	errs := newErrs()
	checkReachability(f, errs)
	require.False(t, errs.HasErrors())
}

func TestReachabilityFlagsUnreachedBlock(t *testing.T) {
	f := newVoidFunction("f")
	returnVoid(f, f.Blocks[0])
	dead := f.NewBlock()
	returnVoid(f, dead)

	errs := newErrs()
	checkReachability(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Messages[0].Text, "never reached")
}

func TestReachabilityFlagsOperationAfterTerminator(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	returnVoid(f, b)
	tmp := f.NewTemp(voidType())
	b.Operations = append(b.Operations, &mir.Operation{Op: mir.OpLiteralInt, Result: tmp, Type: voidType()})

	errs := newErrs()
	checkReachability(f, errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.All()[0].Title, "operation after terminator")
}
