package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/source"
)

func TestScopePairingAcceptsBalancedDeclareUndeclare(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	undeclareLocal(f, b, "x")
	returnVoid(f, b)

	errs := newErrs()
	checkScopePairing(f, errs)
	require.False(t, errs.HasErrors())
}

func TestScopePairingRejectsVariableLeakedAtReturn(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	returnVoid(f, b)

	errs := newErrs()
	checkScopePairing(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Title, "variable escapes scope")
}

func TestScopePairingRejectsMismatchedUndeclare(t *testing.T) {
	f := newVoidFunction("f")
	b := f.Blocks[0]
	declareLocal(f, b, "x", u32())
	undeclareLocal(f, b, "y")
	returnVoid(f, b)

	errs := newErrs()
	checkScopePairing(f, errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.All()[0].Title, "unbalanced scope teardown")
}
