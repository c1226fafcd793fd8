package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/source"
)

func TestReturnCoverageAcceptsMatchingVoidReturn(t *testing.T) {
	f := newVoidFunction("f")
	returnVoid(f, f.Blocks[0])

	errs := newErrs()
	checkReturnCoverage(f, errs)
	require.False(t, errs.HasErrors())
}

func TestReturnCoverageRejectsValueReturnFromVoidFunction(t *testing.T) {
	f := newVoidFunction("f")
	tmp := literal(f, f.Blocks[0], 1, u32())
	returnValue(f, f.Blocks[0], tmp)

	errs := newErrs()
	checkReturnCoverage(f, errs)
	require.True(t, errs.HasErrorsOfType(source.IDAnalysis))
	assert.Contains(t, errs.All()[0].Title, "unexpected return value")
}

func TestReturnCoverageRejectsMissingTerminator(t *testing.T) {
	f := newVoidFunction("f")
	literal(f, f.Blocks[0], 1, u32())

	errs := newErrs()
	checkReturnCoverage(f, errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.All()[0].Title, "missing terminator")
}

func TestReturnCoverageRejectsVoidReturnFromNonVoidFunction(t *testing.T) {
	f := newFunction("f", u32(), nil)
	returnVoid(f, f.Blocks[0])

	errs := newErrs()
	checkReturnCoverage(f, errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.All()[0].Title, "missing return value")
}
