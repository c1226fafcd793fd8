package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/types"
)

func TestDeclareAndQueryVariable(t *testing.T) {
	tr := NewTracker()
	ty := &types.Type{Canonical: "u32", Tag: types.TagPrimitive, Complete: true}

	require.NoError(t, tr.DeclareVariable("x", ty, FunctionPoint{Block: 0, Index: 0}))
	got, ok := tr.QueryVariable("x")
	require.True(t, ok)
	assert.Same(t, ty, got)
}

func TestDuplicateVariableInSameScopeRejected(t *testing.T) {
	tr := NewTracker()
	ty := &types.Type{Canonical: "u32"}
	require.NoError(t, tr.DeclareVariable("x", ty, FunctionPoint{}))
	err := tr.DeclareVariable("x", ty, FunctionPoint{})
	require.Error(t, err)
}

func TestShadowingInChildScopeAllowed(t *testing.T) {
	tr := NewTracker()
	outer := &types.Type{Canonical: "u32"}
	require.NoError(t, tr.DeclareVariable("x", outer, FunctionPoint{}))

	tr.ScopePush(false)
	inner := &types.Type{Canonical: "i32"}
	require.NoError(t, tr.DeclareVariable("x", inner, FunctionPoint{}))
	got, _ := tr.QueryVariable("x")
	assert.Same(t, inner, got)
	tr.ScopePop()

	got, _ = tr.QueryVariable("x")
	assert.Same(t, outer, got)
}

func TestGotoSkippingLiveDeclarationIsIllegal(t *testing.T) {
	tr := NewTracker()
	tr.DeclareGoto("L", FunctionPoint{Block: 0, Index: 0})
	require.NoError(t, tr.DeclareVariable("x", &types.Type{Canonical: "u32"}, FunctionPoint{Block: 0, Index: 1}))
	require.NoError(t, tr.DeclareLabel("L", FunctionPoint{Block: 0, Index: 2}))

	_, errs := tr.Fixups()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "skips declaration")
}

func TestGotoForwardWithoutSkippingDeclarationIsLegal(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.DeclareVariable("x", &types.Type{Canonical: "u32"}, FunctionPoint{Block: 0, Index: 0}))
	tr.DeclareGoto("L", FunctionPoint{Block: 0, Index: 1})
	require.NoError(t, tr.DeclareLabel("L", FunctionPoint{Block: 0, Index: 2}))

	fixups, errs := tr.Fixups()
	require.Empty(t, errs)
	require.Len(t, fixups, 1)
	assert.Empty(t, fixups[0].Teardown)
}

func TestGotoUndefinedLabelIsIllegal(t *testing.T) {
	tr := NewTracker()
	tr.DeclareGoto("nowhere", FunctionPoint{})
	_, errs := tr.Fixups()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "undefined label")
}

func TestBreakTeardownListsInnerScopeFirst(t *testing.T) {
	tr := NewTracker()
	tr.ScopePushLoop(1, 2)
	require.NoError(t, tr.DeclareVariable("a", &types.Type{Canonical: "u32"}, FunctionPoint{}))
	require.NoError(t, tr.DeclareVariable("b", &types.Type{Canonical: "u32"}, FunctionPoint{}))
	breakBID, breakTeardown, ok := tr.BreakTarget()
	require.True(t, ok)
	assert.Equal(t, 1, breakBID)
	assert.Equal(t, []string{"b", "a"}, breakTeardown)
	contBID, contTeardown, ok := tr.ContinueTarget()
	require.True(t, ok)
	assert.Equal(t, 2, contBID)
	assert.Equal(t, []string{"b", "a"}, contTeardown)
}
