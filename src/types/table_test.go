package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/source"
)

func TestPointerDedupIsPointerEqual(t *testing.T) {
	table := NewTable()
	foo := table.DeclareComposite("Foo", source.Ref{Line: 1})

	p1 := table.PointerTo(foo)
	p2 := table.PointerTo(foo)
	assert.Same(t, p1, p2, "two pointer-to-Foo constructions must yield the same *Type")
	assert.Equal(t, "Foo*", p1.Canonical)
}

func TestForwardDeclaredCompositeThenDefine(t *testing.T) {
	table := NewTable()
	fwd := table.DeclareComposite("Bar", source.Ref{Line: 1})
	assert.False(t, fwd.Complete)

	complete, err := table.DefineComposite("Bar", source.Ref{Line: 5}, []*Member{
		{Name: "x", Index: 0, Type: table.Primitive(I32)},
	})
	require.NoError(t, err)
	assert.True(t, complete.Complete)
	assert.Same(t, fwd, complete, "completing a forward declaration mutates the same Type entry")
}

func TestRedefinitionOfCompleteClassErrors(t *testing.T) {
	table := NewTable()
	_, err := table.DefineComposite("Baz", source.Ref{Line: 1}, nil)
	require.NoError(t, err)
	_, err = table.DefineComposite("Baz", source.Ref{Line: 2}, nil)
	require.Error(t, err)
}

func TestArrayOfCanonicalNameAndCompleteness(t *testing.T) {
	table := NewTable()
	u32 := table.Primitive(U32)
	arr := table.ArrayOf(u32, 10)
	assert.Equal(t, "u32[10]", arr.Canonical)
	assert.True(t, arr.Complete)
}

func TestFuncPtrCompleteOnlyWhenArgsAndReturnComplete(t *testing.T) {
	table := NewTable()
	incomplete := table.DeclareComposite("Incomplete", source.Ref{})
	voidT := table.Primitive(Void)
	fp := table.FuncPtr(voidT, []*Type{table.PointerTo(incomplete)})
	// Pointer-to-incomplete is itself complete (it's just an address); the function pointer should be
	// complete too since neither its return type nor any argument type is itself incomplete.
	assert.True(t, fp.Complete)
}

func TestDuplicateMemberNameRejected(t *testing.T) {
	table := NewTable()
	_, err := table.DefineComposite("Dup", source.Ref{}, []*Member{
		{Name: "a", Index: 0, Type: table.Primitive(I32)},
		{Name: "a", Index: 1, Type: table.Primitive(I32)},
	})
	require.Error(t, err)
}

func TestEnumDuplicateValueRejected(t *testing.T) {
	table := NewTable()
	_, err := table.DefineEnum("Color", source.Ref{}, []EnumValue{
		{Name: "Red", Value: 0},
		{Name: "Red", Value: 1},
	})
	require.Error(t, err)
}
