package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/source"
)

func TestBuiltinPrimitivesResolve(t *testing.T) {
	r := NewResolver()
	for _, p := range []string{"u8", "i32", "f64", "bool", "void"} {
		res := r.Lookup(p)
		require.Equal(t, Found, res.Kind, "expected %s to resolve", p)
		assert.Equal(t, KindType, res.Entity.Kind)
	}
}

func TestDeclareThenLookupNested(t *testing.T) {
	r := NewResolver()
	r.PushNamespace("A", source.Ref{Line: 1})
	cls, conflict := r.DeclareClass("Foo", Public, source.Ref{Line: 2})
	require.Nil(t, conflict)
	require.NotNil(t, cls)
	r.PopNamespace()

	res := r.Lookup("A::Foo")
	require.Equal(t, Found, res.Kind)
	assert.Equal(t, "Foo", res.Entity.Name)
	assert.Equal(t, "A::Foo", res.Entity.QualifiedName())
}

func TestDuplicateDeclarationConflicts(t *testing.T) {
	r := NewResolver()
	_, conflict := r.DeclareType("MyInt", Public, source.Ref{Line: 1})
	require.Nil(t, conflict)
	_, conflict = r.DeclareType("MyInt", Public, source.Ref{Line: 2})
	require.NotNil(t, conflict, "second declaration of the same name must report the conflicting entity")
}

func TestUsingNamespaceAlias(t *testing.T) {
	r := NewResolver()
	ns := r.PushNamespace("std", source.Ref{})
	r.DeclareType("size", Public, source.Ref{})
	r.PopNamespace()

	require.NoError(t, r.AddUsing("s", ns))
	res := r.Lookup("s::size")
	require.Equal(t, Found, res.Kind)
	assert.Equal(t, "size", res.Entity.Name)

	// Duplicate alias in the same scope is rejected.
	require.Error(t, r.AddUsing("s", ns))
}

func TestVisibilityPrivateBlocksOutsideLookup(t *testing.T) {
	r := NewResolver()
	r.PushNamespace("A", source.Ref{})
	r.DeclareType("Secret", Private, source.Ref{})
	r.PopNamespace()

	res := r.Lookup("A::Secret")
	assert.Equal(t, NotFoundPrivate, res.Kind)

	// From inside A, the same name is visible.
	r.PushNamespace("A", source.Ref{})
	res = r.Lookup("Secret")
	assert.Equal(t, Found, res.Kind)
	r.PopNamespace()
}

func TestRootAnchoredLookup(t *testing.T) {
	r := NewResolver()
	r.PushNamespace("A", source.Ref{})
	r.DeclareType("T", Public, source.Ref{})
	r.PopNamespace()
	r.PushNamespace("A", source.Ref{})

	res := r.Lookup("::A::T")
	require.Equal(t, Found, res.Kind)
}
