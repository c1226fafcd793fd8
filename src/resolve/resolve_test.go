package resolve

import (
	"testing"

	"jcc/src/frontend"
	"jcc/src/namespace"
	"jcc/src/source"
	"jcc/src/syntax"
	"jcc/src/types"
)

func resolveSrc(t *testing.T, src string) (*syntax.File, *Resolver, *source.Errors) {
	t.Helper()
	ctx := source.NewContext("t.jc", src)
	errs := source.NewErrors(ctx)
	ns := namespace.NewResolver()
	f := frontend.NewParser("t.jc", src, ns, errs).Parse()
	if errs.HasErrors() {
		t.Fatalf("parse errors: %v", errs.All())
	}
	r := New(ns, errs)
	r.ResolveFile(f)
	return f, r, errs
}

func TestResolveFreeFunctionSymbol(t *testing.T) {
	_, r, errs := resolveSrc(t, `i32 add(i32 a, i32 b) { return a + b; }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	sym, ok := r.Symbols.Get("add")
	if !ok {
		t.Fatalf("expected symbol 'add' to be declared")
	}
	if sym.Kind != 0 {
		t.Errorf("expected StaticFunction kind, got %v", sym.Kind)
	}
	if sym.Type.Tag != types.TagFuncPtr {
		t.Errorf("expected function-pointer type, got %v", sym.Type.Tag)
	}
}

func TestResolveClassMembersAndMethod(t *testing.T) {
	f, r, errs := resolveSrc(t, `
class Vec {
	public i32 x;
	public i32 y;

	public i32 sum() {
		return x + y;
	}
}
`)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	ty, ok := r.Types.Get("Vec")
	if !ok || !ty.Complete {
		t.Fatalf("expected complete composite type Vec, got %+v", ty)
	}
	if len(ty.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(ty.Members))
	}
	method, ok := ty.GetMethod("sum")
	if !ok {
		t.Fatalf("expected method 'sum'")
	}
	if len(method.Args) != 1 {
		t.Fatalf("expected implicit receiver-pointer arg only, got %d args", len(method.Args))
	}
	if method.Args[0].Tag != types.TagPointer || method.Args[0].Target != ty {
		t.Fatalf("expected receiver arg to be Vec*, got %+v", method.Args[0])
	}
	sym, ok := r.Symbols.Get("Vec::sum")
	if !ok {
		t.Fatalf("expected mangled symbol 'Vec::sum'")
	}
	_ = sym
	_ = f
}

func TestResolveNamespacedTypeQualification(t *testing.T) {
	f, r, errs := resolveSrc(t, `
namespace geo {
	class Point {
		public i32 x;
	}
}
geo::Point make() {
	geo::Point p;
	return p;
}
`)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if _, ok := r.Types.Get("geo::Point"); !ok {
		t.Fatalf("expected canonical type 'geo::Point' to be interned")
	}
	fn := f.Decls[1].Function
	if fn.Return.Name != "geo::Point" {
		t.Fatalf("expected return TypeSpec rewritten to 'geo::Point', got %q", fn.Return.Name)
	}
}

func TestResolveUsingAliasShortensLookup(t *testing.T) {
	f, r, errs := resolveSrc(t, `
namespace geo {
	class Point {
		public i32 x;
	}
}
using geo::Point as Pt;
Pt make() {
	Pt p;
	return p;
}
`)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	fn := f.Decls[2].Function
	if fn.Return.Name != "geo::Point" {
		t.Fatalf("expected alias Pt to resolve to canonical 'geo::Point', got %q", fn.Return.Name)
	}
	_ = r
}

func TestResolveUnknownTypeReportsError(t *testing.T) {
	_, _, errs := resolveSrc(t, `Bogus make() { return 0; }`)
	if !errs.HasErrorsOfType(source.IDAnalysis) {
		t.Fatalf("expected an analysis-phase error for the unknown type")
	}
}

func TestResolveSelfReferentialPointerMember(t *testing.T) {
	_, r, errs := resolveSrc(t, `
class Node {
	public Node* next;
	public i32 value;
}
`)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	ty, ok := r.Types.Get("Node")
	if !ok || !ty.Complete {
		t.Fatalf("expected complete composite type Node")
	}
	next, ok := ty.GetMember("next")
	if !ok || next.Type.Tag != types.TagPointer || next.Type.Target.Canonical != "Node" {
		t.Fatalf("expected member 'next' to be Node*, got %+v", next)
	}
}
