package frontend

import (
	"testing"

	"jcc/src/namespace"
	"jcc/src/source"
	"jcc/src/syntax"
)

func parseSrc(t *testing.T, src string) (*syntax.File, *source.Errors) {
	t.Helper()
	ctx := source.NewContext("t.jc", src)
	errs := source.NewErrors(ctx)
	ns := namespace.NewResolver()
	p := NewParser("t.jc", src, ns, errs)
	f := p.Parse()
	return f, errs
}

func TestParserFreeFunction(t *testing.T) {
	src := `
i32 add(i32 a, i32 b) {
	return a + b;
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if len(f.Decls) != 1 || f.Decls[0].Kind != syntax.DeclFunction {
		t.Fatalf("expected one function decl, got %+v", f.Decls)
	}
	fn := f.Decls[0].Function
	if fn.Name != "add" || len(fn.Args) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if len(fn.Body) != 1 || fn.Body[0].Kind != syntax.StmtReturn {
		t.Fatalf("expected single return statement, got %+v", fn.Body)
	}
}

func TestParserClassWithFieldAndMethod(t *testing.T) {
	src := `
class Vec {
	public i32 x;
	private i32 y;

	public i32 sum() {
		return x + y;
	}
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	cd := f.Decls[0].Class
	if cd.Name != "Vec" || len(cd.Members) != 2 || len(cd.Methods) != 1 {
		t.Fatalf("unexpected class shape: %+v", cd)
	}
	if cd.Members[0].Visibility != namespace.Public || cd.Members[1].Visibility != namespace.Private {
		t.Fatalf("unexpected member visibility: %+v", cd.Members)
	}
	if cd.Methods[0].Receiver != "Vec" {
		t.Fatalf("expected method receiver Vec, got %q", cd.Methods[0].Receiver)
	}
}

func TestParserVarDeclDisambiguatesFromExprStmt(t *testing.T) {
	src := `
class Foo { }
void use() {
	Foo f;
	f;
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	fn := f.Decls[1].Function
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}
	if fn.Body[0].Kind != syntax.StmtVarDecl || fn.Body[0].VarType.Name != "Foo" {
		t.Fatalf("expected var-decl of type Foo, got %+v", fn.Body[0])
	}
	if fn.Body[1].Kind != syntax.StmtExpr {
		t.Fatalf("expected expression statement, got %+v", fn.Body[1])
	}
}

func TestParserControlFlowAndOperators(t *testing.T) {
	src := `
i32 classify(i32 n) {
	if (n < 0) {
		return -1;
	} else if (n == 0) {
		return 0;
	}
	i32 total = 0;
	for (i32 i = 0; i < n; i = i + 1) {
		total = total + i;
	}
	while (total > 100) {
		total = total - 100;
	}
	switch (n) {
	case 1:
		break;
	default:
		break;
	}
	return total;
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	fn := f.Decls[0].Function
	if len(fn.Body) == 0 {
		t.Fatalf("expected a non-empty body")
	}
	if fn.Body[0].Kind != syntax.StmtIf {
		t.Fatalf("expected leading if statement, got %+v", fn.Body[0])
	}
}

func TestParserNamespaceClassAndUsing(t *testing.T) {
	src := `
namespace geo {
	class Point {
		public i32 x;
		public i32 y;
	}
}
using geo::Point as Pt;
Pt make() {
	Pt p;
	return p;
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if f.Decls[0].Kind != syntax.DeclNamespace || f.Decls[1].Kind != syntax.DeclUsing {
		t.Fatalf("unexpected top-level decl shape: %+v", f.Decls)
	}
	fn := f.Decls[2].Function
	if fn.Return.Name != "Pt" {
		t.Fatalf("expected return type Pt, got %q", fn.Return.Name)
	}
}

func TestParserPointerReferenceAndAddressOf(t *testing.T) {
	src := `
void touch(i32* p, i32& r) {
	i32 local = 0;
	i32* addr = &local;
	i32 deref = *p;
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	fn := f.Decls[0].Function
	if !fn.Args[0].Type.IsPointer || !fn.Args[1].Type.IsRef {
		t.Fatalf("unexpected parameter type decoration: %+v", fn.Args)
	}
	addrDecl := fn.Body[1]
	if addrDecl.VarInit.Kind != syntax.ExprAddressOf {
		t.Fatalf("expected address-of initializer, got %+v", addrDecl.VarInit)
	}
	derefDecl := fn.Body[2]
	if derefDecl.VarInit.Kind != syntax.ExprDereference {
		t.Fatalf("expected dereference initializer, got %+v", derefDecl.VarInit)
	}
}

func TestParserSizeofAndEnum(t *testing.T) {
	src := `
enum Color {
	Red,
	Green,
	Blue = 10,
}
u32 sz() {
	return sizeof(Color);
}
`
	f, errs := parseSrc(t, src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	ed := f.Decls[0].Enum
	if len(ed.Values) != 3 || ed.Values[2].Value != 10 {
		t.Fatalf("unexpected enum values: %+v", ed.Values)
	}
	fn := f.Decls[1].Function
	ret := fn.Body[0].Expr
	if ret.Kind != syntax.ExprSizeofType || ret.SizeofSpec.Name != "Color" {
		t.Fatalf("unexpected sizeof expression: %+v", ret)
	}
}

func TestParserSyntaxErrorRecoversAndReports(t *testing.T) {
	src := `
i32 broken( {
	return 0;
}
i32 ok() {
	return 1;
}
`
	_, errs := parseSrc(t, src)
	if !errs.HasErrorsOfType(source.IDSyntax) {
		t.Fatalf("expected a reported syntax error")
	}
}
