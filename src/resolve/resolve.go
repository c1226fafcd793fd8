// Package resolve implements Type Resolution, the phase that runs between parsing and lowering. The
// parser already built the namespace tree and recorded every TypeSpec as written in source (possibly
// unqualified, possibly naming a type declared later in the file than its use); this pass replays the
// same namespace/class/function nesting the parser walked, resolves every TypeSpec against the now-
// complete namespace tree, interns the corresponding structural type into the canonical Type Table, and
// mangles every function and method into the global Symbol Table. Lowering assumes both tables are
// already fully populated and every TypeSpec.Name already canonical before it runs.
package resolve

import (
	"jcc/src/mir"
	"jcc/src/namespace"
	"jcc/src/source"
	"jcc/src/syntax"
	"jcc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Resolver owns the whole-translation-unit tables this phase builds: the canonical Type Table and the
// global Symbol Table, plus the namespace tree it reads (built during parsing) and the error sink.
type Resolver struct {
	Types     *types.Table
	Names     *namespace.Resolver
	Symbols   *mir.SymbolTable
	Errors    *source.Errors
	Functions []FuncEntry
}

// FuncEntry pairs a parsed function or method body with the mangled name this phase assigned it, the
// exact two things Function Lowering needs per function and can't otherwise recover without replaying
// this package's own namespace traversal a second time.
type FuncEntry struct {
	Decl    *syntax.FunctionDecl
	Mangled string
}

// ---------------------
// ----- Functions -----
// ---------------------

// New creates a Resolver over ns, the namespace tree the parser already populated.
func New(ns *namespace.Resolver, errs *source.Errors) *Resolver {
	return &Resolver{
		Types:   types.NewTable(),
		Names:   ns,
		Symbols: mir.NewSymbolTable(),
		Errors:  errs,
	}
}

func (r *Resolver) recordFunction(decl *syntax.FunctionDecl, mangled string) {
	r.Functions = append(r.Functions, FuncEntry{Decl: decl, Mangled: mangled})
}

// ResolveFile walks every top-level declaration of f, populating Types and Symbols and rewriting every
// TypeSpec.Name it encounters to its canonical, namespace-qualified form.
func (r *Resolver) ResolveFile(f *syntax.File) {
	for _, d := range f.Decls {
		r.resolveDecl(d)
	}
}

func (r *Resolver) resolveDecl(d *syntax.Decl) {
	switch d.Kind {
	case syntax.DeclNamespace:
		r.resolveNamespace(d.Namespace)
	case syntax.DeclUsing:
		r.resolveUsing(d.Using)
	case syntax.DeclClass:
		r.resolveClass(d.Class)
	case syntax.DeclEnum:
		r.resolveEnum(d.Enum)
	case syntax.DeclTypedef:
		r.resolveTypedef(d.Typedef)
	case syntax.DeclFunction:
		r.resolveFunction(d.Function)
	}
}

func (r *Resolver) resolveNamespace(nd *syntax.NamespaceDecl) {
	r.Names.PushNamespace(nd.Name, nd.Ref)
	for _, d := range nd.Decls {
		r.resolveDecl(d)
	}
	r.Names.PopNamespace()
}

// resolveUsing replays the `using` directive against the now-complete namespace tree. The alias was
// already registered once during parsing (so the parser itself could resolve later identifiers in the
// same scope); re-registering here on replay is expected to collide, not an error.
func (r *Resolver) resolveUsing(ud *syntax.UsingDecl) {
	res := r.Names.Lookup(ud.Target)
	if res.Kind != namespace.Found {
		r.Errors.Simple(source.IDAnalysis, "unresolved using target", ud.Ref, "cannot find namespace or type %q", ud.Target)
		return
	}
	_ = r.Names.AddUsing(ud.Alias, res.Entity)
}

func (r *Resolver) resolveClass(cd *syntax.ClassDecl) {
	if cd.IsForward {
		qualified, entity := r.qualify(cd.Name)
		ty := r.Types.DeclareComposite(qualified, cd.Ref)
		if entity != nil {
			entity.Payload = ty
		}
		return
	}

	classEntity := r.Names.PushNamespace(cd.Name, cd.Ref)
	qualified := classEntity.QualifiedName()

	members := make([]*types.Member, len(cd.Members))
	for i, md := range cd.Members {
		members[i] = &types.Member{Name: md.Name, Index: i, Type: r.resolveTypeSpec(md.Type, md.Ref), Ref: md.Ref}
	}
	ty, err := r.Types.DefineComposite(qualified, cd.Ref, members)
	if err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate class definition", cd.Ref, "%s", err)
	}
	classEntity.Payload = ty

	for _, m := range cd.Methods {
		r.resolveMethod(m, ty, qualified)
	}
	r.Names.PopNamespace()
}

func (r *Resolver) resolveEnum(ed *syntax.EnumDecl) {
	qualified, entity := r.qualify(ed.Name)
	values := make([]types.EnumValue, len(ed.Values))
	for i, v := range ed.Values {
		values[i] = types.EnumValue{Name: v.Name, Value: v.Value}
	}
	ty, err := r.Types.DefineEnum(qualified, ed.Ref, values)
	if err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate enum", ed.Ref, "%s", err)
		return
	}
	if entity != nil {
		entity.Payload = ty
	}
}

func (r *Resolver) resolveTypedef(td *syntax.TypedefDecl) {
	under := r.resolveTypeSpec(td.Underlying, td.Ref)
	qualified, entity := r.qualify(td.Name)
	ty, err := r.Types.DefineTypedef(qualified, under, td.Ref)
	if err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate typedef", td.Ref, "%s", err)
		return
	}
	if entity != nil {
		entity.Payload = ty
	}
}

func (r *Resolver) resolveFunction(fn *syntax.FunctionDecl) {
	retTy := r.resolveTypeSpec(fn.Return, fn.Ref)
	argTys := make([]*types.Type, len(fn.Args))
	for i, a := range fn.Args {
		argTys[i] = r.resolveTypeSpec(a.Type, fn.Ref)
	}
	qualified, _ := r.qualify(fn.Name)
	funcTy := r.Types.FuncPtr(retTy, argTys)
	if _, err := r.Symbols.Declare(qualified, mir.StaticFunction, funcTy); err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate symbol", fn.Ref, "%s", err)
	}
	r.recordFunction(fn, qualified)
	r.resolveFunctionBody(fn)
}

// resolveMethod resolves one class method: the implicit receiver pointer is prepended to the method's
// function-pointer argument list, matching how a call site must pass `this` as an explicit first
// argument once lowered.
func (r *Resolver) resolveMethod(fn *syntax.FunctionDecl, owner *types.Type, ownerQualified string) {
	retTy := r.resolveTypeSpec(fn.Return, fn.Ref)
	argTys := make([]*types.Type, 0, len(fn.Args)+1)
	argTys = append(argTys, r.Types.PointerTo(owner))
	for _, a := range fn.Args {
		argTys = append(argTys, r.resolveTypeSpec(a.Type, fn.Ref))
	}
	mangled := ownerQualified + "::" + fn.Name
	method, err := r.Types.AddMethod(owner, fn.Name, retTy, argTys, fn.Ref, mangled)
	if err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate method", fn.Ref, "%s", err)
		r.resolveFunctionBody(fn)
		return
	}
	if _, err := r.Symbols.Declare(mangled, mir.MemberMethod, method.FuncType); err != nil {
		r.Errors.Simple(source.IDAnalysis, "duplicate symbol", fn.Ref, "%s", err)
	}
	r.recordFunction(fn, mangled)
	r.resolveFunctionBody(fn)
}

func (r *Resolver) resolveFunctionBody(fn *syntax.FunctionDecl) {
	r.Names.PushAnonymousScope()
	r.resolveStmtList(fn.Body)
	r.Names.PopNamespace()
}

// qualify looks up name in the current scope and returns its fully-qualified canonical form, along
// with the entity found (nil if lookup failed, in which case the unqualified name is used as a
// best-effort fallback so resolution can continue and report downstream errors instead of panicking).
func (r *Resolver) qualify(name string) (string, *namespace.Entity) {
	res := r.Names.Lookup(name)
	if res.Kind != namespace.Found {
		return name, nil
	}
	return res.Entity.QualifiedName(), res.Entity
}

// ---------------------------------------------------------------------------
// Statement and expression walking
// ---------------------------------------------------------------------------

func (r *Resolver) resolveStmtList(stmts []*syntax.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s *syntax.Stmt) {
	switch s.Kind {
	case syntax.StmtExpr:
		r.resolveExpr(s.Expr)
	case syntax.StmtVarDecl:
		r.resolveTypeSpec(s.VarType, s.Ref)
		r.resolveExpr(s.VarInit)
	case syntax.StmtBlock:
		r.Names.PushAnonymousScope()
		r.resolveStmtList(s.Body)
		r.Names.PopNamespace()
	case syntax.StmtIf:
		r.resolveExpr(s.Cond)
		r.resolveStmtList(s.Then)
		r.resolveStmtList(s.Else)
	case syntax.StmtWhile:
		r.resolveExpr(s.Cond)
		r.resolveStmtList(s.Then)
	case syntax.StmtFor:
		r.Names.PushAnonymousScope()
		if s.ForInit != nil {
			r.resolveStmt(s.ForInit)
		}
		r.resolveExpr(s.Cond)
		r.resolveExpr(s.ForPost)
		r.resolveStmtList(s.Then)
		r.Names.PopNamespace()
	case syntax.StmtSwitch:
		r.resolveExpr(s.Cond)
		for _, c := range s.Cases {
			r.resolveExpr(c.Value)
			r.resolveStmtList(c.Body)
		}
	case syntax.StmtReturn:
		r.resolveExpr(s.Expr)
	}
}

func (r *Resolver) resolveExpr(e *syntax.Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case syntax.ExprBinary:
		r.resolveExpr(e.Lhs)
		r.resolveExpr(e.Rhs)
	case syntax.ExprUnary, syntax.ExprAddressOf, syntax.ExprDereference:
		r.resolveExpr(e.Operand)
	case syntax.ExprCall:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
	case syntax.ExprMemberAccess:
		r.resolveExpr(e.Object)
	case syntax.ExprIndex:
		r.resolveExpr(e.Object)
		r.resolveExpr(e.Index)
	case syntax.ExprAssign:
		r.resolveExpr(e.AssignTo)
		r.resolveExpr(e.AssignOf)
	case syntax.ExprSizeofType:
		r.resolveTypeSpec(e.SizeofSpec, e.Ref)
	}
}

// ---------------------------------------------------------------------------
// Type specifier resolution
// ---------------------------------------------------------------------------

// resolveTypeSpec resolves spec's base name against the namespace tree, rewrites spec.Name to that
// base name's canonical qualified form, then applies spec's pointer/reference/array decoration on top
// of the interned base type, constructing (and deduplicating) the decorated Type along the way.
func (r *Resolver) resolveTypeSpec(spec *syntax.TypeSpec, fallback source.Ref) *types.Type {
	if spec == nil {
		return r.Types.Primitive(types.Void)
	}
	ty := r.resolveBaseType(spec)
	if spec.IsPointer {
		ty = r.Types.PointerTo(ty)
	}
	if spec.IsRef {
		if ty.Tag == types.TagReference {
			r.Errors.Simple(source.IDAnalysis, "invalid type", spec.SourceRef,
				"reference to reference type %q is not allowed", ty.Canonical)
		}
		ty = r.Types.ReferenceTo(ty)
	}
	if spec.ArrayLen != nil {
		n, ok := constU32(spec.ArrayLen)
		if !ok {
			r.Errors.Simple(source.IDAnalysis, "invalid array length", spec.SourceRef,
				"array length must be a constant u32 expression")
		}
		ty = r.Types.ArrayOf(ty, n)
	}
	return ty
}

// resolveBaseType resolves (and rewrites) just the undecorated name portion of a TypeSpec.
func (r *Resolver) resolveBaseType(spec *syntax.TypeSpec) *types.Type {
	res := r.Names.Lookup(spec.Name)
	if res.Kind != namespace.Found || (res.Entity.Kind != namespace.KindType && res.Entity.Kind != namespace.KindClass) {
		r.Errors.Simple(source.IDAnalysis, "unknown type", spec.SourceRef, "type %q is not declared", spec.Name)
		spec.Name = types.U32.String()
		return r.Types.Primitive(types.U32)
	}
	qualified := res.Entity.QualifiedName()
	spec.Name = qualified
	if ty, ok := r.Types.Get(qualified); ok {
		return ty
	}
	// The name is declared (the namespace tree has an entry) but not yet interned into the type
	// table: a forward reference to a class whose body appears later in the file, or a
	// self-reference from inside the class's own body (a pointer-typed member or parameter naming
	// its own enclosing class). Interning an incomplete placeholder now lets construction of
	// pointer/reference/array types around it proceed; resolveClass fills it in as soon as it
	// reaches the class's closing brace.
	return r.Types.DeclareComposite(qualified, res.Entity.Ref)
}

// constU32 folds a literal-int expression to a u32 constant; richer constant folding is out of scope
// for this phase, matching the lowering pass's own array-length handling.
func constU32(e *syntax.Expr) (uint32, bool) {
	if e == nil || e.Kind != syntax.ExprLiteralInt {
		return 0, false
	}
	return uint32(e.IntValue), true
}
