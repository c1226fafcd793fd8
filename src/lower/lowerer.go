// Package lower implements Function Lowering: turning one syntax.FunctionDecl into one mir.Function,
// splitting basic blocks at control-flow boundaries and tracking lexical scope via scope.Tracker.
package lower

import (
	"jcc/src/mir"
	"jcc/src/namespace"
	"jcc/src/scope"
	"jcc/src/source"
	"jcc/src/syntax"
	"jcc/src/types"
)

// Lowerer owns the shared, whole-translation-unit state every function lowering pass reads: the type
// table, the namespace resolver (for resolving type specifiers written in source), and the error sink.
type Lowerer struct {
	Types  *types.Table
	Names  *namespace.Resolver
	Errors *source.Errors
}

// New creates a Lowerer over the given (already-populated by earlier phases) type table and namespace
// resolver.
func New(tt *types.Table, ns *namespace.Resolver, errs *source.Errors) *Lowerer {
	return &Lowerer{Types: tt, Names: ns, Errors: errs}
}

// funcCtx is the per-function lowering cursor: the function under construction, the basic block
// operations are currently appended to, and the scope tracker.
type funcCtx struct {
	l     *Lowerer
	fn    *mir.Function
	block *mir.BasicBlock
	scope *scope.Tracker
}

// LowerFunction lowers one function declaration (free function or method, receiver already resolved
// into name mangling by the caller) into a mir.Function.
func (l *Lowerer) LowerFunction(decl *syntax.FunctionDecl, mangledName string) *mir.Function {
	ret := l.resolveType(decl.Return, decl.Ref)
	args := make([]mir.Param, len(decl.Args))
	for i, a := range decl.Args {
		args[i] = mir.Param{Name: a.Name, Type: l.resolveType(a.Type, decl.Ref)}
	}

	fn := mir.NewFunction(mangledName, ret, args, decl.IsUnsafe, decl.Ref)
	fc := &funcCtx{l: l, fn: fn, block: fn.Blocks[0], scope: scope.NewTracker()}

	for _, a := range decl.Args {
		ty := l.resolveType(a.Type, decl.Ref)
		pt := fc.point()
		fc.emit(&mir.Operation{Op: mir.OpLocalDeclare, Result: -1, Name: a.Name, Type: ty, Ref: decl.Ref})
		if err := fc.scope.DeclareVariable(a.Name, ty, pt); err != nil {
			l.Errors.Simple(source.IDLowering, "duplicate parameter", decl.Ref, "%s", err)
		}
	}

	fc.lowerStmtList(decl.Body)
	fc.finalizeTopScope(decl.Ref, ret)
	fc.applyGotoFixups()

	return fn
}

// point returns the current insertion point as a FunctionPoint (the end of the current block).
func (fc *funcCtx) point() scope.FunctionPoint {
	return scope.FunctionPoint{Block: fc.block.Id, Index: len(fc.block.Operations)}
}

// emit appends op to the current block via the owning function (so result tmp-ids stay indexed).
func (fc *funcCtx) emit(op *mir.Operation) {
	fc.fn.Emit(fc.block, op)
}

// setBlock switches the lowering cursor to b; subsequent emit calls append there.
func (fc *funcCtx) setBlock(b *mir.BasicBlock) {
	fc.block = b
}

// resolveType turns a syntax.TypeSpec into a *types.Type, applying pointer, then reference, then array
// decoration on top of the base type. Unresolvable base names produce a lowering error and a poison u32 so lowering can
// continue.
func (l *Lowerer) resolveType(spec *syntax.TypeSpec, fallbackRef source.Ref) *types.Type {
	if spec == nil {
		return l.Types.Primitive(types.Void)
	}
	base, ok := l.Types.Get(baseTypeName(spec.Name))
	if !ok {
		l.Errors.Simple(source.IDLowering, "unknown type", spec.SourceRef, "type %q is not declared", spec.Name)
		base = l.Types.Primitive(types.U32)
	}
	ty := base
	if spec.IsPointer {
		ty = l.Types.PointerTo(ty)
	}
	if spec.IsRef {
		ty = l.Types.ReferenceTo(ty)
	}
	if spec.ArrayLen != nil {
		n, ok := constU32(spec.ArrayLen)
		if !ok {
			l.Errors.Simple(source.IDLowering, "invalid array length", spec.SourceRef,
				"array length must be a constant u32 expression")
			n = 0
		}
		ty = l.Types.ArrayOf(ty, n)
	}
	return ty
}

// baseTypeName returns name unchanged: the type table is keyed by canonical (already-resolved) name,
// and by the time lowering runs TypeSpec.Name already holds the resolver's Entity.QualifiedName() for
// the type, which the type resolver phase is responsible for computing and threading through.
func baseTypeName(name string) string {
	return name
}

// constU32 folds a literal-int expression to a u32 constant. Only the literal case is supported;
// richer constant folding belongs to a future extension, not this lowering pass.
func constU32(e *syntax.Expr) (uint32, bool) {
	if e.Kind != syntax.ExprLiteralInt {
		return 0, false
	}
	return uint32(e.IntValue), true
}

// finalizeTopScope emits the implicit end-of-body teardown and return, if control can fall off the end
// of a void function; a non-void function whose last block has no terminator gets a "missing return"
// error (analysis band) reported here.
func (fc *funcCtx) finalizeTopScope(ref source.Ref, ret *types.Type) {
	if fc.block.Terminator() != nil {
		return
	}
	if ret.Tag == types.TagPrimitive && ret.Prim == types.Void {
		fc.emitTeardown(fc.scope.TeardownToRoot())
		fc.emit(mir.NewOperation(mir.OpReturnVoid, ref))
		return
	}
	fc.l.Errors.Simple(source.IDAnalysis, "missing return", ref,
		"function %q falls off the end without returning a value", fc.fn.Name)
}

// applyGotoFixups runs the scope tracker's flatten-and-check algorithm and, for each legal goto,
// inserts local_undeclare operations ahead of its jump.
func (fc *funcCtx) applyGotoFixups() {
	fixups, errs := fc.scope.Fixups()
	for _, err := range errs {
		fc.l.Errors.Simple(source.IDLowering, "invalid goto", fc.fn.Ref, "%s", err)
	}
	for _, fix := range fixups {
		b, ok := fc.fn.Blocks[fix.Point.Block]
		if !ok {
			continue
		}
		teardown := make([]*mir.Operation, len(fix.Teardown))
		for i, name := range fix.Teardown {
			teardown[i] = &mir.Operation{Op: mir.OpLocalUndeclare, Result: -1, Name: name}
		}
		insertAt(b, fix.Point.Index, teardown)
	}
}

// insertAt splices ops into b's operation list at index idx, shifting the rest (including the
// terminator) right. Used to insert teardown operations ahead of a jump already emitted.
func insertAt(b *mir.BasicBlock, idx int, ops []*mir.Operation) {
	if len(ops) == 0 {
		return
	}
	if idx > len(b.Operations) {
		idx = len(b.Operations)
	}
	tail := append([]*mir.Operation{}, b.Operations[idx:]...)
	b.Operations = append(b.Operations[:idx], ops...)
	b.Operations = append(b.Operations, tail...)
}
