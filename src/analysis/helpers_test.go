package analysis

import (
	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

func u32() *types.Type {
	return &types.Type{Canonical: "u32", Tag: types.TagPrimitive, Prim: types.U32, Complete: true}
}

func voidType() *types.Type {
	return &types.Type{Canonical: "void", Tag: types.TagPrimitive, Prim: types.Void, Complete: true}
}

func newErrs() *source.Errors {
	return source.NewErrors(nil)
}

// declareLocal emits a local_declare for name, records it with the function's scope-free bookkeeping
// this package needs (nothing beyond the operation itself), and returns nothing: callers lower
// local_variable reads separately via readLocal.
func declareLocal(f *mir.Function, b *mir.BasicBlock, name string, ty *types.Type) {
	f.Emit(b, &mir.Operation{Op: mir.OpLocalDeclare, Result: -1, Name: name, Type: ty})
}

func undeclareLocal(f *mir.Function, b *mir.BasicBlock, name string) {
	f.Emit(b, &mir.Operation{Op: mir.OpLocalUndeclare, Result: -1, Name: name})
}

// readLocal emits a local_variable operation naming the given local and returns its result tmp.
func readLocal(f *mir.Function, b *mir.BasicBlock, name string, ty *types.Type) int {
	tmp := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpLocalVariable, Result: tmp, Name: name, Type: ty})
	return tmp
}

// use emits a throwaway unary operation consuming tmp, standing in for whatever real expression would
// have read it; the analysis passes key reads off of operand lists, not bare local_variable results, so
// a read under test must always flow into some consumer like this.
func use(f *mir.Function, b *mir.BasicBlock, tmp int, ty *types.Type) int {
	out := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpNegate, Result: out, Operands: []int{tmp}, Type: ty})
	return out
}

func assign(f *mir.Function, b *mir.BasicBlock, lhs, rhs int, ty *types.Type) int {
	tmp := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpAssign, Result: tmp, Operands: []int{lhs, rhs}, Type: ty})
	return tmp
}

func literal(f *mir.Function, b *mir.BasicBlock, v uint64, ty *types.Type) int {
	tmp := f.NewTemp(ty)
	f.Emit(b, &mir.Operation{Op: mir.OpLiteralInt, Result: tmp, IntValue: v, Type: ty})
	return tmp
}

func jump(f *mir.Function, b *mir.BasicBlock, target int) {
	f.Emit(b, &mir.Operation{Op: mir.OpJump, Result: -1, Then: target})
}

func jumpIf(f *mir.Function, b *mir.BasicBlock, cond int, then, els int) {
	f.Emit(b, &mir.Operation{Op: mir.OpJumpConditional, Result: -1, Operands: []int{cond}, Then: then, Else: els})
}

func returnVoid(f *mir.Function, b *mir.BasicBlock) {
	f.Emit(b, &mir.Operation{Op: mir.OpReturnVoid, Result: -1})
}

func returnValue(f *mir.Function, b *mir.BasicBlock, tmp int) {
	f.Emit(b, &mir.Operation{Op: mir.OpReturn, Result: -1, Operands: []int{tmp}})
}

// newVoidFunction creates a single-block void function named name, ready for its body to be emitted
// into f.Blocks[0].
func newVoidFunction(name string) *mir.Function {
	return mir.NewFunction(name, voidType(), nil, false, source.Ref{File: "t.c", Line: 1})
}

// newFunction creates a single-block function with the given return type and parameters.
func newFunction(name string, ret *types.Type, args []mir.Param) *mir.Function {
	return mir.NewFunction(name, ret, args, false, source.Ref{File: "t.c", Line: 1})
}
