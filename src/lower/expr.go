package lower

import (
	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/syntax"
	"jcc/src/types"
)

// value is the result of lowering one expression: its temporary id, its type, and whether it denotes
// an lvalue (so `assign` and `addressof` can be checked).
type value struct {
	tmp    int
	ty     *types.Type
	lvalue bool
}

// lowerExpr dispatches on Expr.Kind, emitting operations into the current block and returning the
// temporary carrying the expression's value.
func (fc *funcCtx) lowerExpr(e *syntax.Expr) value {
	switch e.Kind {
	case syntax.ExprIdentifier:
		return fc.lowerIdentifier(e)
	case syntax.ExprLiteralInt:
		return fc.lowerLiteralInt(e)
	case syntax.ExprLiteralFloat:
		return fc.lowerLiteralFloat(e)
	case syntax.ExprLiteralChar:
		return fc.lowerLiteralSimple(mir.OpLiteralChar, e.Ref, types.U8, func(op *mir.Operation) { op.CharValue = e.CharValue })
	case syntax.ExprLiteralString:
		ty := fc.l.Types.PointerTo(fc.l.Types.Primitive(types.U8))
		return fc.emitValue(&mir.Operation{Op: mir.OpLiteralString, StringValue: e.StringValue, Ref: e.Ref}, ty, false)
	case syntax.ExprLiteralBool:
		return fc.lowerLiteralSimple(mir.OpLiteralBool, e.Ref, types.Bool, func(op *mir.Operation) { op.BoolValue = e.BoolValue })
	case syntax.ExprLiteralNull:
		return fc.emitValue(&mir.Operation{Op: mir.OpLiteralNull, Ref: e.Ref}, fc.l.Types.PointerTo(fc.l.Types.Primitive(types.U8)), false)
	case syntax.ExprBinary:
		return fc.lowerBinary(e)
	case syntax.ExprUnary:
		return fc.lowerUnary(e)
	case syntax.ExprCall:
		return fc.lowerCall(e)
	case syntax.ExprMemberAccess:
		return fc.lowerMemberAccess(e)
	case syntax.ExprIndex:
		return fc.lowerIndex(e)
	case syntax.ExprAddressOf:
		return fc.lowerAddressOf(e)
	case syntax.ExprDereference:
		return fc.lowerDereference(e)
	case syntax.ExprAssign:
		return fc.lowerAssign(e)
	case syntax.ExprSizeofType:
		ty := fc.l.resolveType(e.SizeofSpec, e.Ref)
		if !ty.Complete {
			fc.l.Errors.Simple(source.IDLowering, "sizeof of incomplete type", e.Ref,
				"sizeof applied to incomplete type %q", ty.Canonical)
		}
		return fc.emitValue(&mir.Operation{Op: mir.OpSizeofType, Name: ty.Canonical, Ref: e.Ref}, fc.l.Types.Primitive(types.U64), false)
	}
	fc.l.Errors.Simple(source.IDLowering, "internal error", e.Ref, "unhandled expression kind %d", e.Kind)
	return fc.poison(e.Ref)
}

// poison yields a synthetic temporary of type u32 so lowering can continue after a local error,
// per the pipeline's "never observable at the interface" error-recovery policy.
func (fc *funcCtx) poison(ref source.Ref) value {
	ty := fc.l.Types.Primitive(types.U32)
	tmp := fc.fn.NewTemp(ty)
	fc.emit(&mir.Operation{Op: mir.OpLiteralInt, Result: tmp, Type: ty, Ref: ref})
	return value{tmp: tmp, ty: ty}
}

// emitValue allocates a result temporary of type ty, assigns it to op.Result, emits op and returns the
// resulting value.
func (fc *funcCtx) emitValue(op *mir.Operation, ty *types.Type, lvalue bool) value {
	tmp := fc.fn.NewTemp(ty)
	op.Result = tmp
	op.Type = ty
	fc.emit(op)
	return value{tmp: tmp, ty: ty, lvalue: lvalue}
}

func (fc *funcCtx) lowerLiteralSimple(op mir.Opcode, ref source.Ref, prim types.Primitive, set func(*mir.Operation)) value {
	o := &mir.Operation{Op: op, Ref: ref}
	set(o)
	return fc.emitValue(o, fc.l.Types.Primitive(prim), false)
}

func (fc *funcCtx) lowerLiteralInt(e *syntax.Expr) value {
	ty := fc.l.resolveIntLiteral(e)
	val := e.IntValue
	if e.Negative {
		val = uint64(-int64(e.IntValue))
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpLiteralInt, IntValue: val, Ref: e.Ref}, ty, false)
}

func (fc *funcCtx) lowerLiteralFloat(e *syntax.Expr) value {
	prim := types.F64
	if e.FloatIsF32 {
		prim = types.F32
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpLiteralFloat, FloatValue: e.FloatValue, Ref: e.Ref}, fc.l.Types.Primitive(prim), false)
}

// lowerIdentifier resolves a bare name against the scope tracker (locals take priority over globals,
// matching how the namespace resolver's scope stack already prioritizes inner scopes).
func (fc *funcCtx) lowerIdentifier(e *syntax.Expr) value {
	if ty, ok := fc.scope.QueryVariable(e.Name); ok {
		return fc.emitValue(&mir.Operation{Op: mir.OpLocalVariable, Name: e.Name, Ref: e.Ref}, ty, true)
	}
	res := fc.l.Names.Lookup(e.Name)
	if res.Entity != nil {
		if fnType, ok := res.Entity.Payload.(*types.Type); ok {
			return fc.emitValue(&mir.Operation{Op: mir.OpSymbol, Name: e.Name, Ref: e.Ref}, fnType, false)
		}
	}
	fc.l.Errors.Simple(source.IDLowering, "undeclared identifier", e.Ref, "%q is not declared", e.Name)
	return fc.poison(e.Ref)
}

// lowerAssign lowers `lvalue = rvalue`, widening the rvalue to the lvalue's type when the widening is
// legal, and rejecting an implicit pointer<->reference conversion outside an unsafe scope.
func (fc *funcCtx) lowerAssign(e *syntax.Expr) value {
	lhs := fc.lowerExpr(e.AssignTo)
	if !lhs.lvalue {
		fc.l.Errors.Simple(source.IDLowering, "invalid assignment", e.Ref, "left-hand side is not an lvalue")
	}
	rhs := fc.lowerExpr(e.AssignOf)
	rhs = fc.coerce(rhs, lhs.ty, e.Ref)
	return fc.emitValue(&mir.Operation{Op: mir.OpAssign, Operands: []int{lhs.tmp, rhs.tmp}, Ref: e.Ref}, rhs.ty, false)
}

// coerce widens v to target when that is a legal implicit conversion (same numeric family, target at
// least as wide), or allows the pointer<->reference case when the current scope is unsafe. Otherwise it
// reports a type mismatch and returns v unchanged so lowering can continue.
func (fc *funcCtx) coerce(v value, target *types.Type, ref source.Ref) value {
	if v.ty == target {
		return v
	}
	if v.ty.IsNumeric() && target.IsNumeric() {
		if w, ok := fc.widen(v, target, ref); ok {
			return w
		}
	}
	if (v.ty.Tag == types.TagPointer && target.Tag == types.TagReference) ||
		(v.ty.Tag == types.TagReference && target.Tag == types.TagPointer) {
		if fc.scope.IsUnsafe() {
			return value{tmp: v.tmp, ty: target}
		}
		fc.l.Errors.Simple(source.IDLowering, "unsafe conversion outside unsafe scope", ref,
			"pointer/reference conversion requires an unsafe scope")
		return v
	}
	fc.l.Errors.Simple(source.IDLowering, "type mismatch", ref,
		"cannot convert %s to %s", v.ty.Canonical, target.Canonical)
	return v
}

// widen inserts widen_signed/widen_unsigned/widen_float when target is the same numeric family as v
// and at least as wide. Narrowing and signed<->unsigned conversions are never implicit.
func (fc *funcCtx) widen(v value, target *types.Type, ref source.Ref) (value, bool) {
	if v.ty.IsFloat() != target.IsFloat() {
		return v, false
	}
	if !v.ty.IsFloat() && v.ty.IsSigned() != target.IsSigned() {
		return v, false
	}
	if target.BitWidth() < v.ty.BitWidth() {
		return v, false
	}
	if target.BitWidth() == v.ty.BitWidth() {
		if v.ty.Canonical == target.Canonical {
			return v, true
		}
		return v, false
	}
	op := mir.OpWidenUnsigned
	switch {
	case v.ty.IsFloat():
		op = mir.OpWidenFloat
	case v.ty.IsSigned():
		op = mir.OpWidenSigned
	}
	return fc.emitValue(&mir.Operation{Op: op, Operands: []int{v.tmp}, Ref: ref}, target, false), true
}

// lowerBinary widens both operands to a common type, then emits the opcode. Comparisons always yield
// bool; pointers/references may only be compared for (in)equality.
func (fc *funcCtx) lowerBinary(e *syntax.Expr) value {
	lhs := fc.lowerExpr(e.Lhs)
	rhs := fc.lowerExpr(e.Rhs)

	isCompare := e.BinOp >= syntax.BinLt && e.BinOp <= syntax.BinNe
	isEqNe := e.BinOp == syntax.BinEq || e.BinOp == syntax.BinNe

	if lhs.ty.Tag == types.TagPointer || lhs.ty.Tag == types.TagReference ||
		rhs.ty.Tag == types.TagPointer || rhs.ty.Tag == types.TagReference {
		if !isCompare || !isEqNe {
			fc.l.Errors.Simple(source.IDLowering, "invalid operand", e.Ref,
				"pointers and references only support equality comparison")
			return fc.poison(e.Ref)
		}
		return fc.emitValue(&mir.Operation{Op: binOpcode(e.BinOp), Operands: []int{lhs.tmp, rhs.tmp}, Ref: e.Ref},
			fc.l.Types.Primitive(types.Bool), false)
	}

	common := wider(lhs.ty, rhs.ty)
	if common != nil {
		lhs = fc.coerce(lhs, common, e.Ref)
		rhs = fc.coerce(rhs, common, e.Ref)
	} else if lhs.ty.Canonical != rhs.ty.Canonical {
		fc.l.Errors.Simple(source.IDLowering, "type mismatch", e.Ref,
			"operands have incompatible types %s and %s", lhs.ty.Canonical, rhs.ty.Canonical)
	}

	resultTy := lhs.ty
	if isCompare || e.BinOp == syntax.BinLogicalAnd || e.BinOp == syntax.BinLogicalOr {
		resultTy = fc.l.Types.Primitive(types.Bool)
	}
	return fc.emitValue(&mir.Operation{Op: binOpcode(e.BinOp), Operands: []int{lhs.tmp, rhs.tmp}, Ref: e.Ref}, resultTy, false)
}

// wider returns whichever of a, b is the wider type when both are numeric and of the same family
// (float-ness and, for integers, signedness match), or nil if neither dominates.
func wider(a, b *types.Type) *types.Type {
	if !a.IsNumeric() || !b.IsNumeric() {
		return nil
	}
	if a.Canonical == b.Canonical {
		return a
	}
	if a.IsFloat() != b.IsFloat() {
		return nil
	}
	if !a.IsFloat() && a.IsSigned() != b.IsSigned() {
		return nil
	}
	if a.BitWidth() >= b.BitWidth() {
		return a
	}
	return b
}

func binOpcode(op syntax.BinOp) mir.Opcode {
	switch op {
	case syntax.BinAdd:
		return mir.OpAdd
	case syntax.BinSub:
		return mir.OpSub
	case syntax.BinMul:
		return mir.OpMul
	case syntax.BinDiv:
		return mir.OpDiv
	case syntax.BinMod:
		return mir.OpMod
	case syntax.BinLogicalAnd:
		return mir.OpLogicalAnd
	case syntax.BinLogicalOr:
		return mir.OpLogicalOr
	case syntax.BinBitAnd:
		return mir.OpBitwiseAnd
	case syntax.BinBitOr:
		return mir.OpBitwiseOr
	case syntax.BinBitXor:
		return mir.OpBitwiseXor
	case syntax.BinShl:
		return mir.OpShiftLeft
	case syntax.BinShr:
		return mir.OpShiftRight
	case syntax.BinLt:
		return mir.OpCompareLt
	case syntax.BinGt:
		return mir.OpCompareGt
	case syntax.BinLe:
		return mir.OpCompareLe
	case syntax.BinGe:
		return mir.OpCompareGe
	case syntax.BinEq:
		return mir.OpCompareEq
	case syntax.BinNe:
		return mir.OpCompareNe
	}
	return mir.OpAdd
}

// lowerUnary folds a leading minus on an integer literal into the literal itself (so literal range
// checking and default-typing see the true, signed value), and otherwise emits the unary opcode.
func (fc *funcCtx) lowerUnary(e *syntax.Expr) value {
	if e.UnaryOp == syntax.UnaryNegate && e.Operand.Kind == syntax.ExprLiteralInt {
		folded := *e.Operand
		folded.Negative = true
		return fc.lowerExpr(&folded)
	}
	v := fc.lowerExpr(e.Operand)
	op := mir.OpNegate
	switch e.UnaryOp {
	case syntax.UnaryBitwiseNot:
		op = mir.OpBitwiseNot
	case syntax.UnaryLogicalNot:
		op = mir.OpLogicalNot
	}
	ty := v.ty
	if op == mir.OpLogicalNot {
		ty = fc.l.Types.Primitive(types.Bool)
	}
	return fc.emitValue(&mir.Operation{Op: op, Operands: []int{v.tmp}, Ref: e.Ref}, ty, false)
}

func (fc *funcCtx) lowerCall(e *syntax.Expr) value {
	callee := fc.lowerExpr(e.Callee)
	operands := []int{callee.tmp}
	for _, a := range e.Args {
		operands = append(operands, fc.lowerExpr(a).tmp)
	}
	retTy := callee.ty
	if callee.ty.Tag == types.TagFuncPtr {
		retTy = callee.ty.FuncReturn
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpFunctionCall, Operands: operands, Ref: e.Ref}, retTy, false)
}

func (fc *funcCtx) lowerMemberAccess(e *syntax.Expr) value {
	obj := fc.lowerExpr(e.Object)
	base := obj.ty
	if base.Tag == types.TagPointer || base.Tag == types.TagReference {
		base = base.Target
	}
	m, ok := base.GetMember(e.Name)
	if ok {
		return fc.emitValue(&mir.Operation{Op: mir.OpDot, Operands: []int{obj.tmp}, Name: e.Name, Ref: e.Ref}, m.Type, obj.lvalue)
	}
	if meth, ok := base.GetMethod(e.Name); ok {
		return fc.emitValue(&mir.Operation{Op: mir.OpGetMethod, Operands: []int{obj.tmp}, Name: e.Name, Ref: e.Ref}, meth.FuncType, false)
	}
	fc.l.Errors.Simple(source.IDLowering, "unknown member", e.Ref, "%q has no member %q", base.Canonical, e.Name)
	return fc.poison(e.Ref)
}

func (fc *funcCtx) lowerIndex(e *syntax.Expr) value {
	arr := fc.lowerExpr(e.Object)
	idx := fc.lowerExpr(e.Index)
	if arr.ty.Tag != types.TagArray {
		fc.l.Errors.Simple(source.IDLowering, "invalid index", e.Ref, "%s is not an array type", arr.ty.Canonical)
		return fc.poison(e.Ref)
	}
	if !idx.ty.IsUnsigned() {
		fc.l.Errors.Simple(source.IDLowering, "invalid index", e.Ref, "array index must be an unsigned integer")
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpArrayIndex, Operands: []int{arr.tmp, idx.tmp}, Ref: e.Ref}, arr.ty.Target, true)
}

// lowerAddressOf rejects obtaining a pointer (as opposed to a reference) outside an unsafe scope.
func (fc *funcCtx) lowerAddressOf(e *syntax.Expr) value {
	v := fc.lowerExpr(e.Operand)
	if !v.lvalue {
		fc.l.Errors.Simple(source.IDLowering, "invalid addressof", e.Ref, "operand must be an lvalue")
	}
	if !fc.scope.IsUnsafe() {
		fc.l.Errors.Simple(source.IDLowering, "unsafe operation outside unsafe scope", e.Ref,
			"taking the address of a value requires an unsafe scope")
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpAddressOf, Operands: []int{v.tmp}, Ref: e.Ref}, fc.l.Types.PointerTo(v.ty), false)
}

// lowerDereference rejects dereferencing a raw pointer (as opposed to a reference) outside an unsafe
// scope.
func (fc *funcCtx) lowerDereference(e *syntax.Expr) value {
	v := fc.lowerExpr(e.Operand)
	if v.ty.Tag != types.TagPointer && v.ty.Tag != types.TagReference {
		fc.l.Errors.Simple(source.IDLowering, "invalid dereference", e.Ref, "%s is not a pointer or reference", v.ty.Canonical)
		return fc.poison(e.Ref)
	}
	if v.ty.Tag == types.TagPointer && !fc.scope.IsUnsafe() {
		fc.l.Errors.Simple(source.IDLowering, "unsafe operation outside unsafe scope", e.Ref,
			"dereferencing a raw pointer requires an unsafe scope")
	}
	return fc.emitValue(&mir.Operation{Op: mir.OpDereference, Operands: []int{v.tmp}, Ref: e.Ref}, v.ty.Target, true)
}
