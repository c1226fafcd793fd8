// Package codegen turns a fully analyzed mir.Program into LLVM IR and, from there, a native object
// file for the host's default target. It walks each mir.Function block by block, one llvm.BasicBlock
// per mir.BasicBlock, one llvm.Value per temporary, and one llvm.Value alloca per declared local.
package codegen

import (
	"fmt"
	"os"

	"tinygo.org/x/go-llvm"

	"jcc/src/mir"
	"jcc/src/types"
)

// Codegen owns the LLVM context and module for one translation unit's worth of codegen.
type Codegen struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder

	types     *types.Table
	typeCache map[string]llvm.Type
	functions map[string]llvm.Value
}

// New creates a Codegen targeting a fresh LLVM module named moduleName. tt is the Type Table that
// resolution populated; codegen consults it to size sizeof expressions.
func New(moduleName string, tt *types.Table) *Codegen {
	ctx := llvm.NewContext()
	return &Codegen{
		ctx:       ctx,
		module:    ctx.NewModule(moduleName),
		builder:   ctx.NewBuilder(),
		types:     tt,
		typeCache: make(map[string]llvm.Type),
		functions: make(map[string]llvm.Value),
	}
}

// Dispose releases the underlying LLVM context, module and builder.
func (cg *Codegen) Dispose() {
	cg.builder.Dispose()
	cg.module.Dispose()
	cg.ctx.Dispose()
}

// Generate lowers every function of prog into the module, headers first (so forward calls resolve)
// then bodies, a two-pass declare/define split.
func (cg *Codegen) Generate(prog *mir.Program) error {
	for _, fn := range prog.Functions {
		if err := cg.declareFunction(fn); err != nil {
			return err
		}
	}
	for _, fn := range prog.Functions {
		if err := cg.defineFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// IR renders the generated module as textual LLVM IR, the output of --output-llvm-ir.
func (cg *Codegen) IR() string {
	return cg.module.String()
}

// codeGenLevel maps the command line's -O0..-O3 onto the llvm.CodeGenOptLevel the target machine
// builds with.
func codeGenLevel(optLevel int) llvm.CodeGenOptLevel {
	switch optLevel {
	case 0:
		return llvm.CodeGenLevelNone
	case 1:
		return llvm.CodeGenLevelLess
	case 3:
		return llvm.CodeGenLevelAggressive
	default:
		return llvm.CodeGenLevelDefault
	}
}

// EmitObject writes a native object file for the host's default target triple to path, built at the
// given -O level.
func (cg *Codegen) EmitObject(path string, optLevel int) error {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("codegen: %w", err)
	}

	tm := target.CreateTargetMachine(triple, "generic", "",
		codeGenLevel(optLevel), llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()
	cg.module.SetDataLayout(td.String())
	cg.module.SetTarget(tm.Triple())

	buf, err := tm.EmitToMemoryBuffer(cg.module, llvm.ObjectFile)
	if err != nil {
		return fmt.Errorf("codegen: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("codegen: could not create %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("codegen: could not write %q: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Type lowering
// ---------------------------------------------------------------------------

// llvmType maps a types.Type to its LLVM representation, caching by canonical name so structurally
// equal (and self-referential) types share one llvm.Type, the same deduplication the Type Table already
// does on the jcc side.
func (cg *Codegen) llvmType(t *types.Type) llvm.Type {
	if cached, ok := cg.typeCache[t.Canonical]; ok {
		return cached
	}
	switch t.Tag {
	case types.TagPrimitive:
		lt := primitiveLLVMType(t.Prim)
		cg.typeCache[t.Canonical] = lt
		return lt
	case types.TagPointer, types.TagReference:
		elem := cg.llvmType(t.Target)
		lt := llvm.PointerType(elem, 0)
		cg.typeCache[t.Canonical] = lt
		return lt
	case types.TagArray:
		elem := cg.llvmType(t.Target)
		lt := llvm.ArrayType(elem, int(t.ArrayLen))
		cg.typeCache[t.Canonical] = lt
		return lt
	case types.TagFuncPtr:
		ret := cg.llvmType(t.FuncReturn)
		args := make([]llvm.Type, len(t.FuncArgs))
		for i, a := range t.FuncArgs {
			args[i] = cg.llvmType(a)
		}
		lt := llvm.PointerType(llvm.FunctionType(ret, args, false), 0)
		cg.typeCache[t.Canonical] = lt
		return lt
	case types.TagEnum:
		lt := llvm.Int32Type()
		cg.typeCache[t.Canonical] = lt
		return lt
	case types.TagComposite:
		return cg.compositeType(t)
	}
	return llvm.VoidType()
}

// compositeType creates (or returns the cached) named struct for a composite type. The struct is
// registered in typeCache before its members are visited, so a self-referential pointer member (a class
// pointing to itself) resolves to the same opaque struct instead of recursing forever.
func (cg *Codegen) compositeType(t *types.Type) llvm.Type {
	if cached, ok := cg.typeCache[t.Canonical]; ok {
		return cached
	}
	st := cg.ctx.StructCreateNamed(t.Canonical)
	cg.typeCache[t.Canonical] = st
	if !t.Complete {
		return st
	}
	fields := make([]llvm.Type, len(t.Members))
	for i, m := range t.Members {
		fields[i] = cg.llvmType(m.Type)
	}
	st.StructSetBody(fields, false)
	return st
}

func primitiveLLVMType(p types.Primitive) llvm.Type {
	switch p {
	case types.U8, types.I8:
		return llvm.Int8Type()
	case types.U16, types.I16:
		return llvm.Int16Type()
	case types.U32, types.I32:
		return llvm.Int32Type()
	case types.U64, types.I64:
		return llvm.Int64Type()
	case types.F32:
		return llvm.FloatType()
	case types.F64:
		return llvm.DoubleType()
	case types.Bool:
		return llvm.Int1Type()
	default:
		return llvm.VoidType()
	}
}

// ---------------------------------------------------------------------------
// Function declaration and definition
// ---------------------------------------------------------------------------

func (cg *Codegen) declareFunction(fn *mir.Function) error {
	ret := cg.llvmType(fn.Return)
	args := make([]llvm.Type, len(fn.Args))
	for i, a := range fn.Args {
		args[i] = cg.llvmType(a.Type)
	}
	ftyp := llvm.FunctionType(ret, args, false)
	llfn := llvm.AddFunction(cg.module, fn.Name, ftyp)
	for i, p := range fn.Args {
		llfn.Param(i).SetName(p.Name)
	}
	cg.functions[fn.Name] = llfn
	return nil
}

// funcGen is the per-function codegen cursor: the llvm function under construction, its block map,
// temporary-value table and current locals.
type funcGen struct {
	cg     *Codegen
	fn     *mir.Function
	llfn   llvm.Value
	blocks map[int]llvm.BasicBlock
	locals map[string]llvm.Value

	values  map[int]llvm.Value
	address map[int]bool // true if values[tmp] holds an address (a pointer to storage) rather than a plain value
}

func (cg *Codegen) defineFunction(fn *mir.Function) error {
	llfn, ok := cg.functions[fn.Name]
	if !ok {
		return fmt.Errorf("codegen: function %q was not declared", fn.Name)
	}

	fg := &funcGen{
		cg:      cg,
		fn:      fn,
		llfn:    llfn,
		blocks:  make(map[int]llvm.BasicBlock, len(fn.Blocks)),
		locals:  make(map[string]llvm.Value),
		values:  make(map[int]llvm.Value),
		address: make(map[int]bool),
	}
	for _, b := range fn.OrderedBlocks() {
		fg.blocks[b.Id] = llvm.AddBasicBlock(llfn, b.Name())
	}

	cg.builder.SetInsertPointAtEnd(fg.blocks[0])
	for i, p := range fn.Args {
		alloca := cg.builder.CreateAlloca(cg.llvmType(p.Type), p.Name)
		cg.builder.CreateStore(llfn.Param(i), alloca)
		fg.locals[p.Name] = alloca
	}

	for _, b := range fn.OrderedBlocks() {
		cg.builder.SetInsertPointAtEnd(fg.blocks[b.Id])
		for _, op := range b.Operations {
			if err := fg.genOperation(op); err != nil {
				return fmt.Errorf("codegen: %s: %w", fn.Name, err)
			}
		}
	}
	return nil
}

func (fg *funcGen) setVal(tmp int, v llvm.Value) {
	if tmp < 0 {
		return
	}
	fg.values[tmp] = v
}

func (fg *funcGen) setAddr(tmp int, v llvm.Value) {
	fg.values[tmp] = v
	fg.address[tmp] = true
}

// val returns tmp's plain value, loading through its storage address first if it was recorded as one.
func (fg *funcGen) val(tmp int) llvm.Value {
	v := fg.values[tmp]
	if fg.address[tmp] {
		return fg.cg.builder.CreateLoad(v, "")
	}
	return v
}

// addr returns tmp's storage address; used by operations (assign, addressof, dot, array_index) that
// need the location rather than the value stored there.
func (fg *funcGen) addr(tmp int) llvm.Value {
	return fg.values[tmp]
}

func (fg *funcGen) tempType(tmp int) *types.Type {
	if tmp < 0 || tmp >= len(fg.fn.Temps) {
		return nil
	}
	return fg.fn.Temps[tmp].Type
}

func (fg *funcGen) genOperation(op *mir.Operation) error {
	switch op.Op {
	case mir.OpLocalDeclare:
		alloca := fg.cg.builder.CreateAlloca(fg.cg.llvmType(op.Type), op.Name)
		fg.locals[op.Name] = alloca
	case mir.OpLocalUndeclare:
		delete(fg.locals, op.Name)
	case mir.OpLocalVariable:
		addr, ok := fg.locals[op.Name]
		if !ok {
			return fmt.Errorf("undeclared local %q", op.Name)
		}
		fg.setAddr(op.Result, addr)
	case mir.OpSymbol:
		fn, ok := fg.cg.functions[op.Name]
		if !ok {
			return fmt.Errorf("undeclared function symbol %q", op.Name)
		}
		fg.setVal(op.Result, fn)
	case mir.OpLiteralInt:
		fg.setVal(op.Result, llvm.ConstInt(fg.cg.llvmType(op.Type), op.IntValue, op.Type.IsSigned()))
	case mir.OpLiteralFloat:
		fg.setVal(op.Result, llvm.ConstFloat(fg.cg.llvmType(op.Type), op.FloatValue))
	case mir.OpLiteralBool:
		v := uint64(0)
		if op.BoolValue {
			v = 1
		}
		fg.setVal(op.Result, llvm.ConstInt(llvm.Int1Type(), v, false))
	case mir.OpLiteralChar:
		fg.setVal(op.Result, llvm.ConstInt(llvm.Int8Type(), uint64(op.CharValue), false))
	case mir.OpLiteralString:
		fg.setVal(op.Result, fg.cg.builder.CreateGlobalStringPtr(op.StringValue, "str"))
	case mir.OpLiteralNull:
		fg.setVal(op.Result, llvm.ConstNull(fg.cg.llvmType(op.Type)))
	case mir.OpSizeofType:
		fg.genSizeof(op)
	case mir.OpAddressOf:
		fg.setVal(op.Result, fg.addr(op.Operands[0]))
	case mir.OpDereference:
		fg.setAddr(op.Result, fg.val(op.Operands[0]))
	case mir.OpDot:
		if err := fg.genDot(op); err != nil {
			return err
		}
	case mir.OpArrayIndex:
		fg.genArrayIndex(op)
	case mir.OpNegate:
		fg.genNegate(op)
	case mir.OpBitwiseNot:
		v := fg.val(op.Operands[0])
		allOnes := llvm.ConstAllOnes(v.Type())
		fg.setVal(op.Result, fg.cg.builder.CreateXor(v, allOnes, ""))
	case mir.OpLogicalNot:
		v := fg.val(op.Operands[0])
		fg.setVal(op.Result, fg.cg.builder.CreateXor(v, llvm.ConstInt(llvm.Int1Type(), 1, false), ""))
	case mir.OpWidenSigned:
		fg.setVal(op.Result, fg.cg.builder.CreateSExt(fg.val(op.Operands[0]), fg.cg.llvmType(op.Type), ""))
	case mir.OpWidenUnsigned:
		fg.setVal(op.Result, fg.cg.builder.CreateZExt(fg.val(op.Operands[0]), fg.cg.llvmType(op.Type), ""))
	case mir.OpWidenFloat:
		fg.setVal(op.Result, fg.cg.builder.CreateFPExt(fg.val(op.Operands[0]), fg.cg.llvmType(op.Type), ""))
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpMod,
		mir.OpBitwiseAnd, mir.OpBitwiseOr, mir.OpBitwiseXor, mir.OpShiftLeft, mir.OpShiftRight,
		mir.OpLogicalAnd, mir.OpLogicalOr:
		fg.genArith(op)
	case mir.OpCompareLt, mir.OpCompareGt, mir.OpCompareLe, mir.OpCompareGe, mir.OpCompareEq, mir.OpCompareNe:
		fg.genCompare(op)
	case mir.OpAssign:
		addr := fg.addr(op.Operands[0])
		rhs := fg.val(op.Operands[1])
		fg.cg.builder.CreateStore(rhs, addr)
		fg.setVal(op.Result, rhs)
	case mir.OpFunctionCall:
		fg.genCall(op)
	case mir.OpGetMethod, mir.OpMethodGetObject, mir.OpMethodGetFunction:
		return fg.genMethodRef(op)
	case mir.OpJump:
		fg.cg.builder.CreateBr(fg.blocks[op.Then])
	case mir.OpJumpConditional:
		cond := fg.val(op.Operands[0])
		fg.cg.builder.CreateCondBr(cond, fg.blocks[op.Then], fg.blocks[op.Else])
	case mir.OpReturn:
		fg.cg.builder.CreateRet(fg.val(op.Operands[0]))
	case mir.OpReturnVoid:
		fg.cg.builder.CreateRetVoid()
	default:
		return fmt.Errorf("unhandled opcode %s", op.Op)
	}
	return nil
}

// genSizeof resolves the measured type by its canonical name (threaded through op.Name by lowering,
// since op.Type on a sizeof_type operation already holds the u64 result type) and folds to a constant
// byte count using the struct's LLVM layout; primitive widths come straight from BitWidth.
func (fg *funcGen) genSizeof(op *mir.Operation) {
	resultTy := llvm.Int64Type()
	measured, ok := fg.cg.types.Get(op.Name)
	if !ok {
		fg.setVal(op.Result, llvm.ConstInt(resultTy, 0, false))
		return
	}
	var bytes uint64
	switch measured.Tag {
	case types.TagPrimitive:
		bytes = uint64(measured.BitWidth() / 8)
	case types.TagPointer, types.TagReference:
		bytes = 8
	default:
		lt := fg.cg.llvmType(measured)
		td := llvm.NewTargetData(fg.cg.module.DataLayout())
		bytes = td.ABISizeOfType(lt)
		td.Dispose()
	}
	fg.setVal(op.Result, llvm.ConstInt(resultTy, bytes, false))
}

func (fg *funcGen) genDot(op *mir.Operation) error {
	objTy := fg.tempType(op.Operands[0])
	base := objTy
	if base != nil && (base.Tag == types.TagPointer || base.Tag == types.TagReference) {
		base = base.Target
	}
	// A plain struct operand is already addressable storage (it was an lvalue); a pointer/reference
	// operand instead holds the address as its *value*, which must be loaded before it can be indexed.
	addr := fg.addr(op.Operands[0])
	if objTy != nil && (objTy.Tag == types.TagPointer || objTy.Tag == types.TagReference) {
		addr = fg.val(op.Operands[0])
	}
	if base == nil {
		return fmt.Errorf("member access on unresolved type")
	}
	member, ok := base.GetMember(op.Name)
	if !ok {
		return fmt.Errorf("type %q has no member %q", base.Canonical, op.Name)
	}
	zero := llvm.ConstInt(llvm.Int32Type(), 0, false)
	idx := llvm.ConstInt(llvm.Int32Type(), uint64(member.Index), false)
	gep := fg.cg.builder.CreateGEP(addr, []llvm.Value{zero, idx}, "")
	fg.setAddr(op.Result, gep)
	return nil
}

func (fg *funcGen) genArrayIndex(op *mir.Operation) {
	addr := fg.addr(op.Operands[0])
	idx := fg.val(op.Operands[1])
	zero := llvm.ConstInt(llvm.Int32Type(), 0, false)
	gep := fg.cg.builder.CreateGEP(addr, []llvm.Value{zero, idx}, "")
	fg.setAddr(op.Result, gep)
}

func (fg *funcGen) genNegate(op *mir.Operation) {
	v := fg.val(op.Operands[0])
	if op.Type != nil && op.Type.IsFloat() {
		zero := llvm.ConstFloat(v.Type(), 0)
		fg.setVal(op.Result, fg.cg.builder.CreateFSub(zero, v, ""))
		return
	}
	zero := llvm.ConstInt(v.Type(), 0, false)
	fg.setVal(op.Result, fg.cg.builder.CreateSub(zero, v, ""))
}

func (fg *funcGen) genArith(op *mir.Operation) {
	lhs := fg.val(op.Operands[0])
	rhs := fg.val(op.Operands[1])
	float := op.Type != nil && op.Type.IsFloat()
	signed := op.Type != nil && op.Type.IsSigned()

	var res llvm.Value
	switch op.Op {
	case mir.OpAdd:
		if float {
			res = fg.cg.builder.CreateFAdd(lhs, rhs, "")
		} else {
			res = fg.cg.builder.CreateAdd(lhs, rhs, "")
		}
	case mir.OpSub:
		if float {
			res = fg.cg.builder.CreateFSub(lhs, rhs, "")
		} else {
			res = fg.cg.builder.CreateSub(lhs, rhs, "")
		}
	case mir.OpMul:
		if float {
			res = fg.cg.builder.CreateFMul(lhs, rhs, "")
		} else {
			res = fg.cg.builder.CreateMul(lhs, rhs, "")
		}
	case mir.OpDiv:
		switch {
		case float:
			res = fg.cg.builder.CreateFDiv(lhs, rhs, "")
		case signed:
			res = fg.cg.builder.CreateSDiv(lhs, rhs, "")
		default:
			res = fg.cg.builder.CreateUDiv(lhs, rhs, "")
		}
	case mir.OpMod:
		switch {
		case float:
			res = fg.cg.builder.CreateFRem(lhs, rhs, "")
		case signed:
			res = fg.cg.builder.CreateSRem(lhs, rhs, "")
		default:
			res = fg.cg.builder.CreateURem(lhs, rhs, "")
		}
	case mir.OpBitwiseAnd, mir.OpLogicalAnd:
		res = fg.cg.builder.CreateAnd(lhs, rhs, "")
	case mir.OpBitwiseOr, mir.OpLogicalOr:
		res = fg.cg.builder.CreateOr(lhs, rhs, "")
	case mir.OpBitwiseXor:
		res = fg.cg.builder.CreateXor(lhs, rhs, "")
	case mir.OpShiftLeft:
		res = fg.cg.builder.CreateShl(lhs, rhs, "")
	case mir.OpShiftRight:
		if signed {
			res = fg.cg.builder.CreateAShr(lhs, rhs, "")
		} else {
			res = fg.cg.builder.CreateLShr(lhs, rhs, "")
		}
	}
	fg.setVal(op.Result, res)
}

func (fg *funcGen) genCompare(op *mir.Operation) {
	lhs := fg.val(op.Operands[0])
	rhs := fg.val(op.Operands[1])
	operandTy := fg.tempType(op.Operands[0])
	float := operandTy != nil && operandTy.IsFloat()
	signed := operandTy == nil || operandTy.IsSigned()

	var res llvm.Value
	if float {
		var pred llvm.FloatPredicate
		switch op.Op {
		case mir.OpCompareLt:
			pred = llvm.FloatOLT
		case mir.OpCompareGt:
			pred = llvm.FloatOGT
		case mir.OpCompareLe:
			pred = llvm.FloatOLE
		case mir.OpCompareGe:
			pred = llvm.FloatOGE
		case mir.OpCompareEq:
			pred = llvm.FloatOEQ
		case mir.OpCompareNe:
			pred = llvm.FloatONE
		}
		res = fg.cg.builder.CreateFCmp(pred, lhs, rhs, "")
	} else {
		var pred llvm.IntPredicate
		switch op.Op {
		case mir.OpCompareLt:
			pred = pickPred(signed, llvm.IntSLT, llvm.IntULT)
		case mir.OpCompareGt:
			pred = pickPred(signed, llvm.IntSGT, llvm.IntUGT)
		case mir.OpCompareLe:
			pred = pickPred(signed, llvm.IntSLE, llvm.IntULE)
		case mir.OpCompareGe:
			pred = pickPred(signed, llvm.IntSGE, llvm.IntUGE)
		case mir.OpCompareEq:
			pred = llvm.IntEQ
		case mir.OpCompareNe:
			pred = llvm.IntNE
		}
		res = fg.cg.builder.CreateICmp(pred, lhs, rhs, "")
	}
	fg.setVal(op.Result, res)
}

func pickPred(signed bool, s, u llvm.IntPredicate) llvm.IntPredicate {
	if signed {
		return s
	}
	return u
}

func (fg *funcGen) genCall(op *mir.Operation) {
	callee := fg.val(op.Operands[0])
	args := make([]llvm.Value, 0, len(op.Operands)-1)
	for _, o := range op.Operands[1:] {
		args = append(args, fg.val(o))
	}
	res := fg.cg.builder.CreateCall(callee, args, "")
	if op.HasResult() {
		fg.setVal(op.Result, res)
	}
}

// genMethodRef resolves a bound method reference to its static mangled function symbol. This compiler
// has no virtual dispatch, so the method is always resolved at the static type of the receiver operand.
func (fg *funcGen) genMethodRef(op *mir.Operation) error {
	objTy := fg.tempType(op.Operands[0])
	base := objTy
	if base != nil && (base.Tag == types.TagPointer || base.Tag == types.TagReference) {
		base = base.Target
	}
	if base == nil {
		return fmt.Errorf("method reference on unresolved type")
	}
	method, ok := base.GetMethod(op.Name)
	if !ok {
		return fmt.Errorf("type %q has no method %q", base.Canonical, op.Name)
	}
	fn, ok := fg.cg.functions[method.Symbol]
	if !ok {
		return fmt.Errorf("undeclared method symbol %q", method.Symbol)
	}
	fg.setVal(op.Result, fn)
	return nil
}
