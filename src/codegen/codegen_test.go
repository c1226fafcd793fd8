package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcc/src/mir"
	"jcc/src/source"
	"jcc/src/types"
)

func TestGenerateReturnsConstant(t *testing.T) {
	tt := types.NewTable()
	i32 := tt.Primitive(types.I32)

	f := mir.NewFunction("answer", i32, nil, false, source.Ref{})
	tmp := f.NewTemp(i32)
	f.Emit(f.Blocks[0], &mir.Operation{Op: mir.OpLiteralInt, Result: tmp, Type: i32, IntValue: 42})
	f.Emit(f.Blocks[0], &mir.Operation{Op: mir.OpReturn, Operands: []int{tmp}, Result: -1})

	prog := mir.NewProgram()
	prog.AddFunction(f)

	cg := New("t", tt)
	defer cg.Dispose()
	require.NoError(t, cg.Generate(prog))

	ir := cg.IR()
	assert.True(t, strings.Contains(ir, "answer"))
	assert.True(t, strings.Contains(ir, "42"))
}

func TestGenerateLocalDeclareAndAssign(t *testing.T) {
	tt := types.NewTable()
	i32 := tt.Primitive(types.I32)
	voidT := tt.Primitive(types.Void)

	f := mir.NewFunction("set", voidT, nil, false, source.Ref{})
	b := f.Blocks[0]
	f.Emit(b, &mir.Operation{Op: mir.OpLocalDeclare, Result: -1, Name: "x", Type: i32})
	addrTmp := f.NewTemp(i32)
	f.Emit(b, &mir.Operation{Op: mir.OpLocalVariable, Result: addrTmp, Name: "x", Type: i32})
	litTmp := f.NewTemp(i32)
	f.Emit(b, &mir.Operation{Op: mir.OpLiteralInt, Result: litTmp, Type: i32, IntValue: 7})
	assignTmp := f.NewTemp(i32)
	f.Emit(b, &mir.Operation{Op: mir.OpAssign, Result: assignTmp, Type: i32, Operands: []int{addrTmp, litTmp}})
	f.Emit(b, mir.NewOperation(mir.OpReturnVoid, source.Ref{}))

	prog := mir.NewProgram()
	prog.AddFunction(f)

	cg := New("t", tt)
	defer cg.Dispose()
	require.NoError(t, cg.Generate(prog))

	ir := cg.IR()
	assert.True(t, strings.Contains(ir, "alloca"))
	assert.True(t, strings.Contains(ir, "store"))
}

func TestCompositeTypeSelfReferenceDoesNotRecurseForever(t *testing.T) {
	tt := types.NewTable()
	i32 := tt.Primitive(types.I32)
	node, err := tt.DefineComposite("Node", source.Ref{}, nil)
	require.NoError(t, err)
	node.Members = []*types.Member{
		{Name: "next", Index: 0, Type: tt.PointerTo(node)},
		{Name: "value", Index: 1, Type: i32},
	}
	node.MemberIndex = map[string]int{"next": 0, "value": 1}

	cg := New("t", tt)
	defer cg.Dispose()
	lt := cg.llvmType(node)
	assert.False(t, lt.IsNil())
}
