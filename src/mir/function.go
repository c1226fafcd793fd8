package mir

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"jcc/src/source"
	"jcc/src/types"
)

// Param is one formal argument of a Function.
type Param struct {
	Name string
	Type *types.Type
}

// Temporary is one entry of a Function's virtual register file. Temporaries are single-assignment: by
// construction of the lowering step, exactly one Operation ever writes a given tmp id.
type Temporary struct {
	Id   int
	Type *types.Type
}

// Function is one MIR function: its signature, its basic blocks keyed by dense integer id, and its
// temporary-value arena.
type Function struct {
	Name     string
	Return   *types.Type
	Args     []Param
	IsUnsafe bool
	Ref      source.Ref

	Blocks   map[int]*BasicBlock
	blockSeq int

	Temps   []Temporary
	TempDef map[int]*Operation // tmp id -> its defining Operation, for fast lookups
}

// NewFunction creates an empty Function with a single entry block, BB0.
func NewFunction(name string, ret *types.Type, args []Param, unsafe bool, ref source.Ref) *Function {
	f := &Function{
		Name:     name,
		Return:   ret,
		Args:     args,
		IsUnsafe: unsafe,
		Ref:      ref,
		Blocks:   make(map[int]*BasicBlock),
		TempDef:  make(map[int]*Operation),
	}
	f.NewBlock()
	return f
}

// NewBlock allocates and registers a fresh, empty basic block.
func (f *Function) NewBlock() *BasicBlock {
	b := &BasicBlock{Id: f.blockSeq}
	f.blockSeq++
	f.Blocks[b.Id] = b
	return b
}

// NewTemp allocates a fresh temporary of the given type and returns its id.
func (f *Function) NewTemp(ty *types.Type) int {
	id := len(f.Temps)
	f.Temps = append(f.Temps, Temporary{Id: id, Type: ty})
	return id
}

// Emit appends op to block b and, if op produces a result, records it as that tmp id's defining
// operation.
func (f *Function) Emit(b *BasicBlock, op *Operation) {
	b.Append(op)
	if op.HasResult() {
		f.TempDef[op.Result] = op
	}
}

// OrderedBlocks returns every block in ascending id order, the order codegen walks a function in.
func (f *Function) OrderedBlocks() []*BasicBlock {
	ids := maps.Keys(f.Blocks)
	slices.Sort(ids)
	out := make([]*BasicBlock, len(ids))
	for i, id := range ids {
		out[i] = f.Blocks[id]
	}
	return out
}

// ComputePreds (re)derives every block's predecessor list from its successors' union.
func (f *Function) ComputePreds() {
	for _, b := range f.Blocks {
		b.Preds = nil
	}
	for _, b := range f.OrderedBlocks() {
		for _, succ := range b.Successors() {
			if target, ok := f.Blocks[succ]; ok {
				target.Preds = append(target.Preds, b.Id)
			}
		}
	}
}
