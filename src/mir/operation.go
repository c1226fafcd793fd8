package mir

import (
	"jcc/src/source"
	"jcc/src/types"
)

// noResult marks an Operation that produces no temporary (terminators, local_declare/undeclare).
const noResult = -1

// Operation is one instruction of a basic block: an opcode, up to a handful of tmp-id operands, an
// optional result tmp-id, and whatever payload the opcode needs (a name, a constant, a jump target).
// Only the fields relevant to Op are populated; the rest stay at zero value.
type Operation struct {
	Op     Opcode
	Ref    source.Ref
	Type   *types.Type // result type (u64 for sizeof_type), or the operand type for local_declare
	Result int         // tmp id, or noResult

	Operands []int // tmp-id operands, in opcode-defined order

	Name string // symbol/local_declare/local_undeclare/local_variable name; dot/get_method member name

	IntValue    uint64
	FloatValue  float64
	BoolValue   bool
	CharValue   byte
	StringValue string

	// Jump targets, as block ids. Then/Else are both used by jump_conditional; Then alone by jump.
	Then int
	Else int
}

// NewOperation builds an Operation with no result (terminators, local_declare, local_undeclare).
func NewOperation(op Opcode, ref source.Ref) *Operation {
	return &Operation{Op: op, Ref: ref, Result: noResult}
}

// HasResult reports whether this operation produces a temporary value.
func (o *Operation) HasResult() bool {
	return o.Result != noResult
}
