package mir

import (
	"fmt"
	"strings"
)

// Program is the whole translation unit's MIR: every lowered function plus the global symbol table.
type Program struct {
	Functions []*Function
	Symbols   *SymbolTable
}

// NewProgram creates an empty Program with a fresh symbol table.
func NewProgram() *Program {
	return &Program{Symbols: NewSymbolTable()}
}

// AddFunction appends a lowered function to the program.
func (p *Program) AddFunction(f *Function) {
	p.Functions = append(p.Functions, f)
}

// Dump renders the whole program in the textual MIR format used by --output-mir: for human
// consumption, not parsed by any tool.
func (p *Program) Dump() string {
	sb := strings.Builder{}
	sb.WriteString("Functions:\n")
	for _, f := range p.Functions {
		sb.WriteString(fmt.Sprintf("    %s (%d blocks)\n", f.Name, len(f.Blocks)))
	}
	if p.Symbols != nil {
		if names := p.Symbols.Names(); len(names) > 0 {
			sb.WriteString("Symbols:\n")
			for _, n := range names {
				sym, _ := p.Symbols.Get(n)
				sb.WriteString(fmt.Sprintf("    %s : %s\n", n, sym.Kind))
			}
		}
	}
	sb.WriteRune('\n')
	for i, f := range p.Functions {
		if i > 0 {
			sb.WriteRune('\n')
		}
		f.dumpInto(&sb)
	}
	return sb.String()
}

// Dump renders just this function in the same textual form Program.Dump uses, for callers (the
// parallel --output-mir path) that dump one function at a time.
func (f *Function) Dump() string {
	sb := strings.Builder{}
	f.dumpInto(&sb)
	return sb.String()
}

func (f *Function) dumpInto(sb *strings.Builder) {
	sb.WriteString(f.Name)
	sb.WriteRune('\n')
	sb.WriteString(fmt.Sprintf("    return-value : %s\n", f.Return.Canonical))
	for _, a := range f.Args {
		sb.WriteString(fmt.Sprintf("    arg %s : %s\n", a.Name, a.Type.Canonical))
	}
	sb.WriteString("    temporary variables\n")
	for _, t := range f.Temps {
		sb.WriteString(fmt.Sprintf("        _%d : %s\n", t.Id, t.Type.Canonical))
	}
	sb.WriteString("    {\n")
	for _, b := range f.OrderedBlocks() {
		sb.WriteString(fmt.Sprintf("        %s:\n", b.Name()))
		for _, op := range b.Operations {
			sb.WriteString("            ")
			sb.WriteString(dumpOperation(op))
			sb.WriteRune('\n')
		}
	}
	sb.WriteString("    }\n")
}

func dumpOperation(op *Operation) string {
	sb := strings.Builder{}
	if op.HasResult() {
		sb.WriteString(fmt.Sprintf("_%d = ", op.Result))
	}
	sb.WriteString(op.Op.String())

	operands := make([]string, 0, len(op.Operands)+2)
	for _, id := range op.Operands {
		operands = append(operands, fmt.Sprintf("_%d", id))
	}
	if op.Name != "" {
		operands = append(operands, op.Name)
	}
	if len(operands) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(operands, ", "))
		sb.WriteString("]")
	}

	switch op.Op {
	case OpLiteralInt:
		sb.WriteString(fmt.Sprintf(" %d", op.IntValue))
	case OpLiteralFloat:
		sb.WriteString(fmt.Sprintf(" %g", op.FloatValue))
	case OpLiteralBool:
		sb.WriteString(fmt.Sprintf(" %t", op.BoolValue))
	case OpLiteralChar:
		sb.WriteString(fmt.Sprintf(" %q", op.CharValue))
	case OpLiteralString:
		sb.WriteString(fmt.Sprintf(" %q", op.StringValue))
	case OpJump:
		sb.WriteString(fmt.Sprintf(" -> BB%d", op.Then))
	case OpJumpConditional:
		sb.WriteString(fmt.Sprintf(" -> BB%d, BB%d", op.Then, op.Else))
	}
	return sb.String()
}
