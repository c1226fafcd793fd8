package mir

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"jcc/src/types"
)

// SymbolKind differentiates the flavors of MIR symbol.
type SymbolKind int

const (
	StaticFunction SymbolKind = iota
	MemberMethod
	MemberDestructor
)

func (k SymbolKind) String() string {
	switch k {
	case StaticFunction:
		return "static_function"
	case MemberMethod:
		return "member_method"
	case MemberDestructor:
		return "member_destructor"
	}
	return "unknown_symbol_kind"
}

// Symbol is a globally-unique, fully-qualified, mangled name bound to a function-pointer type. The
// `symbol` opcode resolves one of these at codegen time.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type *types.Type
}

// SymbolTable is the global, write-once, read-very-often table of mangled symbol names. Backed by a
// swiss map for the same reason as types.Table: construction happens once per declaration, lookup
// happens on every `symbol`/`function_call` operation lowered.
type SymbolTable struct {
	byName *swiss.Map[string, *Symbol]
}

const initialSymbolCapacity = 64

// NewSymbolTable creates an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: swiss.NewMap[string, *Symbol](initialSymbolCapacity)}
}

// Declare registers a new symbol. Redeclaration of an existing mangled name is an error.
func (st *SymbolTable) Declare(name string, kind SymbolKind, ty *types.Type) (*Symbol, error) {
	if _, dup := st.byName.Get(name); dup {
		return nil, fmt.Errorf("symbol %q already declared", name)
	}
	s := &Symbol{Name: name, Kind: kind, Type: ty}
	st.byName.Put(name, s)
	return s, nil
}

// Get looks up a symbol by its fully-qualified, mangled name.
func (st *SymbolTable) Get(name string) (*Symbol, bool) {
	return st.byName.Get(name)
}

// Names returns every mangled symbol name currently declared, sorted, for --output-mir's symbol table
// listing (swiss.Map's own iteration order is unspecified, and a MIR dump needs to be diffable).
func (st *SymbolTable) Names() []string {
	names := make([]string, 0, st.byName.Count())
	st.byName.Iter(func(k string, _ *Symbol) bool {
		names = append(names, k)
		return false
	})
	slices.Sort(names)
	return names
}
