// Package syntax defines the strongly-typed syntax tree the parser builds and the lowering pass
// consumes. Node variants are plain structs; the tree is walked directly rather than through a
// visitor interface, matching how small single-pass compilers in this family are usually written.
package syntax

import (
	"jcc/src/namespace"
	"jcc/src/source"
)

// TypeSpec is a not-yet-resolved type expression as written in source: a name plus pointer/reference/
// array decorations. The type resolver turns this into a *types.Type.
type TypeSpec struct {
	Name       string // possibly namespace-qualified, e.g. "A::Foo"
	IsPointer  bool
	IsRef      bool
	ArrayLen   *Expr // nil unless this is an array type; must fold to a u32 constant
	SourceRef  source.Ref
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ExprKind tags the variant of Expr.
type ExprKind int

const (
	ExprIdentifier ExprKind = iota
	ExprLiteralInt
	ExprLiteralFloat
	ExprLiteralChar
	ExprLiteralString
	ExprLiteralBool
	ExprLiteralNull
	ExprBinary
	ExprUnary
	ExprCall
	ExprMemberAccess
	ExprIndex
	ExprAddressOf
	ExprDereference
	ExprAssign
	ExprSizeofType
)

// BinOp enumerates the source-level binary operators; lowering maps these onto mir opcodes after
// widening.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLogicalAnd
	BinLogicalOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinLt
	BinGt
	BinLe
	BinGe
	BinEq
	BinNe
)

// UnaryOp enumerates the source-level unary operators.
type UnaryOp int

const (
	UnaryNegate UnaryOp = iota
	UnaryBitwiseNot
	UnaryLogicalNot
)

// Expr is the tagged union of expression nodes. Only the fields relevant to Kind are populated.
type Expr struct {
	Kind ExprKind
	Ref  source.Ref

	Name string // ExprIdentifier, ExprMemberAccess (member name)

	IntValue    uint64
	IntSuffix   string // "", "u8", "i32", ... as written; "" means unsuffixed
	Negative    bool   // true when a unary minus was folded into this literal by the parser
	FloatValue  float64
	FloatIsF32  bool
	CharValue   byte
	StringValue string
	BoolValue   bool

	BinOp BinOp
	Lhs   *Expr
	Rhs   *Expr

	UnaryOp  UnaryOp
	Operand  *Expr
	Callee   *Expr
	Args     []*Expr
	Object   *Expr // ExprMemberAccess, ExprIndex receiver
	Index    *Expr // ExprIndex subscript
	AssignTo *Expr
	AssignOf *Expr

	SizeofSpec *TypeSpec
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// StmtKind tags the variant of Stmt.
type StmtKind int

const (
	StmtExpr StmtKind = iota
	StmtVarDecl
	StmtBlock
	StmtIf
	StmtWhile
	StmtFor
	StmtSwitch
	StmtBreak
	StmtContinue
	StmtReturn
	StmtGoto
	StmtLabel
)

// SwitchCase is one `case <const>:` arm, or the default arm when IsDefault is true.
type SwitchCase struct {
	IsDefault bool
	Value     *Expr
	Body      []*Stmt
}

// Stmt is the tagged union of statement nodes.
type Stmt struct {
	Kind StmtKind
	Ref  source.Ref

	Expr *Expr // StmtExpr, StmtReturn (nil for return_void)

	VarName string // StmtVarDecl
	VarType *TypeSpec
	VarInit *Expr

	Body []*Stmt // StmtBlock

	Cond      *Expr   // StmtIf, StmtWhile, StmtFor, StmtSwitch
	Then      []*Stmt // StmtIf; also the body of StmtWhile and StmtFor
	Else      []*Stmt // StmtIf, may be nil
	ForInit   *Stmt   // StmtFor
	ForPost   *Expr   // StmtFor
	Cases     []SwitchCase
	LabelName string // StmtGoto, StmtLabel
}

// ---------------------------------------------------------------------------
// Top-level declarations
// ---------------------------------------------------------------------------

// Param is one formal parameter as written in source.
type Param struct {
	Name string
	Type *TypeSpec
}

// FunctionDecl is one function (free or member) definition.
type FunctionDecl struct {
	Name       string // unqualified
	Receiver   string // non-empty for member methods: the owning class's unqualified name
	Return     *TypeSpec
	Args       []Param
	Body       []*Stmt
	IsUnsafe   bool
	Visibility namespace.Visibility
	Ref        source.Ref
}

// MemberDecl is one field of a class.
type MemberDecl struct {
	Name       string
	Type       *TypeSpec
	Visibility namespace.Visibility
	Ref        source.Ref
}

// ClassDecl is a class declaration or definition. IsForward is true for `class Foo;` with no body.
type ClassDecl struct {
	Name      string
	IsForward bool
	Members   []MemberDecl
	Methods   []*FunctionDecl
	Ref       source.Ref
}

// EnumValueDecl is one named constant of an EnumDecl.
type EnumValueDecl struct {
	Name  string
	Value uint32
}

// EnumDecl is an enum type definition.
type EnumDecl struct {
	Name   string
	Values []EnumValueDecl
	Ref    source.Ref
}

// TypedefDecl introduces a new name that copies another type's structural contents.
type TypedefDecl struct {
	Name       string
	Underlying *TypeSpec
	Ref        source.Ref
}

// UsingDecl is a `using namespace X [as Y]` directive.
type UsingDecl struct {
	Target string
	Alias  string
	Ref    source.Ref
}

// NamespaceDecl groups declarations under a namespace; nesting is represented by nested NamespaceDecls
// inside Decls.
type NamespaceDecl struct {
	Name  string
	Decls []*Decl
	Ref   source.Ref
}

// DeclKind tags the variant of Decl, the unit the parser produces at translation-unit scope.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclClass
	DeclEnum
	DeclTypedef
	DeclUsing
	DeclNamespace
)

// Decl is the tagged union of top-level declarations.
type Decl struct {
	Kind      DeclKind
	Function  *FunctionDecl
	Class     *ClassDecl
	Enum      *EnumDecl
	Typedef   *TypedefDecl
	Using     *UsingDecl
	Namespace *NamespaceDecl
}

// File is the parsed representation of one translation unit: an ordered list of top-level
// declarations.
type File struct {
	Decls []*Decl
}
