// Parser is a hand-written recursive-descent parser, not a goyacc grammar: no parser generator step
// is wired into this build, so this package covers both the grammar and the lexer glue a generator
// step would otherwise produce.
//
// The one piece of classic yacc-era C-family parser design this keeps in spirit is the "lexer hack": C-family
// grammars only know whether `Foo x` is a declaration or `Foo` is a variable being used as the start of
// an expression by asking whether `Foo` already names a type. A yacc grammar has to make that call
// inside the lexer, because the parser can't look anything up until a production has already been
// chosen. A recursive-descent parser doesn't have that restriction: it can simply consult the namespace
// resolver at the one point it actually needs the answer (the start of a statement, or a class member).
// That's what looksLikeTypeAtStmt does below; there is deliberately no TYPE_NAME token class.
package frontend

import (
	"strconv"
	"strings"

	"jcc/src/namespace"
	"jcc/src/source"
	"jcc/src/syntax"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Parser consumes a token stream from a lexer and builds a syntax.File, declaring every name it sees
// into a namespace.Resolver as it goes.
type Parser struct {
	lex    *lexer
	file   string
	ns     *namespace.Resolver
	errs   *source.Errors
	tok    token
	peeked *token
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewParser creates a Parser over src, priming the first token.
func NewParser(file, src string, ns *namespace.Resolver, errs *source.Errors) *Parser {
	p := &Parser{lex: newLexer(file, src), file: file, ns: ns, errs: errs}
	p.advance()
	return p
}

// Parse consumes the entire token stream and returns the translation unit's syntax tree.
func (p *Parser) Parse() *syntax.File {
	f := &syntax.File{}
	for p.tok.typ != tokEOF {
		if d := p.parseTopDecl(); d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	return f
}

// --------------------------------
// ----- Token stream helpers -----
// --------------------------------

func (p *Parser) advance() token {
	cur := p.tok
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
	} else {
		p.tok = p.lex.Next()
	}
	return cur
}

func (p *Parser) peekNext() token {
	if p.peeked == nil {
		t := p.lex.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) ref() source.Ref {
	return p.tok.ref(p.file)
}

func (p *Parser) expect(tt tokenType, what string) token {
	if p.tok.typ != tt {
		p.errs.Simple(source.IDSyntax, "syntax error", p.ref(), "expected %s, found %s", what, p.tok.typ)
		return p.tok
	}
	return p.advance()
}

func (p *Parser) expectIdent(what string) string {
	if p.tok.typ != tokIdentifier {
		p.errs.Simple(source.IDSyntax, "expected identifier", p.ref(), "expected %s, found %s", what, p.tok.typ)
		return ""
	}
	return p.advance().val
}

// synchronize discards tokens up to and including the next statement/declaration boundary so that a
// single syntax error does not cascade into a wall of follow-on errors.
func (p *Parser) synchronize() {
	for p.tok.typ != tokSemicolon && p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		p.advance()
	}
	if p.tok.typ == tokSemicolon {
		p.advance()
	}
}

func (p *Parser) parseQualifiedName() string {
	name := p.expectIdent("identifier")
	for p.tok.typ == tokColonColon {
		p.advance()
		name += "::" + p.expectIdent("identifier")
	}
	return name
}

func (p *Parser) parseVisibility() namespace.Visibility {
	switch p.tok.typ {
	case tokPublic:
		p.advance()
		return namespace.Public
	case tokPrivate:
		p.advance()
		return namespace.Private
	case tokProtected:
		p.advance()
		return namespace.Protected
	default:
		return namespace.Public
	}
}

// looksLikeTypeAtStmt reports whether the current token starts a variable declaration rather than an
// expression statement: true only when it is an identifier already resolving to a type or class entity.
func (p *Parser) looksLikeTypeAtStmt() bool {
	if p.tok.typ != tokIdentifier {
		return false
	}
	res := p.ns.Lookup(p.tok.val)
	return res.Kind == namespace.Found && (res.Entity.Kind == namespace.KindType || res.Entity.Kind == namespace.KindClass)
}

// ---------------------------------------------------------------------------
// Top-level declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseTopDecl() *syntax.Decl {
	switch p.tok.typ {
	case tokNamespace:
		return p.parseNamespaceDecl()
	case tokUsing:
		return p.parseUsingDecl()
	case tokClass:
		return p.parseClassDecl()
	case tokEnum:
		return p.parseEnumDecl()
	case tokTypedef:
		return p.parseTypedefDecl()
	case tokPublic, tokPrivate, tokProtected, tokUnsafe, tokIdentifier:
		return p.parseFunctionDecl()
	default:
		p.errs.Simple(source.IDSyntax, "unexpected token", p.ref(), "unexpected %s at top level", p.tok.typ)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseNamespaceDecl() *syntax.Decl {
	ref := p.ref()
	p.advance() // 'namespace'
	name := p.expectIdent("namespace name")
	p.ns.PushNamespace(name, ref)
	p.expect(tokLBrace, "{")
	nd := &syntax.NamespaceDecl{Name: name, Ref: ref}
	for p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		if d := p.parseTopDecl(); d != nil {
			nd.Decls = append(nd.Decls, d)
		}
	}
	p.expect(tokRBrace, "}")
	p.ns.PopNamespace()
	return &syntax.Decl{Kind: syntax.DeclNamespace, Namespace: nd}
}

func (p *Parser) parseUsingDecl() *syntax.Decl {
	ref := p.ref()
	p.advance() // 'using'
	target := p.parseQualifiedName()
	alias := ""
	if p.tok.typ == tokAs {
		p.advance()
		alias = p.expectIdent("alias name")
	}
	p.expect(tokSemicolon, ";")

	if res := p.ns.Lookup(target); res.Kind == namespace.Found {
		if err := p.ns.AddUsing(alias, res.Entity); err != nil {
			p.errs.Simple(source.IDSyntax, "duplicate using alias", ref, "%s", err)
		}
	} else {
		p.errs.Simple(source.IDSyntax, "unresolved using target", ref, "cannot find namespace or type %q", target)
	}
	return &syntax.Decl{Kind: syntax.DeclUsing, Using: &syntax.UsingDecl{Target: target, Alias: alias, Ref: ref}}
}

func (p *Parser) parseClassDecl() *syntax.Decl {
	ref := p.ref()
	p.advance() // 'class'
	name := p.expectIdent("class name")

	if p.tok.typ == tokSemicolon {
		p.advance()
		p.ns.DeclareClass(name, namespace.Public, ref)
		return &syntax.Decl{Kind: syntax.DeclClass, Class: &syntax.ClassDecl{Name: name, IsForward: true, Ref: ref}}
	}

	p.ns.DeclareClass(name, namespace.Public, ref)
	p.ns.PushNamespace(name, ref)
	cd := &syntax.ClassDecl{Name: name, Ref: ref}
	p.expect(tokLBrace, "{")
	for p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		p.parseClassMember(cd, name)
	}
	p.expect(tokRBrace, "}")
	if p.tok.typ == tokSemicolon {
		p.advance()
	}
	p.ns.PopNamespace()
	return &syntax.Decl{Kind: syntax.DeclClass, Class: cd}
}

func (p *Parser) parseClassMember(cd *syntax.ClassDecl, className string) {
	vis := p.parseVisibility()
	unsafe := false
	if p.tok.typ == tokUnsafe {
		unsafe = true
		p.advance()
	}
	if p.tok.typ != tokIdentifier {
		p.errs.Simple(source.IDSyntax, "unexpected token in class body", p.ref(), "unexpected %s", p.tok.typ)
		p.synchronize()
		return
	}

	typ := p.parseTypeSpec()
	nameRef := p.ref()
	name := p.expectIdent("member name")

	if p.tok.typ == tokLParen {
		p.ns.DeclareIdentifier(name, vis, nameRef)
		fn := p.parseFunctionTail(name, typ, className, vis, nameRef, unsafe)
		cd.Methods = append(cd.Methods, fn)
		return
	}

	p.expect(tokSemicolon, ";")
	cd.Members = append(cd.Members, syntax.MemberDecl{Name: name, Type: typ, Visibility: vis, Ref: nameRef})
	p.ns.DeclareIdentifier(name, vis, nameRef)
}

func (p *Parser) parseEnumDecl() *syntax.Decl {
	ref := p.ref()
	p.advance() // 'enum'
	name := p.expectIdent("enum name")
	p.ns.DeclareType(name, namespace.Public, ref)
	p.expect(tokLBrace, "{")

	ed := &syntax.EnumDecl{Name: name, Ref: ref}
	var next uint32
	for p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		vref := p.ref()
		vname := p.expectIdent("enum value name")
		val := next
		if p.tok.typ == tokAssign {
			p.advance()
			val = p.parseConstUint32()
		}
		ed.Values = append(ed.Values, syntax.EnumValueDecl{Name: vname, Value: val})
		p.ns.DeclareIdentifier(vname, namespace.Public, vref)
		next = val + 1
		if p.tok.typ == tokComma {
			p.advance()
		} else {
			break
		}
	}
	p.expect(tokRBrace, "}")
	if p.tok.typ == tokSemicolon {
		p.advance()
	}
	return &syntax.Decl{Kind: syntax.DeclEnum, Enum: ed}
}

func (p *Parser) parseConstUint32() uint32 {
	e := p.parseExpr()
	if e.Kind == syntax.ExprLiteralInt {
		return uint32(e.IntValue)
	}
	p.errs.Simple(source.IDSyntax, "expected constant expression", e.Ref, "enum value must be a constant integer")
	return 0
}

func (p *Parser) parseTypedefDecl() *syntax.Decl {
	ref := p.ref()
	p.advance() // 'typedef'
	under := p.parseTypeSpec()
	name := p.expectIdent("typedef name")
	p.expect(tokSemicolon, ";")
	p.ns.DeclareType(name, namespace.Public, ref)
	return &syntax.Decl{Kind: syntax.DeclTypedef, Typedef: &syntax.TypedefDecl{Name: name, Underlying: under, Ref: ref}}
}

func (p *Parser) parseFunctionDecl() *syntax.Decl {
	ref := p.ref()
	vis := p.parseVisibility()
	unsafe := false
	if p.tok.typ == tokUnsafe {
		unsafe = true
		p.advance()
	}
	ret := p.parseTypeSpec()
	nameRef := p.ref()
	name := p.expectIdent("function name")
	p.ns.DeclareIdentifier(name, vis, nameRef)
	fn := p.parseFunctionTail(name, ret, "", vis, nameRef, unsafe)
	return &syntax.Decl{Kind: syntax.DeclFunction, Function: fn}
}

// parseFunctionTail parses the parameter list and body shared by free functions and methods; the
// caller has already consumed the return type and name (and, for methods, already pushed the owning
// class's namespace scope and declared the method's own name in it).
func (p *Parser) parseFunctionTail(name string, ret *syntax.TypeSpec, receiver string, vis namespace.Visibility, ref source.Ref, unsafe bool) *syntax.FunctionDecl {
	p.expect(tokLParen, "(")
	var params []syntax.Param
	for p.tok.typ != tokRParen && p.tok.typ != tokEOF {
		pt := p.parseTypeSpec()
		pname := p.expectIdent("parameter name")
		params = append(params, syntax.Param{Name: pname, Type: pt})
		if p.tok.typ == tokComma {
			p.advance()
		} else {
			break
		}
	}
	p.expect(tokRParen, ")")

	p.ns.PushAnonymousScope()
	for _, prm := range params {
		p.ns.DeclareIdentifier(prm.Name, namespace.Public, ref)
	}
	body := p.parseBlock()
	p.ns.PopNamespace()

	return &syntax.FunctionDecl{
		Name: name, Receiver: receiver, Return: ret, Args: params, Body: body,
		IsUnsafe: unsafe, Visibility: vis, Ref: ref,
	}
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

func (p *Parser) parseTypeSpec() *syntax.TypeSpec {
	ref := p.ref()
	name := p.parseQualifiedName()
	ts := &syntax.TypeSpec{Name: name, SourceRef: ref}
	for {
		switch p.tok.typ {
		case tokStar:
			p.advance()
			ts.IsPointer = true
			continue
		case tokAmp:
			p.advance()
			ts.IsRef = true
			continue
		case tokLBracket:
			p.advance()
			ts.ArrayLen = p.parseExpr()
			p.expect(tokRBracket, "]")
			continue
		}
		break
	}
	return ts
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseBlock() []*syntax.Stmt {
	p.expect(tokLBrace, "{")
	p.ns.PushAnonymousScope()
	var stmts []*syntax.Stmt
	for p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.ns.PopNamespace()
	p.expect(tokRBrace, "}")
	return stmts
}

// parseStmtAsBlock parses a brace-delimited block as-is, or wraps a single statement in a one-element
// slice, so if/while/for bodies are represented uniformly whether or not the source used braces.
func (p *Parser) parseStmtAsBlock() []*syntax.Stmt {
	if p.tok.typ == tokLBrace {
		return p.parseBlock()
	}
	if s := p.parseStmt(); s != nil {
		return []*syntax.Stmt{s}
	}
	return nil
}

func (p *Parser) parseStmt() *syntax.Stmt {
	switch {
	case p.tok.typ == tokLBrace:
		ref := p.ref()
		return &syntax.Stmt{Kind: syntax.StmtBlock, Body: p.parseBlock(), Ref: ref}
	case p.tok.typ == tokIf:
		return p.parseIfStmt()
	case p.tok.typ == tokWhile:
		return p.parseWhileStmt()
	case p.tok.typ == tokFor:
		return p.parseForStmt()
	case p.tok.typ == tokSwitch:
		return p.parseSwitchStmt()
	case p.tok.typ == tokBreak:
		ref := p.ref()
		p.advance()
		p.expect(tokSemicolon, ";")
		return &syntax.Stmt{Kind: syntax.StmtBreak, Ref: ref}
	case p.tok.typ == tokContinue:
		ref := p.ref()
		p.advance()
		p.expect(tokSemicolon, ";")
		return &syntax.Stmt{Kind: syntax.StmtContinue, Ref: ref}
	case p.tok.typ == tokReturn:
		return p.parseReturnStmt()
	case p.tok.typ == tokGoto:
		ref := p.ref()
		p.advance()
		label := p.expectIdent("label name")
		p.expect(tokSemicolon, ";")
		return &syntax.Stmt{Kind: syntax.StmtGoto, LabelName: label, Ref: ref}
	case p.tok.typ == tokIdentifier && p.peekNext().typ == tokColon:
		ref := p.ref()
		label := p.advance().val
		p.advance() // ':'
		p.ns.DeclareLabel(label, ref)
		return &syntax.Stmt{Kind: syntax.StmtLabel, LabelName: label, Ref: ref}
	case p.looksLikeTypeAtStmt():
		return p.parseVarDeclStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseIfStmt() *syntax.Stmt {
	ref := p.ref()
	p.advance() // 'if'
	p.expect(tokLParen, "(")
	cond := p.parseExpr()
	p.expect(tokRParen, ")")
	then := p.parseStmtAsBlock()
	var els []*syntax.Stmt
	if p.tok.typ == tokElse {
		p.advance()
		els = p.parseStmtAsBlock()
	}
	return &syntax.Stmt{Kind: syntax.StmtIf, Cond: cond, Then: then, Else: els, Ref: ref}
}

func (p *Parser) parseWhileStmt() *syntax.Stmt {
	ref := p.ref()
	p.advance() // 'while'
	p.expect(tokLParen, "(")
	cond := p.parseExpr()
	p.expect(tokRParen, ")")
	body := p.parseStmtAsBlock()
	return &syntax.Stmt{Kind: syntax.StmtWhile, Cond: cond, Then: body, Ref: ref}
}

func (p *Parser) parseForStmt() *syntax.Stmt {
	ref := p.ref()
	p.advance() // 'for'
	p.expect(tokLParen, "(")
	p.ns.PushAnonymousScope()

	var init *syntax.Stmt
	if p.tok.typ == tokSemicolon {
		p.advance()
	} else {
		init = p.parseForInit()
	}

	var cond *syntax.Expr
	if p.tok.typ != tokSemicolon {
		cond = p.parseExpr()
	}
	p.expect(tokSemicolon, ";")

	var post *syntax.Expr
	if p.tok.typ != tokRParen {
		post = p.parseExpr()
	}
	p.expect(tokRParen, ")")

	body := p.parseStmtAsBlock()
	p.ns.PopNamespace()
	return &syntax.Stmt{Kind: syntax.StmtFor, ForInit: init, Cond: cond, ForPost: post, Then: body, Ref: ref}
}

// parseForInit parses a for-loop initializer, which is either a local declaration or an expression;
// both consume their own trailing ';'.
func (p *Parser) parseForInit() *syntax.Stmt {
	if p.looksLikeTypeAtStmt() {
		return p.parseVarDeclStmt()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseSwitchStmt() *syntax.Stmt {
	ref := p.ref()
	p.advance() // 'switch'
	p.expect(tokLParen, "(")
	cond := p.parseExpr()
	p.expect(tokRParen, ")")
	p.expect(tokLBrace, "{")

	var cases []syntax.SwitchCase
	for p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		switch p.tok.typ {
		case tokCase:
			p.advance()
			val := p.parseExpr()
			p.expect(tokColon, ":")
			cases = append(cases, syntax.SwitchCase{Value: val, Body: p.parseCaseBody()})
		case tokDefault:
			p.advance()
			p.expect(tokColon, ":")
			cases = append(cases, syntax.SwitchCase{IsDefault: true, Body: p.parseCaseBody()})
		default:
			p.errs.Simple(source.IDSyntax, "expected case or default", p.ref(), "unexpected %s in switch body", p.tok.typ)
			p.synchronize()
		}
	}
	p.expect(tokRBrace, "}")
	return &syntax.Stmt{Kind: syntax.StmtSwitch, Cond: cond, Cases: cases, Ref: ref}
}

func (p *Parser) parseCaseBody() []*syntax.Stmt {
	var stmts []*syntax.Stmt
	for p.tok.typ != tokCase && p.tok.typ != tokDefault && p.tok.typ != tokRBrace && p.tok.typ != tokEOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseReturnStmt() *syntax.Stmt {
	ref := p.ref()
	p.advance() // 'return'
	if p.tok.typ == tokSemicolon {
		p.advance()
		return &syntax.Stmt{Kind: syntax.StmtReturn, Ref: ref}
	}
	e := p.parseExpr()
	p.expect(tokSemicolon, ";")
	return &syntax.Stmt{Kind: syntax.StmtReturn, Expr: e, Ref: ref}
}

func (p *Parser) parseVarDeclStmt() *syntax.Stmt {
	ref := p.ref()
	typ := p.parseTypeSpec()
	name := p.expectIdent("variable name")
	var init *syntax.Expr
	if p.tok.typ == tokAssign {
		p.advance()
		init = p.parseExpr()
	}
	p.expect(tokSemicolon, ";")
	p.ns.DeclareIdentifier(name, namespace.Public, ref)
	return &syntax.Stmt{Kind: syntax.StmtVarDecl, VarName: name, VarType: typ, VarInit: init, Ref: ref}
}

func (p *Parser) parseExprStmt() *syntax.Stmt {
	ref := p.ref()
	e := p.parseExpr()
	p.expect(tokSemicolon, ";")
	return &syntax.Stmt{Kind: syntax.StmtExpr, Expr: e, Ref: ref}
}

// ---------------------------------------------------------------------------
// Expressions, precedence climbing lowest to highest: assignment, logical-or, logical-and, bitwise-or,
// bitwise-xor, bitwise-and, equality, relational, shift, additive, multiplicative, unary, postfix.
// ---------------------------------------------------------------------------

func (p *Parser) parseExpr() *syntax.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() *syntax.Expr {
	lhs := p.parseLogicalOr()
	if p.tok.typ == tokAssign {
		ref := p.ref()
		p.advance()
		rhs := p.parseAssignment()
		return &syntax.Expr{Kind: syntax.ExprAssign, AssignTo: lhs, AssignOf: rhs, Ref: ref}
	}
	return lhs
}

func (p *Parser) parseLogicalOr() *syntax.Expr {
	left := p.parseLogicalAnd()
	for p.tok.typ == tokOrOr {
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: syntax.BinLogicalOr, Lhs: left, Rhs: p.parseLogicalAnd(), Ref: ref}
	}
	return left
}

func (p *Parser) parseLogicalAnd() *syntax.Expr {
	left := p.parseBitOr()
	for p.tok.typ == tokAndAnd {
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: syntax.BinLogicalAnd, Lhs: left, Rhs: p.parseBitOr(), Ref: ref}
	}
	return left
}

func (p *Parser) parseBitOr() *syntax.Expr {
	left := p.parseBitXor()
	for p.tok.typ == tokPipe {
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: syntax.BinBitOr, Lhs: left, Rhs: p.parseBitXor(), Ref: ref}
	}
	return left
}

func (p *Parser) parseBitXor() *syntax.Expr {
	left := p.parseBitAnd()
	for p.tok.typ == tokCaret {
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: syntax.BinBitXor, Lhs: left, Rhs: p.parseBitAnd(), Ref: ref}
	}
	return left
}

func (p *Parser) parseBitAnd() *syntax.Expr {
	left := p.parseEquality()
	for p.tok.typ == tokAmp {
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: syntax.BinBitAnd, Lhs: left, Rhs: p.parseEquality(), Ref: ref}
	}
	return left
}

func (p *Parser) parseEquality() *syntax.Expr {
	left := p.parseRelational()
	for p.tok.typ == tokEq || p.tok.typ == tokNe {
		op := syntax.BinEq
		if p.tok.typ == tokNe {
			op = syntax.BinNe
		}
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: op, Lhs: left, Rhs: p.parseRelational(), Ref: ref}
	}
	return left
}

func (p *Parser) parseRelational() *syntax.Expr {
	left := p.parseShift()
	for p.tok.typ == tokLt || p.tok.typ == tokGt || p.tok.typ == tokLe || p.tok.typ == tokGe {
		var op syntax.BinOp
		switch p.tok.typ {
		case tokLt:
			op = syntax.BinLt
		case tokGt:
			op = syntax.BinGt
		case tokLe:
			op = syntax.BinLe
		case tokGe:
			op = syntax.BinGe
		}
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: op, Lhs: left, Rhs: p.parseShift(), Ref: ref}
	}
	return left
}

func (p *Parser) parseShift() *syntax.Expr {
	left := p.parseAdditive()
	for p.tok.typ == tokShl || p.tok.typ == tokShr {
		op := syntax.BinShl
		if p.tok.typ == tokShr {
			op = syntax.BinShr
		}
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: op, Lhs: left, Rhs: p.parseAdditive(), Ref: ref}
	}
	return left
}

func (p *Parser) parseAdditive() *syntax.Expr {
	left := p.parseMultiplicative()
	for p.tok.typ == tokPlus || p.tok.typ == tokMinus {
		op := syntax.BinAdd
		if p.tok.typ == tokMinus {
			op = syntax.BinSub
		}
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: op, Lhs: left, Rhs: p.parseMultiplicative(), Ref: ref}
	}
	return left
}

func (p *Parser) parseMultiplicative() *syntax.Expr {
	left := p.parseUnary()
	for p.tok.typ == tokStar || p.tok.typ == tokSlash || p.tok.typ == tokPercent {
		var op syntax.BinOp
		switch p.tok.typ {
		case tokStar:
			op = syntax.BinMul
		case tokSlash:
			op = syntax.BinDiv
		case tokPercent:
			op = syntax.BinMod
		}
		ref := p.ref()
		p.advance()
		left = &syntax.Expr{Kind: syntax.ExprBinary, BinOp: op, Lhs: left, Rhs: p.parseUnary(), Ref: ref}
	}
	return left
}

func (p *Parser) parseUnary() *syntax.Expr {
	ref := p.ref()
	switch p.tok.typ {
	case tokBang:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprUnary, UnaryOp: syntax.UnaryLogicalNot, Operand: p.parseUnary(), Ref: ref}
	case tokTilde:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprUnary, UnaryOp: syntax.UnaryBitwiseNot, Operand: p.parseUnary(), Ref: ref}
	case tokMinus:
		p.advance()
		operand := p.parseUnary()
		if operand.Kind == syntax.ExprLiteralInt || operand.Kind == syntax.ExprLiteralFloat {
			operand.Negative = true
			return operand
		}
		return &syntax.Expr{Kind: syntax.ExprUnary, UnaryOp: syntax.UnaryNegate, Operand: operand, Ref: ref}
	case tokAmp:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprAddressOf, Operand: p.parseUnary(), Ref: ref}
	case tokStar:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprDereference, Operand: p.parseUnary(), Ref: ref}
	case tokSizeof:
		p.advance()
		p.expect(tokLParen, "(")
		ts := p.parseTypeSpec()
		p.expect(tokRParen, ")")
		return &syntax.Expr{Kind: syntax.ExprSizeofType, SizeofSpec: ts, Ref: ref}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() *syntax.Expr {
	e := p.parsePrimary()
	for {
		switch p.tok.typ {
		case tokDot:
			ref := p.ref()
			p.advance()
			e = &syntax.Expr{Kind: syntax.ExprMemberAccess, Object: e, Name: p.expectIdent("member name"), Ref: ref}
		case tokLBracket:
			ref := p.ref()
			p.advance()
			idx := p.parseExpr()
			p.expect(tokRBracket, "]")
			e = &syntax.Expr{Kind: syntax.ExprIndex, Object: e, Index: idx, Ref: ref}
		case tokLParen:
			ref := p.ref()
			p.advance()
			var args []*syntax.Expr
			for p.tok.typ != tokRParen && p.tok.typ != tokEOF {
				args = append(args, p.parseExpr())
				if p.tok.typ == tokComma {
					p.advance()
				} else {
					break
				}
			}
			p.expect(tokRParen, ")")
			e = &syntax.Expr{Kind: syntax.ExprCall, Callee: e, Args: args, Ref: ref}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() *syntax.Expr {
	ref := p.ref()
	switch p.tok.typ {
	case tokIdentifier:
		return &syntax.Expr{Kind: syntax.ExprIdentifier, Name: p.parseQualifiedName(), Ref: ref}
	case tokInteger:
		v, suffix := parseIntLiteral(p.tok.val)
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralInt, IntValue: v, IntSuffix: suffix, Ref: ref}
	case tokFloat:
		v, isF32 := parseFloatLiteral(p.tok.val)
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralFloat, FloatValue: v, FloatIsF32: isF32, Ref: ref}
	case tokChar:
		v := parseCharLiteral(p.tok.val)
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralChar, CharValue: v, Ref: ref}
	case tokString:
		v := p.tok.val
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralString, StringValue: v, Ref: ref}
	case tokTrue:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralBool, BoolValue: true, Ref: ref}
	case tokFalse:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralBool, BoolValue: false, Ref: ref}
	case tokNull:
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralNull, Ref: ref}
	case tokLParen:
		p.advance()
		e := p.parseExpr()
		p.expect(tokRParen, ")")
		return e
	default:
		p.errs.Simple(source.IDSyntax, "expected expression", ref, "unexpected %s", p.tok.typ)
		p.advance()
		return &syntax.Expr{Kind: syntax.ExprLiteralNull, Ref: ref}
	}
}

// ---------------------------------------------------------------------------
// Literal scanning
// ---------------------------------------------------------------------------

// parseIntLiteral splits a scanned integer lexeme into its numeric value and trailing type suffix
// (e.g. "0x1Fu8" -> 31, "u8"), skipping underscore digit separators.
func parseIntLiteral(raw string) (uint64, string) {
	base := 10
	i := 0
	if len(raw) > 1 && raw[0] == '0' {
		switch raw[1] {
		case 'x', 'X':
			base, i = 16, 2
		case 'o', 'O':
			base, i = 8, 2
		case 'b', 'B':
			base, i = 2, 2
		}
	}
	var digits strings.Builder
	for ; i < len(raw); i++ {
		c := raw[i]
		if c == '_' {
			continue
		}
		if !isDigitInBase(c, base) {
			break
		}
		digits.WriteByte(c)
	}
	v, _ := strconv.ParseUint(digits.String(), base, 64)
	return v, raw[i:]
}

func isDigitInBase(c byte, base int) bool {
	switch base {
	case 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	case 8:
		return c >= '0' && c <= '7'
	case 2:
		return c == '0' || c == '1'
	default:
		return c >= '0' && c <= '9'
	}
}

// parseFloatLiteral strips an optional trailing f32 suffix and underscore separators.
func parseFloatLiteral(raw string) (float64, bool) {
	isF32 := false
	s := raw
	if strings.HasSuffix(s, "f") || strings.HasSuffix(s, "F") {
		isF32 = true
		s = s[:len(s)-1]
	}
	s = strings.ReplaceAll(s, "_", "")
	v, _ := strconv.ParseFloat(s, 64)
	return v, isF32
}

// parseCharLiteral decodes the body of a char literal (already stripped of its surrounding quotes),
// honoring the common backslash escapes.
func parseCharLiteral(raw string) byte {
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '\\' && len(raw) > 1 {
		switch raw[1] {
		case 'n':
			return '\n'
		case 't':
			return '\t'
		case 'r':
			return '\r'
		case '0':
			return 0
		case '\\':
			return '\\'
		case '\'':
			return '\''
		default:
			return raw[1]
		}
	}
	return raw[0]
}
