package lower

import (
	"jcc/src/mir"
	"jcc/src/scope"
	"jcc/src/source"
	"jcc/src/syntax"
)

// lowerStmtList lowers each statement of body in order. Control-flow statements may switch the current
// block out from under later statements (e.g. after an if, the cursor is the join block).
func (fc *funcCtx) lowerStmtList(body []*syntax.Stmt) {
	for _, s := range body {
		fc.lowerStmt(s)
	}
}

func (fc *funcCtx) lowerStmt(s *syntax.Stmt) {
	switch s.Kind {
	case syntax.StmtExpr:
		fc.lowerExpr(s.Expr)
	case syntax.StmtVarDecl:
		fc.lowerVarDecl(s)
	case syntax.StmtBlock:
		fc.lowerBlock(s.Body)
	case syntax.StmtIf:
		fc.lowerIf(s)
	case syntax.StmtWhile:
		fc.lowerWhile(s)
	case syntax.StmtFor:
		fc.lowerFor(s)
	case syntax.StmtSwitch:
		fc.lowerSwitch(s)
	case syntax.StmtBreak:
		fc.lowerBreak(s)
	case syntax.StmtContinue:
		fc.lowerContinue(s)
	case syntax.StmtReturn:
		fc.lowerReturn(s)
	case syntax.StmtGoto:
		fc.scope.DeclareGoto(s.LabelName, fc.point())
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Ref: s.Ref})
	case syntax.StmtLabel:
		fc.lowerLabel(s)
	}
}

// lowerBlock opens a child scope, lowers its statements, then emits local_undeclare for every variable
// the scope declared, in reverse order, before closing it.
func (fc *funcCtx) lowerBlock(body []*syntax.Stmt) {
	fc.scope.ScopePush(false)
	fc.lowerStmtList(body)
	fc.teardownCurrentScope()
	fc.scope.ScopePop()
}

// teardownCurrentScope emits local_undeclare for the current scope's own variables, latest-declared
// first, unless the block has already terminated (a `return`/`goto`/`break`/`continue` already handled
// its own teardown on the way out).
func (fc *funcCtx) teardownCurrentScope() {
	if fc.block.Terminator() != nil {
		return
	}
	names := fc.scope.OwnVariables()
	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}
	fc.emitTeardown(reversed)
}

func (fc *funcCtx) lowerVarDecl(s *syntax.Stmt) {
	ty := fc.l.resolveType(s.VarType, s.Ref)
	fc.emit(&mir.Operation{Op: mir.OpLocalDeclare, Result: -1, Name: s.VarName, Type: ty, Ref: s.Ref})
	if err := fc.scope.DeclareVariable(s.VarName, ty, fc.point()); err != nil {
		fc.l.Errors.Simple(source.IDLowering, "duplicate declaration", s.Ref, "%s", err)
	}
	if s.VarInit != nil {
		lhs := fc.emitValue(&mir.Operation{Op: mir.OpLocalVariable, Name: s.VarName, Ref: s.Ref}, ty, true)
		rhs := fc.lowerExpr(s.VarInit)
		rhs = fc.coerce(rhs, ty, s.Ref)
		fc.emitValue(&mir.Operation{Op: mir.OpAssign, Operands: []int{lhs.tmp, rhs.tmp}, Ref: s.Ref}, ty, false)
	}
}

// lowerIf splits the current block into condition, then, (optional) else, and join blocks.
func (fc *funcCtx) lowerIf(s *syntax.Stmt) {
	cond := fc.lowerExpr(s.Cond)
	thenB := fc.fn.NewBlock()
	joinB := fc.fn.NewBlock()
	elseTarget := joinB.Id

	var elseB *mir.BasicBlock
	if s.Else != nil {
		elseB = fc.fn.NewBlock()
		elseTarget = elseB.Id
	}

	fc.emit(&mir.Operation{Op: mir.OpJumpConditional, Result: -1, Operands: []int{cond.tmp}, Then: thenB.Id, Else: elseTarget, Ref: s.Ref})

	fc.setBlock(thenB)
	fc.lowerBlock(s.Then)
	if fc.block.Terminator() == nil {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: joinB.Id})
	}

	if elseB != nil {
		fc.setBlock(elseB)
		fc.lowerBlock(s.Else)
		if fc.block.Terminator() == nil {
			fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: joinB.Id})
		}
	}

	fc.setBlock(joinB)
}

// lowerWhile builds header/body/join blocks; the body scope is a loop scope whose continue target is
// the header itself.
func (fc *funcCtx) lowerWhile(s *syntax.Stmt) {
	header := fc.fn.NewBlock()
	body := fc.fn.NewBlock()
	join := fc.fn.NewBlock()

	fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: header.Id})

	fc.setBlock(header)
	cond := fc.lowerExpr(s.Cond)
	fc.emit(&mir.Operation{Op: mir.OpJumpConditional, Result: -1, Operands: []int{cond.tmp}, Then: body.Id, Else: join.Id, Ref: s.Ref})

	fc.setBlock(body)
	fc.scope.ScopePushLoop(join.Id, header.Id)
	fc.lowerStmtList(s.Body)
	fc.teardownCurrentScope()
	fc.scope.ScopePop()
	if fc.block.Terminator() == nil {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: header.Id})
	}

	fc.setBlock(join)
}

// lowerFor lowers the init clause into a scope enclosing the whole loop (so the induction variable is
// visible to the condition, body, and increment), with the increment block as the loop's continue
// target.
func (fc *funcCtx) lowerFor(s *syntax.Stmt) {
	fc.scope.ScopePush(false)
	if s.ForInit != nil {
		fc.lowerStmt(s.ForInit)
	}

	header := fc.fn.NewBlock()
	body := fc.fn.NewBlock()
	inc := fc.fn.NewBlock()
	join := fc.fn.NewBlock()

	fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: header.Id})

	fc.setBlock(header)
	if s.Cond != nil {
		cond := fc.lowerExpr(s.Cond)
		fc.emit(&mir.Operation{Op: mir.OpJumpConditional, Result: -1, Operands: []int{cond.tmp}, Then: body.Id, Else: join.Id, Ref: s.Ref})
	} else {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: body.Id})
	}

	fc.setBlock(body)
	fc.scope.ScopePushLoop(join.Id, inc.Id)
	fc.lowerStmtList(s.Body)
	fc.teardownCurrentScope()
	fc.scope.ScopePop()
	if fc.block.Terminator() == nil {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: inc.Id})
	}

	fc.setBlock(inc)
	if s.ForPost != nil {
		fc.lowerExpr(s.ForPost)
	}
	fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: header.Id})

	// The loop's init scope (its induction variable) is only actually torn down on the path that
	// exits through join, so the undeclare belongs there rather than after the back-edge.
	fc.setBlock(join)
	names := fc.scope.OwnVariables()
	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}
	fc.emitTeardown(reversed)
	fc.scope.ScopePop()
}

// lowerSwitch dispatches via a chain of equality comparisons against the switch value, default last;
// each case body falls through to the join block unless it already terminated explicitly.
func (fc *funcCtx) lowerSwitch(s *syntax.Stmt) {
	subject := fc.lowerExpr(s.Cond)
	join := fc.fn.NewBlock()

	type arm struct {
		block *mir.BasicBlock
		c     syntax.SwitchCase
	}
	var arms []arm
	var defaultArm *arm
	for _, c := range s.Cases {
		b := fc.fn.NewBlock()
		a := arm{block: b, c: c}
		if c.IsDefault {
			defaultArm = &a
		} else {
			arms = append(arms, a)
		}
	}

	for _, a := range arms {
		val := fc.lowerExpr(a.c.Value)
		val = fc.coerce(val, subject.ty, s.Ref)
		cmp := fc.emitValue(&mir.Operation{Op: mir.OpCompareEq, Operands: []int{subject.tmp, val.tmp}, Ref: s.Ref}, subject.ty, false)
		next := fc.fn.NewBlock()
		fc.emit(&mir.Operation{Op: mir.OpJumpConditional, Result: -1, Operands: []int{cmp.tmp}, Then: a.block.Id, Else: next.Id})
		fc.setBlock(next)
	}
	if defaultArm != nil {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: defaultArm.block.Id})
	} else {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: join.Id})
	}

	fc.scope.ScopePushSwitch(join.Id)
	for _, a := range arms {
		fc.setBlock(a.block)
		fc.lowerStmtList(a.c.Body)
		if fc.block.Terminator() == nil {
			fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: join.Id})
		}
	}
	if defaultArm != nil {
		fc.setBlock(defaultArm.block)
		fc.lowerStmtList(defaultArm.c.Body)
		if fc.block.Terminator() == nil {
			fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: join.Id})
		}
	}
	fc.scope.ScopePop()

	fc.setBlock(join)
}

func (fc *funcCtx) lowerBreak(s *syntax.Stmt) {
	target, teardown, ok := fc.scope.BreakTarget()
	if !ok {
		fc.l.Errors.Simple(source.IDLowering, "break outside loop or switch", s.Ref, "break has no enclosing loop or switch")
		return
	}
	fc.emitTeardown(teardown)
	fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: target, Ref: s.Ref})
}

func (fc *funcCtx) lowerContinue(s *syntax.Stmt) {
	target, teardown, ok := fc.scope.ContinueTarget()
	if !ok {
		fc.l.Errors.Simple(source.IDLowering, "continue outside loop", s.Ref, "continue has no enclosing loop")
		return
	}
	fc.emitTeardown(teardown)
	fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: target, Ref: s.Ref})
}

func (fc *funcCtx) lowerReturn(s *syntax.Stmt) {
	if s.Expr == nil {
		fc.emitTeardown(fc.scope.TeardownToRoot())
		fc.emit(&mir.Operation{Op: mir.OpReturnVoid, Result: -1, Ref: s.Ref})
		return
	}
	v := fc.lowerExpr(s.Expr)
	v = fc.coerce(v, fc.fn.Return, s.Ref)
	fc.emitTeardown(fc.scope.TeardownToRoot())
	fc.emit(&mir.Operation{Op: mir.OpReturn, Result: -1, Operands: []int{v.tmp}, Ref: s.Ref})
}

// emitTeardown emits local_undeclare for each name, in the order the scope tracker already sorted
// (innermost-scope-first, latest-declared-first).
func (fc *funcCtx) emitTeardown(names []string) {
	for _, name := range names {
		fc.emit(&mir.Operation{Op: mir.OpLocalUndeclare, Result: -1, Name: name})
	}
}

// lowerLabel ends the current block with a fallthrough jump into a fresh block, which becomes the
// label's target so a jump to the label always lands at the start of a block.
func (fc *funcCtx) lowerLabel(s *syntax.Stmt) {
	next := fc.fn.NewBlock()
	if fc.block.Terminator() == nil {
		fc.emit(&mir.Operation{Op: mir.OpJump, Result: -1, Then: next.Id})
	}
	fc.setBlock(next)
	if err := fc.scope.DeclareLabel(s.LabelName, scope.FunctionPoint{Block: next.Id, Index: 0}); err != nil {
		fc.l.Errors.Simple(source.IDLowering, "duplicate label", s.Ref, "%s", err)
	}
}
