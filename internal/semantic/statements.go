package semantic

import (
	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/symtab"
	"github.com/minisoft-lang/minisoft/internal/types"
)

// Pass 2: statements. Errors are collected without halting so the whole
// program is reported in one run.

func (a *Analyzer) checkBlock(b *ast.Block) {
	for _, stmt := range b.Stmts {
		a.checkStmt(stmt)
	}
}

func (a *Analyzer) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		a.checkBlock(s)
	case *ast.AssignStmt:
		a.checkAssign(s)
	case *ast.IfStmt:
		a.checkIf(s)
	case *ast.DoWhileStmt:
		a.checkDoWhile(s)
	case *ast.ForStmt:
		a.checkFor(s)
	case *ast.InputStmt:
		a.checkInput(s)
	case *ast.OutputStmt:
		a.checkOutput(s)
	case *ast.EmptyStmt:
		// nothing to check
	}
}

func (a *Analyzer) checkAssign(s *ast.AssignStmt) {
	targetType, targetOK := a.checkLValue(s.Target, "assign to")
	value, valueOK := a.checkExpr(s.Value)
	if !targetOK || !valueOK {
		return
	}

	if !types.AssignableTo(value.Type, targetType) {
		d := diag.Diagnostic{
			Kind:     diag.TypeMismatch,
			Severity: diag.SeverityError,
			Span:     s.Value.Span(),
			Message:  "type mismatch in assignment: cannot assign " + value.Type.String() + " to " + targetType.String(),
		}
		if types.IsFloat(value.Type) && types.IsInt(targetType) {
			d.Hint = "only Int widens to Float; a Float value never narrows to Int"
		}
		a.reporter.Report(d)
	}
}

// checkLValue validates an assignment or input target and returns its type.
// Constants are rejected, as are whole arrays; marking happens here so the
// mutated flag is accurate for the symbol dump.
func (a *Analyzer) checkLValue(target ast.Expr, action string) (types.Type, bool) {
	switch lv := target.(type) {
	case *ast.IdentExpr:
		sym, ok := a.table.Lookup(lv.Name)
		if !ok {
			a.reporter.Errorf(diag.NotDeclared, lv.Loc, "'%s' is not declared", lv.Name)
			return nil, false
		}
		if sym.IsConstant() {
			a.reporter.Report(diag.Diagnostic{
				Kind:     diag.AssignmentToConstant,
				Severity: diag.SeverityError,
				Span:     lv.Loc,
				Message:  "cannot " + action + " constant '" + lv.Name + "'",
				Notes: []diag.Note{
					{Span: sym.Decl, Message: "'" + lv.Name + "' was declared constant here"},
				},
			})
			return nil, false
		}
		if _, isArray := sym.Type.(*types.ArrayType); isArray {
			a.reporter.Errorf(diag.TypeMismatch, lv.Loc,
				"cannot %s '%s': arrays have no whole-array operations, index an element instead",
				action, lv.Name)
			return nil, false
		}
		sym.Mutated = true
		a.exprTypes[lv] = ValueType{Type: sym.Type}
		return sym.Type, true

	case *ast.IndexExpr:
		vt, ok := a.checkExpr(lv)
		if !ok {
			return nil, false
		}
		if sym, found := a.table.Lookup(lv.Array.Name); found {
			sym.Mutated = true
		}
		return vt.Type, true

	default:
		a.reporter.Errorf(diag.CodegenInternal, target.Span(), "invalid l-value node")
		return nil, false
	}
}

// checkCondition types a condition expression. Any Int value is accepted;
// nonzero means true.
func (a *Analyzer) checkCondition(cond ast.Expr, context string) {
	vt, ok := a.checkExpr(cond)
	if !ok {
		return
	}
	if !types.IsInt(vt.Type) {
		a.reporter.Errorf(diag.TypeMismatch, cond.Span(),
			"%s condition must be Int, found %s", context, vt.Type)
	}
}

func (a *Analyzer) checkIf(s *ast.IfStmt) {
	a.checkCondition(s.Cond, "if")
	a.checkBlock(s.Then)
	if s.Else != nil {
		a.checkBlock(s.Else)
	}
}

func (a *Analyzer) checkDoWhile(s *ast.DoWhileStmt) {
	a.checkBlock(s.Body)
	a.checkCondition(s.Cond, "do-while")
}

// checkFor validates the counted loop. The induction variable must be a
// plain Int variable; bounds and step must be Int. When all three loop
// expressions fold, a zero step is an error and a direction inconsistent
// with the bounds is an empty-loop warning.
func (a *Analyzer) checkFor(s *ast.ForStmt) {
	sym, ok := a.table.Lookup(s.Var.Name)
	switch {
	case !ok:
		a.reporter.Errorf(diag.NotDeclared, s.Var.Loc, "'%s' is not declared", s.Var.Name)
	case sym.IsConstant():
		a.reporter.Errorf(diag.InvalidInductionVariable, s.Var.Loc,
			"loop variable '%s' is a constant", s.Var.Name)
	case sym.Kind == symtab.KindArray:
		a.reporter.Errorf(diag.InvalidInductionVariable, s.Var.Loc,
			"loop variable '%s' must be a scalar Int variable, not an array", s.Var.Name)
	case !types.IsInt(sym.Type):
		a.reporter.Errorf(diag.InvalidInductionVariable, s.Var.Loc,
			"loop variable '%s' must be Int, found %s", s.Var.Name, sym.Type)
	default:
		sym.Mutated = true
		a.exprTypes[s.Var] = ValueType{Type: sym.Type}
	}

	from, fromOK := a.checkLoopBound(s.From, "lower bound")
	to, toOK := a.checkLoopBound(s.To, "upper bound")
	step, stepOK := a.checkLoopBound(s.Step, "step")

	if fromOK && toOK && stepOK && from.IsFolded() && to.IsFolded() && step.IsFolded() {
		switch {
		case step.Folded.Int == 0:
			a.reporter.Errorf(diag.ZeroStep, s.Step.Span(), "loop step is zero")
		case step.Folded.Int > 0 && from.Folded.Int > to.Folded.Int:
			a.reporter.Warningf(diag.EmptyLoop, s.Loc,
				"empty loop: counting up from %d to %d never runs", from.Folded.Int, to.Folded.Int)
		case step.Folded.Int < 0 && from.Folded.Int < to.Folded.Int:
			a.reporter.Warningf(diag.EmptyLoop, s.Loc,
				"empty loop: counting down from %d to %d never runs", from.Folded.Int, to.Folded.Int)
		}
	}

	a.checkBlock(s.Body)
}

func (a *Analyzer) checkLoopBound(e ast.Expr, what string) (ValueType, bool) {
	vt, ok := a.checkExpr(e)
	if !ok {
		return ValueType{}, false
	}
	if !types.IsInt(vt.Type) {
		a.reporter.Errorf(diag.TypeMismatch, e.Span(),
			"loop %s must be Int, found %s", what, vt.Type)
		return ValueType{}, false
	}
	return vt, true
}

func (a *Analyzer) checkInput(s *ast.InputStmt) {
	t, ok := a.checkLValue(s.Target, "input into")
	if ok && !types.IsScalar(t) {
		a.reporter.Errorf(diag.InvalidInputTarget, s.Target.Span(),
			"input target must be a scalar l-value, found %s", t)
	}
}

func (a *Analyzer) checkOutput(s *ast.OutputStmt) {
	for _, arg := range s.Args {
		if _, isStr := arg.(*ast.StringLit); isStr {
			continue
		}
		vt, ok := a.checkExpr(arg)
		if ok && !types.IsScalar(vt.Type) {
			a.reporter.Errorf(diag.InvalidOutputArgument, arg.Span(),
				"output arguments must be scalar expressions or string literals, found %s", vt.Type)
		}
	}
}
