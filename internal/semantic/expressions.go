package semantic

import (
	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/symtab"
	"github.com/minisoft-lang/minisoft/internal/types"
)

// checkExpr types an expression and folds it when its operands are known.
// The annotation is recorded in the side table on success. ok=false means a
// diagnostic was reported and the expression has no usable type; callers
// skip their own checks in that case rather than cascade errors.
func (a *Analyzer) checkExpr(e ast.Expr) (ValueType, bool) {
	vt, ok := a.checkExprInner(e)
	if ok {
		a.exprTypes[e] = vt
	}
	return vt, ok
}

func (a *Analyzer) checkExprInner(e ast.Expr) (ValueType, bool) {
	switch expr := e.(type) {
	case *ast.IntLit:
		v := symtab.IntValue(expr.Value)
		return ValueType{Type: types.Int, Folded: &v}, true

	case *ast.FloatLit:
		v := symtab.FloatValue(expr.Value)
		return ValueType{Type: types.Float, Folded: &v}, true

	case *ast.StringLit:
		a.reporter.Errorf(diag.TypeMismatch, expr.Loc,
			"a string literal is only allowed as an output argument")
		return ValueType{}, false

	case *ast.IdentExpr:
		return a.checkIdent(expr)

	case *ast.IndexExpr:
		return a.checkIndex(expr)

	case *ast.BinaryExpr:
		return a.checkBinary(expr)

	case *ast.UnaryExpr:
		return a.checkUnary(expr)

	default:
		a.reporter.Errorf(diag.CodegenInternal, e.Span(), "unknown expression node")
		return ValueType{}, false
	}
}

// checkIdent resolves a name use. The result is folded exactly when the
// symbol is a constant; folded variable initializers are declaration-time
// values, not invariants.
func (a *Analyzer) checkIdent(expr *ast.IdentExpr) (ValueType, bool) {
	sym, ok := a.table.Lookup(expr.Name)
	if !ok {
		a.reporter.Errorf(diag.NotDeclared, expr.Loc, "'%s' is not declared", expr.Name)
		return ValueType{}, false
	}
	vt := ValueType{Type: sym.Type}
	if sym.IsConstant() {
		vt.Folded = sym.Value
	}
	return vt, true
}

// checkIndex types an array access a[e]. A folded index is bounds-checked
// against the declared length. The element itself is never folded: array
// contents are mutable.
func (a *Analyzer) checkIndex(expr *ast.IndexExpr) (ValueType, bool) {
	sym, ok := a.table.Lookup(expr.Array.Name)
	if !ok {
		a.reporter.Errorf(diag.NotDeclared, expr.Array.Loc, "'%s' is not declared", expr.Array.Name)
		return ValueType{}, false
	}
	arr, isArray := sym.Type.(*types.ArrayType)
	if !isArray {
		a.reporter.Errorf(diag.TypeMismatch, expr.Array.Loc,
			"'%s' is not an array and cannot be indexed", expr.Array.Name)
		return ValueType{}, false
	}

	idx, idxOK := a.checkExpr(expr.Index)
	if idxOK {
		if !types.IsInt(idx.Type) {
			a.reporter.Errorf(diag.TypeMismatch, expr.Index.Span(),
				"array index must be Int, found %s", idx.Type)
		} else if idx.IsFolded() {
			i := idx.Folded.Int
			if i < 0 || int(i) >= arr.Len {
				a.reporter.Errorf(diag.ArrayIndexOutOfBounds, expr.Span(),
					"array index out of bounds: index %d is outside '%s' of length %d",
					i, sym.Name, arr.Len)
			}
		}
	}
	return ValueType{Type: arr.Elem}, true
}

func (a *Analyzer) checkBinary(expr *ast.BinaryExpr) (ValueType, bool) {
	if expr.Op.IsComparison() {
		a.warnChainedComparison(expr)
	}

	left, okL := a.checkExpr(expr.Left)
	right, okR := a.checkExpr(expr.Right)
	if !okL || !okR {
		return ValueType{}, false
	}

	switch {
	case expr.Op.IsArithmetic():
		return a.checkArithmetic(expr, left, right)
	case expr.Op.IsComparison():
		return a.checkComparison(expr, left, right)
	default:
		return a.checkLogical(expr, left, right)
	}
}

func (a *Analyzer) checkArithmetic(expr *ast.BinaryExpr, left, right ValueType) (ValueType, bool) {
	if !a.requireNumeric(left, expr.Left) || !a.requireNumeric(right, expr.Right) {
		return ValueType{}, false
	}

	result := types.Type(types.Int)
	if types.IsFloat(left.Type) || types.IsFloat(right.Type) {
		result = types.Float
	}

	if expr.Op == ast.OpDiv && right.IsFolded() && right.Folded.IsZero() {
		a.reporter.Errorf(diag.DivisionByZero, expr.OpSpan, "division by zero")
		return ValueType{}, false
	}

	vt := ValueType{Type: result}
	if left.IsFolded() && right.IsFolded() {
		v, ok := a.evalBinary(expr.Op, *left.Folded, *right.Folded, expr.OpSpan)
		if !ok {
			return ValueType{}, false
		}
		vt.Folded = &v
	}
	return vt, true
}

func (a *Analyzer) checkComparison(expr *ast.BinaryExpr, left, right ValueType) (ValueType, bool) {
	if !a.requireNumeric(left, expr.Left) || !a.requireNumeric(right, expr.Right) {
		return ValueType{}, false
	}
	vt := ValueType{Type: types.Int}
	if left.IsFolded() && right.IsFolded() {
		v := evalComparison(expr.Op, *left.Folded, *right.Folded)
		vt.Folded = &v
	}
	return vt, true
}

// checkLogical types AND/OR. Both operands must be Int; there is no
// short-circuiting in the language, both sides always evaluate.
func (a *Analyzer) checkLogical(expr *ast.BinaryExpr, left, right ValueType) (ValueType, bool) {
	ok := true
	if !types.IsInt(left.Type) {
		a.reporter.Errorf(diag.TypeMismatch, expr.Left.Span(),
			"operands of %s must be Int, found %s", expr.Op, left.Type)
		ok = false
	}
	if !types.IsInt(right.Type) {
		a.reporter.Errorf(diag.TypeMismatch, expr.Right.Span(),
			"operands of %s must be Int, found %s", expr.Op, right.Type)
		ok = false
	}
	if !ok {
		return ValueType{}, false
	}

	vt := ValueType{Type: types.Int}
	if left.IsFolded() && right.IsFolded() {
		v := evalLogical(expr.Op, *left.Folded, *right.Folded)
		vt.Folded = &v
	}
	return vt, true
}

// checkUnary types logical negation. The operand must fold to an Int 0 or 1
// at compile time; anything else is an invalid logical operand.
func (a *Analyzer) checkUnary(expr *ast.UnaryExpr) (ValueType, bool) {
	operand, ok := a.checkExpr(expr.Operand)
	if !ok {
		return ValueType{}, false
	}
	if !types.IsInt(operand.Type) || !operand.IsFolded() {
		a.reporter.Errorf(diag.InvalidLogicalOperand, expr.Operand.Span(),
			"invalid logical operand: '!' requires an Int value known to be 0 or 1")
		return ValueType{}, false
	}
	v, foldOK := a.foldNot(*operand.Folded, expr.Operand.Span())
	if !foldOK {
		return ValueType{}, false
	}
	return ValueType{Type: types.Int, Folded: &v}, true
}

func (a *Analyzer) requireNumeric(vt ValueType, e ast.Expr) bool {
	if types.IsNumeric(vt.Type) {
		return true
	}
	a.reporter.Errorf(diag.TypeMismatch, e.Span(),
		"operand must be Int or Float, found %s", vt.Type)
	return false
}

// warnChainedComparison flags a < b < c style chains. The parser accepts
// them left-associatively, which compares the 0/1 result of the inner
// comparison and is rarely what the author meant.
func (a *Analyzer) warnChainedComparison(expr *ast.BinaryExpr) {
	if inner, ok := expr.Left.(*ast.BinaryExpr); ok && inner.Op.IsComparison() {
		a.reporter.Warningf(diag.ChainedComparison, expr.OpSpan,
			"chained comparison: the 0-or-1 result of '%s' is compared with '%s'",
			inner.Op, expr.Op)
	}
}
