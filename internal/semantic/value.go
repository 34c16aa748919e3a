package semantic

import (
	"math"

	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/symtab"
	"github.com/minisoft-lang/minisoft/internal/types"
)

// ValueType is the analyzer's answer for an expression: its type, and the
// folded compile-time value when one exists. Folding and type checking run
// in the same traversal so one walk establishes both.
type ValueType struct {
	Type   types.Type
	Folded *symtab.Value
}

// IsFolded reports whether the expression has a compile-time value.
func (vt ValueType) IsFolded() bool { return vt.Folded != nil }

// evalBinary folds a binary operation over two known values. Integer
// arithmetic uses 32-bit two's-complement semantics and reports overflow;
// mixed operands widen to Float. Division by a folded zero is reported at
// opSpan. ok=false means a diagnostic was emitted and no value exists.
func (a *Analyzer) evalBinary(op ast.BinOp, left, right symtab.Value, opSpan diag.Span) (symtab.Value, bool) {
	switch {
	case op.IsArithmetic():
		return a.evalArithmetic(op, left, right, opSpan)
	case op.IsComparison():
		return evalComparison(op, left, right), true
	default:
		return evalLogical(op, left, right), true
	}
}

func (a *Analyzer) evalArithmetic(op ast.BinOp, left, right symtab.Value, opSpan diag.Span) (symtab.Value, bool) {
	if types.IsFloat(left.Type) || types.IsFloat(right.Type) {
		l, r := left.AsFloat(), right.AsFloat()
		var out float64
		switch op {
		case ast.OpAdd:
			out = l + r
		case ast.OpSub:
			out = l - r
		case ast.OpMul:
			out = l * r
		case ast.OpDiv:
			if r == 0 {
				a.reporter.Errorf(diag.DivisionByZero, opSpan, "division by zero")
				return symtab.Value{}, false
			}
			out = l / r
		}
		return symtab.FloatValue(out), true
	}

	l, r := int64(left.Int), int64(right.Int)
	var out int64
	switch op {
	case ast.OpAdd:
		out = l + r
	case ast.OpSub:
		out = l - r
	case ast.OpMul:
		out = l * r
	case ast.OpDiv:
		if r == 0 {
			a.reporter.Errorf(diag.DivisionByZero, opSpan, "division by zero")
			return symtab.Value{}, false
		}
		out = l / r
	}
	if out < math.MinInt32 || out > math.MaxInt32 {
		a.reporter.Errorf(diag.SemanticOverflow, opSpan,
			"integer overflow in constant expression")
		return symtab.Value{}, false
	}
	return symtab.IntValue(int32(out)), true
}

// evalComparison folds a relational operation to the Int values 0 or 1.
// Mixed operands compare as Float.
func evalComparison(op ast.BinOp, left, right symtab.Value) symtab.Value {
	var truth bool
	if types.IsFloat(left.Type) || types.IsFloat(right.Type) {
		l, r := left.AsFloat(), right.AsFloat()
		truth = compareFloats(op, l, r)
	} else {
		truth = compareInts(op, left.Int, right.Int)
	}
	if truth {
		return symtab.IntValue(1)
	}
	return symtab.IntValue(0)
}

func compareInts(op ast.BinOp, l, r int32) bool {
	switch op {
	case ast.OpLess:
		return l < r
	case ast.OpGreater:
		return l > r
	case ast.OpLessEqual:
		return l <= r
	case ast.OpGreaterEqual:
		return l >= r
	case ast.OpEqual:
		return l == r
	default:
		return l != r
	}
}

func compareFloats(op ast.BinOp, l, r float64) bool {
	switch op {
	case ast.OpLess:
		return l < r
	case ast.OpGreater:
		return l > r
	case ast.OpLessEqual:
		return l <= r
	case ast.OpGreaterEqual:
		return l >= r
	case ast.OpEqual:
		return l == r
	default:
		return l != r
	}
}

// evalLogical folds AND/OR over the usual truth tables, treating any
// nonzero operand as true.
func evalLogical(op ast.BinOp, left, right symtab.Value) symtab.Value {
	var truth bool
	if op == ast.OpAnd {
		truth = left.Truthy() && right.Truthy()
	} else {
		truth = left.Truthy() || right.Truthy()
	}
	if truth {
		return symtab.IntValue(1)
	}
	return symtab.IntValue(0)
}
