package ast

import "github.com/minisoft-lang/minisoft/internal/diag"

// IntLit is an integer literal, including the parenthesized signed forms.
type IntLit struct {
	Value int32
	Loc   diag.Span
}

func (e *IntLit) Span() diag.Span { return e.Loc }
func (e *IntLit) exprNode()       {}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
	Loc   diag.Span
}

func (e *FloatLit) Span() diag.Span { return e.Loc }
func (e *FloatLit) exprNode()       {}

// StringLit is a string literal. Strings only appear as output arguments;
// the analyzer rejects them anywhere else.
type StringLit struct {
	Value string
	Loc   diag.Span
}

func (e *StringLit) Span() diag.Span { return e.Loc }
func (e *StringLit) exprNode()       {}

// IdentExpr is a reference to a declared name.
type IdentExpr struct {
	Name string
	Loc  diag.Span
}

func (e *IdentExpr) Span() diag.Span { return e.Loc }
func (e *IdentExpr) exprNode()       {}

// IndexExpr is an array element access: name[index].
type IndexExpr struct {
	Array *IdentExpr
	Index Expr
	Loc   diag.Span
}

func (e *IndexExpr) Span() diag.Span { return e.Loc }
func (e *IndexExpr) exprNode()       {}

// BinaryExpr is a binary operation. OpSpan covers the operator token, which
// is where operator-specific diagnostics (division by zero, overflow) point.
type BinaryExpr struct {
	Left   Expr
	Op     BinOp
	OpSpan diag.Span
	Right  Expr
	Loc    diag.Span
}

func (e *BinaryExpr) Span() diag.Span { return e.Loc }
func (e *BinaryExpr) exprNode()       {}

// UnaryExpr is the logical negation operator applied to an operand.
type UnaryExpr struct {
	Operand Expr
	Loc     diag.Span
}

func (e *UnaryExpr) Span() diag.Span { return e.Loc }
func (e *UnaryExpr) exprNode()       {}
