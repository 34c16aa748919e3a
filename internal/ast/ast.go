// Package ast defines the syntax tree for MiniSoft programs.
//
// Nodes are tagged variants behind three small interfaces (Decl, Stmt, Expr)
// with marker methods. The analyzer and the quadruple emitter both dispatch
// on them with exhaustive type switches. Every node carries the span of the
// source text it was parsed from.
package ast

import "github.com/minisoft-lang/minisoft/internal/diag"

// Node is implemented by every syntax tree node.
type Node interface {
	// Span returns the source range this node was parsed from.
	Span() diag.Span
}

// Decl is a declaration appearing in the Var section.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement appearing in the program body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression producing a value.
type Expr interface {
	Node
	exprNode()
}

// Program is the root of the tree: the program name, the Var section, and
// the body between BeginPg and EndPg.
type Program struct {
	Name     string
	NameSpan diag.Span
	Decls    []Decl
	Body     *Block
	Loc      diag.Span
}

func (p *Program) Span() diag.Span { return p.Loc }

// TypeSpec names a scalar type, Int or Float, as written in a declaration.
type TypeSpec struct {
	IsFloat bool
	Loc     diag.Span
}

func (t TypeSpec) Span() diag.Span { return t.Loc }

func (t TypeSpec) String() string {
	if t.IsFloat {
		return "Float"
	}
	return "Int"
}

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpLessEqual:
		return "<="
	case OpGreaterEqual:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "?"
	}
}

// IsComparison reports whether the operator is one of the six relational
// operators.
func (op BinOp) IsComparison() bool {
	return op >= OpLess && op <= OpNotEqual
}

// IsArithmetic reports whether the operator is + - * or /.
func (op BinOp) IsArithmetic() bool {
	return op <= OpDiv
}

// IsLogical reports whether the operator is AND or OR.
func (op BinOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}
