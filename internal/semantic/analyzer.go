// Package semantic implements the two-pass semantic analyzer.
//
// Pass 1 registers every declaration in the symbol table, folding constant
// initializers as it goes. Pass 2 walks the program body, typing every
// expression and folding constant subexpressions. Neither pass stops on an
// error: the whole program is analyzed and every problem reported before the
// driver aborts compilation.
package semantic

import (
	"math"

	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/symtab"
	"github.com/minisoft-lang/minisoft/internal/types"
)

const widenHint = "did you mean to widen with a float literal?"

// Analyzer checks a parsed program and annotates its expressions.
type Analyzer struct {
	reporter *diag.Reporter
	table    *symtab.Table

	// exprTypes is the side table of expression annotations. Storing them
	// outside the AST keeps the tree immutable; the quadruple emitter reads
	// this map for types and folded values.
	exprTypes map[ast.Expr]ValueType
}

// New creates an analyzer reporting to r.
func New(r *diag.Reporter) *Analyzer {
	return &Analyzer{
		reporter:  r,
		table:     symtab.New(),
		exprTypes: make(map[ast.Expr]ValueType),
	}
}

// Analyze runs both passes over prog. It returns false when any semantic
// error was reported; warnings alone do not fail the analysis.
func (a *Analyzer) Analyze(prog *ast.Program) bool {
	start := a.reporter.ErrorCount()

	for _, decl := range prog.Decls {
		a.declareDecl(decl)
	}
	a.checkBlock(prog.Body)

	return a.reporter.ErrorCount() == start
}

// Table returns the symbol table built by pass 1.
func (a *Analyzer) Table() *symtab.Table {
	return a.table
}

// ExprInfo returns the annotation pass 2 computed for an expression.
func (a *Analyzer) ExprInfo(e ast.Expr) (ValueType, bool) {
	vt, ok := a.exprTypes[e]
	return vt, ok
}

// Pass 1: declarations.

func (a *Analyzer) declareDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.VarDecl:
		a.declareVars(d)
	case *ast.ArrayDecl:
		a.declareArrays(d)
	case *ast.ConstDecl:
		a.declareConst(d)
	}
}

func (a *Analyzer) declareVars(d *ast.VarDecl) {
	declared := types.Type(types.Int)
	if d.Type.IsFloat {
		declared = types.Float
	}

	var folded *symtab.Value
	if d.Init != nil {
		if v, ok := a.foldInitializer(d.Init); ok {
			if v.Type.Equals(declared) {
				folded = &v
			} else if types.Widens(v.Type, declared) {
				w := v.Widen()
				folded = &w
			} else {
				a.reporter.Report(diag.Diagnostic{
					Kind:     diag.TypeMismatch,
					Severity: diag.SeverityError,
					Span:     d.Init.Span(),
					Message:  "type mismatch in initializer: expected " + declared.String() + ", found " + v.Type.String(),
				})
			}
		}
	}

	for _, name := range d.Names {
		a.insert(&symtab.Symbol{
			Name:  name.Name,
			Kind:  symtab.KindVariable,
			Type:  declared,
			Value: folded,
			Decl:  name.Loc,
		})
	}
}

func (a *Analyzer) declareArrays(d *ast.ArrayDecl) {
	elem := types.Type(types.Int)
	if d.Elem.IsFloat {
		elem = types.Float
	}

	length := 0
	if lit, ok := d.Len.(*ast.IntLit); ok {
		length = int(lit.Value)
	}
	if length < 1 || int64(length) > math.MaxInt32 {
		a.reporter.Errorf(diag.InvalidArraySize, d.Len.Span(),
			"invalid array size %d: the length must be a positive integer", length)
		length = 1
	}

	var elems []symtab.Value
	if d.Init != nil {
		if len(d.Init) != length {
			a.reporter.Errorf(diag.ArrayLengthMismatch, d.InitLoc,
				"array length mismatch: %d initializers for an array of length %d",
				len(d.Init), length)
		}
		for _, e := range d.Init {
			v, ok := a.foldInitializer(e)
			if !ok {
				continue
			}
			switch {
			case v.Type.Equals(elem):
				elems = append(elems, v)
			case types.Widens(v.Type, elem):
				elems = append(elems, v.Widen())
			default:
				a.reporter.Errorf(diag.TypeMismatch, e.Span(),
					"type mismatch in initializer: expected %s, found %s", elem, v.Type)
			}
		}
	}

	for _, name := range d.Names {
		a.insert(&symtab.Symbol{
			Name:  name.Name,
			Kind:  symtab.KindArray,
			Type:  types.NewArray(elem, length),
			Elems: elems,
			Decl:  name.Loc,
		})
	}
}

// declareConst registers a named constant. The right-hand side must be a
// literal of exactly the declared type; widening is not applied here.
func (a *Analyzer) declareConst(d *ast.ConstDecl) {
	declared := types.Type(types.Int)
	if d.Type.IsFloat {
		declared = types.Float
	}

	var value *symtab.Value
	switch lit := d.Value.(type) {
	case *ast.IntLit:
		if types.IsInt(declared) {
			v := symtab.IntValue(lit.Value)
			value = &v
		} else {
			a.reporter.Report(diag.Diagnostic{
				Kind:     diag.TypeMismatch,
				Severity: diag.SeverityError,
				Span:     lit.Loc,
				Message:  "type mismatch in constant declaration: expected Float, found Int",
				Hint:     widenHint,
			})
		}
	case *ast.FloatLit:
		if types.IsFloat(declared) {
			v := symtab.FloatValue(lit.Value)
			value = &v
		} else {
			a.reporter.Errorf(diag.TypeMismatch, lit.Loc,
				"type mismatch in constant declaration: expected Int, found Float")
		}
	case *ast.StringLit:
		a.reporter.Errorf(diag.TypeMismatch, lit.Loc,
			"type mismatch in constant declaration: a string literal has no %s value", declared)
	}

	a.insert(&symtab.Symbol{
		Name:  d.Name.Name,
		Kind:  symtab.KindConstant,
		Type:  declared,
		Value: value,
		Decl:  d.Name.Loc,
	})
}

// insert adds a symbol or reports a redeclaration, referencing both spans.
// Registration failures never abort pass 1.
func (a *Analyzer) insert(sym *symtab.Symbol) {
	if prior, ok := a.table.Declare(sym); !ok {
		a.reporter.Report(diag.Diagnostic{
			Kind:     diag.DuplicateDeclaration,
			Severity: diag.SeverityError,
			Span:     sym.Decl,
			Message:  "redeclaration of '" + sym.Name + "'",
			Notes: []diag.Note{
				{Span: prior.Decl, Message: "'" + sym.Name + "' was first declared here"},
			},
		})
	}
}

// foldInitializer evaluates a declaration initializer as a compile-time
// constant expression over literals, binary operators (arithmetic,
// comparison, AND/OR), logical negation, and previously declared constants.
// ok=false means a diagnostic was reported.
func (a *Analyzer) foldInitializer(e ast.Expr) (symtab.Value, bool) {
	switch expr := e.(type) {
	case *ast.IntLit:
		return symtab.IntValue(expr.Value), true
	case *ast.FloatLit:
		return symtab.FloatValue(expr.Value), true
	case *ast.StringLit:
		a.reporter.Errorf(diag.TypeMismatch, expr.Loc,
			"a string literal cannot initialize a numeric declaration")
		return symtab.Value{}, false
	case *ast.IdentExpr:
		sym, ok := a.table.Lookup(expr.Name)
		if !ok {
			a.reporter.Errorf(diag.NotDeclared, expr.Loc,
				"'%s' is not declared", expr.Name)
			return symtab.Value{}, false
		}
		if !sym.IsConstant() {
			a.reporter.Errorf(diag.NonConstantInitializer, expr.Loc,
				"initializers must be compile-time constants, but '%s' is a %s", expr.Name, sym.Kind)
			return symtab.Value{}, false
		}
		if sym.Value == nil {
			// The constant itself failed to fold; already reported.
			return symtab.Value{}, false
		}
		return *sym.Value, true
	case *ast.BinaryExpr:
		left, okL := a.foldInitializer(expr.Left)
		right, okR := a.foldInitializer(expr.Right)
		if !okL || !okR {
			return symtab.Value{}, false
		}
		return a.evalBinary(expr.Op, left, right, expr.OpSpan)
	case *ast.UnaryExpr:
		operand, ok := a.foldInitializer(expr.Operand)
		if !ok {
			return symtab.Value{}, false
		}
		return a.foldNot(operand, expr.Operand.Span())
	default:
		a.reporter.Errorf(diag.NonConstantInitializer, e.Span(),
			"initializers must be compile-time constant expressions")
		return symtab.Value{}, false
	}
}

// foldNot applies logical negation. The operand must be an Int folded to 0
// or 1.
func (a *Analyzer) foldNot(v symtab.Value, span diag.Span) (symtab.Value, bool) {
	if !types.IsInt(v.Type) || (v.Int != 0 && v.Int != 1) {
		a.reporter.Errorf(diag.InvalidLogicalOperand, span,
			"invalid logical operand: '!' requires an Int value of 0 or 1")
		return symtab.Value{}, false
	}
	return symtab.IntValue(1 - v.Int), true
}
