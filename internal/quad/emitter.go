package quad

import (
	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/semantic"
	"github.com/minisoft-lang/minisoft/internal/symtab"
	"github.com/minisoft-lang/minisoft/internal/types"
)

// Element sizes used for array offset computation, in bytes.
const (
	intSize   = 4
	floatSize = 8
)

// Emitter lowers a validated program to quadruples. It assumes analysis
// succeeded: the symbol table is complete and every expression is annotated.
// Any inconsistency it detects is a compiler bug, reported with the codegen
// kind, never a user error.
type Emitter struct {
	prog     *Program
	analyzer *semantic.Analyzer
	reporter *diag.Reporter
}

// NewEmitter creates an emitter reading annotations from a.
func NewEmitter(a *semantic.Analyzer, r *diag.Reporter) *Emitter {
	return &Emitter{prog: NewProgram(), analyzer: a, reporter: r}
}

// Emit lowers the program body. Declarations emit nothing: folded
// initializer values live on the symbols, and storage allocation is the back
// end's job. ok is false when an internal inconsistency was reported.
func (e *Emitter) Emit(program *ast.Program) (*Program, bool) {
	start := e.reporter.ErrorCount()
	e.emitBlock(program.Body)
	return e.prog, e.reporter.ErrorCount() == start
}

func (e *Emitter) emitBlock(b *ast.Block) {
	for _, stmt := range b.Stmts {
		e.emitStmt(stmt)
	}
}

func (e *Emitter) emitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		e.emitBlock(s)
	case *ast.AssignStmt:
		e.emitAssign(s)
	case *ast.IfStmt:
		e.emitIf(s)
	case *ast.DoWhileStmt:
		e.emitDoWhile(s)
	case *ast.ForStmt:
		e.emitFor(s)
	case *ast.InputStmt:
		e.emitInput(s)
	case *ast.OutputStmt:
		e.emitOutput(s)
	case *ast.EmptyStmt:
		// nothing to emit
	}
}

// emitAssign lowers lv := e, widening a folded Int value when the target
// is Float so the stored literal carries the target type.
func (e *Emitter) emitAssign(s *ast.AssignStmt) {
	value := e.emitExpr(s.Value)

	switch target := s.Target.(type) {
	case *ast.IdentExpr:
		sym, ok := e.analyzer.Table().Lookup(target.Name)
		if !ok {
			e.internal(target.Loc, "assignment to unknown symbol '%s'", target.Name)
			return
		}
		value = widenLiteral(value, sym.Type)
		e.prog.Add(Quad{Op: OpAssign, Arg1: value, Arg2: Empty, Result: Var(target.Name)})

	case *ast.IndexExpr:
		elem := e.elementType(target)
		value = widenLiteral(value, elem)
		offset := e.emitOffset(target)
		e.prog.Add(Quad{Op: OpArrStore, Arg1: value, Arg2: offset, Result: Var(target.Array.Name)})

	default:
		e.internal(s.Target.Span(), "invalid assignment target")
	}
}

// emitIf lowers a conditional. Without an else branch the else label and
// the end label coincide.
func (e *Emitter) emitIf(s *ast.IfStmt) {
	cond := e.emitExpr(s.Cond)

	if s.Else == nil {
		end := e.prog.NewLabel()
		e.prog.Add(Quad{Op: OpJumpFalse, Label: end, Arg1: cond, Arg2: Empty, Result: Empty})
		e.emitBlock(s.Then)
		e.prog.Add(Quad{Op: OpLabel, Label: end, Arg1: Empty, Arg2: Empty, Result: Empty})
		return
	}

	elseLabel := e.prog.NewLabel()
	end := e.prog.NewLabel()
	e.prog.Add(Quad{Op: OpJumpFalse, Label: elseLabel, Arg1: cond, Arg2: Empty, Result: Empty})
	e.emitBlock(s.Then)
	e.prog.Add(Quad{Op: OpJump, Label: end, Arg1: Empty, Arg2: Empty, Result: Empty})
	e.prog.Add(Quad{Op: OpLabel, Label: elseLabel, Arg1: Empty, Arg2: Empty, Result: Empty})
	e.emitBlock(s.Else)
	e.prog.Add(Quad{Op: OpLabel, Label: end, Arg1: Empty, Arg2: Empty, Result: Empty})
}

func (e *Emitter) emitDoWhile(s *ast.DoWhileStmt) {
	start := e.prog.NewLabel()
	end := e.prog.NewLabel()
	e.prog.Add(Quad{Op: OpLabel, Label: start, Arg1: Empty, Arg2: Empty, Result: Empty})
	e.emitBlock(s.Body)
	cond := e.emitExpr(s.Cond)
	e.prog.Add(Quad{Op: OpJumpFalse, Label: end, Arg1: cond, Arg2: Empty, Result: Empty})
	e.prog.Add(Quad{Op: OpJump, Label: start, Arg1: Empty, Arg2: Empty, Result: Empty})
	e.prog.Add(Quad{Op: OpLabel, Label: end, Arg1: Empty, Arg2: Empty, Result: Empty})
}

// emitFor lowers the counted loop:
//
//	lv := from
//	Lstart:  t := lv - to
//	         continue while t <= 0 (ascending) or t >= 0 (descending)
//	         <body>
//	         lv := lv + step
//	         JUMP Lstart
//	Lend:
//
// A folded step picks the comparison at compile time; otherwise a runtime
// sign check selects between the two.
func (e *Emitter) emitFor(s *ast.ForStmt) {
	lv := Var(s.Var.Name)

	from := e.emitExpr(s.From)
	e.prog.Add(Quad{Op: OpAssign, Arg1: from, Arg2: Empty, Result: lv})

	start := e.prog.NewLabel()
	end := e.prog.NewLabel()
	e.prog.Add(Quad{Op: OpLabel, Label: start, Arg1: Empty, Arg2: Empty, Result: Empty})

	to := e.emitExpr(s.To)
	delta := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpSub, Arg1: lv, Arg2: to, Result: delta})

	zero := Lit(symtab.IntValue(0))
	stepInfo, _ := e.analyzer.ExprInfo(s.Step)

	var cond Operand
	if stepInfo.IsFolded() {
		op := OpLE
		if stepInfo.Folded.Int < 0 {
			op = OpGE
		}
		cond = e.prog.NewTemp()
		e.prog.Add(Quad{Op: op, Arg1: delta, Arg2: zero, Result: cond})
	} else {
		cond = e.emitDirectionCheck(e.emitExpr(s.Step), delta, zero)
	}
	e.prog.Add(Quad{Op: OpJumpFalse, Label: end, Arg1: cond, Arg2: Empty, Result: Empty})

	e.emitBlock(s.Body)

	step := e.emitExpr(s.Step)
	next := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpAdd, Arg1: lv, Arg2: step, Result: next})
	e.prog.Add(Quad{Op: OpAssign, Arg1: next, Arg2: Empty, Result: lv})

	e.prog.Add(Quad{Op: OpJump, Label: start, Arg1: Empty, Arg2: Empty, Result: Empty})
	e.prog.Add(Quad{Op: OpLabel, Label: end, Arg1: Empty, Arg2: Empty, Result: Empty})
}

// emitDirectionCheck builds the runtime continue-condition for a loop whose
// step sign is unknown at compile time:
//
//	(step > 0 AND delta <= 0) OR (NOT (step > 0) AND delta >= 0)
func (e *Emitter) emitDirectionCheck(step, delta, zero Operand) Operand {
	ascending := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpGT, Arg1: step, Arg2: zero, Result: ascending})

	up := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpLE, Arg1: delta, Arg2: zero, Result: up})
	down := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpGE, Arg1: delta, Arg2: zero, Result: down})

	upTaken := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpAnd, Arg1: ascending, Arg2: up, Result: upTaken})

	descending := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpNot, Arg1: ascending, Arg2: Empty, Result: descending})
	downTaken := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpAnd, Arg1: descending, Arg2: down, Result: downTaken})

	cond := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpOr, Arg1: upTaken, Arg2: downTaken, Result: cond})
	return cond
}

// emitInput lowers input(lv). Reading into an array element goes through a
// temporary so the INPUT quadruple always targets a scalar location.
func (e *Emitter) emitInput(s *ast.InputStmt) {
	switch target := s.Target.(type) {
	case *ast.IdentExpr:
		e.prog.Add(Quad{Op: OpInput, Arg1: Empty, Arg2: Empty, Result: Var(target.Name)})
	case *ast.IndexExpr:
		tmp := e.prog.NewTemp()
		e.prog.Add(Quad{Op: OpInput, Arg1: Empty, Arg2: Empty, Result: tmp})
		offset := e.emitOffset(target)
		e.prog.Add(Quad{Op: OpArrStore, Arg1: tmp, Arg2: offset, Result: Var(target.Array.Name)})
	default:
		e.internal(s.Target.Span(), "invalid input target")
	}
}

// emitOutput lowers output(a1, a2, ...). Each argument becomes its own
// OUTPUT quadruple, in argument order, so the back end can format per type.
func (e *Emitter) emitOutput(s *ast.OutputStmt) {
	for _, arg := range s.Args {
		if str, isStr := arg.(*ast.StringLit); isStr {
			e.prog.Add(Quad{Op: OpOutput, Arg1: Str(str.Value), Arg2: Empty, Result: Empty})
			continue
		}
		value := e.emitExpr(arg)
		e.prog.Add(Quad{Op: OpOutput, Arg1: value, Arg2: Empty, Result: Empty})
	}
}

// emitExpr lowers an expression post-order and returns its operand. A
// subexpression the analyzer folded becomes the literal itself; no quadruple
// is emitted for it and no dead temporary is created.
func (e *Emitter) emitExpr(expr ast.Expr) Operand {
	if info, ok := e.analyzer.ExprInfo(expr); ok && info.IsFolded() {
		return Lit(*info.Folded)
	}

	switch ex := expr.(type) {
	case *ast.IdentExpr:
		return Var(ex.Name)

	case *ast.IndexExpr:
		offset := e.emitOffset(ex)
		result := e.prog.NewTemp()
		e.prog.Add(Quad{Op: OpArrLoad, Arg1: offset, Arg2: Var(ex.Array.Name), Result: result})
		return result

	case *ast.BinaryExpr:
		left := e.emitExpr(ex.Left)
		right := e.emitExpr(ex.Right)
		result := e.prog.NewTemp()
		e.prog.Add(Quad{Op: binaryOp(ex.Op), Arg1: left, Arg2: right, Result: result})
		return result

	default:
		// Literals and unary NOT always fold; reaching here means the
		// analyzer annotation is missing.
		e.internal(expr.Span(), "expression reached the emitter without a folded annotation")
		return Empty
	}
}

// emitOffset computes the byte offset operand for an array access. A folded
// index multiplies out at compile time; otherwise a MUL quadruple scales the
// index by the element size.
func (e *Emitter) emitOffset(ex *ast.IndexExpr) Operand {
	size := int32(intSize)
	if types.IsFloat(e.elementType(ex)) {
		size = floatSize
	}

	if info, ok := e.analyzer.ExprInfo(ex.Index); ok && info.IsFolded() {
		return Lit(symtab.IntValue(info.Folded.Int * size))
	}

	index := e.emitExpr(ex.Index)
	offset := e.prog.NewTemp()
	e.prog.Add(Quad{Op: OpMul, Arg1: index, Arg2: Lit(symtab.IntValue(size)), Result: offset})
	return offset
}

// elementType returns the element type of the array behind an index
// expression, defaulting to Int when the symbol is missing.
func (e *Emitter) elementType(ex *ast.IndexExpr) types.Type {
	sym, ok := e.analyzer.Table().Lookup(ex.Array.Name)
	if !ok {
		e.internal(ex.Array.Loc, "index into unknown symbol '%s'", ex.Array.Name)
		return types.Int
	}
	arr, isArray := sym.Type.(*types.ArrayType)
	if !isArray {
		e.internal(ex.Array.Loc, "index into non-array symbol '%s'", ex.Array.Name)
		return types.Int
	}
	return arr.Elem
}

// widenLiteral converts a folded Int literal operand to Float when the
// destination is Float, so 3 stored into a Float location renders as 3.0.
func widenLiteral(op Operand, target types.Type) Operand {
	if op.Kind == OperandLit && types.IsInt(op.Val.Type) && types.IsFloat(target) {
		return Lit(op.Val.Widen())
	}
	return op
}

func binaryOp(op ast.BinOp) Op {
	switch op {
	case ast.OpAdd:
		return OpAdd
	case ast.OpSub:
		return OpSub
	case ast.OpMul:
		return OpMul
	case ast.OpDiv:
		return OpDiv
	case ast.OpLess:
		return OpLT
	case ast.OpGreater:
		return OpGT
	case ast.OpLessEqual:
		return OpLE
	case ast.OpGreaterEqual:
		return OpGE
	case ast.OpEqual:
		return OpEQ
	case ast.OpNotEqual:
		return OpNE
	case ast.OpAnd:
		return OpAnd
	default:
		return OpOr
	}
}

func (e *Emitter) internal(span diag.Span, format string, args ...interface{}) {
	e.reporter.Errorf(diag.CodegenInternal, span, "internal: "+format, args...)
}
