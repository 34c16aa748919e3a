package semantic

import (
	"strings"
	"testing"

	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/lexer"
	"github.com/minisoft-lang/minisoft/internal/parser"
	"github.com/minisoft-lang/minisoft/internal/types"
)

// analyze runs the front half of the pipeline over a full program.
func analyze(t *testing.T, source string) (*Analyzer, *ast.Program, *diag.Reporter, bool) {
	t.Helper()
	r := diag.NewReporter()
	tokens := lexer.New(source, r).Scan()
	if r.HasErrors() {
		t.Fatalf("lexical errors in test input:\n%s", r.Render(source))
	}
	prog, ok := parser.New(tokens, r).Parse()
	if !ok {
		t.Fatalf("syntax errors in test input:\n%s", r.Render(source))
	}
	a := New(r)
	return a, prog, r, a.Analyze(prog)
}

func analyzeClean(t *testing.T, source string) (*Analyzer, *ast.Program) {
	t.Helper()
	a, prog, r, ok := analyze(t, source)
	if !ok {
		t.Fatalf("unexpected semantic errors:\n%s", r.Render(source))
	}
	return a, prog
}

// errorKinds collects the kinds of all error-severity diagnostics.
func errorKinds(r *diag.Reporter) []diag.Kind {
	var kinds []diag.Kind
	for _, d := range r.Diagnostics() {
		if d.Severity == diag.SeverityError {
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}

func wantKind(t *testing.T, r *diag.Reporter, kind diag.Kind) {
	t.Helper()
	for _, k := range errorKinds(r) {
		if k == kind {
			return
		}
	}
	t.Fatalf("diagnostic kind %v not reported; got %v", kind, errorKinds(r))
}

func prg(decls, body string) string {
	return "MainPrgm P;\nVar\n" + decls + "\nBeginPg\n{\n" + body + "\n}\nEndPg;\n"
}

func TestDuplicateDeclaration(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let a: Int;\nlet a: Float;", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.DuplicateDeclaration)

	// The diagnostic references both declaration sites.
	for _, d := range r.Diagnostics() {
		if d.Kind == diag.DuplicateDeclaration {
			if len(d.Notes) != 1 {
				t.Fatalf("duplicate diagnostic has %d notes, want 1", len(d.Notes))
			}
			if d.Notes[0].Span.Line >= d.Span.Line {
				t.Errorf("note span line %d should precede primary span line %d",
					d.Notes[0].Span.Line, d.Span.Line)
			}
		}
	}
}

func TestPassOneContinuesAfterError(t *testing.T) {
	// Both redeclarations are reported in one run.
	_, _, r, ok := analyze(t,
		prg("let a: Int;\nlet a: Float;\nlet b: Int;\nlet b: Float;", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	if got := len(errorKinds(r)); got != 2 {
		t.Errorf("got %d errors, want 2:\n%s", got, r.Render(""))
	}
}

func TestConstantFolding(t *testing.T) {
	a, _ := analyzeClean(t, prg(
		"@define Const base: Int = 10;\nlet x: Int = base * 3 + 2;\nlet f: Float = 5;",
		""))

	x, _ := a.Table().Lookup("x")
	if x.Value == nil || x.Value.Int != 32 {
		t.Errorf("x folded to %v, want 32", x.Value)
	}
	f, _ := a.Table().Lookup("f")
	if f.Value == nil || !types.IsFloat(f.Value.Type) || f.Value.Float != 5.0 {
		t.Errorf("f folded to %v, want Float 5.0 (widened)", f.Value)
	}
}

func TestArrayInitializerFolding(t *testing.T) {
	a, _ := analyzeClean(t, prg("let v: [Float; 2] = {1, 2.5};", ""))
	v, _ := a.Table().Lookup("v")
	if len(v.Elems) != 2 {
		t.Fatalf("got %d folded elements, want 2", len(v.Elems))
	}
	if v.Elems[0].Float != 1.0 || v.Elems[1].Float != 2.5 {
		t.Errorf("folded vector = %v, want [1.0 2.5]", v.Elems)
	}
}

func TestArrayLengthMismatch(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let v: [Int; 3] = {1, 2};", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.ArrayLengthMismatch)
}

func TestInvalidArraySize(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let v: [Int; 0];", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.InvalidArraySize)
}

func TestConstantRequiresExactType(t *testing.T) {
	_, _, r, ok := analyze(t, prg("@define Const pi: Float = 3;", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.TypeMismatch)

	found := false
	for _, d := range r.Diagnostics() {
		if d.Kind == diag.TypeMismatch && strings.Contains(d.Hint, "widen") {
			found = true
		}
	}
	if !found {
		t.Error("expected the widening hint on the constant type mismatch")
	}
}

func TestNonConstantInitializer(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let a: Int = 1;\nlet b: Int = a + 1;", ""))
	if ok {
		t.Fatal("expected semantic failure: 'a' is a variable, not a constant")
	}
	wantKind(t, r, diag.NonConstantInitializer)
}

func TestArrayIndexOutOfBounds(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("let v: [Int; 3] = {1, 2, 3};", "v[5] := 0;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.ArrayIndexOutOfBounds)
}

func TestDivisionByZeroFolded(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let z: Int = 10 / (5 - 5);", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.DivisionByZero)
}

func TestFoldingOverflow(t *testing.T) {
	_, _, r, ok := analyze(t, prg(
		"@define Const big: Int = 30000;\nlet huge: Int = big * big * big;", ""))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.SemanticOverflow)
}

func TestWideningAssignment(t *testing.T) {
	a, prog := analyzeClean(t, prg("let f: Float;", "f := 3;"))

	assign := prog.Body.Stmts[0].(*ast.AssignStmt)
	vt, ok := a.ExprInfo(assign.Value)
	if !ok || !vt.IsFolded() || vt.Folded.Int != 3 {
		t.Fatalf("value annotation = %v, want folded Int 3", vt)
	}
	f, _ := a.Table().Lookup("f")
	if !types.IsFloat(f.Type) {
		t.Errorf("f has type %s, want Float", f.Type)
	}
}

func TestNarrowingAssignmentRejected(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let i: Int;", "i := 2.5;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.TypeMismatch)
}

func TestMixedArithmeticIntoIntRejected(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("let i: Int;\nlet f: Float;", "i := i + f;"))
	if ok {
		t.Fatal("expected semantic failure: Int + Float is Float")
	}
	wantKind(t, r, diag.TypeMismatch)
}

func TestAssignmentToConstant(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("@define Const k: Int = 1;", "k := 2;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.AssignmentToConstant)
}

func TestWholeArrayAssignmentRejected(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("let v: [Int; 2];\nlet x: Int;", "v := x;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.TypeMismatch)
}

func TestBareIdentifierCondition(t *testing.T) {
	// Any Int expression is a valid condition, including a bare identifier.
	analyzeClean(t, prg("let x: Int;", "if (x) then { x := 0; }"))
}

func TestFloatConditionRejected(t *testing.T) {
	_, _, r, ok := analyze(t, prg("let f: Float;", "if (f) then { ; }"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.TypeMismatch)
}

func TestUnaryNotRequiresFoldedBit(t *testing.T) {
	// Folded to 0 or 1: accepted and toggled.
	a, prog := analyzeClean(t,
		prg("let x: Int;\n@define Const yes: Int = 1;", "x := !yes;"))
	assign := prog.Body.Stmts[0].(*ast.AssignStmt)
	vt, _ := a.ExprInfo(assign.Value)
	if !vt.IsFolded() || vt.Folded.Int != 0 {
		t.Errorf("!1 folded to %v, want 0", vt.Folded)
	}

	// A non-folded operand is rejected.
	_, _, r, ok := analyze(t, prg("let x: Int;", "x := !x;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.InvalidLogicalOperand)
}

func TestLogicalOperandsMustBeInt(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("let x: Int;\nlet f: Float;", "x := x AND f;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	wantKind(t, r, diag.TypeMismatch)
}

func TestForLoopChecks(t *testing.T) {
	t.Run("zero step", func(t *testing.T) {
		_, _, r, ok := analyze(t,
			prg("let i: Int;", "for i from 1 to 10 step 0 { ; }"))
		if ok {
			t.Fatal("expected semantic failure")
		}
		wantKind(t, r, diag.ZeroStep)
	})

	t.Run("empty loop warns", func(t *testing.T) {
		_, _, r, ok := analyze(t,
			prg("let i: Int;", "for i from 1 to 10 step (-1) { ; }"))
		if !ok {
			t.Fatalf("empty loop must stay a warning:\n%s", r.Render(""))
		}
		warned := false
		for _, d := range r.Diagnostics() {
			if d.Kind == diag.EmptyLoop && d.Severity == diag.SeverityWarning {
				warned = true
			}
		}
		if !warned {
			t.Error("expected an empty-loop warning")
		}
	})

	t.Run("constant induction variable", func(t *testing.T) {
		_, _, r, ok := analyze(t,
			prg("@define Const k: Int = 1;", "for k from 1 to 10 step 1 { ; }"))
		if ok {
			t.Fatal("expected semantic failure")
		}
		wantKind(t, r, diag.InvalidInductionVariable)
	})

	t.Run("float bound", func(t *testing.T) {
		_, _, r, ok := analyze(t,
			prg("let i: Int;", "for i from 1 to 2.5 step 1 { ; }"))
		if ok {
			t.Fatal("expected semantic failure")
		}
		wantKind(t, r, diag.TypeMismatch)
	})
}

func TestChainedComparisonWarns(t *testing.T) {
	_, _, r, ok := analyze(t,
		prg("let x: Int;", "if (1 < x < 3) then { ; }"))
	if !ok {
		t.Fatalf("chained comparison must stay a warning:\n%s", r.Render(""))
	}
	warned := false
	for _, d := range r.Diagnostics() {
		if d.Kind == diag.ChainedComparison && d.Severity == diag.SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a chained-comparison warning")
	}
}

func TestInputTargets(t *testing.T) {
	analyzeClean(t, prg("let x: Int;\nlet v: [Float; 2];", "input(x);\ninput(v[1]);"))

	_, _, r, ok := analyze(t, prg("@define Const k: Int = 1;", "input(k);"))
	if ok {
		t.Fatal("expected semantic failure for input into a constant")
	}
	wantKind(t, r, diag.AssignmentToConstant)
}

func TestOutputArguments(t *testing.T) {
	analyzeClean(t,
		prg("let x: Int;\nlet v: [Int; 2];", `output("x is", x, v[0]);`))

	_, _, r, ok := analyze(t, prg("let v: [Int; 2];", "output(v);"))
	if ok {
		t.Fatal("expected semantic failure for whole-array output")
	}
	wantKind(t, r, diag.InvalidOutputArgument)
}

func TestPassTwoAccumulates(t *testing.T) {
	// Several independent statement errors are all reported in one run.
	_, _, r, ok := analyze(t, prg("let x: Int;",
		"y := 1;\nx := 2.5;\nz := 3;"))
	if ok {
		t.Fatal("expected semantic failure")
	}
	if got := len(errorKinds(r)); got != 3 {
		t.Errorf("got %d errors, want 3 (analysis must not halt early)", got)
	}
}

func TestEveryExpressionAnnotatedOnce(t *testing.T) {
	a, prog := analyzeClean(t,
		prg("let x: Int;\nlet f: Float;", "x := 1 + 2 * 3;\nf := x + 0.5;"))

	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if _, ok := a.ExprInfo(e); !ok {
			t.Errorf("expression %T at %v has no annotation", e, e.Span())
		}
		switch ex := e.(type) {
		case *ast.BinaryExpr:
			walk(ex.Left)
			walk(ex.Right)
		case *ast.IndexExpr:
			walk(ex.Index)
		}
	}
	for _, stmt := range prog.Body.Stmts {
		if assign, ok := stmt.(*ast.AssignStmt); ok {
			walk(assign.Value)
		}
	}
}
