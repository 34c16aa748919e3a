package parser

import (
	"testing"

	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/lexer"
)

func parseSource(t *testing.T, source string) (*ast.Program, *diag.Reporter, bool) {
	t.Helper()
	r := diag.NewReporter()
	tokens := lexer.New(source, r).Scan()
	if r.HasErrors() {
		t.Fatalf("lexical errors in test input:\n%s", r.Render(source))
	}
	prog, ok := New(tokens, r).Parse()
	return prog, r, ok
}

func parseClean(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, r, ok := parseSource(t, source)
	if !ok {
		t.Fatalf("parse failed:\n%s", r.Render(source))
	}
	return prog
}

const miniProgram = `
MainPrgm Demo;
Var
  let x, y: Int;
  let f: Float = 1.5;
  let v: [Int; 3] = {1, 2, 3};
  @define Const limit: Int = 10;
BeginPg
{
  x := 1;
  if (x < limit) then {
    y := x + 1;
  } else {
    y := 0;
  }
  do {
    x := x + 1;
  } while (x < limit);
  for x from 1 to limit step 1 {
    v[0] := x;
  }
  input(y);
  output("y =", y);
}
EndPg;
`

func TestParseProgram(t *testing.T) {
	prog := parseClean(t, miniProgram)

	if prog.Name != "Demo" {
		t.Errorf("program name: got %q, want %q", prog.Name, "Demo")
	}
	if len(prog.Decls) != 4 {
		t.Fatalf("got %d declarations, want 4", len(prog.Decls))
	}
	if len(prog.Body.Stmts) != 6 {
		t.Fatalf("got %d statements, want 6", len(prog.Body.Stmts))
	}

	vars, ok := prog.Decls[0].(*ast.VarDecl)
	if !ok || len(vars.Names) != 2 || vars.Init != nil {
		t.Errorf("decl 0: want plain two-name var declaration, got %#v", prog.Decls[0])
	}
	init, ok := prog.Decls[1].(*ast.VarDecl)
	if !ok || init.Init == nil || !init.Type.IsFloat {
		t.Errorf("decl 1: want initialized Float declaration, got %#v", prog.Decls[1])
	}
	arr, ok := prog.Decls[2].(*ast.ArrayDecl)
	if !ok || len(arr.Init) != 3 {
		t.Errorf("decl 2: want array declaration with 3 initializers, got %#v", prog.Decls[2])
	}
	cons, ok := prog.Decls[3].(*ast.ConstDecl)
	if !ok || cons.Name.Name != "limit" {
		t.Errorf("decl 3: want constant 'limit', got %#v", prog.Decls[3])
	}

	if _, ok := prog.Body.Stmts[1].(*ast.IfStmt); !ok {
		t.Errorf("statement 1: want if, got %T", prog.Body.Stmts[1])
	}
	if _, ok := prog.Body.Stmts[2].(*ast.DoWhileStmt); !ok {
		t.Errorf("statement 2: want do-while, got %T", prog.Body.Stmts[2])
	}
	if _, ok := prog.Body.Stmts[3].(*ast.ForStmt); !ok {
		t.Errorf("statement 3: want for, got %T", prog.Body.Stmts[3])
	}
}

func wrap(body string) string {
	return "MainPrgm P;\nVar\n  let a, b, c: Int;\nBeginPg\n{\n" + body + "\n}\nEndPg;\n"
}

func firstAssign(t *testing.T, prog *ast.Program) *ast.AssignStmt {
	t.Helper()
	s, ok := prog.Body.Stmts[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("want assignment, got %T", prog.Body.Stmts[0])
	}
	return s
}

func TestParsePrecedence(t *testing.T) {
	// a + b * c parses as a + (b * c).
	prog := parseClean(t, wrap("a := a + b * c;"))
	value := firstAssign(t, prog).Value
	add, ok := value.(*ast.BinaryExpr)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("want top-level +, got %#v", value)
	}
	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("want * on the right of +, got %#v", add.Right)
	}
}

func TestParseComparisonBelowLogical(t *testing.T) {
	// a < b AND c parses as (a < b) AND c.
	prog := parseClean(t, wrap("a := a < b AND c;"))
	value := firstAssign(t, prog).Value
	and, ok := value.(*ast.BinaryExpr)
	if !ok || and.Op != ast.OpAnd {
		t.Fatalf("want top-level AND, got %#v", value)
	}
	cmp, ok := and.Left.(*ast.BinaryExpr)
	if !ok || cmp.Op != ast.OpLess {
		t.Fatalf("want < on the left of AND, got %#v", and.Left)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	// a - b - c parses as (a - b) - c.
	prog := parseClean(t, wrap("a := a - b - c;"))
	value := firstAssign(t, prog).Value
	outer, ok := value.(*ast.BinaryExpr)
	if !ok || outer.Op != ast.OpSub {
		t.Fatalf("want top-level -, got %#v", value)
	}
	if inner, ok := outer.Left.(*ast.BinaryExpr); !ok || inner.Op != ast.OpSub {
		t.Fatalf("want - on the left, got %#v", outer.Left)
	}
}

func TestParseParenthesesOverride(t *testing.T) {
	prog := parseClean(t, wrap("a := (a + b) * c;"))
	value := firstAssign(t, prog).Value
	mul, ok := value.(*ast.BinaryExpr)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("want top-level *, got %#v", value)
	}
	if add, ok := mul.Left.(*ast.BinaryExpr); !ok || add.Op != ast.OpAdd {
		t.Fatalf("want + on the left of *, got %#v", mul.Left)
	}
}

func TestParseHaltsAtFirstError(t *testing.T) {
	source := wrap("a := ;\nb ;= 1;")
	prog, r, ok := parseSource(t, source)
	if ok || prog != nil {
		t.Fatal("expected parse failure")
	}
	if got := len(r.Diagnostics()); got != 1 {
		t.Fatalf("got %d diagnostics, want exactly 1 (no recovery):\n%s", got, r.Render(source))
	}
	d := r.Diagnostics()[0]
	if d.Kind != diag.UnexpectedToken {
		t.Errorf("got kind %v, want UnexpectedToken", d.Kind)
	}
}

func TestParseUnexpectedEOF(t *testing.T) {
	_, r, ok := parseSource(t, "MainPrgm P;\nVar\nBeginPg\n{\n")
	if ok {
		t.Fatal("expected parse failure")
	}
	if got := r.Diagnostics()[0].Kind; got != diag.UnexpectedEOF {
		t.Errorf("got kind %v, want UnexpectedEOF", got)
	}
}

func TestParseMismatchedBracket(t *testing.T) {
	_, r, ok := parseSource(t, wrap("a := b[1); "))
	if ok {
		t.Fatal("expected parse failure")
	}
	if got := r.Diagnostics()[0].Kind; got != diag.MismatchedBracket {
		t.Errorf("got kind %v, want MismatchedBracket", got)
	}
}

func TestParseStringOnlyAtOutputTopLevel(t *testing.T) {
	// Strings are legal output arguments.
	parseClean(t, wrap(`output("value", a);`))

	// But not inside arithmetic subexpressions.
	_, r, ok := parseSource(t, wrap(`output("v" + a);`))
	if ok {
		t.Fatal("expected parse failure for a string inside arithmetic")
	}
	if got := r.Diagnostics()[0].Kind; got != diag.UnexpectedToken {
		t.Errorf("got kind %v, want UnexpectedToken", got)
	}
}

func TestParseSpansNested(t *testing.T) {
	source := wrap("a := b + c;")
	prog := parseClean(t, source)
	assign := firstAssign(t, prog)

	if assign.Loc.Start >= assign.Loc.End || assign.Loc.End > len(source) {
		t.Errorf("assignment span %v outside source bounds", assign.Loc)
	}
	value := assign.Value.Span()
	if value.Start < assign.Loc.Start || value.End > assign.Loc.End {
		t.Errorf("value span %v not inside statement span %v", value, assign.Loc)
	}
}

func TestParseEmptyStatement(t *testing.T) {
	prog := parseClean(t, wrap(";"))
	if _, ok := prog.Body.Stmts[0].(*ast.EmptyStmt); !ok {
		t.Errorf("want empty statement, got %T", prog.Body.Stmts[0])
	}
}
