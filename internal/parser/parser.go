// Package parser implements a recursive descent parser for MiniSoft.
//
// The grammar is LR(1); one token of lookahead decides every production, so
// a hand-written descent maps onto it directly. Expressions use precedence
// climbing with the levels: OR/AND, comparisons, additive, multiplicative,
// unary NOT, primaries. All binary operators are left-associative.
//
// The parser stops at the first syntax error. There is no panic-mode
// recovery: the error names the unexpected token and the set of tokens that
// would have been legal, and the driver halts the stage.
package parser

import (
	"strings"

	"github.com/minisoft-lang/minisoft/internal/ast"
	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/lexer"
)

// Parser consumes a token stream produced by the lexer.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	reporter *diag.Reporter
}

// bailout unwinds the parser after the first reported error.
type bailout struct{}

// New creates a parser over tokens. Syntax errors go to r.
func New(tokens []lexer.Token, r *diag.Reporter) *Parser {
	return &Parser{tokens: tokens, reporter: r}
}

// Parse parses a complete program. On a syntax error the partial tree is
// discarded and ok is false; the diagnostic is already in the reporter.
func (p *Parser) Parse() (prog *ast.Program, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			prog, ok = nil, false
		}
	}()
	return p.parseProgram(), true
}

// parseProgram parses:
//
//	MainPrgm Id ; Var decl* BeginPg block EndPg ;
func (p *Parser) parseProgram() *ast.Program {
	start := p.expect(lexer.TokenMainPrgm)
	name := p.expect(lexer.TokenIdentifier)
	p.expect(lexer.TokenSemicolon)
	p.expect(lexer.TokenVar)

	var decls []ast.Decl
	for p.check(lexer.TokenLet) || p.check(lexer.TokenDefine) {
		decls = append(decls, p.parseDecl())
	}

	p.expect(lexer.TokenBeginPg)
	body := p.parseBlock()
	p.expect(lexer.TokenEndPg)
	end := p.expect(lexer.TokenSemicolon)

	if !p.check(lexer.TokenEOF) {
		p.errorExpected("end of program")
	}

	return &ast.Program{
		Name:     name.Lexeme,
		NameSpan: name.Span,
		Decls:    decls,
		Body:     body,
		Loc:      start.Span.Union(end.Span),
	}
}

// parseDecl parses one Var-section declaration.
func (p *Parser) parseDecl() ast.Decl {
	if p.check(lexer.TokenDefine) {
		return p.parseConstDecl()
	}
	return p.parseLetDecl()
}

// parseLetDecl parses the four let forms: scalar with or without an
// initializer, and array with or without an initializer list.
func (p *Parser) parseLetDecl() ast.Decl {
	start := p.expect(lexer.TokenLet)
	names := p.parseIdentList()
	p.expect(lexer.TokenColon)

	if p.match(lexer.TokenLeftBracket) {
		elem := p.parseTypeSpec()
		p.expect(lexer.TokenSemicolon)
		length := p.parseLengthLiteral()
		p.expectClosing(lexer.TokenRightBracket)

		var init []ast.Expr
		var initLoc diag.Span
		if p.match(lexer.TokenEquals) {
			open := p.expect(lexer.TokenLeftBrace)
			if !p.check(lexer.TokenRightBrace) {
				init = append(init, p.parseExpr())
				for p.match(lexer.TokenComma) {
					init = append(init, p.parseExpr())
				}
			}
			close := p.expectClosing(lexer.TokenRightBrace)
			initLoc = open.Span.Union(close.Span)
		}
		end := p.expect(lexer.TokenSemicolon)
		return &ast.ArrayDecl{
			Names:   names,
			Elem:    elem,
			Len:     length,
			Init:    init,
			InitLoc: initLoc,
			Loc:     start.Span.Union(end.Span),
		}
	}

	typ := p.parseTypeSpec()
	var init ast.Expr
	if p.match(lexer.TokenEquals) {
		init = p.parseExpr()
	}
	end := p.expect(lexer.TokenSemicolon)
	return &ast.VarDecl{
		Names: names,
		Type:  typ,
		Init:  init,
		Loc:   start.Span.Union(end.Span),
	}
}

// parseConstDecl parses: @define Const Id : type = literal ;
func (p *Parser) parseConstDecl() ast.Decl {
	start := p.expect(lexer.TokenDefine)
	p.expect(lexer.TokenConst)
	name := p.expect(lexer.TokenIdentifier)
	p.expect(lexer.TokenColon)
	typ := p.parseTypeSpec()
	p.expect(lexer.TokenEquals)
	value := p.parseLiteral()
	end := p.expect(lexer.TokenSemicolon)
	return &ast.ConstDecl{
		Name:  &ast.IdentExpr{Name: name.Lexeme, Loc: name.Span},
		Type:  typ,
		Value: value,
		Loc:   start.Span.Union(end.Span),
	}
}

func (p *Parser) parseIdentList() []*ast.IdentExpr {
	var names []*ast.IdentExpr
	tok := p.expect(lexer.TokenIdentifier)
	names = append(names, &ast.IdentExpr{Name: tok.Lexeme, Loc: tok.Span})
	for p.match(lexer.TokenComma) {
		tok = p.expect(lexer.TokenIdentifier)
		names = append(names, &ast.IdentExpr{Name: tok.Lexeme, Loc: tok.Span})
	}
	return names
}

func (p *Parser) parseTypeSpec() ast.TypeSpec {
	switch {
	case p.match(lexer.TokenInt):
		return ast.TypeSpec{IsFloat: false, Loc: p.previous().Span}
	case p.match(lexer.TokenFloat):
		return ast.TypeSpec{IsFloat: true, Loc: p.previous().Span}
	default:
		p.errorExpected("Int or Float")
		panic(bailout{})
	}
}

// parseLengthLiteral parses the array length, which the grammar restricts to
// an integer literal.
func (p *Parser) parseLengthLiteral() ast.Expr {
	tok := p.expect(lexer.TokenIntLit)
	return &ast.IntLit{Value: tok.Int, Loc: tok.Span}
}

// parseLiteral parses a literal token of any kind. The analyzer checks that
// the literal's type fits the declaration.
func (p *Parser) parseLiteral() ast.Expr {
	switch {
	case p.match(lexer.TokenIntLit):
		t := p.previous()
		return &ast.IntLit{Value: t.Int, Loc: t.Span}
	case p.match(lexer.TokenFloatLit):
		t := p.previous()
		return &ast.FloatLit{Value: t.Float, Loc: t.Span}
	case p.match(lexer.TokenStringLit):
		t := p.previous()
		return &ast.StringLit{Value: t.Str, Loc: t.Span}
	default:
		p.errorExpected("a literal")
		panic(bailout{})
	}
}

// Statements

func (p *Parser) parseBlock() *ast.Block {
	open := p.expect(lexer.TokenLeftBrace)
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		stmts = append(stmts, p.parseStmt())
	}
	close := p.expectClosing(lexer.TokenRightBrace)
	return &ast.Block{Stmts: stmts, Loc: open.Span.Union(close.Span)}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.check(lexer.TokenSemicolon):
		tok := p.advance()
		return &ast.EmptyStmt{Loc: tok.Span}
	case p.check(lexer.TokenIf):
		return p.parseIf()
	case p.check(lexer.TokenDo):
		return p.parseDoWhile()
	case p.check(lexer.TokenFor):
		return p.parseFor()
	case p.check(lexer.TokenInput):
		return p.parseInput()
	case p.check(lexer.TokenOutput):
		return p.parseOutput()
	case p.check(lexer.TokenIdentifier):
		return p.parseAssign()
	case p.check(lexer.TokenLeftBrace):
		return p.parseBlock()
	default:
		p.errorExpected("a statement (assignment, if, do, for, input, or output)")
		panic(bailout{})
	}
}

// parseAssign parses: lvalue := expr ;
func (p *Parser) parseAssign() ast.Stmt {
	target := p.parseLValue()
	p.expect(lexer.TokenAssign)
	value := p.parseExpr()
	end := p.expect(lexer.TokenSemicolon)
	return &ast.AssignStmt{
		Target: target,
		Value:  value,
		Loc:    target.Span().Union(end.Span),
	}
}

// parseIf parses: if ( expr ) then block (else block)?
func (p *Parser) parseIf() ast.Stmt {
	start := p.expect(lexer.TokenIf)
	p.expect(lexer.TokenLeftParen)
	cond := p.parseExpr()
	p.expectClosing(lexer.TokenRightParen)
	p.expect(lexer.TokenThen)
	then := p.parseBlock()

	var elseBlock *ast.Block
	if p.match(lexer.TokenElse) {
		elseBlock = p.parseBlock()
	}

	loc := start.Span.Union(then.Loc)
	if elseBlock != nil {
		loc = loc.Union(elseBlock.Loc)
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBlock, Loc: loc}
}

// parseDoWhile parses: do block while ( expr ) ;
func (p *Parser) parseDoWhile() ast.Stmt {
	start := p.expect(lexer.TokenDo)
	body := p.parseBlock()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLeftParen)
	cond := p.parseExpr()
	p.expectClosing(lexer.TokenRightParen)
	end := p.expect(lexer.TokenSemicolon)
	return &ast.DoWhileStmt{Body: body, Cond: cond, Loc: start.Span.Union(end.Span)}
}

// parseFor parses: for Id from expr to expr step expr block
func (p *Parser) parseFor() ast.Stmt {
	start := p.expect(lexer.TokenFor)
	name := p.expect(lexer.TokenIdentifier)
	p.expect(lexer.TokenFrom)
	from := p.parseExpr()
	p.expect(lexer.TokenTo)
	to := p.parseExpr()
	p.expect(lexer.TokenStep)
	step := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{
		Var:  &ast.IdentExpr{Name: name.Lexeme, Loc: name.Span},
		From: from,
		To:   to,
		Step: step,
		Body: body,
		Loc:  start.Span.Union(body.Loc),
	}
}

// parseInput parses: input ( lvalue ) ;
func (p *Parser) parseInput() ast.Stmt {
	start := p.expect(lexer.TokenInput)
	p.expect(lexer.TokenLeftParen)
	target := p.parseLValue()
	p.expectClosing(lexer.TokenRightParen)
	end := p.expect(lexer.TokenSemicolon)
	return &ast.InputStmt{Target: target, Loc: start.Span.Union(end.Span)}
}

// parseOutput parses: output ( arg (, arg)* ) ;
// Arguments are expressions, plus string literals at the top level only.
func (p *Parser) parseOutput() ast.Stmt {
	start := p.expect(lexer.TokenOutput)
	p.expect(lexer.TokenLeftParen)
	var args []ast.Expr
	args = append(args, p.parseOutputArg())
	for p.match(lexer.TokenComma) {
		args = append(args, p.parseOutputArg())
	}
	p.expectClosing(lexer.TokenRightParen)
	end := p.expect(lexer.TokenSemicolon)
	return &ast.OutputStmt{Args: args, Loc: start.Span.Union(end.Span)}
}

func (p *Parser) parseOutputArg() ast.Expr {
	if p.match(lexer.TokenStringLit) {
		t := p.previous()
		return &ast.StringLit{Value: t.Str, Loc: t.Span}
	}
	return p.parseExpr()
}

// parseLValue parses an assignment or input target: Id or Id [ expr ].
func (p *Parser) parseLValue() ast.Expr {
	name := p.expect(lexer.TokenIdentifier)
	ident := &ast.IdentExpr{Name: name.Lexeme, Loc: name.Span}
	if p.match(lexer.TokenLeftBracket) {
		index := p.parseExpr()
		close := p.expectClosing(lexer.TokenRightBracket)
		return &ast.IndexExpr{Array: ident, Index: index, Loc: name.Span.Union(close.Span)}
	}
	return ident
}

// Expressions, lowest precedence first.

func (p *Parser) parseExpr() ast.Expr {
	return p.parseLogical()
}

func (p *Parser) parseLogical() ast.Expr {
	left := p.parseComparison()
	for p.check(lexer.TokenAnd) || p.check(lexer.TokenOr) {
		opTok := p.advance()
		op := ast.OpAnd
		if opTok.Type == lexer.TokenOr {
			op = ast.OpOr
		}
		right := p.parseComparison()
		left = &ast.BinaryExpr{
			Left: left, Op: op, OpSpan: opTok.Span, Right: right,
			Loc: left.Span().Union(right.Span()),
		}
	}
	return left
}

// parseComparison accepts chains of comparisons left-associatively; the
// analyzer warns when a comparison operand is itself a comparison.
func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinOp
		switch p.current().Type {
		case lexer.TokenLess:
			op = ast.OpLess
		case lexer.TokenGreater:
			op = ast.OpGreater
		case lexer.TokenLessEqual:
			op = ast.OpLessEqual
		case lexer.TokenGreaterEqual:
			op = ast.OpGreaterEqual
		case lexer.TokenEqualEqual:
			op = ast.OpEqual
		case lexer.TokenNotEqual:
			op = ast.OpNotEqual
		default:
			return left
		}
		opTok := p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{
			Left: left, Op: op, OpSpan: opTok.Span, Right: right,
			Loc: left.Span().Union(right.Span()),
		}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		opTok := p.advance()
		op := ast.OpAdd
		if opTok.Type == lexer.TokenMinus {
			op = ast.OpSub
		}
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{
			Left: left, Op: op, OpSpan: opTok.Span, Right: right,
			Loc: left.Span().Union(right.Span()),
		}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) {
		opTok := p.advance()
		op := ast.OpMul
		if opTok.Type == lexer.TokenSlash {
			op = ast.OpDiv
		}
		right := p.parseUnary()
		left = &ast.BinaryExpr{
			Left: left, Op: op, OpSpan: opTok.Span, Right: right,
			Loc: left.Span().Union(right.Span()),
		}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.match(lexer.TokenNot) {
		opTok := p.previous()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Operand: operand, Loc: opTok.Span.Union(operand.Span())}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	switch {
	case p.match(lexer.TokenIntLit):
		t := p.previous()
		return &ast.IntLit{Value: t.Int, Loc: t.Span}
	case p.match(lexer.TokenFloatLit):
		t := p.previous()
		return &ast.FloatLit{Value: t.Float, Loc: t.Span}
	case p.check(lexer.TokenIdentifier):
		return p.parseLValue()
	case p.match(lexer.TokenLeftParen):
		expr := p.parseExpr()
		p.expectClosing(lexer.TokenRightParen)
		return expr
	default:
		p.errorExpected("an expression")
		panic(bailout{})
	}
}

// Token stream helpers

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

func (p *Parser) match(tt lexer.TokenType) bool {
	if !p.check(tt) {
		return false
	}
	p.advance()
	return true
}

// expect consumes a token of the given type or reports the first syntax
// error and unwinds.
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if p.check(tt) {
		return p.advance()
	}
	p.errorExpected(tt.String())
	panic(bailout{})
}

// expectClosing is expect for closing brackets; when a different closing
// bracket is found the diagnostic uses the mismatched-bracket kind.
func (p *Parser) expectClosing(tt lexer.TokenType) lexer.Token {
	if p.check(tt) {
		return p.advance()
	}
	cur := p.current()
	switch cur.Type {
	case lexer.TokenRightParen, lexer.TokenRightBracket, lexer.TokenRightBrace:
		p.reporter.Errorf(diag.MismatchedBracket, cur.Span,
			"mismatched bracket: found %s, expected %s", cur.Type, tt)
		panic(bailout{})
	}
	p.errorExpected(tt.String())
	panic(bailout{})
}

// errorExpected reports an unexpected-token or unexpected-end-of-input
// diagnostic naming what would have been legal.
func (p *Parser) errorExpected(expected ...string) {
	cur := p.current()
	want := strings.Join(expected, " or ")
	if cur.Type == lexer.TokenEOF {
		p.reporter.Errorf(diag.UnexpectedEOF, cur.Span,
			"unexpected end of input, expected %s", want)
		return
	}
	p.reporter.Errorf(diag.UnexpectedToken, cur.Span,
		"unexpected token %s, expected %s", cur.Type, want)
}
