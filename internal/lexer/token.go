package lexer

import "github.com/minisoft-lang/minisoft/internal/diag"

// TokenType identifies the kind of a token. An int enum keeps comparisons
// cheap and lets the parser switch directly on the type.
type TokenType int

const (
	// TokenEOF marks the end of the input. It is a real token with a span so
	// that "unexpected end of input" diagnostics have a position.
	TokenEOF TokenType = iota

	// Literals
	TokenIntLit
	TokenFloatLit
	TokenStringLit

	// TokenIdentifier is a user-defined name. The name is in Lexeme.
	TokenIdentifier

	// Keywords, program structure
	TokenMainPrgm
	TokenVar
	TokenBeginPg
	TokenEndPg
	TokenLet
	TokenDefine
	TokenConst
	TokenInt
	TokenFloat

	// Keywords, control flow
	TokenIf
	TokenThen
	TokenElse
	TokenDo
	TokenWhile
	TokenFor
	TokenFrom
	TokenTo
	TokenStep

	// Keywords, I/O
	TokenInput
	TokenOutput

	// Keywords, logical operators
	TokenAnd
	TokenOr

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenAssign       // :=
	TokenEquals       // =
	TokenEqualEqual   // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenNot          // !

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenComma        // ,
	TokenSemicolon    // ;
	TokenColon        // :
)

// Token is a single lexical unit with its original lexeme and source span.
// Literal tokens additionally carry their parsed value: the lexer is the one
// place that validates literal well-formedness, so later phases never
// re-parse text.
type Token struct {
	Type   TokenType
	Lexeme string
	Span   diag.Span

	Int   int32   // value for TokenIntLit
	Float float64 // value for TokenFloatLit
	Str   string  // unquoted value for TokenStringLit
}

func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Span.Pos().String()
}

func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenIntLit:
		return "INT_LITERAL"
	case TokenFloatLit:
		return "FLOAT_LITERAL"
	case TokenStringLit:
		return "STRING_LITERAL"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenMainPrgm:
		return "MainPrgm"
	case TokenVar:
		return "Var"
	case TokenBeginPg:
		return "BeginPg"
	case TokenEndPg:
		return "EndPg"
	case TokenLet:
		return "let"
	case TokenDefine:
		return "@define"
	case TokenConst:
		return "Const"
	case TokenInt:
		return "Int"
	case TokenFloat:
		return "Float"
	case TokenIf:
		return "if"
	case TokenThen:
		return "then"
	case TokenElse:
		return "else"
	case TokenDo:
		return "do"
	case TokenWhile:
		return "while"
	case TokenFor:
		return "for"
	case TokenFrom:
		return "from"
	case TokenTo:
		return "to"
	case TokenStep:
		return "step"
	case TokenInput:
		return "input"
	case TokenOutput:
		return "output"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenPlus:
		return "'+'"
	case TokenMinus:
		return "'-'"
	case TokenStar:
		return "'*'"
	case TokenSlash:
		return "'/'"
	case TokenAssign:
		return "':='"
	case TokenEquals:
		return "'='"
	case TokenEqualEqual:
		return "'=='"
	case TokenNotEqual:
		return "'!='"
	case TokenLess:
		return "'<'"
	case TokenGreater:
		return "'>'"
	case TokenLessEqual:
		return "'<='"
	case TokenGreaterEqual:
		return "'>='"
	case TokenNot:
		return "'!'"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenLeftBracket:
		return "'['"
	case TokenRightBracket:
		return "']'"
	case TokenLeftBrace:
		return "'{'"
	case TokenRightBrace:
		return "'}'"
	case TokenComma:
		return "','"
	case TokenSemicolon:
		return "';'"
	case TokenColon:
		return "':'"
	default:
		return "UNKNOWN"
	}
}

// keywords maps keyword lexemes to their token types. Keywords win over
// identifiers, which is how MainPrgm and AND stay reserved even though the
// identifier shape rules would reject them anyway.
var keywords = map[string]TokenType{
	"MainPrgm": TokenMainPrgm,
	"Var":      TokenVar,
	"BeginPg":  TokenBeginPg,
	"EndPg":    TokenEndPg,
	"let":      TokenLet,
	"Const":    TokenConst,
	"Int":      TokenInt,
	"Float":    TokenFloat,
	"if":       TokenIf,
	"then":     TokenThen,
	"else":     TokenElse,
	"do":       TokenDo,
	"while":    TokenWhile,
	"for":      TokenFor,
	"from":     TokenFrom,
	"to":       TokenTo,
	"step":     TokenStep,
	"input":    TokenInput,
	"output":   TokenOutput,
	"AND":      TokenAnd,
	"OR":       TokenOr,
}

// LookupKeyword returns the keyword type for a scanned word, or
// TokenIdentifier if the word is not reserved.
func LookupKeyword(word string) TokenType {
	if tt, ok := keywords[word]; ok {
		return tt
	}
	return TokenIdentifier
}

// IsKeyword reports whether the token type is a reserved word.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenMainPrgm && tt <= TokenOr
}
