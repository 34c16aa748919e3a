// Package diag provides source positions, spans, and the diagnostic reporter
// shared by every compiler phase.
//
// All user-visible problems flow through a single Reporter owned by the
// driver. Diagnostics are kept in insertion order so that the traversal order
// of the reporting phase is observable in the output.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Position is a location in the source text.
// Line and Column are 1-based; Offset is the 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a real line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is a half-open byte range [Start, End) in the source, together with
// the line and column of Start. Spans are the sole authority for diagnostic
// positioning: every token and AST node carries one.
type Span struct {
	Start  int
	End    int
	Line   int
	Column int
}

// NewSpan builds a span from a start position and an end offset.
func NewSpan(start Position, end int) Span {
	return Span{Start: start.Offset, End: end, Line: start.Line, Column: start.Column}
}

// Pos returns the position of the span's first character.
func (s Span) Pos() Position {
	return Position{Line: s.Line, Column: s.Column, Offset: s.Start}
}

// Union returns the smallest span covering both s and other.
// The line/column of the earlier start is kept.
func (s Span) Union(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
		out.Line = other.Line
		out.Column = other.Column
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d[%d..%d)", s.Line, s.Column, s.Start, s.End)
}

// Phase identifies the compiler stage that produced a diagnostic.
type Phase int

const (
	PhaseLexical Phase = iota
	PhaseSyntax
	PhaseSemantic
	PhaseCodegen
)

func (p Phase) String() string {
	switch p {
	case PhaseLexical:
		return "lexical"
	case PhaseSyntax:
		return "syntax"
	case PhaseSemantic:
		return "semantic"
	case PhaseCodegen:
		return "codegen"
	default:
		return "unknown"
	}
}

// Severity distinguishes errors from warnings. Warnings never stop
// compilation and are never promoted to errors.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Kind enumerates every diagnostic the compiler can emit, grouped by phase.
type Kind int

const (
	// Lexical
	UnknownCharacter Kind = iota
	MalformedIdentifier
	IntegerOutOfRange
	UnterminatedComment
	UnterminatedString

	// Syntax
	UnexpectedToken
	UnexpectedEOF
	MismatchedBracket

	// Semantic
	NotDeclared
	DuplicateDeclaration
	TypeMismatch
	InvalidArraySize
	ArrayLengthMismatch
	ArrayIndexOutOfBounds
	DivisionByZero
	SemanticOverflow
	InvalidLogicalOperand
	AssignmentToConstant
	InvalidInductionVariable
	InvalidInputTarget
	InvalidOutputArgument
	NonConstantInitializer
	ZeroStep
	EmptyLoop
	ChainedComparison

	// Codegen
	CodegenInternal
)

// Phase returns the compiler stage a diagnostic kind belongs to.
func (k Kind) Phase() Phase {
	switch {
	case k <= UnterminatedString:
		return PhaseLexical
	case k <= MismatchedBracket:
		return PhaseSyntax
	case k <= ChainedComparison:
		return PhaseSemantic
	default:
		return PhaseCodegen
	}
}

// Note attaches a secondary location to a diagnostic, such as the prior
// declaration site of a redeclared name.
type Note struct {
	Span    Span
	Message string
}

// Diagnostic is a single reported problem: a phase-tagged kind, a primary
// span, a one-sentence message, and an optional hint.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Span     Span
	Message  string
	Hint     string
	Notes    []Note
}

// Reporter accumulates diagnostics in insertion order.
// It is single-threaded by contract; every phase appends to the one reporter
// owned by the driver.
type Reporter struct {
	diags     []Diagnostic
	numErrors int
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report appends a diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	if d.Severity == SeverityError {
		r.numErrors++
	}
	r.diags = append(r.diags, d)
}

// Errorf reports an error diagnostic with a formatted message.
func (r *Reporter) Errorf(kind Kind, span Span, format string, args ...interface{}) {
	r.Report(Diagnostic{Kind: kind, Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Warningf reports a warning diagnostic with a formatted message.
func (r *Reporter) Warningf(kind Kind, span Span, format string, args ...interface{}) {
	r.Report(Diagnostic{Kind: kind, Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Warnings alone do not count.
func (r *Reporter) HasErrors() bool {
	return r.numErrors > 0
}

// ErrorCount returns the number of error-severity diagnostics recorded so
// far. Phases compare counts before and after to learn whether they failed.
func (r *Reporter) ErrorCount() int {
	return r.numErrors
}

// Diagnostics returns all recorded diagnostics in insertion order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}

// Render formats every diagnostic against the source text, with the offending
// line and a caret underline beneath the primary span.
func (r *Reporter) Render(source string) string {
	return RenderDiagnostics(r.diags, source)
}

// RenderDiagnostics formats a diagnostic slice against the source text. The
// driver uses it to render each phase's diagnostics exactly once.
func RenderDiagnostics(diags []Diagnostic, source string) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		renderOne(&b, d, source)
	}
	return b.String()
}

var (
	errorTag   = color.New(color.FgRed, color.Bold)
	warningTag = color.New(color.FgYellow, color.Bold)
	caretStyle = color.New(color.FgHiRed, color.Bold)
	gutter     = color.New(color.FgBlue)
)

func renderOne(b *strings.Builder, d Diagnostic, source string) {
	tag := d.Kind.Phase().String()
	style := errorTag
	if d.Severity == SeverityWarning {
		tag += " warning"
		style = warningTag
	}
	fmt.Fprintf(b, "%s: %s\n", style.Sprint(tag), d.Message)

	writeSourceLine(b, d.Span, source)

	for _, n := range d.Notes {
		fmt.Fprintf(b, "note: %s (at %s)\n", n.Message, n.Span.Pos())
	}
	if d.Hint != "" {
		fmt.Fprintf(b, "hint: %s\n", d.Hint)
	}
}

// writeSourceLine prints the line containing the span start with a caret
// range underneath. The underline is clamped to the end of the line.
func writeSourceLine(b *strings.Builder, span Span, source string) {
	if !span.Pos().IsValid() || span.Start > len(source) {
		return
	}
	lineStart := span.Start - (span.Column - 1)
	if lineStart < 0 {
		lineStart = 0
	}
	lineEnd := strings.IndexByte(source[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += lineStart
	}
	line := source[lineStart:lineEnd]

	prefix := fmt.Sprintf("%4d | ", span.Line)
	fmt.Fprintf(b, "%s%s\n", gutter.Sprint(prefix), line)

	length := span.Len()
	if max := lineEnd - span.Start; length > max {
		length = max
	}
	if length < 1 {
		length = 1
	}
	underline := "^" + strings.Repeat("~", length-1)
	pad := strings.Repeat(" ", span.Column-1)
	fmt.Fprintf(b, "%s%s%s\n", gutter.Sprint("     | "), pad, caretStyle.Sprint(underline))
}
