// Package driver sequences the compiler phases and maps failures to process
// exit codes. It owns the source text, the diagnostic reporter, and all
// printing; the phases themselves never write output.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/sanity-io/litter"

	"github.com/minisoft-lang/minisoft/internal/diag"
	"github.com/minisoft-lang/minisoft/internal/lexer"
	"github.com/minisoft-lang/minisoft/internal/parser"
	"github.com/minisoft-lang/minisoft/internal/quad"
	"github.com/minisoft-lang/minisoft/internal/semantic"
	"github.com/minisoft-lang/minisoft/internal/symtab"
)

// Exit codes, one per failing stage.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitLexical  = 2
	ExitSyntax   = 3
	ExitSemantic = 4
	ExitCodegen  = 5
	ExitIO       = 6
)

// ExitError carries the process exit code for a failed stage.
type ExitError struct {
	Code  int
	Stage string
}

func (e *ExitError) Error() string {
	return e.Stage + " failed"
}

// Options selects the optional debug dumps. Quadruples print by default on
// success; the rest are opt-in.
type Options struct {
	ShowTokens  bool
	ShowAST     bool
	ShowSymbols bool
}

// Compile runs the full pipeline over the file at path. Diagnostics go to
// stderr, dumps and the final quadruple listing to stdout. The returned
// error, if any, is an *ExitError.
func Compile(path string, opts Options, stdout, stderr io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "error reading %s: %v\n", path, err)
		return &ExitError{Code: ExitIO, Stage: "reading " + path}
	}
	// The source stays in memory for the whole compilation so every phase
	// can render spans against it.
	source := string(data)
	reporter := diag.NewReporter()

	tokens := lexer.New(source, reporter).Scan()
	if opts.ShowTokens {
		printTokens(stdout, tokens)
	}
	if reporter.HasErrors() {
		fmt.Fprint(stderr, reporter.Render(source))
		return &ExitError{Code: ExitLexical, Stage: "lexical analysis"}
	}

	program, ok := parser.New(tokens, reporter).Parse()
	if !ok {
		fmt.Fprint(stderr, reporter.Render(source))
		return &ExitError{Code: ExitSyntax, Stage: "parsing"}
	}
	if opts.ShowAST {
		fmt.Fprintln(stdout, litter.Sdump(program))
	}

	analyzer := semantic.New(reporter)
	analysisOK := analyzer.Analyze(program)
	// Warnings print even when analysis succeeds.
	if diags := reporter.Diagnostics(); len(diags) > 0 {
		fmt.Fprint(stderr, diag.RenderDiagnostics(diags, source))
	}
	if !analysisOK {
		return &ExitError{Code: ExitSemantic, Stage: "semantic analysis"}
	}
	if opts.ShowSymbols {
		printSymbols(stdout, analyzer.Table())
	}

	rendered := len(reporter.Diagnostics())
	ir, ok := quad.NewEmitter(analyzer, reporter).Emit(program)
	if !ok {
		fmt.Fprint(stderr, diag.RenderDiagnostics(reporter.Diagnostics()[rendered:], source))
		return &ExitError{Code: ExitCodegen, Stage: "code generation"}
	}

	fmt.Fprint(stdout, ir.Listing())
	return nil
}

func printTokens(w io.Writer, tokens []lexer.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%-16s %-20q line %d, col %d\n",
			tok.Type, tok.Lexeme, tok.Span.Line, tok.Span.Column)
	}
}

func printSymbols(w io.Writer, table *symtab.Table) {
	for _, sym := range table.Symbols() {
		value := "<uninitialized>"
		switch {
		case sym.Value != nil:
			value = sym.Value.String()
		case sym.Elems != nil:
			value = "{"
			for i, el := range sym.Elems {
				if i > 0 {
					value += ", "
				}
				value += el.String()
			}
			value += "}"
		}
		mutated := ""
		if sym.Mutated {
			mutated = " (mutated)"
		}
		fmt.Fprintf(w, "%-8s %s (%s) = %s at %s%s\n",
			sym.Kind, sym.Name, sym.Type, value, sym.Decl.Pos(), mutated)
	}
}
