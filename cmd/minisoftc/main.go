// Command minisoftc compiles a MiniSoft source file to quadruple IR.
//
// Exit codes: 0 success, 1 usage, 2 lexical, 3 syntax, 4 semantic,
// 5 codegen, 6 I/O.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minisoft-lang/minisoft/internal/driver"
)

var opts driver.Options

var rootCmd = &cobra.Command{
	Use:   "minisoftc <source-file>",
	Short: "minisoftc — MiniSoft batch compiler",
	Long: `minisoftc compiles a single MiniSoft source file and prints the
quadruple intermediate representation, one instruction per line.

Diagnostics from the failing stage are printed to stderr with the offending
source line underlined.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return driver.Compile(args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&opts.ShowTokens, "tokens", false, "print the token stream")
	rootCmd.Flags().BoolVar(&opts.ShowAST, "ast", false, "dump the syntax tree")
	rootCmd.Flags().BoolVar(&opts.ShowSymbols, "symbols", false, "print the symbol table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *driver.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(driver.ExitUsage)
	}
}
