package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/templex-go/templex/domain/parser"
)

func newFmtCommand() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Print an expression in canonical form",
		Long: `Print an expression in canonical form: keyword operators, double quoted
text and only the parentheses precedence requires. Without --expr the
expression is read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("expr") {
				source, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				expr = string(source)
			}
			return runFmt(expr, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "expression to format")
	return cmd
}

func runFmt(source string, out io.Writer) error {
	node, err := parser.Parse(strings.TrimSpace(source))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, node.String())
	return err
}
