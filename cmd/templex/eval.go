package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/templex-go/templex/config"
	"github.com/krew-solutions/templex-go/templex/value"
)

type evalCommandParams struct {
	expr string
	root string
	keys []string
}

func newEvalCommand(load configLoader) *cobra.Command {
	var params evalCommandParams
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate an expression for root entities",
		Long: `Evaluate an expression for one or more root entities.

Every key prints one line: the key, a tab and the value. A row that fails
prints its error instead and the command exits non-zero once all rows are
printed.`,
		Example: `  templex eval --root Invoices --expr '"Invoice " + SerialNumber' --key 1 --key 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runEval(cmd.Context(), cfg, params, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&params.expr, "expr", "e", "", "expression to evaluate")
	cmd.Flags().StringVarP(&params.root, "root", "r", "", "collection of the root entities")
	cmd.Flags().StringArrayVarP(&params.keys, "key", "k", nil, "key of a root entity (repeatable)")
	_ = cmd.MarkFlagRequired("expr")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func runEval(ctx context.Context, cfg *config.Config, params evalCommandParams, out io.Writer) error {
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	tpl, err := rt.engine.Compile(params.expr, params.root, rt.grants)
	if err != nil {
		return err
	}
	rows, err := rt.engine.EvaluateBatch(ctx, tpl, params.keys)
	if err != nil {
		return err
	}
	failed := 0
	for _, row := range rows {
		if row.Err != nil {
			failed++
			fmt.Fprintf(out, "%s\terror: %s\n", row.Key, row.Err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", row.Key, render(row.Value))
	}
	if failed > 0 {
		return errors.Errorf("%d of %d rows failed", failed, len(rows))
	}
	return nil
}

func render(v value.Value) string {
	if v.IsNull() {
		return "null"
	}
	return v.String()
}
