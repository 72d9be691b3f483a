package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/templex-go/templex/config"
)

type pathsCommandParams struct {
	expr string
	root string
}

func newPathsCommand(load configLoader) *cobra.Command {
	var params pathsCommandParams
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List the paths an expression reads",
		Long: `List the scalar paths an expression selects and the navigation paths it
includes, checked against the configured schema and grants. No entity is
fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			// Discovery needs no data, so the configured store is never opened.
			cfg.Store.Driver, cfg.Store.Fixtures = config.DriverMemory, ""
			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.close()
			return runPaths(rt, params, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&params.expr, "expr", "e", "", "expression to inspect")
	cmd.Flags().StringVarP(&params.root, "root", "r", "", "collection of the root entities")
	_ = cmd.MarkFlagRequired("expr")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func runPaths(rt *runtime, params pathsCommandParams, out io.Writer) error {
	tpl, err := rt.engine.Compile(params.expr, params.root, rt.grants)
	if err != nil {
		return err
	}
	plan := tpl.Plan()
	for _, p := range plan.Select {
		fmt.Fprintf(out, "select\t%s\n", p)
	}
	for _, p := range plan.Include {
		fmt.Fprintf(out, "include\t%s\n", p)
	}
	return nil
}
