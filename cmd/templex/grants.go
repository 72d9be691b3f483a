package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/templex-go/templex/masktrie"
	"github.com/krew-solutions/templex-go/templex/path"
)

func newGrantsCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "Encode and inspect permission grants",
	}
	cmd.AddCommand(newGrantsEncodeCommand(), newGrantsListCommand(load))
	return cmd
}

type grantsEncodeCommandParams struct {
	grants []string
	output string
}

func newGrantsEncodeCommand() *cobra.Command {
	var params grantsEncodeCommandParams
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write granted paths as a canonical permission file",
		Long: `Write granted paths as a canonical CBOR permission file, the format read from
permissions.file. Equal grants always produce identical bytes.`,
		Example: `  templex grants encode --grant Amount --grant Center.IsActive --output grants.cbor`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.output == "" {
				return runGrantsEncode(params.grants, cmd.OutOrStdout())
			}
			f, err := os.Create(params.output)
			if err != nil {
				return err
			}
			if err := runGrantsEncode(params.grants, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringArrayVarP(&params.grants, "grant", "g", nil, "granted dotted path (repeatable)")
	cmd.Flags().StringVarP(&params.output, "output", "o", "", "file to write, stdout when empty")
	_ = cmd.MarkFlagRequired("grant")
	return cmd
}

func runGrantsEncode(grants []string, out io.Writer) error {
	paths := make([]path.Path, 0, len(grants))
	for _, dotted := range grants {
		p, err := path.Parse(dotted)
		if err != nil {
			return errors.Wrapf(err, "grant %q", dotted)
		}
		paths = append(paths, p)
	}
	data, err := masktrie.Encode(masktrie.FromPaths(paths...))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func newGrantsListCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the configured grants, one path per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			grants, err := cfg.Grants()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if grants == nil {
				_, err = fmt.Fprintln(out, "unrestricted")
				return err
			}
			for _, p := range grants.Paths() {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}
