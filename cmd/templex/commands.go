package main

import (
	"github.com/spf13/cobra"

	"github.com/krew-solutions/templex-go/templex/config"
)

type configLoader func() (*config.Config, error)

func newRootCommand() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "templex",
		Short:         "Evaluate templex expressions over an entity graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnvironment(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (YAML)")

	load := func() (*config.Config, error) {
		return config.New(configFile)
	}
	root.AddCommand(
		newEvalCommand(load),
		newPathsCommand(load),
		newFmtCommand(),
		newGrantsCommand(load),
	)
	return root
}
