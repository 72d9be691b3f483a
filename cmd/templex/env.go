package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/krew-solutions/templex-go/templex/config"
)

// applyEnvironment sets every flag of command left unset on the command line
// from TEMPLEX_<COMMAND>_<FLAG>, so TEMPLEX_EVAL_ROOT fills --root of eval.
// Flags of the root command read TEMPLEX_<FLAG>.
func applyEnvironment(command *cobra.Command) error {
	v := viper.New()
	v.AutomaticEnv()
	if command.HasParent() {
		v.SetEnvPrefix(config.EnvPrefix + "_" + command.Name())
	} else {
		v.SetEnvPrefix(config.EnvPrefix)
	}

	var errs []string
	command.Flags().VisitAll(func(f *pflag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed || !v.IsSet(name) {
			return
		}
		if err := command.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(name))); err != nil {
			errs = append(errs, err.Error())
		}
	})
	if len(errs) == 0 {
		return nil
	}
	return errors.Errorf("environment: %s", strings.Join(errs, "; "))
}
