// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by the subcommands once the root command has
// resolved the configuration.
type app struct {
	v   *viper.Viper
	cfg *config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	cmd := &cobra.Command{
		Use:   "probetable",
		Short: "Load (outer, inner, value) datasets into linear-probing hash tables",
		Long: "probetable loads YAML datasets of (outer, inner, value) triples into a\n" +
			"double-key hash table and reports on its contents and shape.\n\n" +
			"Settings are read from --config, PROBETABLE_* environment variables\n" +
			"and flags, with flags taking precedence.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.v, configFile)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a YAML config file")
	flags.StringSlice("outer-sizes", nil, "ascending capacities of the outer table")
	flags.StringSlice("inner-sizes", nil, "ascending capacities of the inner tables (default: outer sizes)")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.Bool("json", false, "print results as JSON")
	if err := bindFlags(a.v, cmd, map[string]string{
		"outer_sizes": "outer-sizes",
		"inner_sizes": "inner-sizes",
		"log_level":   "log-level",
		"json":        "json",
	}); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		newLoadCmd(a),
		newGetCmd(a),
		newKeysCmd(a),
		newTrieCmd(a),
	)
	return cmd
}

// bindFlags binds each config key to the persistent flag of the given name.
func bindFlags(v *viper.Viper, cmd *cobra.Command, flags map[string]string) error {
	for key, name := range flags {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			return errors.Wrapf(err, "binding %s to --%s", key, name)
		}
	}
	return nil
}
