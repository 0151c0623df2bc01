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
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// config is assembled by viper from, in increasing priority, the config
// file, PROBETABLE_* environment variables and command line flags.
type config struct {
	OuterSizes []int  `mapstructure:"outer_sizes"`
	InnerSizes []int  `mapstructure:"inner_sizes"`
	LogLevel   string `mapstructure:"log_level"`
	JSON       bool   `mapstructure:"json"`
}

func loadConfig(v *viper.Viper, path string) (*config, error) {
	v.SetEnvPrefix("probetable")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", "warn")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var c config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := checkSizes(c.OuterSizes); err != nil {
		return nil, errors.Wrap(err, "outer_sizes")
	}
	if err := checkSizes(c.InnerSizes); err != nil {
		return nil, errors.Wrap(err, "inner_sizes")
	}
	return &c, nil
}

// checkSizes validates a size sequence ahead of the table constructors,
// which panic on bad sequences. An empty sequence selects the defaults.
func checkSizes(sizes []int) error {
	for i, n := range sizes {
		if n < 2 {
			return errors.Errorf("size %d at position %d is less than 2", n, i)
		}
		if i > 0 && n <= sizes[i-1] {
			return errors.Errorf("sizes are not ascending: %v", sizes)
		}
	}
	return nil
}

func setupLogging(c *config) error {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}
