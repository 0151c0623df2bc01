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

	"github.com/cockroachdb/probetable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type entry struct {
	Outer string `yaml:"outer"`
	Inner string `yaml:"inner"`
	Value string `yaml:"value"`
}

type dataset struct {
	Entries []entry `yaml:"entries"`
}

func readDataset(path string) (*dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading dataset")
	}
	var ds dataset
	if err := yaml.Unmarshal(b, &ds); err != nil {
		return nil, errors.Wrapf(err, "parsing dataset %s", path)
	}
	return &ds, nil
}

type doubleKeyTable = probetable.DoubleKeyTable[string, string, string]

func newTable(c *config) *doubleKeyTable {
	outer := c.OuterSizes
	if len(outer) == 0 {
		outer = probetable.DefaultSizes
	}
	inner := c.InnerSizes
	if len(inner) == 0 {
		inner = outer
	}
	return probetable.NewDoubleKeyTable(
		probetable.WithOuterSizes[string, string, string](outer...),
		probetable.WithInnerSizes[string, string, string](inner...),
		probetable.WithDoubleKeyLogger[string, string, string](log.Logger),
	)
}

// loadTable reads the dataset at path into a new table. Later entries for
// the same pair overwrite earlier ones.
func loadTable(c *config, path string) (*doubleKeyTable, error) {
	ds, err := readDataset(path)
	if err != nil {
		return nil, err
	}
	d := newTable(c)
	for i, e := range ds.Entries {
		if err := d.Put(e.Outer, e.Inner, e.Value); err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "entry %d (%q, %q)", i, e.Outer, e.Inner)
		}
	}
	log.Debug().Int("entries", d.Len()).Str("path", path).Msg("loaded dataset")
	return d, nil
}

func loadTrie(path string) (*probetable.TrieTable[string, string], error) {
	ds, err := readDataset(path)
	if err != nil {
		return nil, err
	}
	t := probetable.NewTrieTable[string, string](
		probetable.WithTrieLogger[string, string](log.Logger))
	for i, e := range ds.Entries {
		if err := t.Put(e.Inner, e.Value); err != nil {
			return nil, errors.Wrapf(err, "entry %d (%q)", i, e.Inner)
		}
	}
	return t, nil
}
