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
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"
)

type loadStats struct {
	Entries    int     `json:"entries"`
	OuterKeys  int     `json:"outerKeys"`
	TableSize  int     `json:"tableSize"`
	LoadFactor float64 `json:"loadFactor"`
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a dataset and print table statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadTable(a.cfg, args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			s := loadStats{Entries: d.Len(), TableSize: d.TableSize()}
			for range d.Keys() {
				s.OuterKeys++
			}
			s.LoadFactor = float64(s.OuterKeys) / float64(s.TableSize)

			w := cmd.OutOrStdout()
			if a.cfg.JSON {
				return writeJSON(w, s)
			}
			fmt.Fprintf(w, "entries:     %s\n", humanize.Comma(int64(s.Entries)))
			fmt.Fprintf(w, "outer keys:  %s\n", humanize.Comma(int64(s.OuterKeys)))
			fmt.Fprintf(w, "table size:  %s\n", humanize.Comma(int64(s.TableSize)))
			fmt.Fprintf(w, "load factor: %s\n", humanize.FtoaWithDigits(s.LoadFactor, 3))
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <outer> <inner>",
		Short: "Print the value stored under a key pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadTable(a.cfg, args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			v, err := d.Get(args[1], args[2])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if a.cfg.JSON {
				return writeJSON(w, map[string]string{
					"outer": args[1], "inner": args[2], "value": v,
				})
			}
			fmt.Fprintln(w, v)
			return nil
		},
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file> [outer]",
		Short: "List the outer keys, or the inner keys stored under an outer key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadTable(a.cfg, args[0])
			if err != nil {
				return err
			}
			defer d.Close()

			keys := d.Keys()
			if len(args) == 2 {
				if keys, err = d.InnerKeys(args[1]); err != nil {
					return err
				}
			}
			var out []string
			for k := range keys {
				out = append(out, k)
			}

			w := cmd.OutOrStdout()
			if a.cfg.JSON {
				return writeJSON(w, out)
			}
			for _, k := range out {
				fmt.Fprintln(w, k)
			}
			return nil
		},
	}
}

type trieLocation struct {
	Key  string `json:"key"`
	Path []int  `json:"path"`
}

func newTrieCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trie <file>",
		Short: "Load the inner keys into a trie table and print where each one lives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTrie(args[0])
			if err != nil {
				return err
			}

			var out []trieLocation
			for k := range t.Keys() {
				path, err := t.Location(k)
				if err != nil {
					return errors.Wrapf(err, "locating %q", k)
				}
				out = append(out, trieLocation{Key: k, Path: path})
			}

			w := cmd.OutOrStdout()
			if a.cfg.JSON {
				return writeJSON(w, out)
			}
			for _, l := range out {
				fmt.Fprintf(w, "%s\t%v\n", l.Key, l.Path)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonnet.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
