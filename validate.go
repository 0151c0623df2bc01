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

package probetable

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

func (t *Table[K, V]) checkInvariants() {
	if invariants {
		if err := t.validate(); err != nil {
			panic(errors.Wrapf(err, "invariant failed\n%s", t.debugString()).Error())
		}
	}
}

// validate checks that every occupied slot is reachable by probing for its
// key, that the used count matches the occupied slots, and that the load
// factor is at most 1/2 unless the size sequence is exhausted.
func (t *Table[K, V]) validate() error {
	var result *multierror.Error
	var used int
	for i := range t.slots {
		if !t.slots.occupied(i) {
			continue
		}
		used++
		key := t.slots[i].key
		if j, err := t.probe(key, false); err != nil {
			result = multierror.Append(result, errors.Errorf("slot(%d): %q not found: %v", i, string(key), err))
		} else if j != i {
			result = multierror.Append(result, errors.Errorf("slot(%d): %q found at slot(%d)", i, string(key), j))
		}
	}
	if used != t.used {
		result = multierror.Append(result,
			errors.Errorf("found %d used slots, but used count is %d", used, t.used))
	}
	if t.overloaded() && t.sizeIndex+1 < len(t.sizes) {
		result = multierror.Append(result,
			errors.Errorf("load factor %d/%d exceeds 1/2", t.used, len(t.slots)))
	}
	if t.slots != nil && len(t.slots) != t.sizes[t.sizeIndex] {
		result = multierror.Append(result,
			errors.Errorf("capacity %d does not match sizes[%d]=%d", len(t.slots), t.sizeIndex, t.sizes[t.sizeIndex]))
	}
	return result.ErrorOrNil()
}

func (d *DoubleKeyTable[K1, K2, V]) checkInvariants() {
	if invariants {
		if err := d.validate(); err != nil {
			panic(errors.Wrap(err, "invariant failed").Error())
		}
	}
}

// validate checks the outer and every inner table, that no inner table is
// empty, and that the aggregate count is the sum of the inner counts.
func (d *DoubleKeyTable[K1, K2, V]) validate() error {
	var result *multierror.Error
	if err := d.outer.validate(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "outer"))
	}
	var count int
	d.outer.All(func(k1 K1, inner *Table[K2, V]) bool {
		if inner.Len() == 0 {
			result = multierror.Append(result, errors.Errorf("inner(%q): empty", string(k1)))
		}
		if err := inner.validate(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "inner(%q)", string(k1)))
		}
		count += inner.Len()
		return true
	})
	if count != d.count {
		result = multierror.Append(result,
			errors.Errorf("inner tables hold %d entries, but count is %d", count, d.count))
	}
	return result.ErrorOrNil()
}

func (t *TrieTable[K, V]) checkInvariants() {
	if invariants {
		if err := t.validate(); err != nil {
			panic(errors.Wrap(err, "invariant failed").Error())
		}
	}
}

// validate checks that every node's count matches the entries beneath it,
// that every child node holds at least two entries, and that only terminal
// slots hold more than one entry in a leaf.
func (t *TrieTable[K, V]) validate() error {
	var result *multierror.Error
	var walk func(n *trieNode[K, V], path []int) int
	walk = func(n *trieNode[K, V], path []int) int {
		var count int
		for i := range n.slots {
			s := &n.slots[i]
			switch {
			case s.child != nil:
				c := walk(s.child, append(path, i))
				if c < 2 {
					result = multierror.Append(result, errors.Errorf("node%v: child holds %d entries", append(path, i), c))
				}
				count += c
			case len(s.leaf) > 1 && i != terminalSlot:
				result = multierror.Append(result, errors.Errorf("node%v: %d entries in non-terminal leaf", append(path, i), len(s.leaf)))
				count += len(s.leaf)
			default:
				count += len(s.leaf)
			}
		}
		if count != n.count {
			result = multierror.Append(result, errors.Errorf("node%v: holds %d entries, but count is %d", path, count, n.count))
		}
		return count
	}
	walk(&t.root, nil)
	return result.ErrorOrNil()
}
