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
	"fmt"
	"iter"

	"github.com/rs/zerolog"
)

// DoubleKeyTable is an unordered map from pairs of keys (K1, K2) to values.
// It is an outer Table mapping each first key to an inner Table that maps
// second keys to values. The outer table owns its inner tables: an inner
// table is created by the first Put of its first key and is closed and
// removed by the Delete of its last entry, so the outer table never holds
// an empty inner table.
//
// Each level grows independently. Inner tables grow through the inner size
// sequence like any Table. When the outer table passes its load factor the
// whole structure is rebuilt by Rehash.
//
// A DoubleKeyTable is NOT goroutine-safe.
type DoubleKeyTable[K1, K2 Key, V any] struct {
	outer          *Table[K1, *Table[K2, V]]
	outerSizes     []int
	innerSizes     []int
	outerHash      HashFunc[K1]
	innerHash      HashFunc[K2]
	innerAllocator Allocator[K2, V]
	logger         zerolog.Logger
	// The number of (K1, K2) entries across all inner tables.
	count int
}

// NewDoubleKeyTable constructs an empty DoubleKeyTable. Unless configured
// otherwise both levels use DefaultSizes and PolynomialHash.
func NewDoubleKeyTable[K1, K2 Key, V any](options ...doubleOption[K1, K2, V]) *DoubleKeyTable[K1, K2, V] {
	d := &DoubleKeyTable[K1, K2, V]{
		outerSizes:     DefaultSizes,
		outerHash:      PolynomialHash[K1],
		innerHash:      PolynomialHash[K2],
		innerAllocator: defaultAllocator[K2, V]{},
		logger:         zerolog.Nop(),
	}
	for _, op := range options {
		op.apply(d)
	}
	if d.innerSizes == nil {
		d.innerSizes = d.outerSizes
	}
	d.outer = d.newOuter(0)
	d.checkInvariants()
	return d
}

func (d *DoubleKeyTable[K1, K2, V]) newOuter(sizeIndex int) *Table[K1, *Table[K2, V]] {
	t := &Table[K1, *Table[K2, V]]{
		hash:      d.outerHash,
		allocator: defaultAllocator[K1, *Table[K2, V]]{},
		logger:    d.logger.With().Str("table", "outer").Logger(),
		sizes:     d.outerSizes,
		sizeIndex: sizeIndex,
	}
	t.slots = t.allocator.Alloc(d.outerSizes[sizeIndex])
	return t
}

// newInner returns an empty inner table at the first inner size. Its hash
// is the second-key hash; the table passes its own capacity on every call.
func (d *DoubleKeyTable[K1, K2, V]) newInner() *Table[K2, V] {
	t := &Table[K2, V]{
		hash:      d.innerHash,
		allocator: d.innerAllocator,
		logger:    d.logger.With().Str("table", "inner").Logger(),
		sizes:     d.innerSizes,
	}
	t.slots = t.allocator.Alloc(d.innerSizes[0])
	return t
}

// Close closes the table and every inner table, releasing their backing
// arrays. It is invalid to use a DoubleKeyTable after it has been closed.
func (d *DoubleKeyTable[K1, K2, V]) Close() {
	d.outer.All(func(_ K1, inner *Table[K2, V]) bool {
		inner.Close()
		return true
	})
	d.outer.Close()
	d.count = 0
}

// locate finds the outer slot for k1 and the slot for k2 in its inner
// table. When insert is true and k1 is absent, a new inner table is
// allocated and returned, but it is not installed: outerPos is the empty
// outer slot it belongs in. When insert is false a missing key at either
// level fails with ErrNotFound and nothing is allocated.
func (d *DoubleKeyTable[K1, K2, V]) locate(
	k1 K1, k2 K2, insert bool,
) (outerPos int, inner *Table[K2, V], innerPos int, err error) {
	outerPos, err = d.outer.probe(k1, insert)
	if err != nil {
		return -1, nil, -1, err
	}
	if d.outer.slots.occupied(outerPos) {
		inner = d.outer.slots[outerPos].value
	} else {
		inner = d.newInner()
	}
	innerPos, err = inner.probe(k2, insert)
	if err != nil {
		return outerPos, inner, -1, err
	}
	return outerPos, inner, innerPos, nil
}

// Get retrieves the value stored under (k1, k2), returning an error
// wrapping ErrNotFound if either key is absent.
func (d *DoubleKeyTable[K1, K2, V]) Get(k1 K1, k2 K2) (value V, err error) {
	_, inner, i, err := d.locate(k1, k2, false)
	if err != nil {
		return value, err
	}
	return inner.slots[i].value, nil
}

// Contains reports whether an entry is stored under (k1, k2).
func (d *DoubleKeyTable[K1, K2, V]) Contains(k1 K1, k2 K2) bool {
	_, err := d.Get(k1, k2)
	return err == nil
}

// Put stores value under (k1, k2), overwriting an existing value. The inner
// table for k1 is created if this is the first entry for k1.
func (d *DoubleKeyTable[K1, K2, V]) Put(k1 K1, k2 K2, value V) error {
	o, inner, i, err := d.locate(k1, k2, true)
	if err != nil {
		return err
	}
	if !d.outer.slots.occupied(o) {
		if debug {
			d.logger.Trace().Str("key1", string(k1)).Int("slot", o).Msg("creating inner table")
		}
		d.outer.slots.set(o, k1, inner)
		d.outer.used++
	}
	if !inner.slots.occupied(i) {
		inner.used++
		d.count++
	}
	inner.slots.set(i, k2, value)

	if inner.overloaded() {
		inner.grow()
	}
	if d.outer.overloaded() {
		if d.outer.sizeIndex+1 < len(d.outerSizes) {
			d.Rehash()
		} else {
			// Logs that the sequence is exhausted and leaves the outer
			// table as it is.
			d.outer.grow()
		}
	}
	d.checkInvariants()
	return nil
}

// Delete deletes the entry stored under (k1, k2), returning an error
// wrapping ErrNotFound if either key is absent. Deleting the last entry for
// k1 removes k1 and closes its inner table.
func (d *DoubleKeyTable[K1, K2, V]) Delete(k1 K1, k2 K2) error {
	_, inner, _, err := d.locate(k1, k2, false)
	if err != nil {
		return err
	}
	if err := inner.Delete(k2); err != nil {
		return err
	}
	d.count--

	if inner.Len() == 0 {
		if err := d.outer.Delete(k1); err != nil {
			panic(fmt.Sprintf("removing empty inner table for %q: %v", string(k1), err))
		}
		inner.Close()
		d.logger.Debug().Str("key1", string(k1)).Msg("removed empty inner table")
	}
	d.checkInvariants()
	return nil
}

// Rehash rebuilds the table. The outer table is reallocated at the next
// size in the outer size sequence that keeps its load factor at or below
// 1/2, or at its current size once the sequence is exhausted. Every inner
// table is replaced by a fresh one starting at the first inner size, and
// all entries are reinserted. Iteration order after a Rehash generally
// differs from the order before it.
//
// Put calls Rehash whenever the outer table passes its load factor and a
// larger outer size remains.
func (d *DoubleKeyTable[K1, K2, V]) Rehash() {
	old := d.outer
	next := old.sizeIndex
	if next+1 < len(d.outerSizes) {
		next++
		for next+1 < len(d.outerSizes) && 2*old.used > d.outerSizes[next] {
			next++
		}
	} else {
		d.logger.Warn().
			Int("capacity", len(old.slots)).
			Int("keys", old.used).
			Msg("outer size sequence exhausted; rehashing in place")
	}

	d.logger.Debug().
		Int("from", len(old.slots)).
		Int("to", d.outerSizes[next]).
		Int("keys", old.used).
		Int("entries", d.count).
		Msg("full rehash")

	d.outer = d.newOuter(next)
	old.All(func(k1 K1, oldInner *Table[K2, V]) bool {
		inner := d.newInner()
		oldInner.All(func(k2 K2, v V) bool {
			if err := inner.Put(k2, v); err != nil {
				panic(fmt.Sprintf("rehash: reinserting (%q, %q): %v", string(k1), string(k2), err))
			}
			return true
		})
		oldInner.Close()
		if _, err := d.outer.put(k1, inner); err != nil {
			panic(fmt.Sprintf("rehash: reinserting %q: %v", string(k1), err))
		}
		return true
	})
	old.Close()
	d.checkInvariants()
}

// Keys returns an iterator over the first keys, in outer backing array
// order.
func (d *DoubleKeyTable[K1, K2, V]) Keys() iter.Seq[K1] {
	return d.outer.Keys()
}

// InnerKeys returns an iterator over the second keys stored under k1, in
// the backing array order of k1's inner table. It returns an error wrapping
// ErrNotFound if k1 is absent.
func (d *DoubleKeyTable[K1, K2, V]) InnerKeys(k1 K1) (iter.Seq[K2], error) {
	inner, err := d.outer.Get(k1)
	if err != nil {
		return nil, err
	}
	return inner.Keys(), nil
}

// Values returns an iterator over every value in the table. Values are
// visited inner table by inner table in outer backing array order, and
// within an inner table in its backing array order.
func (d *DoubleKeyTable[K1, K2, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		d.All(func(_ K1, _ K2, v V) bool {
			return yield(v)
		})
	}
}

// InnerValues returns an iterator over the values stored under k1. It
// returns an error wrapping ErrNotFound if k1 is absent.
func (d *DoubleKeyTable[K1, K2, V]) InnerValues(k1 K1) (iter.Seq[V], error) {
	inner, err := d.outer.Get(k1)
	if err != nil {
		return nil, err
	}
	return inner.Values(), nil
}

// All calls yield sequentially for each entry in the table, in the order
// Values visits them. If yield returns false, iteration stops.
func (d *DoubleKeyTable[K1, K2, V]) All(yield func(k1 K1, k2 K2, value V) bool) {
	d.outer.All(func(k1 K1, inner *Table[K2, V]) bool {
		more := true
		inner.All(func(k2 K2, v V) bool {
			more = yield(k1, k2, v)
			return more
		})
		return more
	})
}

// Len returns the number of (K1, K2) entries in the table.
func (d *DoubleKeyTable[K1, K2, V]) Len() int {
	return d.count
}

// TableSize returns the capacity of the outer table. This is the number of
// outer slots, not the number of entries.
func (d *DoubleKeyTable[K1, K2, V]) TableSize() int {
	return d.outer.Capacity()
}
