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

// Package probetable implements open-addressing hash tables keyed by
// character sequences.
//
// # Tables
//
// Table is a flat linear-probing hash table. Each key hashes to a home slot
// and lives in the first slot at or after its home slot (wrapping around the
// end of the array) that is not occupied by another key. Lookups follow the
// same path and stop at the key or at the first empty slot. There are no
// tombstones: deleting a key empties its slot and then re-places every entry
// in the cluster that follows it, so no probe path ever crosses a hole.
//
// Capacities are drawn from an ascending size sequence (DefaultSizes unless
// configured). Once an insert leaves more than half of the slots occupied the
// table moves to the next size and reinserts every entry in array order. The
// order in which iteration visits entries is the order of the backing array,
// so it changes whenever the table grows.
//
// DoubleKeyTable maps a pair of keys to a value. It is an outer Table from
// the first key to an inner Table from the second key to the value. Inner
// tables are created on the first insert of their first key and are removed
// as soon as their last entry is deleted.
//
// TrieTable is a table that never resizes. Slots hold either an entry or a
// nested table that disambiguates colliding keys by their next character.
//
// None of the tables are goroutine-safe.
package probetable

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const debug = false

// Table is an unordered map from keys to values with Put, Get, Delete, and
// All operations, implemented with linear probing over a backing array whose
// capacity comes from a configured size sequence.
//
// A Table is NOT goroutine-safe.
type Table[K Key, V any] struct {
	hash      HashFunc[K]
	allocator Allocator[K, V]
	logger    zerolog.Logger
	// sizes is the ascending sequence of capacities. sizeIndex is the
	// position in sizes of the current capacity.
	sizes     []int
	sizeIndex int
	slots     backingArray[K, V]
	// The number of occupied slots.
	used int
	// exhausted is set once the table wanted to grow past the last size.
	exhausted bool
}

// New constructs a new Table at the first capacity of its size sequence.
func New[K Key, V any](options ...option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		hash:      PolynomialHash[K],
		allocator: defaultAllocator[K, V]{},
		logger:    zerolog.Nop(),
		sizes:     DefaultSizes,
	}
	for _, op := range options {
		op.apply(t)
	}
	t.slots = t.allocator.Alloc(t.sizes[0])
	t.checkInvariants()
	return t
}

// Close closes the table, releasing its backing array to the configured
// allocator. It is unnecessary to close a table using the default allocator.
// It is invalid to use a Table after it has been closed, though Close itself
// is idempotent.
func (t *Table[K, V]) Close() {
	if t.slots != nil {
		t.allocator.Free(t.slots)
		t.slots = nil
		t.used = 0
	}
}

// Put inserts an entry into the table, overwriting an existing value if an
// entry with the same key already exists. Put grows the table when the
// insert leaves it more than half full.
func (t *Table[K, V]) Put(key K, value V) error {
	if _, err := t.put(key, value); err != nil {
		return err
	}
	if t.overloaded() {
		t.grow()
	}
	t.checkInvariants()
	return nil
}

// put is Put without growth. It reports whether key was newly added.
func (t *Table[K, V]) put(key K, value V) (added bool, err error) {
	i, err := t.probe(key, true)
	if err != nil {
		return false, err
	}
	if !t.slots.occupied(i) {
		t.used++
		added = true
	}
	t.slots.set(i, key, value)
	return added, nil
}

// Get retrieves the value for key, returning an error wrapping ErrNotFound
// if the key is not present.
func (t *Table[K, V]) Get(key K) (value V, err error) {
	i, err := t.probe(key, false)
	if err != nil {
		return value, err
	}
	return t.slots[i].value, nil
}

// Contains reports whether key is present in the table.
func (t *Table[K, V]) Contains(key K) bool {
	_, err := t.probe(key, false)
	return err == nil
}

// Delete deletes the entry corresponding to key, returning an error
// wrapping ErrNotFound if the key is not present.
func (t *Table[K, V]) Delete(key K) error {
	i, err := t.probe(key, false)
	if err != nil {
		return err
	}
	t.slots.take(i)
	t.used--

	// Entries after i in the same cluster may have probed past i to reach
	// their slot. Re-place each of them so that the hole at i does not cut
	// their probe path. The walk stops at the first empty slot, which ends
	// the cluster.
	capacity := len(t.slots)
	for n, j := 1, (i+1)%capacity; n < capacity && t.slots.occupied(j); n, j = n+1, (j+1)%capacity {
		s := t.slots.take(j)
		k, err := t.probe(s.key, true)
		if err != nil {
			panic(fmt.Sprintf("re-placing %q after delete: %v\n%s", string(s.key), err, t.debugString()))
		}
		t.slots.set(k, s.key, s.value)
		if debug && k != j {
			t.logger.Trace().Int("from", j).Int("to", k).Msg("delete: moved entry")
		}
	}
	t.checkInvariants()
	return nil
}

// Clear deletes all entries from the table, retaining its capacity.
func (t *Table[K, V]) Clear() {
	t.slots.clear()
	t.used = 0
	t.checkInvariants()
}

// All calls yield sequentially for each key and value present in the table,
// in backing array order. If yield returns false, iteration stops. All
// iterates the backing array current when it is called; the effect of
// mutating the table during iteration is unspecified.
func (t *Table[K, V]) All(yield func(key K, value V) bool) {
	slots := t.slots
	for i := range slots {
		if slots.occupied(i) {
			if !yield(slots[i].key, slots[i].value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys of the table in backing array
// order.
func (t *Table[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		t.All(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Values returns an iterator over the values of the table in backing array
// order.
func (t *Table[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		t.All(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

// Len returns the number of entries in the table.
func (t *Table[K, V]) Len() int {
	return t.used
}

// Capacity returns the number of slots in the backing array.
func (t *Table[K, V]) Capacity() int {
	return len(t.slots)
}

// probe finds the slot for key. It hashes key to its home slot and scans
// forward, wrapping at the end of the array, until it reaches the slot
// holding key or an empty slot. When insert is true an empty slot is
// returned as the position to insert at; otherwise reaching one means key is
// absent. A scan that visits every slot fails with ErrFull on insert.
func (t *Table[K, V]) probe(key K, insert bool) (int, error) {
	capacity := len(t.slots)
	if capacity == 0 {
		if insert {
			return -1, errors.Wrapf(ErrFull, "inserting %q into closed table", string(key))
		}
		return -1, notFound(key)
	}

	i := t.hash(key, capacity)
	if i < 0 || i >= capacity {
		panic(fmt.Sprintf("hash of %q is %d, outside [0, %d)", string(key), i, capacity))
	}
	if debug {
		t.logger.Trace().Str("key", string(key)).Int("home", i).Bool("insert", insert).Msg("probe")
	}

	for n := 0; n < capacity; n++ {
		s := &t.slots[i]
		if !s.occupied {
			if insert {
				return i, nil
			}
			return i, notFound(key)
		}
		if s.key == key {
			return i, nil
		}
		if i++; i == capacity {
			i = 0
		}
	}

	if insert {
		return -1, errors.Wrapf(ErrFull, "inserting %q at capacity %d", string(key), capacity)
	}
	return -1, notFound(key)
}

// overloaded reports whether the load factor exceeds 1/2.
func (t *Table[K, V]) overloaded() bool {
	return 2*t.used > len(t.slots)
}

// grow moves the table to the next size in its size sequence, skipping
// sizes that would still leave it more than half full. If the sequence is
// exhausted the table keeps its capacity.
func (t *Table[K, V]) grow() {
	if t.sizeIndex+1 >= len(t.sizes) {
		if !t.exhausted {
			t.exhausted = true
			t.logger.Warn().
				Int("capacity", len(t.slots)).
				Int("used", t.used).
				Msg("size sequence exhausted; table will not grow further")
		}
		return
	}
	next := t.sizeIndex + 1
	for next+1 < len(t.sizes) && 2*t.used > t.sizes[next] {
		next++
	}
	t.sizeIndex = next
	t.resize(t.sizes[next])
}

// resize allocates a backing array of the new capacity and reinserts each
// entry into it in old array order. The hash of every key is recomputed
// against the new capacity. The old array is released to the allocator.
func (t *Table[K, V]) resize(newCapacity int) {
	oldSlots := t.slots
	t.slots = t.allocator.Alloc(newCapacity)

	t.logger.Debug().
		Int("from", len(oldSlots)).
		Int("to", newCapacity).
		Int("used", t.used).
		Msg("rehash")

	for i := range oldSlots {
		if !oldSlots.occupied(i) {
			continue
		}
		s := &oldSlots[i]
		j, err := t.probe(s.key, true)
		if err != nil {
			panic(fmt.Sprintf("rehash: %v\n%s", err, t.debugString()))
		}
		t.slots.set(j, s.key, s.value)
	}

	if oldSlots != nil {
		t.allocator.Free(oldSlots)
	}
}

func (t *Table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  size-index=%d/%d\n",
		len(t.slots), t.used, t.sizeIndex, len(t.sizes))
	for i := range t.slots {
		if !t.slots.occupied(i) {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		s := &t.slots[i]
		fmt.Fprintf(&buf, "  %4d: %q [home=%d]\n", i, string(s.key), t.hash(s.key, len(t.slots)))
	}
	return buf.String()
}
