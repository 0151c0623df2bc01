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

	"github.com/rs/zerolog"
)

// DefaultSizes is the size sequence used when none is configured. Each
// entry is a prime roughly double the previous one.
var DefaultSizes = []int{
	5, 13, 29, 53, 97, 193, 389, 769, 1543, 3079, 6151, 12289, 24593,
	49157, 98317, 196613, 393241, 786433, 1572869,
}

// option provide an interface to do work on Table while it is being created.
type option[K Key, V any] interface {
	apply(t *Table[K, V])
}

type sizesOption[K Key, V any] struct {
	sizes []int
}

func (op sizesOption[K, V]) apply(t *Table[K, V]) {
	t.sizes = op.sizes
}

// WithSizes is an option to specify the ascending sequence of capacities a
// Table[K,V] moves through as it grows. The table starts at sizes[0].
func WithSizes[K Key, V any](sizes ...int) option[K, V] {
	return sizesOption[K, V]{checkSizes(sizes)}
}

type hashOption[K Key, V any] struct {
	hash HashFunc[K]
}

func (op hashOption[K, V]) apply(t *Table[K, V]) {
	t.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a
// Table[K,V].
func WithHash[K Key, V any](hash HashFunc[K]) option[K, V] {
	return hashOption[K, V]{hash}
}

type allocatorOption[K Key, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(t *Table[K, V]) {
	t.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a
// Table[K,V].
func WithAllocator[K Key, V any](allocator Allocator[K, V]) option[K, V] {
	return allocatorOption[K, V]{allocator}
}

type loggerOption[K Key, V any] struct {
	logger zerolog.Logger
}

func (op loggerOption[K, V]) apply(t *Table[K, V]) {
	t.logger = op.logger
}

// WithLogger is an option to specify the logger a Table[K,V] reports
// rehashes on. Tables are silent by default.
func WithLogger[K Key, V any](logger zerolog.Logger) option[K, V] {
	return loggerOption[K, V]{logger}
}

// doubleOption provide an interface to do work on DoubleKeyTable while it is
// being created.
type doubleOption[K1, K2 Key, V any] interface {
	apply(d *DoubleKeyTable[K1, K2, V])
}

type doubleOptionFunc[K1, K2 Key, V any] func(d *DoubleKeyTable[K1, K2, V])

func (f doubleOptionFunc[K1, K2, V]) apply(d *DoubleKeyTable[K1, K2, V]) {
	f(d)
}

// WithOuterSizes specifies the size sequence of the outer table of a
// DoubleKeyTable[K1,K2,V].
func WithOuterSizes[K1, K2 Key, V any](sizes ...int) doubleOption[K1, K2, V] {
	sizes = checkSizes(sizes)
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.outerSizes = sizes
	})
}

// WithInnerSizes specifies the size sequence each inner table of a
// DoubleKeyTable[K1,K2,V] starts from and grows through. If unset, the inner
// tables use the outer size sequence.
func WithInnerSizes[K1, K2 Key, V any](sizes ...int) doubleOption[K1, K2, V] {
	sizes = checkSizes(sizes)
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.innerSizes = sizes
	})
}

// WithOuterHash specifies the hash function applied to first keys.
func WithOuterHash[K1, K2 Key, V any](hash HashFunc[K1]) doubleOption[K1, K2, V] {
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.outerHash = hash
	})
}

// WithInnerHash specifies the hash function applied to second keys.
func WithInnerHash[K1, K2 Key, V any](hash HashFunc[K2]) doubleOption[K1, K2, V] {
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.innerHash = hash
	})
}

// WithInnerAllocator specifies the Allocator used for the backing arrays of
// inner tables. Inner tables removed by a cascading delete or replaced by a
// rehash are closed, returning their arrays to the allocator.
func WithInnerAllocator[K1, K2 Key, V any](allocator Allocator[K2, V]) doubleOption[K1, K2, V] {
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.innerAllocator = allocator
	})
}

// WithDoubleKeyLogger specifies the logger used by a DoubleKeyTable and the
// tables it owns.
func WithDoubleKeyLogger[K1, K2 Key, V any](logger zerolog.Logger) doubleOption[K1, K2, V] {
	return doubleOptionFunc[K1, K2, V](func(d *DoubleKeyTable[K1, K2, V]) {
		d.logger = logger
	})
}

// checkSizes panics unless sizes is a non-empty, strictly ascending sequence
// of capacities greater than one.
func checkSizes(sizes []int) []int {
	if len(sizes) == 0 {
		panic("probetable: empty size sequence")
	}
	for i, n := range sizes {
		if n < 2 {
			panic(fmt.Sprintf("probetable: size %d at position %d is less than 2", n, i))
		}
		if i > 0 && n <= sizes[i-1] {
			panic(fmt.Sprintf("probetable: sizes are not ascending: %v", sizes))
		}
	}
	return append([]int(nil), sizes...)
}

// trieOption provide an interface to do work on TrieTable while it is being
// created.
type trieOption[K Key, V any] interface {
	apply(t *TrieTable[K, V])
}

type trieLoggerOption[K Key, V any] struct {
	logger zerolog.Logger
}

func (op trieLoggerOption[K, V]) apply(t *TrieTable[K, V]) {
	t.logger = op.logger
}

// WithTrieLogger is an option to specify the logger of a TrieTable[K,V].
func WithTrieLogger[K Key, V any](logger zerolog.Logger) trieOption[K, V] {
	return trieLoggerOption[K, V]{logger}
}
