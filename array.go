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

// Slot holds a key and value. A slot is either empty or occupied; an empty
// slot has the zero key and value.
type Slot[K Key, V any] struct {
	key      K
	value    V
	occupied bool
}

// Allocator specifies an interface for allocating and releasing the backing
// arrays used by a Table. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory then Table.Close must be
// called in order to ensure Free is called for the current backing array.
// Arrays replaced by a rehash are freed by the rehash.
type Allocator[K Key, V any] interface {
	// Alloc should return a slice equivalent to make([]Slot[K,V], n).
	Alloc(n int) []Slot[K, V]

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc.
	Free(v []Slot[K, V])
}

type defaultAllocator[K Key, V any] struct{}

func (defaultAllocator[K, V]) Alloc(n int) []Slot[K, V] {
	return make([]Slot[K, V], n)
}

func (defaultAllocator[K, V]) Free(v []Slot[K, V]) {
}

// backingArray is the fixed-capacity slot storage of a Table. Its length is
// the table capacity and never changes; growing a table replaces the array.
type backingArray[K Key, V any] []Slot[K, V]

func (a backingArray[K, V]) occupied(i int) bool {
	return a[i].occupied
}

func (a backingArray[K, V]) set(i int, key K, value V) {
	a[i] = Slot[K, V]{key: key, value: value, occupied: true}
}

// take empties slot i and returns what it held.
func (a backingArray[K, V]) take(i int) Slot[K, V] {
	s := a[i]
	a[i] = Slot[K, V]{}
	return s
}

func (a backingArray[K, V]) clear() {
	for i := range a {
		a[i] = Slot[K, V]{}
	}
}
