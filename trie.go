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
	"iter"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	trieTableSize = 27
	// terminalSlot holds the keys that end at a node's level.
	terminalSlot = trieTableSize - 1
)

// TrieTable is an unordered map from keys to values that never resizes.
// Every node of the table has 27 slots. A key lives at the root in the slot
// chosen by its first character. When a second key arrives at an occupied
// slot, the slot is replaced by a child node which separates the two keys by
// their second character, and so on. Keys that end at a node's level go to
// its terminal slot. Deleting keys collapses a child left holding a single
// entry back into its parent's slot, so the depth of the table is the
// smallest depth that separates the keys it holds.
//
// Operations cost one node per character needed to separate the key from
// its neighbours, in exchange for never having to rehash.
//
// Characters are reduced modulo 26, so two different keys of equal length
// can collide at every level. Such keys share a leaf in the terminal slot
// of the deepest node.
//
// A TrieTable is NOT goroutine-safe.
type TrieTable[K Key, V any] struct {
	root   trieNode[K, V]
	logger zerolog.Logger
}

type trieEntry[K Key, V any] struct {
	key   K
	value V
}

// trieSlot is empty, a leaf, or a child node. A leaf outside the terminal
// slot holds exactly one entry.
type trieSlot[K Key, V any] struct {
	leaf  []trieEntry[K, V]
	child *trieNode[K, V]
}

type trieNode[K Key, V any] struct {
	level int
	// The number of entries in and beneath this node.
	count int
	slots [trieTableSize]trieSlot[K, V]
}

// NewTrieTable constructs an empty TrieTable.
func NewTrieTable[K Key, V any](options ...trieOption[K, V]) *TrieTable[K, V] {
	t := &TrieTable[K, V]{logger: zerolog.Nop()}
	for _, op := range options {
		op.apply(t)
	}
	return t
}

// trieIndex returns the slot for a key at the given level.
func trieIndex(level int, key []rune) int {
	if level < len(key) {
		return int(key[level]) % (trieTableSize - 1)
	}
	return terminalSlot
}

func trieKey[K Key](key K) ([]rune, error) {
	if len(key) == 0 {
		return nil, errors.Wrap(ErrInvalidKey, "zero-length key")
	}
	return []rune(string(key)), nil
}

func (s *trieSlot[K, V]) find(key K) int {
	for i := range s.leaf {
		if s.leaf[i].key == key {
			return i
		}
	}
	return -1
}

// Get retrieves the value for key. It returns an error wrapping ErrNotFound
// if the key is not present, or ErrInvalidKey if key is empty.
func (t *TrieTable[K, V]) Get(key K) (value V, err error) {
	runes, err := trieKey(key)
	if err != nil {
		return value, err
	}
	for n := &t.root; ; {
		s := &n.slots[trieIndex(n.level, runes)]
		if s.child != nil {
			n = s.child
			continue
		}
		if i := s.find(key); i >= 0 {
			return s.leaf[i].value, nil
		}
		return value, notFound(key)
	}
}

// Contains reports whether key is present in the table.
func (t *TrieTable[K, V]) Contains(key K) bool {
	_, err := t.Get(key)
	return err == nil
}

// Location returns the slot index taken at each level on the way to key,
// starting at the root. Its length is the depth at which key is stored.
func (t *TrieTable[K, V]) Location(key K) ([]int, error) {
	runes, err := trieKey(key)
	if err != nil {
		return nil, err
	}
	var path []int
	for n := &t.root; ; {
		i := trieIndex(n.level, runes)
		path = append(path, i)
		s := &n.slots[i]
		if s.child != nil {
			n = s.child
			continue
		}
		if s.find(key) >= 0 {
			return path, nil
		}
		return nil, notFound(key)
	}
}

// Put inserts an entry into the table, overwriting an existing value if an
// entry with the same key already exists. It returns an error wrapping
// ErrInvalidKey if key is empty.
func (t *TrieTable[K, V]) Put(key K, value V) error {
	runes, err := trieKey(key)
	if err != nil {
		return err
	}
	t.root.put(t, key, runes, value)
	t.checkInvariants()
	return nil
}

func (n *trieNode[K, V]) put(t *TrieTable[K, V], key K, runes []rune, value V) (added bool) {
	i := trieIndex(n.level, runes)
	s := &n.slots[i]
	switch {
	case s.child != nil:
		added = s.child.put(t, key, runes, value)
	case len(s.leaf) == 0:
		s.leaf = []trieEntry[K, V]{{key, value}}
		added = true
	default:
		if j := s.find(key); j >= 0 {
			s.leaf[j].value = value
			return false
		}
		if i == terminalSlot {
			s.leaf = append(s.leaf, trieEntry[K, V]{key, value})
		} else {
			child := &trieNode[K, V]{level: n.level + 1}
			for _, e := range s.leaf {
				child.put(t, e.key, []rune(string(e.key)), e.value)
			}
			child.put(t, key, runes, value)
			s.leaf = nil
			s.child = child
			if debug {
				t.logger.Trace().Int("level", child.level).Int("slot", i).Msg("split slot")
			}
		}
		added = true
	}
	if added {
		n.count++
	}
	return added
}

// Delete deletes the entry corresponding to key. It returns an error
// wrapping ErrNotFound if the key is not present, or ErrInvalidKey if key
// is empty.
func (t *TrieTable[K, V]) Delete(key K) error {
	runes, err := trieKey(key)
	if err != nil {
		return err
	}
	if !t.root.delete(t, key, runes) {
		return notFound(key)
	}
	t.checkInvariants()
	return nil
}

func (n *trieNode[K, V]) delete(t *TrieTable[K, V], key K, runes []rune) bool {
	i := trieIndex(n.level, runes)
	s := &n.slots[i]
	if s.child != nil {
		if !s.child.delete(t, key, runes) {
			return false
		}
		if s.child.count == 1 {
			// A node holding one entry has no children, so the entry is
			// in one of its leaves.
			s.leaf = s.child.firstLeaf()
			s.child = nil
			if debug {
				t.logger.Trace().Int("level", n.level+1).Int("slot", i).Msg("collapsed slot")
			}
		}
	} else {
		j := s.find(key)
		if j < 0 {
			return false
		}
		s.leaf = slices.Delete(s.leaf, j, j+1)
		if len(s.leaf) == 0 {
			s.leaf = nil
		}
	}
	n.count--
	return true
}

func (n *trieNode[K, V]) firstLeaf() []trieEntry[K, V] {
	for i := range n.slots {
		if len(n.slots[i].leaf) > 0 {
			return n.slots[i].leaf
		}
	}
	return nil
}

// All calls yield sequentially for each key and value in the table, in
// slot order with each child node visited in place of its slot. If yield
// returns false, iteration stops.
func (t *TrieTable[K, V]) All(yield func(key K, value V) bool) {
	t.root.all(yield)
}

func (n *trieNode[K, V]) all(yield func(key K, value V) bool) bool {
	for i := range n.slots {
		s := &n.slots[i]
		if s.child != nil {
			if !s.child.all(yield) {
				return false
			}
			continue
		}
		for _, e := range s.leaf {
			if !yield(e.key, e.value) {
				return false
			}
		}
	}
	return true
}

// Keys returns an iterator over the keys of the table in the order All
// visits them.
func (t *TrieTable[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		t.All(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Len returns the number of entries in the table.
func (t *TrieTable[K, V]) Len() int {
	return t.root.count
}
