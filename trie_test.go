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
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func (t *TrieTable[K, V]) toBuiltinMap() map[K]V {
	r := make(map[K]V)
	t.All(func(k K, v V) bool {
		r[k] = v
		return true
	})
	return r
}

func TestTrieIndex(t *testing.T) {
	require.EqualValues(t, 19, trieIndex(0, []rune("a")))
	require.EqualValues(t, 19, trieIndex(0, []rune("G")))
	require.EqualValues(t, 20, trieIndex(1, []rune("ab")))
	require.EqualValues(t, terminalSlot, trieIndex(2, []rune("ab")))
	require.EqualValues(t, 'é'%26, trieIndex(0, []rune("é")))
}

func TestTrieBasic(t *testing.T) {
	tbl := NewTrieTable[string, int]()
	require.EqualValues(t, 0, tbl.Len())

	require.NoError(t, tbl.Put("abc", 1))
	require.NoError(t, tbl.Put("abd", 2))
	require.NoError(t, tbl.Put("ab", 3))
	require.NoError(t, tbl.Put("h", 4))
	require.EqualValues(t, 4, tbl.Len())

	for k, v := range map[string]int{"abc": 1, "abd": 2, "ab": 3, "h": 4} {
		got, err := tbl.Get(k)
		require.NoError(t, err, k)
		require.EqualValues(t, v, got)
		require.True(t, tbl.Contains(k))
	}
	_, err := tbl.Get("abe")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tbl.Get("x")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, tbl.Contains("a"))

	// Update.
	require.NoError(t, tbl.Put("abc", 10))
	require.EqualValues(t, 4, tbl.Len())
	v, err := tbl.Get("abc")
	require.NoError(t, err)
	require.EqualValues(t, 10, v)

	require.ElementsMatch(t, []string{"abc", "abd", "ab", "h"}, slices.Collect(tbl.Keys()))
	require.NoError(t, tbl.validate())
}

func TestTrieLocation(t *testing.T) {
	tbl := NewTrieTable[string, int]()
	require.NoError(t, tbl.Put("abc", 1))
	loc, err := tbl.Location("abc")
	require.NoError(t, err)
	require.Equal(t, []int{19}, loc)

	// "abd" shares the first two characters, so the slot is split twice.
	require.NoError(t, tbl.Put("abd", 2))
	loc, err = tbl.Location("abc")
	require.NoError(t, err)
	require.Equal(t, []int{19, 20, 21}, loc)
	loc, err = tbl.Location("abd")
	require.NoError(t, err)
	require.Equal(t, []int{19, 20, 22}, loc)

	// "ab" ends at the third level and lands in the terminal slot.
	require.NoError(t, tbl.Put("ab", 3))
	loc, err = tbl.Location("ab")
	require.NoError(t, err)
	require.Equal(t, []int{19, 20, terminalSlot}, loc)

	_, err = tbl.Location("abe")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting collapses single-entry children.
	require.NoError(t, tbl.Delete("abd"))
	loc, err = tbl.Location("abc")
	require.NoError(t, err)
	require.Equal(t, []int{19, 20, 21}, loc)
	require.NoError(t, tbl.Delete("ab"))
	loc, err = tbl.Location("abc")
	require.NoError(t, err)
	require.Equal(t, []int{19}, loc)
	require.NoError(t, tbl.validate())

	require.NoError(t, tbl.Delete("abc"))
	require.EqualValues(t, 0, tbl.Len())
	require.ErrorIs(t, tbl.Delete("abc"), ErrNotFound)
}

func TestTrieCollidingKeys(t *testing.T) {
	// 'a' and 'G' are equal modulo 26, so "a" and "G" can only be told apart
	// by comparing them.
	tbl := NewTrieTable[string, int]()
	require.NoError(t, tbl.Put("a", 1))
	require.NoError(t, tbl.Put("G", 2))
	require.NoError(t, tbl.Put("Ga", 3))
	require.EqualValues(t, 3, tbl.Len())

	for _, k := range []string{"a", "G"} {
		loc, err := tbl.Location(k)
		require.NoError(t, err)
		require.Equal(t, []int{19, terminalSlot}, loc)
	}
	loc, err := tbl.Location("Ga")
	require.NoError(t, err)
	require.Equal(t, []int{19, 19}, loc)

	v, err := tbl.Get("G")
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
	require.NoError(t, tbl.validate())

	require.NoError(t, tbl.Delete("G"))
	require.NoError(t, tbl.Delete("Ga"))
	loc, err = tbl.Location("a")
	require.NoError(t, err)
	require.Equal(t, []int{19}, loc)
	require.NoError(t, tbl.validate())
}

func TestTrieInvalidKey(t *testing.T) {
	tbl := NewTrieTable[string, int]()
	require.ErrorIs(t, tbl.Put("", 1), ErrInvalidKey)
	_, err := tbl.Get("")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, tbl.Delete(""), ErrInvalidKey)
	_, err = tbl.Location("")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.False(t, tbl.Contains(""))
	require.EqualValues(t, 0, tbl.Len())
}

func TestTrieRandom(t *testing.T) {
	// A small alphabet with characters that collide modulo 26 forces deep
	// tables and terminal collisions.
	const alphabet = "aGbHcI"
	r := rand.New(rand.NewSource(3))
	randKey := func() string {
		b := make([]byte, 1+r.Intn(4))
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
		return string(b)
	}

	tbl := NewTrieTable[string, int]()
	e := make(map[string]int)
	for i := 0; i < 5000; i++ {
		k := randKey()
		switch x := r.Float64(); {
		case x < 0.5:
			v := r.Int()
			require.NoError(t, tbl.Put(k, v))
			e[k] = v
		case x < 0.8:
			err := tbl.Delete(k)
			if _, ok := e[k]; ok {
				require.NoError(t, err)
				delete(e, k)
			} else {
				require.ErrorIs(t, err, ErrNotFound)
			}
		default:
			v, err := tbl.Get(k)
			if ev, ok := e[k]; ok {
				require.NoError(t, err)
				require.EqualValues(t, ev, v)
			} else {
				require.ErrorIs(t, err, ErrNotFound)
			}
		}
		require.EqualValues(t, len(e), tbl.Len())
	}
	require.Equal(t, e, tbl.toBuiltinMap())
	require.NoError(t, tbl.validate())

	for k := range e {
		require.NoError(t, tbl.Delete(k))
	}
	require.EqualValues(t, 0, tbl.Len())
	require.NoError(t, tbl.validate())
}
