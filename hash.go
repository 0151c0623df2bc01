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
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Key is the constraint for table keys: sequences of characters.
type Key interface {
	~string
}

// HashFunc maps a key to a home slot in a table of the given capacity. The
// result must lie in [0, capacity).
//
// The capacity is passed on every call rather than captured when the
// function is built. A table changes capacity when it rehashes, and the hash
// of a key depends on the capacity it is reduced against, so a hash function
// holding on to an old capacity would place keys into slots where later
// probes will never look.
type HashFunc[K Key] func(key K, capacity int) int

const (
	hashSeed = 31415
	hashBase = 31
)

// PolynomialHash is the default hash function. It is a polynomial rolling
// hash over the code points of key. Both the accumulator and the per-step
// multiplier are reduced on every step, the multiplier modulo capacity-1, so
// that keys sharing a home slot at one capacity tend not to share it at the
// next.
func PolynomialHash[K Key](key K, capacity int) int {
	if capacity <= 1 {
		return 0
	}
	value, a := 0, hashSeed
	for _, c := range string(key) {
		value = (int(c) + a*value) % capacity
		a = a * hashBase % (capacity - 1)
	}
	return value
}

// XXH3Hash hashes key with XXH3 and reduces the result modulo capacity.
func XXH3Hash[K Key](key K, capacity int) int {
	return reduce(xxh3.HashString(string(key)), capacity)
}

// XXHash hashes key with XXH64 and reduces the result modulo capacity.
func XXHash[K Key](key K, capacity int) int {
	return reduce(xxhash.Sum64String(string(key)), capacity)
}

// MurmurHash hashes key with MurmurHash3 and reduces the result modulo
// capacity.
func MurmurHash[K Key](key K, capacity int) int {
	return reduce(murmur3.Sum64([]byte(key)), capacity)
}

func reduce(h uint64, capacity int) int {
	if capacity <= 1 {
		return 0
	}
	return int(h % uint64(capacity))
}
