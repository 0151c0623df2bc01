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

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a key is not present in a table. For a
	// DoubleKeyTable it is returned when either the outer or the inner key is
	// absent.
	ErrNotFound = errors.New("probetable: key not found")

	// ErrFull is returned when an insert scans every slot of a table without
	// finding the key or an empty slot. Growth keeps the load factor at or
	// below 1/2, so seeing this error means the configured size sequence was
	// exhausted. Callers should not try to recover from it.
	ErrFull = errors.New("probetable: table is full")

	// ErrInvalidKey is returned by TrieTable for zero-length keys.
	ErrInvalidKey = errors.New("probetable: invalid key")
)

func notFound[K Key](key K) error {
	return errors.Wrapf(ErrNotFound, "%q", string(key))
}
