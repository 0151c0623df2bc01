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
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func BenchmarkTableIter(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapIter))
	b.Run("impl=table", benchSizes(benchmarkTableIter))
}

func BenchmarkTableGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=table/hash=polynomial", benchSizes(benchmarkTableGetHit(PolynomialHash[string])))
	b.Run("impl=table/hash=xxh3", benchSizes(benchmarkTableGetHit(XXH3Hash[string])))
	b.Run("impl=table/hash=xxhash", benchSizes(benchmarkTableGetHit(XXHash[string])))
	b.Run("impl=table/hash=murmur", benchSizes(benchmarkTableGetHit(MurmurHash[string])))
}

func BenchmarkTableGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetMiss))
	b.Run("impl=table", benchSizes(benchmarkTableGetMiss))
}

func BenchmarkTablePutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutGrow))
	b.Run("impl=table", benchSizes(benchmarkTablePutGrow))
}

func BenchmarkTablePutDelete(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutDelete))
	b.Run("impl=table", benchSizes(benchmarkTablePutDelete))
}

func BenchmarkDoubleKeyGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPairGetHit))
	b.Run("impl=doubleKeyTable", benchSizes(benchmarkDoubleKeyGetHit))
}

func BenchmarkDoubleKeyPutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPairPutGrow))
	b.Run("impl=doubleKeyTable", benchSizes(benchmarkDoubleKeyPutGrow))
}

func BenchmarkTrieGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=trieTable", benchSizes(benchmarkTrieGetHit))
}

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func genKeys(start, end int) []string {
	keys := make([]string, end-start)
	for i := range keys {
		keys[i] = strconv.Itoa(start + i)
	}
	return keys
}

// genPairs splits n entries over roughly sqrt(n) first keys.
func genPairs(n int) [][2]string {
	outer := 1
	for outer*outer < n {
		outer++
	}
	pairs := make([][2]string, n)
	for i := range pairs {
		pairs[i] = [2]string{strconv.Itoa(i % outer), strconv.Itoa(i)}
	}
	return pairs
}

func benchmarkRuntimeMapIter(b *testing.B, n int) {
	m := make(map[string]int, n)
	for i, k := range genKeys(0, n) {
		m[k] = i
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		for _, v := range m {
			tmp += v
		}
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkTableIter(b *testing.B, n int) {
	t := New[string, int]()
	for i, k := range genKeys(0, n) {
		if err := t.Put(k, i); err != nil {
			b.Fatal(err)
		}
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var tmp int
	for i := 0; i < b.N; i++ {
		for v := range t.Values() {
			tmp += v
		}
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int) {
	m := make(map[string]int, n)
	for i, k := range genKeys(0, n) {
		m[k] = i
	}

	// Go's builtin map has an optimization to avoid string comparisons if
	// there is pointer equality. Defeat this optimization to get a better
	// apples-to-apples comparison.
	keys := genKeys(0, n)

	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[keys[i%n]]
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkTableGetHit(hash HashFunc[string]) func(b *testing.B, n int) {
	return func(b *testing.B, n int) {
		t := New[string, int](WithHash[string, int](hash))
		for i, k := range genKeys(0, n) {
			if err := t.Put(k, i); err != nil {
				b.Fatal(err)
			}
		}
		keys := genKeys(0, n)
		cs := perfbench.Open(b)
		b.ResetTimer()
		cs.Reset()
		var err error
		for i := 0; i < b.N; i++ {
			_, err = t.Get(keys[i%n])
		}
		b.StopTimer()
		fmt.Fprint(io.Discard, err)
	}
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int) {
	m := make(map[string]int, n)
	for i, k := range genKeys(0, n) {
		m[k] = i
	}
	miss := genKeys(-n, 0)
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[miss[i%n]]
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkTableGetMiss(b *testing.B, n int) {
	t := New[string, int]()
	for i, k := range genKeys(0, n) {
		if err := t.Put(k, i); err != nil {
			b.Fatal(err)
		}
	}
	miss := genKeys(-n, 0)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var ok bool
	for i := 0; i < b.N; i++ {
		ok = t.Contains(miss[i%n])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapPutGrow(b *testing.B, n int) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[string]int)
		for j, k := range keys {
			m[k] = j
		}
	}
}

func benchmarkTablePutGrow(b *testing.B, n int) {
	keys := genKeys(0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		t := New[string, int]()
		for j, k := range keys {
			if err := t.Put(k, j); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func benchmarkRuntimeMapPutDelete(b *testing.B, n int) {
	m := make(map[string]int, n)
	keys := genKeys(0, n)
	for j, k := range keys {
		m[k] = j
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % n
		delete(m, keys[j])
		m[keys[j]] = j
	}
}

func benchmarkTablePutDelete(b *testing.B, n int) {
	t := New[string, int]()
	keys := genKeys(0, n)
	for j, k := range keys {
		if err := t.Put(k, j); err != nil {
			b.Fatal(err)
		}
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		j := i % n
		if err := t.Delete(keys[j]); err != nil {
			b.Fatal(err)
		}
		if err := t.Put(keys[j], j); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkRuntimeMapPairGetHit(b *testing.B, n int) {
	pairs := genPairs(n)
	m := make(map[[2]string]int, n)
	for i, p := range pairs {
		m[p] = i
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[pairs[i%n]]
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkDoubleKeyGetHit(b *testing.B, n int) {
	pairs := genPairs(n)
	d := NewDoubleKeyTable[string, string, int]()
	for i, p := range pairs {
		if err := d.Put(p[0], p[1], i); err != nil {
			b.Fatal(err)
		}
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var err error
	for i := 0; i < b.N; i++ {
		p := pairs[i%n]
		_, err = d.Get(p[0], p[1])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, err)
}

func benchmarkRuntimeMapPairPutGrow(b *testing.B, n int) {
	pairs := genPairs(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[[2]string]int)
		for j, p := range pairs {
			m[p] = j
		}
	}
}

func benchmarkDoubleKeyPutGrow(b *testing.B, n int) {
	pairs := genPairs(n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	for i := 0; i < b.N; i++ {
		d := NewDoubleKeyTable[string, string, int]()
		for j, p := range pairs {
			if err := d.Put(p[0], p[1], j); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func benchmarkTrieGetHit(b *testing.B, n int) {
	t := NewTrieTable[string, int]()
	for i, k := range genKeys(0, n) {
		if err := t.Put(k, i); err != nil {
			b.Fatal(err)
		}
	}
	keys := genKeys(0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	cs.Reset()
	var err error
	for i := 0; i < b.N; i++ {
		_, err = t.Get(keys[i%n])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, err)
}
