// Copyright 2026 The Teleroute Authors
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

package compiler

// DefaultBloomThreshold is the table size below which lookups skip the
// bloom filter and go straight to the map.
const DefaultBloomThreshold = 10

// StaticTable maps flattened paths to values with a bloom filter in front of
// the map for negative lookups.
//
// StaticTable is not safe for concurrent mutation. Concurrent Lookup calls
// are safe once no more Insert calls are made.
type StaticTable[V any] struct {
	entries   map[string]V
	bloom     *BloomFilter
	threshold int
}

// NewStaticTable creates a table whose filter has bloomSize bits and
// hashFuncs hash functions. Tables with fewer than threshold entries bypass
// the filter; a threshold of zero or less means [DefaultBloomThreshold].
func NewStaticTable[V any](bloomSize uint64, hashFuncs, threshold int) (*StaticTable[V], error) {
	bf, err := NewBloomFilter(bloomSize, hashFuncs)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultBloomThreshold
	}

	return &StaticTable[V]{
		entries:   make(map[string]V),
		bloom:     bf,
		threshold: threshold,
	}, nil
}

// Insert stores v under path, replacing any previous value.
func (st *StaticTable[V]) Insert(path string, v V) {
	st.entries[path] = v
	st.bloom.AddString(path)
}

// Lookup returns the value stored under path.
func (st *StaticTable[V]) Lookup(path string) (V, bool) {
	if len(st.entries) >= st.threshold && !st.bloom.TestString(path) {
		var zero V
		return zero, false
	}
	v, ok := st.entries[path]
	return v, ok
}

// Len returns the number of stored paths.
func (st *StaticTable[V]) Len() int {
	return len(st.entries)
}

// Paths returns the stored paths in no particular order.
func (st *StaticTable[V]) Paths() []string {
	paths := make([]string, 0, len(st.entries))
	for p := range st.entries {
		paths = append(paths, p)
	}
	return paths
}
