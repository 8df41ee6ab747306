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

// Package compiler provides the exact-match table used by the route tree for
// parameterless routes.
//
// A [StaticTable] maps a flattened path such as "/api/v1/health" to a value.
// Once the table holds more than a handful of entries, lookups are gated by a
// [BloomFilter]: a path the filter has never seen is rejected without
// touching the map.
//
// # Bloom Filter
//
// The bloom filter answers "definitely not present" with certainty and
// "possibly present" with a tunable false positive rate:
//
//	bf, err := compiler.NewBloomFilter(1000, 3)
//	if err != nil {
//	    return err
//	}
//	bf.AddString("/api/v1/health")
//	bf.TestString("/api/v1/health") // true
//	bf.TestString("/nope")          // false (almost always)
//
// Hashing is FNV-1a computed inline over the string bytes, so neither Add
// nor Test allocates.
package compiler
