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

import "fmt"

// FNV-1a 64-bit constants. Hashing is done inline over string bytes so that
// neither a hash.Hash64 nor a []byte conversion is needed per lookup.
const (
	fnvOffsetBasis = 14695981039346656037
	fnvPrime       = 1099511628211
)

// MaxHashFunctions bounds the number of seeds a filter may use.
const MaxHashFunctions = 10

// BloomFilter is a fixed-size bloom filter over strings.
//
// Test never reports false for a string that was added. It may report true
// for a string that was not added; callers must confirm against the real set.
type BloomFilter struct {
	bits  []uint64 // each word holds 64 bits
	size  uint64   // total number of bits
	seeds []uint64
}

// NewBloomFilter creates a filter with size bits and numHashFuncs hash functions.
func NewBloomFilter(size uint64, numHashFuncs int) (*BloomFilter, error) {
	if size == 0 {
		return nil, ErrBloomFilterSizeZero
	}
	if numHashFuncs < 1 || numHashFuncs > MaxHashFunctions {
		return nil, fmt.Errorf("%w: got %d", ErrBloomHashFunctionsInvalid, numHashFuncs)
	}

	bf := &BloomFilter{
		bits:  make([]uint64, (size+63)/64),
		size:  size,
		seeds: make([]uint64, numHashFuncs),
	}
	for i := range numHashFuncs {
		//nolint:gosec // G115: numHashFuncs is at most MaxHashFunctions
		bf.seeds[i] = uint64(i + 1)
	}

	return bf, nil
}

// Hash returns the FNV-1a hash of s.
func Hash(s string) uint64 {
	h := uint64(fnvOffsetBasis)
	for i := range len(s) {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func (bf *BloomFilter) position(baseHash, seed uint64) uint64 {
	return (baseHash ^ seed) % bf.size
}

// AddString records s in the filter.
func (bf *BloomFilter) AddString(s string) {
	base := Hash(s)
	for _, seed := range bf.seeds {
		pos := bf.position(base, seed)
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
}

// TestString reports whether s may have been added.
func (bf *BloomFilter) TestString(s string) bool {
	return bf.TestHash(Hash(s))
}

// TestHash is TestString for a hash already computed with [Hash].
// It exits on the first unset bit, which keeps misses cheap.
func (bf *BloomFilter) TestHash(baseHash uint64) bool {
	for _, seed := range bf.seeds {
		pos := bf.position(baseHash, seed)
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Size returns the number of bits in the filter.
func (bf *BloomFilter) Size() uint64 {
	return bf.size
}

// HashFunctions returns the number of hash functions in use.
func (bf *BloomFilter) HashFunctions() int {
	return len(bf.seeds)
}
