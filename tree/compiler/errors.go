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

import "errors"

var (
	// ErrBloomFilterSizeZero indicates that a bloom filter was requested with zero bits.
	ErrBloomFilterSizeZero = errors.New("bloom filter size must be greater than zero")

	// ErrBloomHashFunctionsInvalid indicates a hash function count outside 1..10.
	ErrBloomHashFunctionsInvalid = errors.New("bloom filter hash functions must be between 1 and 10")
)
