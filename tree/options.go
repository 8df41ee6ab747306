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

package tree

import "github.com/teleroute/teleroute/tree/compiler"

const (
	defaultBloomFilterSize    = 1000
	defaultBloomHashFunctions = 3
)

// Option configures a [Tree].
type Option func(*Tree)

// WithDiagnostics sets a handler for build-time diagnostic events such as
// overwritten routes and renamed parameters.
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(t *Tree) {
		t.diagnostics = handler
	}
}

// WithBloomFilterSize sets the bit count of the bloom filter guarding the
// static route table. Size it at roughly ten times the number of static
// routes for a low false positive rate. Zero is rejected by [New].
//
// Example:
//
//	t := tree.MustNew(tree.WithBloomFilterSize(2000))
func WithBloomFilterSize(size uint64) Option {
	return func(t *Tree) {
		t.bloomSize = size
	}
}

// WithBloomFilterHashFunctions sets the number of bloom filter hash
// functions. Values are clamped to 1..10.
func WithBloomFilterHashFunctions(numFuncs int) Option {
	return func(t *Tree) {
		t.bloomHashFuncs = min(max(numFuncs, 1), compiler.MaxHashFunctions)
	}
}

// WithStaticBloomThreshold sets how many static routes must exist before
// the bloom filter is consulted. Smaller tables go straight to the map.
func WithStaticBloomThreshold(n int) Option {
	return func(t *Tree) {
		t.bloomThreshold = n
	}
}
