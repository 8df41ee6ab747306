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

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP method supported by the route tree.
type Method uint8

// Supported methods.
const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
	MethodHead
	MethodOptions

	methodCount
)

var methodNames = [methodCount]string{
	MethodGet:     http.MethodGet,
	MethodPost:    http.MethodPost,
	MethodPut:     http.MethodPut,
	MethodPatch:   http.MethodPatch,
	MethodDelete:  http.MethodDelete,
	MethodHead:    http.MethodHead,
	MethodOptions: http.MethodOptions,
}

// String returns the canonical upper-case name.
func (m Method) String() string {
	if m >= methodCount {
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
	return methodNames[m]
}

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	return m < methodCount
}

// ParseMethod converts a verb to a [Method]. Case is ignored.
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == upper {
			return Method(m), nil //nolint:gosec // G115: bounded by methodCount
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// ParseMethods converts a list of verbs, failing on the first unknown one.
func ParseMethods(verbs ...string) ([]Method, error) {
	out := make([]Method, 0, len(verbs))
	for _, v := range verbs {
		m, err := ParseMethod(v)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// AllMethods returns every supported method in declaration order.
func AllMethods() []Method {
	out := make([]Method, methodCount)
	for i := range out {
		out[i] = Method(i) //nolint:gosec // G115: bounded by methodCount
	}
	return out
}
