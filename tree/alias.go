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

import "strings"

// Lookup returns the terminal node registered under alias, or nil. Like
// [Tree.Match] it takes no lock.
func (t *Tree) Lookup(alias string) *Node {
	return t.aliases[alias]
}

// URL builds the path of the route registered under alias, substituting
// params into its parameter segments from left to right. Parameter segments
// without a value keep their ":name" token. An unknown alias yields "".
func (t *Tree) URL(alias string, params ...string) string {
	n := t.Lookup(alias)
	if n == nil {
		return ""
	}

	segs := splitSegments(n.fullPath)
	next := 0
	for i, s := range segs {
		if next == len(params) {
			break
		}
		if isParamSegment(s) {
			segs[i] = params[next]
			next++
		}
	}
	return NormalizePattern(flatten(segs))
}

// URLWithParams builds the path of the route registered under alias,
// replacing each ":key" segment with params[key]. Keys may be given with or
// without the leading colon. An unknown alias yields "".
func (t *Tree) URLWithParams(alias string, params map[string]string) string {
	n := t.Lookup(alias)
	if n == nil {
		return ""
	}

	byName := make(map[string]string, len(params))
	for k, v := range params {
		byName[strings.TrimLeft(k, ":")] = v
	}

	segs := splitSegments(n.fullPath)
	for i, s := range segs {
		if !isParamSegment(s) {
			continue
		}
		if v, ok := byName[s[1:]]; ok {
			segs[i] = v
		}
	}
	return NormalizePattern(flatten(segs))
}
