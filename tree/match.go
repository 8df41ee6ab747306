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

// Match is the result of [Tree.Match]. A zero Node means no route matched.
type Match struct {
	// Node is the terminal node of the matched route.
	Node *Node

	// Params holds the values of required parameters in path order.
	Params []string

	// Static reports whether the static route table answered the lookup.
	Static bool

	// Steps counts child lookups performed during the tree walk.
	Steps int

	// Teleports counts shortcuts taken during the tree walk.
	Teleports int
}

// Found reports whether a route matched.
func (m Match) Found() bool {
	return m.Node != nil
}

// Match finds the route for a request path.
//
// Parameterless routes are answered from the static table without a tree
// walk. Otherwise the path is walked segment by segment; static children
// take priority over the parameter child and the walk never backtracks.
// Shortcuts over single-child chains are taken when the skipped static
// segments agree with the path.
//
// A node is only returned when its depth equals the number of path segments
// and it terminates a registered route. Match never modifies the tree and
// is safe for concurrent use while no registrations are in progress.
func (t *Tree) Match(path string) Match {
	segs := pathSegments(path)
	if key, ok := staticKey(segs); ok {
		if n, ok := t.static.Lookup(key); ok {
			return Match{Node: n, Static: true}
		}
	}
	return t.walk(segs, true)
}

func (t *Tree) walk(segments []string, teleport bool) Match {
	var m Match
	want := len(segments)
	cur := t.root

	for len(cur.depthPath) < want {
		at := len(cur.depthPath) - 1
		if teleport {
			_, target := cur.teleports.pick(want - 1 - at)
			if target != nil && teleportMatches(target, at, segments) {
				cur = target
				m.Teleports++
				continue
			}
		}

		next := cur.child(segments[at+1])
		m.Steps++
		if next == nil {
			return m
		}
		cur = next
	}

	if len(cur.depthPath) != want || !cur.IsTerminal() {
		return m
	}

	m.Node = cur
	m.Params = cur.paramValues(segments)
	return m
}

// paramValues picks the path segments sitting at parameter positions of the
// node's depth path.
func (n *Node) paramValues(segments []string) []string {
	var params []string
	for i, key := range n.depthPath {
		if isParamSegment(key) {
			params = append(params, segments[i])
		}
	}
	return params
}
