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

import "slices"

// teleportTable maps "segments skipped" to the node a shortcut lands on.
// Keys are kept sorted so the shortest entry is keys[0].
type teleportTable struct {
	keys    []int
	targets []*Node
}

func (tt *teleportTable) set(dist int, target *Node) {
	i, found := slices.BinarySearch(tt.keys, dist)
	if found {
		tt.targets[i] = target
		return
	}
	tt.keys = slices.Insert(tt.keys, i, dist)
	tt.targets = slices.Insert(tt.targets, i, target)
}

// truncate drops every shortcut longer than maxDist.
func (tt *teleportTable) truncate(maxDist int) {
	i, _ := slices.BinarySearch(tt.keys, maxDist+1)
	clear(tt.targets[i:])
	tt.keys = tt.keys[:i]
	tt.targets = tt.targets[:i]
}

func (tt *teleportTable) reset() {
	tt.keys = nil
	tt.targets = nil
}

// shortest returns the smallest key, or 0 when the table is empty.
func (tt *teleportTable) shortest() int {
	if len(tt.keys) == 0 {
		return 0
	}
	return tt.keys[0]
}

// pick returns the longest shortcut that does not skip more than remaining
// segments. An exact match on remaining is therefore preferred. pick does
// not modify the table.
func (tt *teleportTable) pick(remaining int) (int, *Node) {
	if len(tt.keys) == 0 || tt.keys[0] > remaining {
		return 0, nil
	}
	i, found := slices.BinarySearch(tt.keys, remaining)
	if !found {
		i--
	}
	return tt.keys[i], tt.targets[i]
}

// recordTeleports updates shortcut tables after terminal was registered.
//
// Walking upward from terminal, every ancestor with a single child gains a
// shortcut to terminal keyed by its distance. The first ancestor with more
// than one child ends the walk: its own table is dropped and the shortcuts
// of the single-child chain above it are cut back so they land on it
// instead of passing through it.
func recordTeleports(terminal *Node) {
	dist := 1
	for anc := terminal.parent; anc != nil; anc = anc.parent {
		if len(anc.children) > 1 {
			anc.rehomeTeleports()
			return
		}
		anc.teleports.set(dist, terminal)
		dist++
	}
}

// rehomeTeleports is called on a node that has more than one child. No
// shortcut may pass through it, so every single-child ancestor up to the
// next branching one is truncated to land on n at most.
func (n *Node) rehomeTeleports() {
	dist := 1
	for anc := n.parent; anc != nil && len(anc.children) == 1; anc = anc.parent {
		anc.teleports.truncate(dist)
		anc.teleports.set(dist, n)
		dist++
	}
	n.teleports.reset()
}

// teleportMatches reports whether the segments skipped by a shortcut from
// depth index from to target agree with target's depth path. Parameter keys
// accept any segment.
func teleportMatches(target *Node, from int, segments []string) bool {
	for j := from + 1; j < len(target.depthPath); j++ {
		key := target.depthPath[j]
		if !isParamSegment(key) && key != segments[j] {
			return false
		}
	}
	return true
}
