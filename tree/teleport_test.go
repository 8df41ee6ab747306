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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireValidTeleports checks that every shortcut spans a chain of
// single-child nodes and that branching nodes carry no shortcuts.
func requireValidTeleports(t *testing.T, tr *Tree) {
	t.Helper()

	tr.Walk(func(n *Node) bool {
		if len(n.children) > 1 {
			assert.Empty(t, n.teleports.keys, "branching node %s holds shortcuts", n)
		}
		assert.IsIncreasing(t, append([]int(nil), n.teleports.keys...), "keys of %s must be sorted", n)

		for i, dist := range n.teleports.keys {
			target := n.teleports.targets[i]
			require.NotNil(t, target)
			require.Equal(t, n.Depth()+dist, target.Depth(), "shortcut %d from %s lands at wrong depth", dist, n)

			for cur := target.parent; ; cur = cur.parent {
				require.NotNil(t, cur, "shortcut target %s is not below %s", target, n)
				require.Len(t, cur.children, 1, "shortcut from %s passes through branching %s", n, cur)
				if cur == n {
					break
				}
			}
		}
		return true
	})
}

func TestTeleportTable(t *testing.T) {
	t.Parallel()

	a, b, c := newNode("a", KindStatic), newNode("b", KindStatic), newNode("c", KindStatic)

	var tt teleportTable
	assert.Equal(t, 0, tt.shortest())
	_, target := tt.pick(5)
	assert.Nil(t, target)

	tt.set(3, b)
	tt.set(1, a)
	tt.set(5, c)
	assert.Equal(t, []int{1, 3, 5}, tt.keys)
	assert.Equal(t, 1, tt.shortest())

	dist, target := tt.pick(3)
	assert.Equal(t, 3, dist)
	assert.Same(t, b, target)

	dist, target = tt.pick(4)
	assert.Equal(t, 3, dist, "deepest shortcut not past the remaining distance")
	assert.Same(t, b, target)

	dist, target = tt.pick(10)
	assert.Equal(t, 5, dist)
	assert.Same(t, c, target)

	_, target = tt.pick(0)
	assert.Nil(t, target)

	tt.set(3, c)
	_, target = tt.pick(3)
	assert.Same(t, c, target)

	tt.truncate(3)
	assert.Equal(t, []int{1, 3}, tt.keys)
	tt.truncate(0)
	assert.Empty(t, tt.keys)
	assert.Empty(t, tt.targets)

	tt.set(2, a)
	tt.reset()
	assert.Equal(t, 0, tt.shortest())
}

func TestTeleport_ChainRecording(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	_, err := tr.Add(Registration{Pattern: "/a/b/c", Methods: []Method{MethodGet}})
	require.NoError(t, err)
	_, err = tr.Add(Registration{Pattern: "/a/b/c/d/e", Methods: []Method{MethodGet}})
	require.NoError(t, err)

	root := tr.Root()
	a := root.child("a")
	c := a.child("b").child("c")
	e := c.child("d").child("e")

	assert.Equal(t, map[int]*Node{3: c, 5: e}, root.Teleports())
	assert.Equal(t, map[int]*Node{2: c, 4: e}, a.Teleports())
	requireValidTeleports(t, tr)
}

func TestTeleport_BranchRehomesAncestors(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	_, err := tr.Add(Registration{Pattern: "/r/:w/:s/pipelines_config/ssh/known_hosts", Methods: []Method{MethodGet}})
	require.NoError(t, err)

	root := tr.Root()
	s := root.child("r").child("w").child("s")
	require.NotNil(t, s)
	_, deepest := root.teleports.pick(6)
	require.NotNil(t, deepest)
	assert.Equal(t, "known_hosts", deepest.Name())

	_, err = tr.Add(Registration{Pattern: "/r/:w/:s/issues", Methods: []Method{MethodGet}})
	require.NoError(t, err)

	assert.Empty(t, s.Teleports(), "branch point drops its shortcuts")
	dist, target := root.teleports.pick(6)
	assert.Equal(t, 3, dist, "root shortcuts stop at the branch point")
	assert.Same(t, s, target)
	requireValidTeleports(t, tr)

	m := tr.Match("/r/ws/repo/pipelines_config/ssh/known_hosts")
	require.True(t, m.Found())
	assert.Equal(t, []string{"ws", "repo"}, m.Params)
	assert.Positive(t, m.Teleports)

	m = tr.Match("/r/ws/repo/issues")
	require.True(t, m.Found())
	assert.Equal(t, "/r/:w/:s/issues", m.Node.FullPath())

	assert.False(t, tr.Match("/r/ws/repo/pipelines_config/ssh/unknown").Found())
	assert.False(t, tr.Match("/x/ws/repo/issues").Found())
}

func TestTeleport_LiteralVerification(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	_, err := tr.Add(Registration{Pattern: "/a/:x/b/c/:y", Methods: []Method{MethodGet}})
	require.NoError(t, err)

	m := tr.Match("/a/1/b/c/2")
	require.True(t, m.Found())
	assert.Equal(t, 1, m.Teleports)
	assert.Zero(t, m.Steps)
	assert.Equal(t, []string{"1", "2"}, m.Params)

	for _, p := range []string{"/a/1/b/X/2", "/a/1/X/c/2", "/X/1/b/c/2"} {
		assert.False(t, tr.Match(p).Found(), p)
	}
}

func TestTeleport_DoesNotMutateDuringMatch(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	_, err := tr.Add(Registration{Pattern: "/a/b/c/d/:e", Methods: []Method{MethodGet}})
	require.NoError(t, err)

	before := tr.Root().Teleports()
	for range 3 {
		require.True(t, tr.Match("/a/b/c/d/x").Found())
		require.False(t, tr.Match("/a/b/c/x/x").Found())
	}
	assert.Equal(t, before, tr.Root().Teleports())
}

func TestTeleport_MatchesNaiveWalk(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	patterns := []string{
		"/c/:s/:s/:s/:s", "/c/:s/:s/d/:s", "/a/b/c/d/e/f", "/a/b/:x/d/e/f",
		"/a/b/c", "/a/b/c/d", "/:i/hi/1/2/:i", "/d/hi/1/2/:i", "/x/:y/z/:w/v",
	}
	for _, p := range patterns {
		_, err := tr.Add(Registration{Pattern: p, Methods: []Method{MethodGet}})
		require.NoError(t, err)
		requireValidTeleports(t, tr)
	}

	paths := []string{
		"/c/1/2/3/4", "/c/1/2/d/4", "/c/1/2/d", "/a/b/c/d/e/f", "/a/b/q/d/e/f",
		"/a/b/c", "/a/b/c/d", "/a/b/c/d/e", "/zz/hi/1/2/3", "/d/hi/1/2/3",
		"/d/hi/1/2", "/x/1/z/2/v", "/x/1/z/2/w", "/", "/a", "/c/1/2/d/4/5",
	}
	for _, p := range paths {
		segs := pathSegments(p)
		fast := tr.walk(segs, true)
		naive := tr.walk(segs, false)
		assert.Same(t, naive.Node, fast.Node, p)
		assert.Equal(t, naive.Params, fast.Params, p)
		assert.LessOrEqual(t, fast.Steps, naive.Steps, p)
	}
}

func TestTeleport_FailedRegistrationKeepsShortcutsValid(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	_, err := tr.Add(Registration{Pattern: "/a/:p/c/d", Methods: []Method{MethodGet}})
	require.NoError(t, err)
	_, err = tr.Add(Registration{Pattern: "/a/lit/_bad", Methods: []Method{MethodGet}})
	require.ErrorIs(t, err, ErrPatternSyntax)
	requireValidTeleports(t, tr)

	for _, p := range []string{"/a/lit/c/d", "/a/x/c/d", "/a/lit", "/a/lit/c"} {
		segs := pathSegments(p)
		fast := tr.walk(segs, true)
		naive := tr.walk(segs, false)
		assert.Same(t, naive.Node, fast.Node, p)
		assert.Equal(t, naive.Params, fast.Params, p)
	}

	m := tr.Match("/a/lit/c/d")
	require.True(t, m.Found())
	assert.Equal(t, []string{"lit"}, m.Params)
}
