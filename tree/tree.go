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
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/teleroute/teleroute/tree/compiler"
)

// Tree is a route tree. Registrations are serialized by an internal mutex.
// Reads ([Tree.Match], [Tree.Lookup], [Tree.URL], [Tree.URLWithParams],
// [Tree.Walk], [Tree.Routes], [Tree.StaticPaths]) take no lock: they may run
// concurrently with each other but must not overlap with registrations.
// Call [Tree.Freeze] once the route set is complete to enforce that.
type Tree struct {
	mu      sync.Mutex
	root    *Node
	static  *compiler.StaticTable[*Node]
	aliases map[string]*Node
	frozen  atomic.Bool

	diagnostics    DiagnosticHandler
	bloomSize      uint64
	bloomHashFuncs int
	bloomThreshold int
}

// New creates an empty tree rooted at "/".
func New(opts ...Option) (*Tree, error) {
	t := &Tree{
		root:           newNode(rootSegment, KindStatic),
		aliases:        make(map[string]*Node),
		bloomSize:      defaultBloomFilterSize,
		bloomHashFuncs: defaultBloomHashFunctions,
	}
	t.root.refreshDepthPath()

	for _, opt := range opts {
		opt(t)
	}

	static, err := compiler.NewStaticTable[*Node](t.bloomSize, t.bloomHashFuncs, t.bloomThreshold)
	if err != nil {
		return nil, fmt.Errorf("tree configuration validation failed: %w", err)
	}
	t.static = static

	return t, nil
}

// MustNew is like [New] but panics on invalid options.
func MustNew(opts ...Option) *Tree {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Add registers a route and returns its terminal node.
//
// Registering the same pattern and method twice replaces the earlier
// settings. A parameter segment at a position that already has a parameter
// child renames that child instead of adding a sibling. A registration that
// fails leaves the tree as it was.
func (t *Tree) Add(reg Registration) (*Node, error) {
	if len(reg.Methods) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyMethods, reg.Pattern)
	}
	for _, m := range reg.Methods {
		if !m.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen.Load() {
		return nil, fmt.Errorf("%w: cannot register %q", ErrTreeFrozen, reg.Pattern)
	}

	pattern := NormalizePattern(reg.Pattern)
	p := newParser(t, pattern)
	terminal, err := p.run()
	if err != nil {
		return nil, err
	}

	for _, m := range reg.Methods {
		if prev := terminal.settings[m]; prev != nil {
			t.emit(DiagRouteOverwritten, "route settings replaced", map[string]any{
				"method":   m.String(),
				"pattern":  pattern,
				"previous": prev.FlatPath,
			})
		}
		terminal.settings[m] = &Settings{
			Handler:      reg.Handler,
			Interceptors: slices.Clone(reg.Interceptors),
			FlatPath:     pattern,
			Extra:        reg.Extra,
		}
	}
	terminal.fullPath = pattern

	if p.static {
		t.static.Insert(pattern, terminal)
	}

	if reg.Alias != "" {
		if prev, ok := t.aliases[reg.Alias]; ok && prev != terminal {
			t.emit(DiagAliasReassigned, "alias moved to another route", map[string]any{
				"alias": reg.Alias,
				"from":  prev.fullPath,
				"to":    pattern,
			})
		}
		t.aliases[reg.Alias] = terminal
		terminal.alias = reg.Alias
	}

	recordTeleports(terminal)

	t.emit(DiagRouteRegistered, "route registered", map[string]any{
		"pattern": pattern,
		"methods": methodList(reg.Methods),
		"static":  p.static,
	})

	return terminal, nil
}

// Freeze rejects further registrations. It is irreversible.
func (t *Tree) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether [Tree.Freeze] was called.
func (t *Tree) Frozen() bool {
	return t.frozen.Load()
}

// Root returns the "/" node.
func (t *Tree) Root() *Node {
	return t.root
}

// StaticPaths returns the parameterless route paths, sorted.
func (t *Tree) StaticPaths() []string {
	paths := t.static.Paths()
	slices.Sort(paths)
	return paths
}

// Walk visits the tree depth first in child order. Returning false from fn
// skips the children of the visited node.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(*Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(t.root)
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Pattern string
	Methods []Method
	Alias   string
	Static  bool
}

// Routes returns every registered route, sorted by pattern.
func (t *Tree) Routes() []RouteInfo {
	var routes []RouteInfo
	t.Walk(func(n *Node) bool {
		if n.IsTerminal() {
			routes = append(routes, RouteInfo{
				Pattern: n.fullPath,
				Methods: n.Methods(),
				Alias:   n.alias,
				Static:  len(n.ParamNames()) == 0,
			})
		}
		return true
	})
	slices.SortFunc(routes, func(a, b RouteInfo) int {
		return strings.Compare(a.Pattern, b.Pattern)
	})
	return routes
}

func methodList(methods []Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}
