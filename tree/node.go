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
)

// Kind classifies a node by the pattern segment it was created from.
type Kind uint8

const (
	KindStatic        Kind = iota // literal text, matched exactly
	KindRequiredParam             // ":name", matches any single segment
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindRequiredParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// rootSegment is the marker prepended to every segment list.
const rootSegment = "/"

// Node is a node of the route tree.
//
// A node owns its children. The parent pointer is only followed upward, for
// teleport maintenance, and never keeps a subtree alive on its own.
type Node struct {
	name     string
	kind     Kind
	parent   *Node
	children []*Node

	// paramChild indexes the required-parameter child in children, or -1.
	// A node has at most one such child.
	paramChild int

	// depthPath holds the segment keys from the root down to this node,
	// starting with rootSegment.
	depthPath []string

	settings [methodCount]*Settings
	fullPath string
	alias    string

	teleports teleportTable
}

func newNode(name string, kind Kind) *Node {
	return &Node{
		name:       name,
		kind:       kind,
		paramChild: -1,
	}
}

func isParamSegment(segment string) bool {
	return segment != "" && segment[0] == ':'
}

// addChild attaches child at position pos, shifting later siblings. A
// negative or out of range pos appends. The caller guarantees that a
// required-parameter child is only added when none exists yet.
func (n *Node) addChild(child *Node, pos int) {
	child.parent = n

	if pos < 0 || pos >= len(n.children) {
		n.children = append(n.children, child)
		if child.kind == KindRequiredParam {
			n.paramChild = len(n.children) - 1
		}
	} else {
		n.children = slices.Insert(n.children, pos, child)
		if n.paramChild >= pos {
			n.paramChild++
		}
		if child.kind == KindRequiredParam {
			n.paramChild = pos
		}
	}

	child.refreshDepthPath()
}

// removeChild detaches child from n and keeps the parameter index in step.
func (n *Node) removeChild(child *Node) {
	i := slices.Index(n.children, child)
	if i < 0 {
		return
	}
	n.children = slices.Delete(n.children, i, i+1)
	switch {
	case n.paramChild == i:
		n.paramChild = -1
	case n.paramChild > i:
		n.paramChild--
	}
	child.parent = nil
}

// refreshDepthPath recomputes the depth path of n and its whole subtree from
// the parent's depth path. Terminal nodes get their flattened route path
// rebuilt from it, so a renamed parameter shows up in every route below it.
func (n *Node) refreshDepthPath() {
	if n.parent == nil {
		n.depthPath = []string{n.name}
	} else {
		n.depthPath = make([]string, len(n.parent.depthPath)+1)
		copy(n.depthPath, n.parent.depthPath)
		n.depthPath[len(n.depthPath)-1] = n.name
	}
	if n.fullPath != "" {
		n.fullPath = flatten(n.depthPath)
		for _, s := range n.settings {
			if s != nil {
				s.FlatPath = n.fullPath
			}
		}
	}
	for _, c := range n.children {
		c.refreshDepthPath()
	}
}

// rename changes the name of a required-parameter node in place.
func (n *Node) rename(name string) {
	n.name = name
	n.refreshDepthPath()
}

// child returns the static child named segment, falling back to the
// required-parameter child. Static children win at the same level.
func (n *Node) child(segment string) *Node {
	for i, c := range n.children {
		if i != n.paramChild && c.name == segment {
			return c
		}
	}
	if n.paramChild >= 0 {
		return n.children[n.paramChild]
	}
	return nil
}

// insertionPoint returns the existing node a pattern segment should reuse,
// or nil when a new node must be created. Parameter segments reuse the
// required-parameter child whatever its current name.
func (n *Node) insertionPoint(segment string) *Node {
	if isParamSegment(segment) {
		if n.paramChild >= 0 {
			return n.children[n.paramChild]
		}
		return nil
	}
	for i, c := range n.children {
		if i != n.paramChild && c.name == segment {
			return c
		}
	}
	return nil
}

// Name returns the segment text this node represents.
func (n *Node) Name() string { return n.name }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children in insertion order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// ParamChild returns the required-parameter child, if any.
func (n *Node) ParamChild() *Node {
	if n.paramChild < 0 {
		return nil
	}
	return n.children[n.paramChild]
}

// Depth returns the distance from the root.
func (n *Node) Depth() int { return len(n.depthPath) - 1 }

// DepthPath returns the segment keys from the root to this node.
func (n *Node) DepthPath() []string { return slices.Clone(n.depthPath) }

// FullPath returns the flattened pattern of the route terminating here.
// It is empty for nodes that terminate no route.
func (n *Node) FullPath() string { return n.fullPath }

// Alias returns the route alias, if one was registered.
func (n *Node) Alias() string { return n.alias }

// ParamNames returns the parameter names along the path to this node,
// without the leading colon.
func (n *Node) ParamNames() []string {
	var names []string
	for _, key := range n.depthPath {
		if isParamSegment(key) {
			names = append(names, key[1:])
		}
	}
	return names
}

// IsTerminal reports whether any method is registered on this node.
func (n *Node) IsTerminal() bool {
	for _, s := range n.settings {
		if s != nil {
			return true
		}
	}
	return false
}

// Methods returns the registered methods in declaration order.
func (n *Node) Methods() []Method {
	var out []Method
	for m, s := range n.settings {
		if s != nil {
			out = append(out, Method(m)) //nolint:gosec // G115: bounded by methodCount
		}
	}
	return out
}

// HasMethod reports whether settings exist for m.
func (n *Node) HasMethod(m Method) bool {
	return m.Valid() && n.settings[m] != nil
}

// HasInterceptorsForMethod reports whether m has at least one interceptor.
func (n *Node) HasInterceptorsForMethod(m Method) bool {
	return n.HasMethod(m) && len(n.settings[m].Interceptors) > 0
}

func (n *Node) settingsFor(m Method) (*Settings, error) {
	if !n.HasMethod(m) {
		return nil, fmt.Errorf("%w: %s %s", ErrMethodNotRegistered, m, n.routeLabel())
	}
	return n.settings[m], nil
}

func (n *Node) routeLabel() string {
	if n.fullPath != "" {
		return n.fullPath
	}
	return flatten(n.depthPath)
}

// Settings returns a copy of the settings registered for m.
func (n *Node) Settings(m Method) (Settings, error) {
	s, err := n.settingsFor(m)
	if err != nil {
		return Settings{}, err
	}
	out := *s
	out.Interceptors = slices.Clone(s.Interceptors)
	return out, nil
}

// HandlerClass returns the class of a [ClassMethod] handler. Function
// handlers have no class and yield "".
func (n *Node) HandlerClass(m Method) (string, error) {
	s, err := n.settingsFor(m)
	if err != nil {
		return "", err
	}
	if cm, ok := s.Handler.(ClassMethod); ok {
		return cm.Class, nil
	}
	return "", nil
}

// Callback returns the handler registered for m.
func (n *Node) Callback(m Method) (Handler, error) {
	s, err := n.settingsFor(m)
	if err != nil {
		return nil, err
	}
	return s.Handler, nil
}

// Interceptors returns the interceptor identifiers registered for m, in order.
func (n *Node) Interceptors(m Method) ([]string, error) {
	s, err := n.settingsFor(m)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Interceptors), nil
}

// Extra returns the opaque extra settings registered for m.
func (n *Node) Extra(m Method) (any, error) {
	s, err := n.settingsFor(m)
	if err != nil {
		return nil, err
	}
	return s.Extra, nil
}

// Teleports returns a copy of this node's shortcut table, keyed by the
// number of segments each shortcut skips.
func (n *Node) Teleports() map[int]*Node {
	out := make(map[int]*Node, len(n.teleports.keys))
	for i, k := range n.teleports.keys {
		out[k] = n.teleports.targets[i]
	}
	return out
}

// String returns a short description for debugging.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s depth=%d children=%d)", n.kind, n.name, n.Depth(), len(n.children))
}
