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

import "fmt"

type parserState uint8

const (
	stateInitial parserState = iota
	stateStatic
	stateRequiredParam
)

func (s parserState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateStatic:
		return "static"
	case stateRequiredParam:
		return "required-param"
	default:
		return fmt.Sprintf("parserState(%d)", uint8(s))
	}
}

// parser inserts one normalized pattern into a tree. Every registration
// gets its own parser, so no state survives between calls.
type parser struct {
	tree     *Tree
	pattern  string
	segments []string
	cursor   int
	state    parserState

	// current is the node the next segment is inserted under; after run it
	// is the terminal node.
	current *Node

	// static stays true while no parameter segment has been seen.
	static bool

	// created and renamed record what this registration changed, in order,
	// so a failed registration can be undone.
	created []*Node
	renamed []renaming
}

type renaming struct {
	node *Node
	from string
}

func newParser(t *Tree, pattern string) *parser {
	return &parser{
		tree:     t,
		pattern:  pattern,
		segments: splitSegments(pattern),
		state:    stateInitial,
		static:   true,
	}
}

// run consumes every segment and returns the terminal node. On error the
// tree is restored to its shape before the call.
func (p *parser) run() (*Node, error) {
	for p.cursor = 0; p.cursor < len(p.segments); p.cursor++ {
		if err := p.step(p.segments[p.cursor]); err != nil {
			p.rollback()
			return nil, err
		}
	}
	return p.current, nil
}

// rollback detaches the nodes created by this parser and restores renamed
// parameters, newest first. Shortcut tables are only written after a
// successful parse, so they need no repair.
func (p *parser) rollback() {
	for i := len(p.renamed) - 1; i >= 0; i-- {
		r := p.renamed[i]
		r.node.rename(r.from)
	}
	for i := len(p.created) - 1; i >= 0; i-- {
		n := p.created[i]
		n.parent.removeChild(n)
	}
	p.created, p.renamed = nil, nil
}

func (p *parser) step(segment string) error {
	switch p.state {
	case stateInitial:
		return p.initial(segment)
	case stateStatic:
		return p.staticSegment(segment)
	case stateRequiredParam:
		return p.requiredParam(segment)
	default:
		return fmt.Errorf("parser in unknown state %s", p.state)
	}
}

// reconsumeIn switches state and rewinds the cursor so the loop in run
// hands the same segment to the new state.
func (p *parser) reconsumeIn(state parserState) error {
	if p.cursor <= 0 {
		return fmt.Errorf("%w: cannot reconsume segment %d of %q", ErrCursorRange, p.cursor, p.pattern)
	}
	p.cursor--
	p.state = state
	return nil
}

func (p *parser) syntaxError(segment, reason string) error {
	return &PatternSyntaxError{Pattern: p.pattern, Segment: segment, Reason: reason}
}

func (p *parser) initial(segment string) error {
	c := segment[0]
	switch {
	case segment == rootSegment:
		p.current = p.tree.root
		return nil
	case isASCIIAlnum(c):
		return p.reconsumeIn(stateStatic)
	case c == ':':
		return p.reconsumeIn(stateRequiredParam)
	default:
		return p.syntaxError(segment, fmt.Sprintf("leading character %q", c))
	}
}

func (p *parser) staticSegment(segment string) error {
	next := p.current.insertionPoint(segment)
	if next == nil {
		next = newNode(segment, KindStatic)
		p.current.addChild(next, -1)
		p.created = append(p.created, next)
	}

	p.current = next
	p.state = stateInitial
	return nil
}

func (p *parser) requiredParam(segment string) error {
	if len(segment) < 2 {
		return p.syntaxError(segment, "empty parameter name")
	}

	next := p.current.insertionPoint(segment)
	switch {
	case next == nil:
		next = newNode(segment, KindRequiredParam)
		p.current.addChild(next, -1)
		p.created = append(p.created, next)
	case next.name != segment:
		old := next.name
		next.rename(segment)
		p.renamed = append(p.renamed, renaming{node: next, from: old})
		p.tree.emit(DiagParamRenamed, "required parameter renamed", map[string]any{
			"pattern": p.pattern,
			"from":    old,
			"to":      segment,
			"depth":   next.Depth(),
		})
	}

	p.current = next
	p.static = false
	p.state = stateInitial
	return nil
}

func isASCIIAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
