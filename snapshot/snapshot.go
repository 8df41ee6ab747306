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

package snapshot

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/teleroute/teleroute/router"
	"github.com/teleroute/teleroute/tree"
)

// Static errors.
var (
	ErrNotFound       = errors.New("snapshot not found")
	ErrUnserializable = errors.New("route handler cannot be captured")
	ErrEmptyKey       = errors.New("snapshot key cannot be empty")
)

// Route is one pattern and method.
type Route struct {
	Pattern      string   `msgpack:"p"`
	Method       string   `msgpack:"m"`
	Class        string   `msgpack:"c"`
	Handler      string   `msgpack:"h"`
	Interceptors []string `msgpack:"i,omitempty"`
	Alias        string   `msgpack:"a,omitempty"`
	Extra        any      `msgpack:"x,omitempty"`
}

// Snapshot is a captured route table.
type Snapshot struct {
	ID        string    `msgpack:"id"`
	CreatedAt time.Time `msgpack:"ts"`
	Routes    []Route   `msgpack:"routes"`
}

// Take captures every route of t in pattern order. It fails if any route
// dispatches to a Go function.
func Take(t *tree.Tree) (*Snapshot, error) {
	var nodes []*tree.Node
	t.Walk(func(n *tree.Node) bool {
		if n.IsTerminal() {
			nodes = append(nodes, n)
		}
		return true
	})
	slices.SortFunc(nodes, func(a, b *tree.Node) int {
		return strings.Compare(a.FullPath(), b.FullPath())
	})

	id := ulid.Make()
	s := &Snapshot{ID: id.String(), CreatedAt: ulid.Time(id.Time()).UTC()}

	var errs []error
	for _, n := range nodes {
		for _, m := range n.Methods() {
			settings, err := n.Settings(m)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			ref, ok := settings.Handler.(tree.ClassMethod)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s %s", ErrUnserializable, m, n.FullPath()))
				continue
			}
			s.Routes = append(s.Routes, Route{
				Pattern:      n.FullPath(),
				Method:       m.String(),
				Class:        ref.Class,
				Handler:      ref.Method,
				Interceptors: settings.Interceptors,
				Alias:        n.Alias(),
				Extra:        settings.Extra,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// Time returns the creation time encoded in the snapshot id.
func (s *Snapshot) Time() (time.Time, error) {
	id, err := ulid.Parse(s.ID)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}

// Len returns the number of captured routes.
func (s *Snapshot) Len() int { return len(s.Routes) }

// Registrations converts the snapshot back to tree registrations, one per
// route and method.
func (s *Snapshot) Registrations() ([]tree.Registration, error) {
	regs := make([]tree.Registration, 0, len(s.Routes))
	for _, rt := range s.Routes {
		m, err := tree.ParseMethod(rt.Method)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", rt.Method, rt.Pattern, err)
		}
		regs = append(regs, tree.Registration{
			Pattern:      rt.Pattern,
			Methods:      []tree.Method{m},
			Handler:      tree.ClassMethod{Class: rt.Class, Method: rt.Handler},
			Interceptors: rt.Interceptors,
			Alias:        rt.Alias,
			Extra:        rt.Extra,
		})
	}
	return regs, nil
}

// Restore adds the snapshot's routes to t.
func (s *Snapshot) Restore(t *tree.Tree) error {
	regs, err := s.Registrations()
	if err != nil {
		return err
	}
	for _, reg := range regs {
		if _, err = t.Add(reg); err != nil {
			return err
		}
	}
	return nil
}

// Apply registers the snapshot's routes on r.
func (s *Snapshot) Apply(r *router.Router) error {
	regs, err := s.Registrations()
	if err != nil {
		return err
	}
	for _, reg := range regs {
		opts := []router.RouteOption{router.WithInterceptors(reg.Interceptors...)}
		if reg.Alias != "" {
			opts = append(opts, router.WithAlias(reg.Alias))
		}
		if reg.Extra != nil {
			opts = append(opts, router.WithExtra(reg.Extra))
		}
		if err = r.Route(reg.Methods, reg.Pattern, reg.Handler, opts...); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes s with msgpack.
func Marshal(s *Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

// Unmarshal decodes a msgpack snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
