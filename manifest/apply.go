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

package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/teleroute/teleroute/router"
)

// Apply registers every route of m on r. All routes are attempted; failures
// are returned joined, each prefixed with the route's location in the
// manifest.
func (m *Manifest) Apply(r *router.Router) error {
	root := r.Group(m.Prefix, m.Interceptors...).SetNamePrefix(m.Alias)

	var errs []error
	applyGroup(root, "", m.Routes, m.Groups, &errs)
	return errors.Join(errs...)
}

func applyGroup(g *router.Group, at string, routes []Route, groups []Group, errs *[]error) {
	for i, rt := range routes {
		loc := fmt.Sprintf("%sroutes[%d]", at, i)
		if err := applyRoute(g, rt); err != nil {
			*errs = append(*errs, fmt.Errorf("%s %q: %w", loc, rt.Pattern, err))
		}
	}
	for i, sub := range groups {
		child := g.Group(sub.Prefix, sub.Interceptors...).SetNamePrefix(sub.Alias)
		applyGroup(child, fmt.Sprintf("%sgroups[%d].", at, i), sub.Routes, sub.Groups, errs)
	}
}

func applyRoute(g *router.Group, rt Route) error {
	methods, err := rt.TreeMethods()
	if err != nil {
		return err
	}
	ref, err := rt.Ref()
	if err != nil {
		return err
	}

	opts := []router.RouteOption{router.WithInterceptors(rt.Interceptors...)}
	if rt.Alias != "" {
		opts = append(opts, router.WithAlias(rt.Alias))
	}
	if len(rt.Extra) > 0 {
		opts = append(opts, router.WithExtra(rt.Extra))
	}
	return g.Route(methods, rt.Pattern, ref, opts...)
}

// Build creates a router from m. Options are passed to [router.New].
func (m *Manifest) Build(opts ...router.Option) (*router.Router, error) {
	r, err := router.New(opts...)
	if err != nil {
		return nil, err
	}
	if err = m.Apply(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Refs returns the handler references the manifest needs, in declaration
// order without duplicates.
func (m *Manifest) Refs() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func([]Route, []Group)
	walk = func(routes []Route, groups []Group) {
		for _, rt := range routes {
			ref, err := rt.Ref()
			if err != nil {
				continue
			}
			key := ref.Class + "::" + ref.Method
			if !seen[key] {
				seen[key] = true
				out = append(out, key)
			}
		}
		for _, g := range groups {
			walk(g.Routes, g.Groups)
		}
	}
	walk(m.Routes, m.Groups)
	return out
}

// InterceptorNames returns every interceptor name the manifest references,
// sorted.
func (m *Manifest) InterceptorNames() []string {
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			seen[n] = true
		}
	}
	var walk func([]string, []Route, []Group)
	walk = func(ics []string, routes []Route, groups []Group) {
		add(ics)
		for _, rt := range routes {
			add(rt.Interceptors)
		}
		for _, g := range groups {
			walk(g.Interceptors, g.Routes, g.Groups)
		}
	}
	walk(m.Interceptors, m.Routes, m.Groups)
	return slices.Sorted(maps.Keys(seen))
}
