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

package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/teleroute/teleroute/tree"
)

// Group registers routes under a common path prefix with shared
// interceptors. Group interceptors run before route interceptors, outer
// groups first.
//
// Example:
//
//	api := r.Group("/api/v1", "auth")
//	users := api.Group("/users", "audit").SetNamePrefix("users")
//	users.GET("/:id", getUser, router.WithAlias("show")) // alias "users.show"
type Group struct {
	router       *Router
	prefix       string
	interceptors []string
	namePrefix   string
}

// Group creates a route group under prefix.
func (r *Router) Group(prefix string, interceptors ...string) *Group {
	return &Group{
		router:       r,
		prefix:       prefix,
		interceptors: slices.Clone(interceptors),
	}
}

// Group creates a nested group. The prefix, interceptors and name prefix
// of g are inherited.
func (g *Group) Group(prefix string, interceptors ...string) *Group {
	all := make([]string, 0, len(g.interceptors)+len(interceptors))
	all = append(all, g.interceptors...)
	all = append(all, interceptors...)

	return &Group{
		router:       g.router,
		prefix:       joinPrefix(g.prefix, prefix),
		interceptors: all,
		namePrefix:   g.namePrefix,
	}
}

// Use appends interceptors for routes registered on g afterwards.
func (g *Group) Use(interceptors ...string) *Group {
	g.interceptors = append(g.interceptors, interceptors...)
	return g
}

// SetNamePrefix appends prefix to the group's alias prefix. Segments are
// joined with a single dot.
func (g *Group) SetNamePrefix(prefix string) *Group {
	g.namePrefix = joinName(g.namePrefix, prefix)
	return g
}

// Prefix returns the group's path prefix.
func (g *Group) Prefix() string { return g.prefix }

// GET registers fn for GET requests to the group prefix plus pattern.
func (g *Group) GET(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodGet}, pattern, fn, opts)
}

// POST registers fn for POST requests to the group prefix plus pattern.
func (g *Group) POST(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodPost}, pattern, fn, opts)
}

// PUT registers fn for PUT requests to the group prefix plus pattern.
func (g *Group) PUT(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodPut}, pattern, fn, opts)
}

// PATCH registers fn for PATCH requests to the group prefix plus pattern.
func (g *Group) PATCH(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodPatch}, pattern, fn, opts)
}

// DELETE registers fn for DELETE requests to the group prefix plus pattern.
func (g *Group) DELETE(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodDelete}, pattern, fn, opts)
}

// HEAD registers fn for HEAD requests to the group prefix plus pattern.
func (g *Group) HEAD(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodHead}, pattern, fn, opts)
}

// OPTIONS registers fn for OPTIONS requests to the group prefix plus pattern.
func (g *Group) OPTIONS(pattern string, fn HandlerFunc, opts ...RouteOption) error {
	return g.handleFunc([]tree.Method{tree.MethodOptions}, pattern, fn, opts)
}

// Route registers any handler variant under the group.
func (g *Group) Route(methods []tree.Method, pattern string, h tree.Handler, opts ...RouteOption) error {
	rc := &routeConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	rc.interceptors = append(slices.Clone(g.interceptors), rc.interceptors...)
	if rc.alias != "" {
		rc.alias = joinName(g.namePrefix, rc.alias)
	}
	return g.router.register(methods, joinPrefix(g.prefix, pattern), h, rc)
}

func (g *Group) handleFunc(methods []tree.Method, pattern string, fn HandlerFunc, opts []RouteOption) error {
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, joinPrefix(g.prefix, pattern))
	}
	return g.Route(methods, pattern, tree.Function{Fn: fn}, opts...)
}

func joinPrefix(prefix, pattern string) string {
	switch {
	case prefix == "":
		return pattern
	case pattern == "":
		return prefix
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(pattern, "/")
}

func joinName(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	name = strings.Trim(name, ".")
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	}
	return prefix + "." + name
}
