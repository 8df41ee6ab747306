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

package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// exclusion decides which dispatches go unrecorded. Paths are checked when a
// request starts; route patterns once the tree has matched it.
type exclusion struct {
	exact    map[string]struct{}
	prefixes []string
	regexps  []*regexp.Regexp
	routes   map[string]struct{}
}

func (e *exclusion) path(p string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.exact[p]; ok {
		return true
	}
	if slices.ContainsFunc(e.prefixes, func(pre string) bool { return strings.HasPrefix(p, pre) }) {
		return true
	}
	return slices.ContainsFunc(e.regexps, func(re *regexp.Regexp) bool { return re.MatchString(p) })
}

func (e *exclusion) route(pattern string) bool {
	if e == nil {
		return false
	}
	_, ok := e.routes[pattern]
	return ok
}

func (r *Recorder) exclude() *exclusion {
	if r.filter == nil {
		r.filter = &exclusion{exact: map[string]struct{}{}, routes: map[string]struct{}{}}
	}
	return r.filter
}

// WithExcludePaths skips requests for the exact paths, such as health checks.
// Repeated calls add to the set.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		e := r.exclude()
		for _, p := range paths {
			e.exact[p] = struct{}{}
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with any prefix.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		e := r.exclude()
		e.prefixes = append(e.prefixes, prefixes...)
	}
}

// WithExcludePatterns skips requests whose path matches a regular
// expression. [New] fails on an invalid expression.
func WithExcludePatterns(exprs ...string) Option {
	return func(r *Recorder) {
		e := r.exclude()
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				r.optionErrors = append(r.optionErrors, fmt.Errorf("exclude pattern %q: %w", expr, err))
				continue
			}
			e.regexps = append(e.regexps, re)
		}
	}
}

// WithExcludeRoutes skips dispatches that matched one of the route
// patterns, e.g. "/users/:id". Every path reaching the route is skipped.
func WithExcludeRoutes(patterns ...string) Option {
	return func(r *Recorder) {
		e := r.exclude()
		for _, p := range patterns {
			e.routes[p] = struct{}{}
		}
	}
}

// ShouldExcludePath reports whether requests for path are not recorded.
func (r *Recorder) ShouldExcludePath(path string) bool {
	return r.filter.path(path)
}

// ShouldExcludeRoute reports whether dispatches matching pattern are not
// recorded.
func (r *Recorder) ShouldExcludeRoute(pattern string) bool {
	return r.filter.route(pattern)
}
