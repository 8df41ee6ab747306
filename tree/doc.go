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

// Package tree implements the route tree behind teleroute: pattern
// registration, request path matching and reverse lookup by alias.
//
// # Patterns
//
// A pattern is a "/"-separated list of segments. A segment starting with
// ":" is a required parameter that captures exactly one path segment. Any
// other segment must start with an ASCII letter or digit and is matched
// literally and case-sensitively. Patterns are normalized before storage,
// so "/a//b/" and "/a/b" register the same route.
//
//	t := tree.MustNew()
//	_, err := t.Add(tree.Registration{
//	    Pattern: "/users/:id/posts/:post",
//	    Methods: []tree.Method{tree.MethodGet},
//	    Handler: tree.ClassMethod{Class: "posts", Method: "show"},
//	    Alias:   "posts.show",
//	})
//
// # Matching
//
// Routes without parameters are kept in an exact-match table and answered
// without walking the tree. Other paths are walked one segment at a time;
// at each level a literal child wins over the parameter child.
//
//	m := t.Match("/users/42/posts/7")
//	if m.Found() && m.Node.HasMethod(tree.MethodGet) {
//	    fmt.Println(m.Params) // [42 7]
//	}
//
// A node only matches when the path has exactly as many segments as its
// pattern and the node terminates a registered route; "/a/b" never matches
// a route registered as "/a/b/c".
//
// # Teleport shortcuts
//
// Real APIs often have long runs of single-child segments such as
// "/repositories/:workspace/:repo_slug/pipelines_config/ssh/known_hosts".
// After each registration the tree records, on every node heading such a
// run, shortcuts keyed by how many segments they skip. Matching jumps along
// a shortcut after checking the skipped literal segments, instead of
// visiting each intermediate node. Shortcut lookup is read-only.
//
// # Concurrency
//
// Registrations are serialized by the tree. Matching is lock-free and safe
// for concurrent use once registrations are finished; [Tree.Freeze] makes
// that explicit by rejecting later registrations.
package tree
