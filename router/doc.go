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

// Package router is an http.Handler that dispatches requests through a
// teleroute route tree.
//
// # Routes
//
// Patterns are made of static segments and required parameters:
//
//	r := router.MustNew()
//	r.GET("/users", listUsers)
//	r.GET("/users/:id", showUser, router.WithAlias("users.show"))
//
// Static routes are answered from a hash table; all others walk the tree,
// taking shortcuts over single-child chains. A static segment always wins
// over a parameter at the same position and the walk never backtracks.
//
// # Handlers
//
// A route dispatches either to a function or to a class-method reference
// resolved at request time:
//
//	reg := router.NewRegistry()
//	reg.Register("UserController", "show", showUser)
//	r := router.MustNew(router.WithResolver(reg))
//	r.Route([]tree.Method{tree.MethodGet}, "/users/:id",
//	    tree.ClassMethod{Class: "UserController", Method: "show"})
//
// # Interceptors
//
// Interceptors are registered by name and referenced by routes and groups.
// They run in order before the handler; the first error aborts dispatch:
//
//	r.Interceptor("auth", func(c *router.Context) error {
//	    if c.Request.Header.Get("Authorization") == "" {
//	        return errors.WithStatus(nil, http.StatusUnauthorized)
//	    }
//	    return nil
//	})
//	api := r.Group("/api", "auth")
//
// # Errors
//
// Unmatched paths get 404, unsupported methods 405 with an Allow header,
// rejected interceptors 403 unless the error carries a status, and
// unresolvable handlers 500. Responses are RFC 9457 problem details by
// default; see [WithErrorFormatter].
//
// # Reverse routing
//
// Aliased routes can be turned back into paths:
//
//	u, err := r.URL("users.show", "42") // "/users/42"
//
// # Lifecycle
//
// The router freezes on the first request it serves. Later registrations
// fail with [ErrRouterFrozen].
package router
