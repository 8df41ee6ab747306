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
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrRouterFrozen indicates that a route was registered after the router
	// started serving.
	ErrRouterFrozen = errors.New("router is frozen")

	// ErrRouteNotFound indicates that no route matched a path or alias.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed indicates that a route matched but does not accept
	// the request method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrMissingRouteParameter indicates that a required parameter for the route is missing.
	ErrMissingRouteParameter = errors.New("missing required parameter")

	// ErrNilHandler indicates that a route or interceptor was registered without a function.
	ErrNilHandler = errors.New("handler is nil")

	// ErrUnknownInterceptor indicates that a route references an interceptor
	// that was never registered.
	ErrUnknownInterceptor = errors.New("unknown interceptor")

	// ErrHandlerUnresolved indicates that a route's handler could not be
	// turned into a callable.
	ErrHandlerUnresolved = errors.New("handler could not be resolved")

	// ErrNoResolver indicates that a class-method handler was dispatched on a
	// router configured without a resolver.
	ErrNoResolver = errors.New("no resolver configured")
)

// methodNotAllowedError carries the methods a matched route accepts so the
// response can advertise them in an Allow header.
type methodNotAllowedError struct {
	method  string
	allowed []string
}

func (e *methodNotAllowedError) Error() string {
	return e.method + " " + ErrMethodNotAllowed.Error() + " (allowed: " + strings.Join(e.allowed, ", ") + ")"
}

func (e *methodNotAllowedError) Unwrap() error   { return ErrMethodNotAllowed }
func (e *methodNotAllowedError) HTTPStatus() int { return http.StatusMethodNotAllowed }
func (e *methodNotAllowedError) Allow() []string { return e.allowed }
func (e *methodNotAllowedError) Code() string    { return "method_not_allowed" }
