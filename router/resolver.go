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
	"fmt"
	"sort"
	"sync"

	"github.com/teleroute/teleroute/tree"
)

// Resolver turns a class-method handler reference into a callable. It is
// typically backed by a dependency injection container.
type Resolver interface {
	Resolve(ref tree.ClassMethod) (HandlerFunc, error)
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(ref tree.ClassMethod) (HandlerFunc, error)

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref tree.ClassMethod) (HandlerFunc, error) {
	return f(ref)
}

// Registry is a map-backed Resolver. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[tree.ClassMethod]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[tree.ClassMethod]HandlerFunc)}
}

// Register binds class and method to fn. A later registration for the same
// pair replaces the earlier one.
func (reg *Registry) Register(class, method string, fn HandlerFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.handlers[tree.ClassMethod{Class: class, Method: method}] = fn
}

// Resolve implements Resolver.
func (reg *Registry) Resolve(ref tree.ClassMethod) (HandlerFunc, error) {
	reg.mu.RLock()
	fn, ok := reg.handlers[ref]
	reg.mu.RUnlock()
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s::%s", ErrHandlerUnresolved, ref.Class, ref.Method)
	}
	return fn, nil
}

// Refs returns the registered references sorted by class, then method.
func (reg *Registry) Refs() []tree.ClassMethod {
	reg.mu.RLock()
	refs := make([]tree.ClassMethod, 0, len(reg.handlers))
	for ref := range reg.handlers {
		refs = append(refs, ref)
	}
	reg.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Class == refs[j].Class {
			return refs[i].Method < refs[j].Method
		}
		return refs[i].Class < refs[j].Class
	})
	return refs
}

// resolve turns the handler stored on a route into a callable.
func (r *Router) resolve(h tree.Handler) (HandlerFunc, error) {
	switch h := h.(type) {
	case tree.Function:
		switch fn := h.Fn.(type) {
		case HandlerFunc:
			if fn != nil {
				return fn, nil
			}
		case func(*Context):
			if fn != nil {
				return fn, nil
			}
		}
		return nil, fmt.Errorf("%w: function handler has type %T", ErrHandlerUnresolved, h.Fn)
	case tree.ClassMethod:
		if r.resolver == nil {
			return nil, fmt.Errorf("%w: %w", ErrHandlerUnresolved, ErrNoResolver)
		}
		fn, err := r.resolver.Resolve(h)
		if err != nil {
			if errors.Is(err, ErrHandlerUnresolved) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrHandlerUnresolved, err)
		}
		if fn == nil {
			return nil, fmt.Errorf("%w: %s::%s resolved to nil", ErrHandlerUnresolved, h.Class, h.Method)
		}
		return fn, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrHandlerUnresolved, h)
	}
}
