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
	"errors"
	"fmt"
)

var (
	// ErrPatternSyntax is the sentinel wrapped by [PatternSyntaxError].
	ErrPatternSyntax = errors.New("unsupported pattern character")

	// ErrCursorRange indicates the parser tried to step before the first
	// segment. It signals a state machine bug and never reaches callers of a
	// well-formed registration.
	ErrCursorRange = errors.New("parser cursor out of range")

	// ErrMethodNotRegistered is returned by settings accessors when the node
	// has no settings for the requested method.
	ErrMethodNotRegistered = errors.New("method not registered on route")

	// ErrUnknownMethod is returned by [ParseMethod] for unsupported verbs.
	ErrUnknownMethod = errors.New("unknown HTTP method")

	// ErrEmptyMethods indicates a registration without any method.
	ErrEmptyMethods = errors.New("route registration requires at least one method")

	// ErrTreeFrozen is returned by [Tree.Add] after [Tree.Freeze].
	ErrTreeFrozen = errors.New("route tree is frozen")
)

// PatternSyntaxError describes a pattern segment the parser cannot classify.
type PatternSyntaxError struct {
	Pattern string // normalized pattern being registered
	Segment string // offending segment
	Reason  string
}

// Error implements error.
func (e *PatternSyntaxError) Error() string {
	return fmt.Sprintf("%v: %s in segment %q of pattern %q", ErrPatternSyntax, e.Reason, e.Segment, e.Pattern)
}

// Unwrap returns [ErrPatternSyntax].
func (e *PatternSyntaxError) Unwrap() error {
	return ErrPatternSyntax
}
