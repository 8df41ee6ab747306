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

package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Formatter converts an error into HTTP response components.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	Status      int
	ContentType string
	Body        any
	Headers     http.Header // optional
}

// ErrorType allows errors to declare their own HTTP status code.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// NewRFC9457 creates an RFC 9457 formatter. baseURL is prepended to error
// codes to build problem type URIs.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewSimple creates a Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// Write sends resp on w. Headers from resp are added before the status line.
func Write(w http.ResponseWriter, resp Response) error {
	for k, vals := range resp.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp.Body)
}

// WithStatus wraps err with an explicit HTTP status code. A nil err is
// allowed; its message becomes the status text.
//
//	return errors.WithStatus(err, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// WithCode wraps err with a machine-readable code.
func WithCode(err error, code string) error {
	return &codeError{err: err, code: code}
}

type codeError struct {
	err  error
	code string
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.code
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }
func (e *codeError) Code() string  { return e.code }

func resolveStatus(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}
