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

	"github.com/google/uuid"
)

// RFC9457 formats errors as RFC 9457 problem details.
type RFC9457 struct {
	// BaseURL is prepended to error codes to build problem type URIs.
	BaseURL string

	// TypeResolver maps an error to a problem type URI. Defaults to the
	// error code under BaseURL, or "about:blank".
	TypeResolver func(err error) string

	// StatusResolver determines the HTTP status. Defaults to [ErrorType],
	// then 500.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates ids for error correlation. Defaults to a
	// UUIDv7.
	ErrorIDGenerator func() string

	// DisableErrorID disables the error_id extension.
	DisableErrorID bool
}

// ProblemDetail is an RFC 9457 problem detail. Extensions are marshaled
// inline next to the standard members.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// MarshalJSON merges extensions into the object. Extensions cannot
// override the standard members.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		switch k {
		case "type", "title", "status", "detail", "instance":
		default:
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// Format converts err into a problem detail response.
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := resolveStatus(f.StatusResolver, err)

	p := ProblemDetail{
		Type:       f.problemType(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Extensions: make(map[string]any),
	}
	if req != nil && req.URL != nil {
		p.Instance = req.URL.Path
	}

	if !f.DisableErrorID {
		if f.ErrorIDGenerator != nil {
			p.Extensions["error_id"] = f.ErrorIDGenerator()
		} else {
			p.Extensions["error_id"] = uuid.Must(uuid.NewV7()).String()
		}
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		p.Extensions["errors"] = detailed.Details()
	}
	var coded ErrorCode
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
	}

	var headers http.Header
	var allowed interface{ Allow() []string }
	if errors.As(err, &allowed) {
		headers = http.Header{"Allow": allowed.Allow()}
	}

	return Response{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Body:        p,
		Headers:     headers,
	}
}

func (f *RFC9457) problemType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}
	var coded ErrorCode
	if errors.As(err, &coded) {
		if f.BaseURL != "" {
			return f.BaseURL + "/" + coded.Code()
		}
		return coded.Code()
	}
	return "about:blank"
}
