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
	"errors"
	"net/http"
)

// Simple formats errors as {"error": "message", "code": "...", "details": ...}.
type Simple struct {
	// StatusResolver determines the HTTP status. Defaults to [ErrorType],
	// then 500.
	StatusResolver func(err error) int
}

// Format converts err into a simple JSON response.
func (f *Simple) Format(_ *http.Request, err error) Response {
	body := map[string]any{
		"error": err.Error(),
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		body["details"] = detailed.Details()
	}
	var coded ErrorCode
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}

	var headers http.Header
	var allowed interface{ Allow() []string }
	if errors.As(err, &allowed) {
		headers = http.Header{"Allow": allowed.Allow()}
	}

	return Response{
		Status:      resolveStatus(f.StatusResolver, err),
		ContentType: "application/json; charset=utf-8",
		Body:        body,
		Headers:     headers,
	}
}
