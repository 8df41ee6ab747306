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

// Package errors formats dispatch errors as HTTP responses.
//
// Two formatters are provided. [RFC9457] produces problem details with
// Content-Type "application/problem+json" and is what the router uses by
// default. [Simple] produces a flat {"error": "..."} object.
//
// Errors choose their own status by implementing [ErrorType], expose a
// machine-readable code through [ErrorCode] and attach structured data
// through [ErrorDetails]. [WithStatus] and [WithCode] decorate plain errors.
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
//	errors.Write(w, formatter.Format(req, errors.WithStatus(err, http.StatusForbidden)))
package errors
