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

package interceptor

import "errors"

// Static errors returned by rejecting interceptors.
var (
	// ErrUnauthorized is returned when credentials are missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBodyTooLarge is returned when the declared body exceeds the limit.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrRateLimited is returned when the client has no tokens left.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrOriginNotAllowed is returned for cross-origin requests from an
	// origin outside the allow list when rejection is enabled.
	ErrOriginNotAllowed = errors.New("origin not allowed")
)
