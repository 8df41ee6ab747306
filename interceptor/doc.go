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

// Package interceptor provides ready-made request interceptors for
// [router.Router]. Each constructor returns a [router.Interceptor] to be
// registered under a name and referenced by routes and groups:
//
//	r.Interceptor("auth", interceptor.BasicAuth(interceptor.WithUsers(users)))
//	r.Interceptor("headers", interceptor.SecurityHeaders())
//	r.Interceptor("limit", interceptor.RateLimit(50, 100))
//
// Rejections carry their HTTP status, so the router answers 401, 413 or 429
// instead of its default 403.
package interceptor
