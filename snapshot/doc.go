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

// Package snapshot captures a route table in a portable form and caches it
// in a [Store].
//
// A snapshot lists every route and method with its class-method handler,
// interceptors, alias and extra settings. Snapshots are msgpack encoded and
// identified by a ULID, so they sort by creation time:
//
//	snap, err := snapshot.Take(r.Tree())
//	err = store.Add(ctx, "routes:v3", snap)
//
//	snap, err = store.Get(ctx, "routes:v3")
//	err = snap.Apply(router)
//
// Routes bound to Go functions cannot be captured.
package snapshot
