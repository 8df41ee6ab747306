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

import (
	"fmt"
	"net/http"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
)

// BodyLimit rejects requests declaring a body larger than limit bytes with
// 413 and caps the readable body of all others. A limit of zero or less
// disables the check.
func BodyLimit(limit int64) router.Interceptor {
	return func(c *router.Context) error {
		if limit <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			return nil
		}
		if c.Request.ContentLength > limit {
			return trerrors.WithStatus(
				fmt.Errorf("%w: %d bytes, limit %d", ErrBodyTooLarge, c.Request.ContentLength, limit),
				http.StatusRequestEntityTooLarge,
			)
		}
		c.Request.Body = http.MaxBytesReader(c.Response, c.Request.Body, limit)
		return nil
	}
}
