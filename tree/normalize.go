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
	"net/url"
	"strings"
)

// NormalizePattern canonicalizes a route pattern: it ensures a leading
// slash, collapses repeated slashes and trims a trailing slash. "/a//b/"
// and "/a/b" normalize identically.
func NormalizePattern(pattern string) string {
	return cleanPath(pattern, false)
}

// NormalizePath canonicalizes a request path the same way patterns are
// canonicalized. Bytes that cannot appear in a raw URL (ASCII control
// characters and space) are dropped, the path is split into segments and
// each segment is percent-decoded on its own. An escaped slash therefore
// stays inside its segment. The result re-escapes slashes, percent signs
// and bytes that are illegal in a raw URL, so normalizing it again is a
// no-op. A segment with a malformed escape keeps its raw text. The query
// string must already be removed.
func NormalizePath(path string) string {
	segs := pathSegments(path)
	if len(segs) <= 1 {
		return rootSegment
	}
	var b strings.Builder
	for _, s := range segs[1:] {
		b.WriteByte('/')
		escapeSegment(&b, s)
	}
	return b.String()
}

func escapeSegment(b *strings.Builder, s string) {
	const hex = "0123456789ABCDEF"
	for i := range len(s) {
		c := s[i]
		if c == '%' || c == '/' || !legalURLByte(c) {
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
			continue
		}
		b.WriteByte(c)
	}
}

// pathSegments splits a raw request path into decoded segments, with the
// root marker as the first element.
func pathSegments(path string) []string {
	p := cleanPath(path, true)
	segs := splitSegments(p)
	if strings.IndexByte(p, '%') < 0 {
		return segs
	}
	for i := 1; i < len(segs); i++ {
		if strings.IndexByte(segs[i], '%') < 0 {
			continue
		}
		if u, err := url.PathUnescape(segs[i]); err == nil {
			segs[i] = u
		}
	}
	return segs
}

// staticKey returns the static table key for decoded segments. Segments
// holding a decoded slash can never name a static route.
func staticKey(segs []string) (string, bool) {
	for _, s := range segs[1:] {
		if strings.IndexByte(s, '/') >= 0 {
			return "", false
		}
	}
	return flatten(segs), true
}

func legalURLByte(c byte) bool {
	return c > ' ' && c != 0x7f
}

func isClean(p string, sanitize bool) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if len(p) > 1 && p[len(p)-1] == '/' {
		return false
	}
	for i := 1; i < len(p); i++ {
		if p[i] == '/' && p[i-1] == '/' {
			return false
		}
		if sanitize && !legalURLByte(p[i]) {
			return false
		}
	}
	return true
}

func cleanPath(p string, sanitize bool) string {
	if isClean(p, sanitize) {
		return p
	}

	buf := make([]byte, 1, len(p)+1)
	buf[0] = '/'
	for i := range len(p) {
		c := p[i]
		if sanitize && !legalURLByte(c) {
			continue
		}
		if c == '/' && buf[len(buf)-1] == '/' {
			continue
		}
		buf = append(buf, c)
	}
	if len(buf) > 1 && buf[len(buf)-1] == '/' {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

// splitSegments splits a normalized path into segments, with the root
// marker as the first element.
func splitSegments(p string) []string {
	if p == rootSegment {
		return []string{rootSegment}
	}
	parts := strings.Split(p[1:], "/")
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, rootSegment)
	return append(segs, parts...)
}

// flatten is the inverse of splitSegments.
func flatten(segments []string) string {
	if len(segments) <= 1 {
		return rootSegment
	}
	return rootSegment + strings.Join(segments[1:], "/")
}
