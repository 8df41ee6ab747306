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

package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

// TestingRecorder creates a [Recorder] for unit tests: stdout provider
// writing to [io.Discard], no server, shut down on test cleanup.
func TestingRecorder(tb testing.TB, serviceName string, opts ...Option) *Recorder {
	tb.Helper()

	all := append([]Option{
		WithServiceName(serviceName),
		WithStdout(),
		WithStdoutWriter(io.Discard),
		WithServerDisabled(),
	}, opts...)
	rec, err := New(all...)
	if err != nil {
		tb.Fatalf("TestingRecorder: failed to create recorder: %v", err)
	}
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.Shutdown(ctx); err != nil {
			tb.Logf("TestingRecorder: shutdown warning: %v", err)
		}
	})
	return rec
}

// WaitForMetricsServer waits until address accepts TCP connections.
func WaitForMetricsServer(tb testing.TB, address string, timeout time.Duration) error {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", address, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("%w after %v", ErrServerNotReady, timeout)
}
