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
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithMeterProvider uses a caller-managed [metric.MeterProvider]. Provider
// options are ignored and [Recorder.Shutdown] leaves the provider running.
//
// Example:
//
//	reader := sdkmetric.NewManualReader()
//	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	rec := metrics.MustNew(metrics.WithMeterProvider(mp))
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the meter provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) { r.registerGlobal = true }
}

// WithServiceName sets the service.name attribute.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithExportInterval sets the export interval for OTLP and stdout metrics.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) { r.exportInterval = interval }
}

// WithDurationBuckets sets the dispatch duration histogram boundaries, in seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.durationBuckets = buckets }
}

// WithSizeBuckets sets the response size histogram boundaries, in bytes.
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.sizeBuckets = buckets }
}

// WithServerDisabled disables the dedicated Prometheus server. Serve
// [Recorder.Handler] yourself instead.
func WithServerDisabled() Option {
	return func(r *Recorder) { r.autoServer = false }
}

// WithMaxCustomMetrics caps the number of custom instruments.
func WithMaxCustomMetrics(maxLimit int) Option {
	return func(r *Recorder) { r.maxCustomMetrics = maxLimit }
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) { r.eventHandler = handler }
}

// WithLogger logs internal operational events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithPrometheus selects the Prometheus provider. addr is the listen address
// of the dedicated server (":9090" style; a bare port gets a colon) and path
// the scrape path.
func WithPrometheus(addr, path string) Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
		if addr != "" && !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		r.serverAddr = addr
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		r.metricsPath = path
	}
}

// WithOTLP selects the OTLP HTTP provider.
//
//	metrics.WithOTLP("http://localhost:4318")
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.providerSetCount++
		r.otlpEndpoint = endpoint
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithStdoutWriter redirects the stdout provider's output to w.
func WithStdoutWriter(w io.Writer) Option {
	return func(r *Recorder) { r.stdoutWriter = w }
}
