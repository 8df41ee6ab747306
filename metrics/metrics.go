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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	// DefaultDurationBuckets are histogram boundaries for dispatch duration in
	// seconds. Route matching alone is sub-microsecond, so the low end is finer
	// than usual HTTP buckets.
	DefaultDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets are histogram boundaries for response size in bytes.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}

	// DefaultStepBuckets are histogram boundaries for child lookups per walk.
	DefaultStepBuckets = []float64{0, 1, 2, 3, 4, 6, 8, 12, 16, 32}
)

const instrumentationName = "github.com/teleroute/teleroute/metrics"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as a failed export or the
// metrics server starting.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs to logger. A nil
// logger discards events.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider represents the available metrics providers.
type Provider string

const (
	// PrometheusProvider uses the Prometheus exporter (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider uses the OTLP HTTP exporter.
	OTLPProvider Provider = "otlp"
	// StdoutProvider uses the stdout exporter.
	StdoutProvider Provider = "stdout"
)

// Recorder holds OpenTelemetry metrics configuration and runtime state.
// All methods are safe for concurrent use.
//
// The global OpenTelemetry meter provider is left alone unless
// [WithGlobalMeterProvider] is given.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	dispatchDuration     metric.Float64Histogram
	dispatchCount        metric.Int64Counter
	activeDispatches     metric.Int64UpDownCounter
	dispatchErrors       metric.Int64Counter
	responseSize         metric.Int64Histogram
	matchSteps           metric.Int64Histogram
	matchTeleports       metric.Int64Counter
	matchMisses          metric.Int64Counter
	customMetricFailures metric.Int64Counter

	customMu          sync.RWMutex
	customCounters    map[string]metric.Int64Counter
	customHistograms  map[string]metric.Float64Histogram
	customGauges      map[string]metric.Float64Gauge
	customMetricCount int
	maxCustomMetrics  int
	customFailures    atomic.Int64

	durationBuckets []float64
	sizeBuckets     []float64
	filter          *exclusion
	optionErrors    []error

	serviceName    string
	serviceVersion string
	serviceAttrs   attribute.Set

	provider         Provider
	providerSetCount int
	otlpEndpoint     string
	exportInterval   time.Duration
	stdoutWriter     io.Writer

	serverAddr  string
	metricsPath string
	autoServer  bool
	serverMu    sync.Mutex
	server      *http.Server
	listener    net.Listener

	customMeterProvider bool
	registerGlobal      bool
	started             atomic.Bool
	shuttingDown        atomic.Bool
}

// New creates a [Recorder]. Returns an error if the provider fails to
// initialize.
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	r.serviceAttrs = attribute.NewSet(
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	)
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics: %v", err))
	}
	return r
}

func newDefaultRecorder() *Recorder {
	return &Recorder{
		serviceName:      "teleroute",
		serviceVersion:   "dev",
		provider:         PrometheusProvider,
		exportInterval:   30 * time.Second,
		stdoutWriter:     os.Stdout,
		serverAddr:       ":9090",
		metricsPath:      "/metrics",
		autoServer:       true,
		maxCustomMetrics: 1000,
		durationBuckets:  DefaultDurationBuckets,
		sizeBuckets:      DefaultSizeBuckets,
		customCounters:   make(map[string]metric.Int64Counter),
		customHistograms: make(map[string]metric.Float64Histogram),
		customGauges:     make(map[string]metric.Float64Gauge),
	}
}

func (r *Recorder) validate() error {
	if len(r.optionErrors) > 0 {
		return errors.Join(r.optionErrors...)
	}
	if r.providerSetCount > 1 {
		return fmt.Errorf("%w: only one of WithPrometheus, WithOTLP or WithStdout can be used", ErrConflictingProviders)
	}
	if r.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if r.serviceVersion == "" {
		return errors.New("service version cannot be empty")
	}
	if r.maxCustomMetrics < 1 {
		return fmt.Errorf("maxCustomMetrics must be at least 1, got %d", r.maxCustomMetrics)
	}
	if r.exportInterval < time.Second {
		r.emitWarning("Export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}
	if r.customMeterProvider {
		return nil
	}

	switch r.provider {
	case PrometheusProvider:
		if r.autoServer && r.serverAddr == "" {
			return errors.New("metrics server address cannot be empty for Prometheus provider")
		}
		if r.metricsPath == "" {
			return errors.New("metrics path cannot be empty for Prometheus provider")
		}
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	case StdoutProvider:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, r.provider)
	}
	return nil
}

// Handler returns the Prometheus scrape handler, for mounting on an
// existing server when [WithServerDisabled] is used.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNotPrometheus, r.Provider())
	}
	return r.prometheusHandler, nil
}

// Provider returns the configured provider, or "" for a custom meter provider.
func (r *Recorder) Provider() Provider {
	if r.customMeterProvider {
		return ""
	}
	return r.provider
}

// ServerAddress returns the address the metrics server listens on once
// started, or "" when no server runs.
func (r *Recorder) ServerAddress() string {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Path returns the scrape path for the Prometheus provider.
func (r *Recorder) Path() string {
	if r.Provider() != PrometheusProvider {
		return ""
	}
	return r.metricsPath
}

// ServiceName returns the service name.
func (r *Recorder) ServiceName() string { return r.serviceName }

// ServiceVersion returns the service version.
func (r *Recorder) ServiceVersion() string { return r.serviceVersion }

// Start starts the dedicated Prometheus server when enabled. It is
// idempotent. The server stops when ctx is cancelled or on [Recorder.Shutdown].
func (r *Recorder) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return nil
	}
	if r.autoServer && r.prometheusHandler != nil {
		if err := r.startServer(ctx); err != nil {
			r.started.Store(false)
			return err
		}
	}
	return nil
}

// Shutdown stops the metrics server and flushes and shuts down the meter
// provider, unless the provider was supplied by the caller. It is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := r.stopServer(ctx); err != nil {
		errs = append(errs, err)
	}
	if r.customMeterProvider {
		r.emitDebug("Skipping shutdown of custom meter provider")
	} else if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			r.emitWarning("metrics flush warning", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ForceFlush exports pending data for push-based providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.shuttingDown.Load() {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	return nil
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: t, Message: msg, Args: args})
	}
}

func (r *Recorder) emitError(msg string, args ...any)   { r.emit(EventError, msg, args...) }
func (r *Recorder) emitWarning(msg string, args ...any) { r.emit(EventWarning, msg, args...) }
func (r *Recorder) emitInfo(msg string, args ...any)    { r.emit(EventInfo, msg, args...) }
func (r *Recorder) emitDebug(msg string, args ...any)   { r.emit(EventDebug, msg, args...) }
