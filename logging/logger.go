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

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs compact colored lines.
	ConsoleHandler HandlerType = "console"
	// CharmHandler outputs charmbracelet/log styled lines.
	CharmHandler HandlerType = "charm"
)

// Level represents log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redacted replaces the value of sensitive attributes.
const redacted = "***REDACTED***"

var defaultRedactedKeys = []string{"password", "token", "secret", "api_key", "authorization"}

// Logger builds and owns an [slog.Logger].
//
// All methods are safe for concurrent use. The level is held in a
// [slog.LevelVar] so [Logger.SetLevel] never rebuilds the handler.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar

	serviceName    string
	serviceVersion string
	environment    string

	addSource    bool
	replaceAttr  func(groups []string, a slog.Attr) slog.Attr
	redactedKeys []string

	customLogger *slog.Logger
	useCustom    bool

	registerGlobal bool

	slogger  atomic.Pointer[slog.Logger]
	mu       sync.Mutex
	shutdown atomic.Bool
}

// Option is a functional option for configuring the logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	l := &Logger{
		handlerType:  JSONHandler,
		output:       os.Stdout,
		redactedKeys: slices.Clone(defaultRedactedKeys),
	}
	l.level.Set(LevelInfo)
	return l
}

// New creates a Logger with the given options.
//
// New does not replace the global slog default unless [WithGlobalLogger]
// is given.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustNew creates a Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

// Validate checks if the configuration is valid.
func (l *Logger) Validate() error {
	if l.useCustom {
		if l.customLogger == nil {
			return ErrNilLogger
		}
		return nil
	}
	if l.output == nil {
		return ErrNilOutput
	}
	switch l.handlerType {
	case JSONHandler, TextHandler, ConsoleHandler, CharmHandler:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}
	return nil
}

func (l *Logger) initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.useCustom {
		l.slogger.Store(l.customLogger)
		if l.registerGlobal {
			slog.SetDefault(l.customLogger)
		}
		return nil
	}

	handler, err := l.buildHandler()
	if err != nil {
		return err
	}
	sl := slog.New(&traceHandler{next: handler})

	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}

	l.slogger.Store(sl)
	if l.registerGlobal {
		slog.SetDefault(sl)
	}
	return nil
}

func (l *Logger) buildHandler() (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.buildReplaceAttr(),
	}

	switch l.handlerType {
	case JSONHandler:
		return slog.NewJSONHandler(l.output, opts), nil
	case TextHandler:
		return slog.NewTextHandler(l.output, opts), nil
	case ConsoleHandler:
		return newConsoleHandler(l.output, opts), nil
	case CharmHandler:
		cl := charmlog.NewWithOptions(l.output, charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportTimestamp: true,
			ReportCaller:    l.addSource,
			TimeFormat:      "15:04:05.000",
		})
		// charmbracelet/log has no ReplaceAttr hook.
		return &redactHandler{next: cl, level: &l.level, replace: opts.ReplaceAttr}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
}

func (l *Logger) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	keys := l.redactedKeys
	user := l.replaceAttr
	return func(groups []string, a slog.Attr) slog.Attr {
		if isRedacted(keys, a.Key) {
			return slog.String(a.Key, redacted)
		}
		if user != nil {
			return user(groups, a)
		}
		return a
	}
}

func isRedacted(keys []string, key string) bool {
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger.Load()
}

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.Logger().With(args...)
}

// WithGroup returns a [slog.Logger] with a group name.
func (l *Logger) WithGroup(name string) *slog.Logger {
	return l.Logger().WithGroup(name)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l.shutdown.Load() {
		return
	}
	sl := l.Logger()
	ctx := context.Background()
	if !sl.Enabled(ctx, level) {
		return
	}
	sl.Log(ctx, level, msg, args...)
}

// Debug logs a debug message with structured attributes.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs an informational message with structured attributes.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message with structured attributes.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs an error message with structured attributes.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// Shutdown stops the convenience methods and flushes the handler if it
// supports flushing. The underlying [slog.Logger] stays usable.
func (l *Logger) Shutdown(_ context.Context) error {
	l.shutdown.Store(true)
	if sl := l.Logger(); sl != nil {
		if f, ok := sl.Handler().(interface{ Flush() error }); ok {
			return f.Flush()
		}
	}
	return nil
}

// SetLevel changes the minimum level at runtime.
// Returns [ErrCannotChangeLevel] for custom loggers.
func (l *Logger) SetLevel(level Level) error {
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)
	return nil
}

// Level returns the current minimum log level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// ServiceName returns the service name.
func (l *Logger) ServiceName() string { return l.serviceName }

// ServiceVersion returns the service version.
func (l *Logger) ServiceVersion() string { return l.serviceVersion }

// Environment returns the environment.
func (l *Logger) Environment() string { return l.environment }

// IsEnabled reports whether the logger has not been shut down.
func (l *Logger) IsEnabled() bool { return !l.shutdown.Load() }

// ParseLevel maps a level name (debug, info, warn, warning, error) to a
// [Level]. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
