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

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// DefaultTag is the struct tag read when binding.
const DefaultTag = "config"

// Option configures a [Config].
type Option func(c *Config) error

// Config merges values from its sources and optionally binds them into a
// struct. It is safe for concurrent use.
type Config struct {
	mu               sync.RWMutex
	values           map[string]any
	sources          []Source
	binding          any
	tagName          string
	schema           *jsonschema.Schema
	customValidators []func(map[string]any) error
	structValidator  *validator.Validate
}

// Validator is implemented by bound structs that check themselves.
type Validator interface {
	Validate() error
}

// WithSource appends a source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return ErrNilSource
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile appends a file source. The format comes from the extension and
// the path is expanded with os.ExpandEnv.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := DetectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		c.sources = append(c.sources, NewFileSource(path, format))
		return nil
	}
}

// WithFileAs appends a file source with an explicit format.
func WithFileAs(path string, format Format) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, NewFileSource(os.ExpandEnv(path), format))
		return nil
	}
}

// WithContent appends inline content.
//
//	config.WithContent([]byte("server:\n  addr: :9000"), config.FormatYAML)
func WithContent(data []byte, format Format) Option {
	return func(c *Config) error {
		if _, err := ParseFormat(string(format)); err != nil {
			return NewError("content-source", "detect-format", err)
		}
		c.sources = append(c.sources, NewContentSource(data, format))
		return nil
	}
}

// WithEnv appends environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, NewEnvSource(prefix))
		return nil
	}
}

// WithConsul appends a Consul KV source for key, format taken from the key's
// extension. It is skipped when CONSUL_HTTP_ADDR is unset, so the same
// options work on machines without Consul.
func WithConsul(key string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		key = os.ExpandEnv(key)
		format, err := DetectFormat(key)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		src, err := NewConsulSource(key, format, nil)
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithBinding binds merged values into the struct v points to on every
// successful Load.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if v == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
			return ErrNilBinding
		}
		c.binding = v
		return nil
	}
}

// WithTag changes the struct tag used for binding.
func WithTag(tag string) Option {
	return func(c *Config) error {
		if tag == "" {
			return errors.New("tag name cannot be empty")
		}
		c.tagName = tag
		return nil
	}
}

// WithJSONSchema validates merged values against schema before binding.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}
		compiler := jsonschema.NewCompiler()
		const url = "mem://config.schema.json"
		if err = compiler.AddResource(url, doc); err != nil {
			return NewError("json-schema", "compile", err)
		}
		s, err := compiler.Compile(url)
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = s
		return nil
	}
}

// WithValidator adds a function run on merged values before binding.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn == nil {
			return errors.New("validator cannot be nil")
		}
		c.customValidators = append(c.customValidators, fn)
		return nil
	}
}

// WithStructValidator replaces the validator used for "validate" tags on the
// bound struct.
func WithStructValidator(v *validator.Validate) Option {
	return func(c *Config) error {
		c.structValidator = v
		return nil
	}
}

// New applies options. Option errors are joined; the returned Config is
// usable even when err is non-nil.
func New(options ...Option) (*Config, error) {
	c := &Config{
		values:          make(map[string]any),
		tagName:         DefaultTag,
		structValidator: validator.New(validator.WithRequiredStructEnabled()),
	}

	var errs []error
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return c, errors.Join(errs...)
}

// MustNew is like [New] but panics on error.
func MustNew(options ...Option) *Config {
	c, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return c
}

// Load reads every source in order, merges them, validates the result and
// binds it. Current values are replaced only when every step succeeds.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := src.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err = mergo.Map(&merged, normalizeKeys(values), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	if c.schema != nil {
		if err := c.schema.Validate(toJSONValue(merged)); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.customValidators {
		if err := runValidator(fn, merged); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		if err := c.bind(merged); err != nil {
			return err
		}
	}
	c.values = merged
	return nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(values)
}

// bind decodes into a fresh value first so a failed Load leaves the target
// untouched.
func (c *Config) bind(values map[string]any) error {
	target := reflect.New(reflect.TypeOf(c.binding).Elem())
	dc := &mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	}
	dec, err := mapstructure.NewDecoder(dc)
	if err != nil {
		return NewError("binding", "bind", err)
	}
	if err = dec.Decode(values); err != nil {
		return NewError("binding", "bind", err)
	}
	if target.Elem().Kind() == reflect.Struct {
		if err = setDefaults(target.Elem()); err != nil {
			return NewError("binding", "defaults", err)
		}
		if c.structValidator != nil {
			if err = c.structValidator.Struct(target.Interface()); err != nil {
				return fieldError(err)
			}
		}
	}
	if v, ok := target.Interface().(Validator); ok {
		if err = v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	reflect.ValueOf(c.binding).Elem().Set(target.Elem())
	return nil
}

// fieldError reports the first failed struct tag by its dotted key.
func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewError("binding", "validate", err)
	}
	fe := verrs[0]
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return NewFieldError("binding", ns, "validate",
		fmt.Errorf("failed %q rule%s", fe.Tag(), paramSuffix(fe.Param())))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return " (" + p + ")"
}

func setDefaults(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeFor[time.Time]() {
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		}
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setDefault(field, def); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func setDefault(field reflect.Value, def string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(def)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(def)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := cast.ToInt64E(def)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(def)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(def)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(def)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported default for %s", field.Type())
		}
		field.Set(reflect.ValueOf(cast.ToStringSlice(strings.Split(def, ","))))
	default:
		return fmt.Errorf("unsupported default for %s", field.Kind())
	}
	return nil
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := asStringMap(v); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// asStringMap accepts the map shapes produced by the codecs.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[cast.ToString(k)] = v
		}
		return out, true
	}
	return nil, false
}

// toJSONValue converts integers and times to the kinds the schema validator
// understands.
func toJSONValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = toJSONValue(v)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = toJSONValue(v)
		}
		return out
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return cast.ToFloat64(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return v
}

// Values returns a copy of the merged top-level values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// Dump renders the merged values in format.
func (c *Config) Dump(format Format) ([]byte, error) {
	return Encode(format, c.Values())
}
