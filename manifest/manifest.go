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

package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/teleroute/teleroute/config"
	"github.com/teleroute/teleroute/tree"
)

// Version is the only manifest version understood.
const Version = 1

// MethodAny expands to every supported method.
const MethodAny = "ANY"

// Static errors.
var (
	ErrInvalid    = errors.New("invalid manifest")
	ErrBadHandler = errors.New("invalid handler reference")
)

// Manifest is the root group of a route declaration.
type Manifest struct {
	Version      int      `manifest:"version" validate:"eq=1"`
	Prefix       string   `manifest:"prefix" validate:"omitempty,startswith=/"`
	Alias        string   `manifest:"alias" validate:"omitempty,routealias"`
	Interceptors []string `manifest:"interceptors" validate:"dive,required"`
	Routes       []Route  `manifest:"routes" validate:"dive"`
	Groups       []Group  `manifest:"groups" validate:"dive"`
}

// Group shares a prefix, interceptors and alias prefix among its routes.
type Group struct {
	Prefix       string   `manifest:"prefix" validate:"omitempty,startswith=/"`
	Alias        string   `manifest:"alias" validate:"omitempty,routealias"`
	Interceptors []string `manifest:"interceptors" validate:"dive,required"`
	Routes       []Route  `manifest:"routes" validate:"dive"`
	Groups       []Group  `manifest:"groups" validate:"dive"`
}

// Route declares one pattern.
type Route struct {
	Pattern      string         `manifest:"pattern" validate:"omitempty,startswith=/"`
	Methods      []string       `manifest:"methods" validate:"required,min=1,dive,httpmethod"`
	Handler      string         `manifest:"handler" validate:"required_without=Class,excluded_with=Class"`
	Class        string         `manifest:"class" validate:"required_without=Handler"`
	Method       string         `manifest:"method" validate:"required_with=Class,excluded_without=Class"`
	Interceptors []string       `manifest:"interceptors" validate:"dive,required"`
	Alias        string         `manifest:"alias" validate:"omitempty,routealias"`
	Extra        map[string]any `manifest:"extra"`
}

// Ref returns the route's handler reference.
func (r Route) Ref() (tree.ClassMethod, error) {
	if r.Handler == "" {
		if r.Class == "" || r.Method == "" {
			return tree.ClassMethod{}, fmt.Errorf("%w: class and method are required", ErrBadHandler)
		}
		return tree.ClassMethod{Class: r.Class, Method: r.Method}, nil
	}
	return ParseRef(r.Handler)
}

// ParseRef parses "Class::method" or "Class@method".
func ParseRef(s string) (tree.ClassMethod, error) {
	for _, sep := range []string{"::", "@"} {
		class, method, ok := strings.Cut(s, sep)
		if !ok {
			continue
		}
		class, method = strings.TrimSpace(class), strings.TrimSpace(method)
		if class == "" || method == "" {
			break
		}
		return tree.ClassMethod{Class: class, Method: method}, nil
	}
	return tree.ClassMethod{}, fmt.Errorf("%w: %q", ErrBadHandler, s)
}

// TreeMethods converts the route's verbs. [MethodAny] expands to every
// method; duplicates are dropped.
func (r Route) TreeMethods() ([]tree.Method, error) {
	seen := make(map[tree.Method]bool, len(r.Methods))
	out := make([]tree.Method, 0, len(r.Methods))
	add := func(m tree.Method) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, v := range r.Methods {
		if strings.EqualFold(strings.TrimSpace(v), MethodAny) {
			for _, m := range tree.AllMethods() {
				add(m)
			}
			continue
		}
		m, err := tree.ParseMethod(v)
		if err != nil {
			return nil, err
		}
		add(m)
	}
	return out, nil
}

//go:embed manifest.schema.json
var schemaJSON []byte

// Schema returns the JSON Schema manifests are checked against.
func Schema() []byte { return bytes.Clone(schemaJSON) }

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err = c.AddResource("mem://manifest.schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("mem://manifest.schema.json")
})

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("manifest"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.EqualFold(s, MethodAny) {
			return true
		}
		_, err := tree.ParseMethod(s)
		return err == nil
	})
	_ = v.RegisterValidation("routealias", func(fl validator.FieldLevel) bool {
		return aliasPattern.MatchString(fl.Field().String())
	})
	return v
})

// Parse decodes and validates a manifest.
func Parse(data []byte, format config.Format) (*Manifest, error) {
	raw, err := config.Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err = validateSchema(raw); err != nil {
		return nil, err
	}

	var m Manifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "manifest",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &m,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, err
	}
	if err = dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err = m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validateSchema round-trips through JSON so the validator sees plain JSON
// values regardless of the source codec.
func validateSchema(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err = schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Validate checks field constraints. Pattern syntax is checked when the
// manifest is applied.
func (m *Manifest) Validate() error {
	err := structValidator().Struct(m)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.Namespace(), "Manifest.")
		msg := fmt.Sprintf("%s: failed %q", ns, fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Load reads a manifest file; the format comes from its extension.
func Load(path string) (*Manifest, error) {
	format, err := config.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadFS is like [Load] for a file in fsys.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	format, err := config.DetectFormat(filepath.Base(name))
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// Count returns the number of routes declared, nested groups included.
func (m *Manifest) Count() int {
	return count(m.Routes, m.Groups)
}

func count(routes []Route, groups []Group) int {
	n := len(routes)
	for _, g := range groups {
		n += count(g.Routes, g.Groups)
	}
	return n
}
