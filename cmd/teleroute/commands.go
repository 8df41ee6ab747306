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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/teleroute/teleroute/manifest"
	"github.com/teleroute/teleroute/router"
	"github.com/teleroute/teleroute/snapshot"
	"github.com/teleroute/teleroute/tree"
)

func (c *cli) flags(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: teleroute %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp { //nolint:errorlint // sentinel returned as is
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

func (c *cli) manifestFlag(fs *flag.FlagSet) *string {
	return fs.String("manifest", c.env.Manifest, "route manifest (YAML, TOML or JSON)")
}

// load reads the manifest at path and builds a router from it.
func (c *cli) load(path string, opts ...router.Option) (*manifest.Manifest, *router.Router, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("%w: no manifest, set -manifest or TELEROUTECTL_MANIFEST", errUsage)
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}
	c.log.Debug("manifest loaded", "path", path, "routes", m.Count())

	r, err := m.Build(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, r, nil
}

func cmdTree(_ context.Context, c *cli, args []string) error {
	fs := c.flags("tree", "")
	path := c.manifestFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	_, r, err := c.load(*path)
	if err != nil {
		return err
	}

	t := r.Tree()
	fmt.Fprintln(c.stdout, renderTree(t.Root()))
	fmt.Fprintln(c.stdout, dimStyle.Render(fmt.Sprintf("%d routes, %d static", len(t.Routes()), len(t.StaticPaths()))))
	return nil
}

func cmdRoutes(_ context.Context, c *cli, args []string) error {
	fs := c.flags("routes", "")
	path := c.manifestFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	m, r, err := c.load(*path)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, renderRoutes(routeRows(r.Tree()), terminalWidth(c.stdout)))
	if names := m.InterceptorNames(); len(names) > 0 {
		fmt.Fprint(c.stdout, field("interceptors", strings.Join(names, " ")))
	}
	fmt.Fprint(c.stdout, field("handlers", strings.Join(m.Refs(), " ")))
	return nil
}

// matchResult is the outcome of resolving one request line.
type matchResult struct {
	Pattern      string            `json:"pattern"`
	Alias        string            `json:"alias,omitempty"`
	Handler      string            `json:"handler"`
	Params       map[string]string `json:"params,omitempty"`
	Interceptors []string          `json:"interceptors,omitempty"`
	Extra        any               `json:"extra,omitempty"`
	Lookup       string            `json:"lookup"`
	Steps        int               `json:"steps"`
	Teleports    int               `json:"teleports"`
}

func lookupKind(m tree.Match) string {
	switch {
	case m.Static:
		return "static"
	case m.Teleports > 0:
		return "teleport"
	default:
		return "walk"
	}
}

func cmdMatch(_ context.Context, c *cli, args []string) error {
	fs := c.flags("match", "METHOD PATH")
	path := c.manifestFlag(fs)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: match needs METHOD and PATH", errUsage)
	}
	_, r, err := c.load(*path)
	if err != nil {
		return err
	}

	verb := strings.ToUpper(fs.Arg(0))
	m, err := r.Find(verb, fs.Arg(1))
	if err != nil {
		return err
	}
	method, _ := tree.ParseMethod(verb)
	settings, err := m.Node.Settings(method)
	if err != nil {
		return err
	}

	res := matchResult{
		Pattern:      m.Node.FullPath(),
		Alias:        m.Node.Alias(),
		Handler:      handlerName(settings.Handler),
		Interceptors: settings.Interceptors,
		Extra:        settings.Extra,
		Lookup:       lookupKind(m),
		Steps:        m.Steps,
		Teleports:    m.Teleports,
	}
	if names := m.Node.ParamNames(); len(names) > 0 {
		res.Params = make(map[string]string, len(names))
		for i, name := range names {
			res.Params[name] = m.Params[i]
		}
	}

	if *asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := field("pattern", res.Pattern) +
		field("alias", dash(res.Alias)) +
		field("handler", res.Handler)
	if len(res.Params) > 0 {
		pairs := make([]string, 0, len(res.Params))
		for _, name := range m.Node.ParamNames() {
			pairs = append(pairs, name+"="+paramStyle.Render(res.Params[name]))
		}
		out += field("params", strings.Join(pairs, " "))
	}
	out += field("interceptors", dash(strings.Join(res.Interceptors, " ")))
	if res.Extra != nil {
		out += field("extra", res.Extra)
	}
	out += field("lookup", fmt.Sprintf("%s (steps %d, teleports %d)", res.Lookup, res.Steps, res.Teleports))
	fmt.Fprint(c.stdout, out)
	return nil
}

func cmdURL(_ context.Context, c *cli, args []string) error {
	fs := c.flags("url", "ALIAS [PARAM...]")
	path := c.manifestFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: url needs an ALIAS", errUsage)
	}
	_, r, err := c.load(*path)
	if err != nil {
		return err
	}

	u, err := r.URL(fs.Arg(0), fs.Args()[1:]...)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, u)
	return nil
}

func cmdSnapshot(_ context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: snapshot needs save or show", errUsage)
	}
	switch args[0] {
	case "save":
		return snapshotSave(c, args[1:])
	case "show":
		return snapshotShow(c, args[1:])
	default:
		return fmt.Errorf("%w: unknown snapshot command %q", errUsage, args[0])
	}
}

func snapshotSave(c *cli, args []string) error {
	fs := c.flags("snapshot save", "")
	path := c.manifestFlag(fs)
	out := fs.String("o", "routes.snapshot", "output file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	_, r, err := c.load(*path)
	if err != nil {
		return err
	}

	s, err := snapshot.Take(r.Tree())
	if err != nil {
		return err
	}
	data, err := snapshot.Marshal(s)
	if err != nil {
		return err
	}
	if err = os.WriteFile(*out, data, 0o600); err != nil {
		return err
	}
	c.log.Info("snapshot saved", "id", s.ID, "routes", s.Len(), "file", *out)
	return nil
}

func snapshotShow(c *cli, args []string) error {
	fs := c.flags("snapshot show", "FILE")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: snapshot show needs a FILE", errUsage)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := snapshot.Unmarshal(data)
	if err != nil {
		return err
	}
	t, err := tree.New()
	if err != nil {
		return err
	}
	if err = s.Restore(t); err != nil {
		return err
	}

	fmt.Fprint(c.stdout, field("id", s.ID)+field("created", s.CreatedAt.Format("2006-01-02 15:04:05Z07:00")))
	fmt.Fprintln(c.stdout, renderRoutes(routeRows(t), terminalWidth(c.stdout)))
	return nil
}
