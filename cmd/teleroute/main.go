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

// Command teleroute inspects and serves route manifests.
//
// Usage:
//
//	teleroute <command> [flags] [args]
//
// Commands:
//
//	tree      print the route tree with its teleport shortcuts
//	routes    list routes with methods, handlers and aliases
//	match     resolve a method and path against the manifest
//	url       build a path from an alias and parameters
//	snapshot  save or show a msgpack route snapshot
//	serve     serve the manifest, answering each route with its match
//
// The manifest comes from -manifest or TELEROUTECTL_MANIFEST. A .env file
// in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// errUsage marks errors caused by bad invocation. They exit with status 2.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = []command{
	{"tree", "print the route tree with its teleport shortcuts", cmdTree},
	{"routes", "list routes with methods, handlers and aliases", cmdRoutes},
	{"match", "resolve METHOD PATH against the manifest", cmdMatch},
	{"url", "build a path from ALIAS [PARAM...]", cmdURL},
	{"snapshot", "save or show a route snapshot (save|show)", cmdSnapshot},
	{"serve", "serve the manifest over HTTP", cmdServe},
}

func main() {
	if err := loadDotenv(os.Getenv("TELEROUTECTL_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, "teleroute:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Environ())
	stop()
	os.Exit(code)
}

// loadDotenv loads file, or .env when file is empty, into the process
// environment. Variables already set win. A missing default file is fine.
func loadDotenv(file string) error {
	explicit := file != ""
	if !explicit {
		file = ".env"
	}
	err := godotenv.Load(file)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, environ []string) int {
	c, err := newCLI(stdout, stderr, environ)
	if err != nil {
		fmt.Fprintln(stderr, "teleroute:", err)
		return 1
	}

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	i := slices.IndexFunc(commands, func(cmd command) bool { return cmd.name == args[0] })
	if i < 0 {
		c.log.Error("unknown command", "command", args[0])
		usage(stderr)
		return 2
	}

	err = commands[i].run(ctx, c, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		c.log.Error(strings.TrimPrefix(err.Error(), "usage: "))
		return 2
	default:
		c.log.Error(err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: teleroute <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", cmd.name, cmd.summary)
	}
}

// cli carries what every command needs.
type cli struct {
	env    cliEnv
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger
}

func newCLI(stdout, stderr io.Writer, environ []string) (*cli, error) {
	env, err := parseEnv(environ)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(env.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("TELEROUTECTL_LOG_LEVEL: %w", err)
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Prefix:          "teleroute",
		Level:           level,
		ReportTimestamp: false,
	})
	return &cli{
		env:    env,
		stdout: colorWriter(stdout, environ, env.NoColor),
		stderr: stderr,
		log:    logger,
	}, nil
}
