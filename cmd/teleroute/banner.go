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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"
)

var (
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	bannerColors  = []string{"12", "14", "10", "11"}
)

// terminalWidth returns the width in cells of the terminal behind w, or 0
// when w is not a terminal.
func terminalWidth(w io.Writer) int {
	if cw, ok := w.(*colorprofile.Writer); ok {
		w = cw.Forward
	}
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// printBanner writes the startup banner: the figlet title, where the
// server listens and what it serves.
func (s *server) printBanner(w io.Writer, addr string) {
	fmt.Fprint(w, s.renderBanner(terminalWidth(w), addr))
}

// bannerTitle renders the figlet title, or a single styled line when the
// art is wider than width. A width of 0 means unknown.
func bannerTitle(width int) string {
	lines := figure.NewFigure("teleroute", "", false).Slicify()
	artWidth := 0
	for _, line := range lines {
		artWidth = max(artWidth, len(line))
	}
	if width > 0 && artWidth > width {
		return valueStyle.Render("teleroute") + "\n"
	}

	var art strings.Builder
	for _, line := range lines {
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(bannerColors[i%len(bannerColors)])).Bold(true)
			art.WriteString(style.Render(string(ch)))
		}
		art.WriteString("\n")
	}
	return art.String()
}

func (s *server) renderBanner(width int, addr string) string {

	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	base := "http://" + addr

	var out strings.Builder
	out.WriteString(categoryStyle.Render("Service") + "\n")
	out.WriteString(field("  version", valueStyle.Render(version)))
	out.WriteString(field("  address", valueStyle.Render(base)))

	out.WriteString("\n" + categoryStyle.Render("Routes") + "\n")
	source := "taken from " + s.settings.Manifest
	if s.cached {
		source = "loaded from " + s.settings.Snapshot.Store + " store"
	}
	out.WriteString(field("  snapshot", fmt.Sprintf("%s  %s", s.snapshot.ID, dimStyle.Render(source))))
	out.WriteString(field("  routes", s.snapshot.Len()))
	if len(s.interceptors) > 0 {
		out.WriteString(field("  built-ins", strings.Join(s.interceptors, " ")))
	}

	out.WriteString("\n" + categoryStyle.Render("Observability") + "\n")
	if s.metrics != nil {
		metricsLine := string(s.metrics.Provider())
		if p := s.metrics.Path(); p != "" {
			metricsLine = base + p + "  " + dimStyle.Render("["+metricsLine+"]")
		}
		out.WriteString(field("  metrics", metricsLine))
	} else {
		out.WriteString(field("  metrics", dimStyle.Render("disabled")))
	}
	out.WriteString(field("  tracing", string(s.tracer.Provider())))
	out.WriteString(field("  access log", s.settings.Log.AccessLog))

	return "\n" + bannerTitle(width) + "\n" + out.String() + "\n"
}
