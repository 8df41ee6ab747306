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
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/teleroute/teleroute/tree"
)

// colorWriter downsamples ANSI output to what w supports. NO_COLOR strips
// it entirely.
func colorWriter(w io.Writer, environ []string, noColor bool) io.Writer {
	cpw := colorprofile.NewWriter(w, environ)
	if noColor {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

var (
	methodStyles = map[string]lipgloss.Style{
		http.MethodGet:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		http.MethodPost:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		http.MethodPut:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		http.MethodDelete:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		http.MethodPatch:   lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		http.MethodHead:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		http.MethodOptions: lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Bold(true),
	}
	paramStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	aliasStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Italic(true)
	teleportStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
)

func styleMethods(methods []tree.Method) string {
	out := make([]string, len(methods))
	for i, m := range methods {
		name := m.String()
		if st, ok := methodStyles[name]; ok {
			name = st.Render(name)
		}
		out[i] = name
	}
	return strings.Join(out, ",")
}

// nodeLabel describes one tree node: its segment, the methods and alias of
// the route ending there, and its teleport distances.
func nodeLabel(n *tree.Node) string {
	var b strings.Builder
	if n.Kind() == tree.KindRequiredParam {
		b.WriteString(paramStyle.Render(n.Name()))
	} else {
		b.WriteString(n.Name())
	}
	if n.IsTerminal() {
		b.WriteString("  [" + styleMethods(n.Methods()) + "]")
		if a := n.Alias(); a != "" {
			b.WriteString(" " + aliasStyle.Render(a))
		}
	}
	if tp := n.Teleports(); len(tp) > 0 {
		keys := make([]int, 0, len(tp))
		for k := range tp {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		jumps := make([]string, len(keys))
		for i, k := range keys {
			jumps[i] = fmt.Sprintf("+%d", k)
		}
		b.WriteString(" " + teleportStyle.Render("teleports "+strings.Join(jumps, " ")))
	}
	return b.String()
}

// renderTree draws the subtree under root.
func renderTree(root *tree.Node) string {
	var build func(*tree.Node) *ltree.Tree
	build = func(n *tree.Node) *ltree.Tree {
		t := ltree.Root(nodeLabel(n))
		for _, c := range n.Children() {
			if len(c.Children()) == 0 {
				t.Child(nodeLabel(c))
				continue
			}
			t.Child(build(c))
		}
		return t
	}
	return build(root).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(dimStyle).
		String()
}

// routeRow is one pattern and method of the route table.
type routeRow struct {
	Method       string
	Pattern      string
	Handler      string
	Interceptors []string
	Alias        string
	Static       bool
}

// routeRows lists every route of t, one row per method, in pattern order.
func routeRows(t *tree.Tree) []routeRow {
	var nodes []*tree.Node
	t.Walk(func(n *tree.Node) bool {
		if n.IsTerminal() {
			nodes = append(nodes, n)
		}
		return true
	})
	slices.SortFunc(nodes, func(a, b *tree.Node) int { return strings.Compare(a.FullPath(), b.FullPath()) })

	var rows []routeRow
	for _, n := range nodes {
		for _, m := range n.Methods() {
			s, err := n.Settings(m)
			if err != nil {
				continue
			}
			rows = append(rows, routeRow{
				Method:       m.String(),
				Pattern:      n.FullPath(),
				Handler:      handlerName(s.Handler),
				Interceptors: s.Interceptors,
				Alias:        n.Alias(),
				Static:       len(n.ParamNames()) == 0,
			})
		}
	}
	return rows
}

func handlerName(h tree.Handler) string {
	switch h := h.(type) {
	case tree.ClassMethod:
		return h.Class + "::" + h.Method
	case tree.Function:
		return fmt.Sprintf("func %T", h.Fn)
	default:
		return "-"
	}
}

// renderRoutes renders the route table. When width is positive and the
// table would be wider, columns are shrunk and cells wrap to fit.
func renderRoutes(rows []routeRow, width int) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		method := r.Method
		if st, ok := methodStyles[method]; ok {
			method = st.Render(method)
		}
		kind := "tree"
		if r.Static {
			kind = "static"
		}
		data[i] = []string{method, r.Pattern, r.Handler, dash(strings.Join(r.Interceptors, " ")), dash(r.Alias), kind}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("METHOD", "PATTERN", "HANDLER", "INTERCEPTORS", "ALIAS", "LOOKUP").
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(data...)
	out := t.String()
	if width > 0 && lipgloss.Width(out) > width {
		out = t.Width(width).String()
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// field renders an aligned "label value" line.
func field(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value) + "\n"
}
