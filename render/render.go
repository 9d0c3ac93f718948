// Package render prints models and documents to terminals.
//
// Tree walks a model through its consumer API only, the way any view
// would, so rendering exercises the lazy cache exactly like an interactive
// consumer.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/signadot/hmodel/model"
)

type options struct {
	maxDepth int
	colors   *Colors
	header   bool
	indent   string
}

type Option func(*options)

// MaxDepth limits rendering to d levels; 0 renders everything.
func MaxDepth(d int) Option {
	return func(o *options) { o.maxDepth = d }
}

// WithColors renders specifier colours with c.
func WithColors(c *Colors) Option {
	return func(o *options) { o.colors = c }
}

// NoHeader omits the header row.
func NoHeader() Option {
	return func(o *options) { o.header = false }
}

// Indent sets the per level indentation of column 0.
func Indent(s string) Option {
	return func(o *options) { o.indent = s }
}

type cell struct {
	text   string
	fg, bg string
	right  bool
}

type line []cell

// Tree prints the rows of m as an indented table, one row per line.
func Tree(w io.Writer, m *model.Model, opts ...Option) error {
	o := &options{header: true, indent: "  "}
	for _, opt := range opts {
		opt(o)
	}
	cols := m.ColumnCount(model.Index{})
	if cols == 0 {
		return nil
	}
	widths := make([]int, cols)
	fixed := make([]bool, cols)
	for i := range cols {
		if hw, ok := m.HeaderData(i, model.Horizontal, model.RoleWidth).(model.HeaderWidth); ok && hw.Fixed && hw.Width > 0 {
			widths[i] = hw.Width
			fixed[i] = true
		}
	}
	var lines []line
	if o.header {
		h := make(line, cols)
		for i := range cols {
			h[i].text, _ = m.HeaderData(i, model.Horizontal, model.RoleDisplay).(string)
		}
		lines = append(lines, h)
	}
	var walk func(parent model.Index, depth int)
	walk = func(parent model.Index, depth int) {
		if o.maxDepth > 0 && depth >= o.maxDepth {
			return
		}
		for r := range m.RowCount(parent) {
			l := make(line, cols)
			for c := range cols {
				idx := m.Index(r, c, parent)
				l[c] = cellOf(m, idx)
				if c == 0 {
					l[c].text = strings.Repeat(o.indent, depth) + l[c].text
				}
			}
			lines = append(lines, l)
			if idx := m.Index(r, 0, parent); m.HasChildren(idx) {
				walk(idx, depth+1)
			}
		}
	}
	walk(model.Index{}, 0)

	for _, l := range lines {
		for i, c := range l {
			if !fixed[i] {
				widths[i] = max(widths[i], utf8.RuneCountInString(c.text))
			}
		}
	}
	for _, l := range lines {
		var sb strings.Builder
		for i, c := range l {
			if i > 0 {
				sb.WriteString("  ")
			}
			text := elide(c.text, widths[i])
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(text))
			text = o.colors.Color(c.fg, c.bg, text)
			if c.right {
				sb.WriteString(pad + text)
			} else {
				sb.WriteString(text + pad)
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func cellOf(m *model.Model, idx model.Index) cell {
	var c cell
	c.text, _ = m.Data(idx, model.RoleDisplay).(string)
	c.fg, _ = m.Data(idx, model.RoleForeground).(string)
	c.bg, _ = m.Data(idx, model.RoleBackground).(string)
	if a, ok := m.Data(idx, model.RoleTextAlignment).(model.Align); ok {
		c.right = a&model.AlignRight != 0
	}
	if i := strings.IndexByte(c.text, '\n'); i >= 0 {
		c.text = c.text[:i] + "…"
	}
	return c
}

func elide(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n <= 1 {
		return string(rs[:n])
	}
	return string(rs[:n-1]) + "…"
}
