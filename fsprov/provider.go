// Package fsprov presents a directory tree as a model.Provider.
//
// Directories are listed lazily, the first time the model asks for their
// rows, and only column 0 of a directory has children. Until a directory
// is listed it answers HasChildren with model.Unknown.
//
// Changes on disk are picked up with a Watcher and applied with
// Provider.Apply, which re-lists the affected directories and notifies the
// model of the rows added, removed and changed.
package fsprov

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/debug"
	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/rules"
)

var ErrForeignPath = errors.New("path from another provider")

type node struct {
	parent *node
	row    int
	path   string
	entry  Entry
	kids   []*node
	listed bool
}

func (n *node) depth() int {
	d := 0
	for x := n.parent; x != nil; x = x.parent {
		d++
	}
	return d
}

func (n *node) detach() {
	for _, k := range n.kids {
		k.detach()
	}
	n.parent = nil
	n.row = -1
	n.kids = nil
	n.listed = false
}

func reindex(kids []*node, from int) {
	for i := from; i < len(kids); i++ {
		kids[i].row = i
	}
}

// Path addresses a column of a directory entry and follows the entry while
// its siblings come and go.
type Path struct {
	n    *node
	root *node
	col  int
}

func (p *Path) Row() int    { return p.n.row }
func (p *Path) Column() int { return p.col }

func (p *Path) Parent() model.Path {
	par := p.n.parent
	if par == nil || par == p.root {
		return nil
	}
	return &Path{n: par, root: p.root}
}

// File returns the filesystem path of the entry.
func (p *Path) File() string { return p.n.path }

func (p *Path) String() string {
	return fmt.Sprintf("%s#%d", p.n.path, p.col)
}

type Provider struct {
	root     *node
	columns  []*config.CompiledColumn
	rules    rules.Set
	notifier model.Notifier
	watcher  *Watcher
	closed   bool
}

// New returns a provider for the directory dir shown with the columns and
// rules of cfg.
func New(dir string, cfg *config.Config) (*Provider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	cols, set, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	root := &node{row: -1, path: abs, entry: entryOf(filepath.Base(abs), info)}
	return &Provider{root: root, columns: cols, rules: set}, nil
}

// Open returns a provider for dir and a model bound to it.
func Open(dir string, cfg *config.Config, opts ...model.Option) (*Provider, *model.Model, error) {
	p, err := New(dir, cfg)
	if err != nil {
		return nil, nil, err
	}
	m := model.New(p, opts...)
	p.Attach(m)
	return p, m, nil
}

func (p *Provider) Attach(n model.Notifier) {
	p.notifier = n
}

// Watch makes every listed directory watched by w. Directories listed
// before the call are added right away.
func (p *Provider) Watch(w *Watcher) error {
	p.watcher = w
	var errs []error
	var walk func(n *node)
	walk = func(n *node) {
		if !n.listed {
			return
		}
		if err := w.Add(n.path); err != nil {
			errs = append(errs, err)
		}
		for _, k := range n.kids {
			walk(k)
		}
	}
	walk(p.root)
	return errors.Join(errs...)
}

// Dir returns the absolute path of the top directory.
func (p *Provider) Dir() string { return p.root.path }

func (p *Provider) Close() {
	p.closed = true
}

func (p *Provider) Available() bool {
	return !p.closed
}

func (p *Provider) attached(n *node) bool {
	for x := n; x != nil; x = x.parent {
		if x == p.root {
			return true
		}
		par := x.parent
		if par == nil || x.row < 0 || x.row >= len(par.kids) || par.kids[x.row] != x {
			return false
		}
	}
	return false
}

func (p *Provider) node(mp model.Path) (*node, int, error) {
	if mp == nil {
		return p.root, 0, nil
	}
	pp, ok := mp.(*Path)
	if !ok || pp == nil || pp.root != p.root {
		return nil, 0, ErrForeignPath
	}
	if !p.attached(pp.n) {
		return nil, 0, fmt.Errorf("%s: entry is gone", pp.n.path)
	}
	return pp.n, pp.col, nil
}

func (p *Provider) pathOf(n *node) model.Path {
	if n == p.root {
		return nil
	}
	return &Path{n: n, root: p.root}
}

// list makes sure the directory n has been read.
func (p *Provider) list(n *node) error {
	if n.listed || n.entry.Kind != KindDir {
		return nil
	}
	entries, err := list(n.path)
	if err != nil {
		return err
	}
	n.kids = make([]*node, len(entries))
	for i, e := range entries {
		n.kids[i] = &node{parent: n, row: i, path: filepath.Join(n.path, e.Name), entry: e}
	}
	n.listed = true
	if p.watcher != nil {
		if err := p.watcher.Add(n.path); err != nil && debug.Watch() {
			debug.Logf("fsprov watch %s: %v\n", n.path, err)
		}
	}
	return nil
}

func (p *Provider) RowCount(parent model.Path) (int, error) {
	n, col, err := p.node(parent)
	if err != nil {
		return 0, err
	}
	if col != 0 || n.entry.Kind != KindDir {
		return 0, nil
	}
	if err := p.list(n); err != nil {
		return 0, err
	}
	return len(n.kids), nil
}

func (p *Provider) ColumnCount() (int, error) {
	return len(p.columns), nil
}

func (p *Provider) HasChildren(parent model.Path) (model.Tristate, error) {
	n, col, err := p.node(parent)
	if err != nil {
		return model.Unknown, err
	}
	switch {
	case col != 0 || n.entry.Kind != KindDir:
		return model.No, nil
	case !n.listed:
		return model.Unknown, nil
	case len(n.kids) == 0:
		return model.No, nil
	}
	return model.Yes, nil
}

func (p *Provider) Index(row, col int, parent model.Path) (model.Path, error) {
	n, pcol, err := p.node(parent)
	if err != nil {
		return nil, err
	}
	if pcol != 0 {
		return nil, fmt.Errorf("column %d has no children", pcol)
	}
	if err := p.list(n); err != nil {
		return nil, err
	}
	if row < 0 || row >= len(n.kids) || col < 0 || col >= len(p.columns) {
		return nil, fmt.Errorf("(%d, %d) out of range in %s", row, col, n.path)
	}
	return &Path{n: n.kids[row], root: p.root, col: col}, nil
}

func (p *Provider) env(n *node, col int) *rules.Env {
	rel, err := filepath.Rel(p.root.path, n.path)
	if err != nil {
		rel = n.path
	}
	env := &rules.Env{
		Key:      n.entry.Name,
		Value:    n.entry.Size,
		Text:     n.entry.Name,
		Kind:     string(n.entry.Kind),
		Depth:    n.depth() - 1,
		Row:      n.row,
		Path:     filepath.ToSlash(rel),
		Size:     n.entry.Size,
		Children: len(n.kids),
		Mode:     n.entry.Mode.String(),
		Modified: n.entry.ModTime.Format(time.DateTime),
	}
	if col >= 0 && col < len(p.columns) {
		env.Column = p.columns[col].Name
	}
	return env
}

func (p *Provider) Data(mp model.Path) (*model.Specifier, error) {
	n, col, err := p.node(mp)
	if err != nil {
		return nil, err
	}
	if col < 0 || col >= len(p.columns) {
		return nil, fmt.Errorf("no column %d", col)
	}
	c := p.columns[col]
	env := p.env(n, col)
	text, err := c.Text.Text(env)
	if err != nil {
		return nil, err
	}
	spec := model.NewSpecifier(text)
	spec.DataType = env.Kind
	spec.Align = c.Align
	spec.Value = env.Value
	if err := p.rules.Apply(env, spec); err != nil && debug.Provider() {
		debug.Logf("fsprov rules at %s: %v\n", n.path, err)
	}
	return spec, nil
}

func (p *Provider) Header(section int, o model.Orientation) (*model.Specifier, error) {
	if o == model.Vertical {
		return model.NewSpecifier(fmt.Sprint(section)), nil
	}
	if section < 0 || section >= len(p.columns) {
		return nil, fmt.Errorf("no column %d", section)
	}
	return p.columns[section].HeaderSpecifier(), nil
}

// lookup finds the listed directory at the filesystem path dir.
func (p *Provider) lookup(dir string) *node {
	rel, err := filepath.Rel(p.root.path, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	n := p.root
	if rel == "." {
		return n
	}
	for _, name := range strings.Split(rel, string(filepath.Separator)) {
		if !n.listed {
			return nil
		}
		i := slices.IndexFunc(n.kids, func(k *node) bool { return k.entry.Name == name })
		if i < 0 {
			return nil
		}
		n = n.kids[i]
	}
	return n
}

// Apply re-lists the directories named by changes and notifies the model
// of the differences. Directories which were never listed are skipped.
func (p *Provider) Apply(changes []Change) error {
	if p.closed {
		return model.ErrUnavailable
	}
	var errs []error
	seen := map[string]bool{}
	for _, c := range changes {
		if seen[c.Dir] {
			continue
		}
		seen[c.Dir] = true
		n := p.lookup(c.Dir)
		if n == nil || !n.listed {
			continue
		}
		if err := p.relist(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// relist merges a fresh listing of n into its children. Both listings
// are sorted, so entries are matched by a single merge pass; each step is
// notified as it is applied.
func (p *Provider) relist(n *node) error {
	entries, err := list(n.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	parent := p.pathOf(n)
	var errs []error
	notify := func(kind model.Kind, i, c int) {
		if p.notifier == nil {
			return
		}
		if debug.Watch() {
			debug.Logf("fsprov %s: %s(%d, %d)\n", n.path, kind, i, c)
		}
		if err := p.notifier.NotifyAll(model.Notification{Kind: kind, Index: i, Count: c, Parent: parent}); err != nil {
			errs = append(errs, err)
		}
	}
	i, j := 0, 0
	for i < len(n.kids) || j < len(entries) {
		var c int
		switch {
		case i == len(n.kids):
			c = 1
		case j == len(entries):
			c = -1
		default:
			c = compareEntries(n.kids[i].entry, entries[j])
		}
		switch {
		case c < 0:
			n.kids[i].detach()
			n.kids = slices.Delete(n.kids, i, i+1)
			reindex(n.kids, i)
			notify(model.RowsRemoved, i, 1)
		case c > 0:
			e := entries[j]
			k := &node{parent: n, row: i, path: filepath.Join(n.path, e.Name), entry: e}
			n.kids = slices.Insert(n.kids, i, k)
			reindex(n.kids, i)
			notify(model.RowsAdded, i, 1)
			i++
			j++
		default:
			if !same(n.kids[i].entry, entries[j]) {
				n.kids[i].entry = entries[j]
				notify(model.RowsChanged, i, 1)
			}
			i++
			j++
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the column 0 path of the entry at rel, a slash separated
// path relative to the top directory, listing directories on the way. The
// top directory itself yields nil.
func (p *Provider) Lookup(rel string) (model.Path, error) {
	rel = strings.Trim(filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel))), "/")
	if rel == "." || rel == "" {
		return nil, nil
	}
	n := p.root
	for _, name := range strings.Split(rel, "/") {
		if err := p.list(n); err != nil {
			return nil, err
		}
		i := slices.IndexFunc(n.kids, func(k *node) bool { return k.entry.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("%s: %w", filepath.Join(n.path, name), os.ErrNotExist)
		}
		n = n.kids[i]
	}
	return &Path{n: n, root: p.root}, nil
}
