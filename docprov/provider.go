// Package docprov presents a document as a model.Provider.
//
// Top level rows are the children of the document root; each row has the
// children of its node as rows. The columns, and the rules computing the
// specifiers of each column, come from a config.Config.
//
// Document edits made through Patch and Reload are translated into
// model notifications, so that the references a model hands out follow the
// document nodes they designate.
package docprov

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/debug"
	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/rules"
)

var (
	ErrForeignPath = errors.New("path from another provider")
	ErrNotEditable = errors.New("position is not editable")
)

type Provider struct {
	root     *doc.Node
	columns  []*config.CompiledColumn
	rules    rules.Set
	notifier model.Notifier
	closed   bool
}

// New returns a provider showing root with the columns and rules of cfg.
func New(root *doc.Node, cfg *config.Config) (*Provider, error) {
	cols, set, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	return &Provider{root: root, columns: cols, rules: set}, nil
}

// Open returns a provider for root and a model bound to it. The model is
// notified of document changes.
func Open(root *doc.Node, cfg *config.Config, opts ...model.Option) (*Provider, *model.Model, error) {
	p, err := New(root, cfg)
	if err != nil {
		return nil, nil, err
	}
	m := model.New(p, opts...)
	p.Attach(m)
	return p, m, nil
}

// Attach makes n receive the changes of the document.
func (p *Provider) Attach(n model.Notifier) {
	p.notifier = n
}

func (p *Provider) Root() *doc.Node { return p.root }

// Close makes the provider unavailable.
func (p *Provider) Close() {
	p.closed = true
}

func (p *Provider) Available() bool {
	return !p.closed
}

// PathOf returns the path of column col of n, or nil for the root.
func (p *Provider) PathOf(n *doc.Node, col int) (*Path, error) {
	if n == p.root {
		return nil, nil
	}
	if !attached(n, p.root) {
		return nil, fmt.Errorf("%w: %s is not in the document", doc.ErrNotFound, n.KPath())
	}
	return &Path{node: n, root: p.root, col: col}, nil
}

// node returns the document node of a model path; nil is the root.
func (p *Provider) node(mp model.Path) (*doc.Node, int, error) {
	if mp == nil {
		return p.root, 0, nil
	}
	pp, ok := mp.(*Path)
	if !ok || pp == nil || pp.root != p.root {
		return nil, 0, ErrForeignPath
	}
	if !attached(pp.node, p.root) {
		return nil, 0, fmt.Errorf("%w: removed node", doc.ErrNotFound)
	}
	return pp.node, pp.col, nil
}

func (p *Provider) RowCount(parent model.Path) (int, error) {
	n, col, err := p.node(parent)
	if err != nil {
		return 0, err
	}
	if col != 0 {
		return 0, nil
	}
	return n.Len(), nil
}

func (p *Provider) ColumnCount() (int, error) {
	return len(p.columns), nil
}

func (p *Provider) HasChildren(parent model.Path) (model.Tristate, error) {
	n, col, err := p.node(parent)
	if err != nil {
		return model.Unknown, err
	}
	if col != 0 || n.Len() == 0 {
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
	child := n.Child(row)
	if child == nil || col < 0 || col >= len(p.columns) {
		return nil, fmt.Errorf("(%d, %d) out of range under %q", row, col, n.KPath())
	}
	return &Path{node: child, root: p.root, col: col}, nil
}

// Env describes column col of n to rule expressions.
func (p *Provider) Env(n *doc.Node, col int) *rules.Env {
	env := &rules.Env{
		Key:      keyOf(n),
		Text:     n.Text(),
		Kind:     strings.ToLower(n.Type.String()),
		Depth:    n.Depth() - 1,
		Row:      n.ParentIndex,
		Path:     n.KPath().String(),
		Size:     int64(n.Len()),
		Children: n.Len(),
	}
	if n.Type.IsLeaf() {
		env.Value = n.Value()
	}
	if col >= 0 && col < len(p.columns) {
		env.Column = p.columns[col].Name
	}
	return env
}

func keyOf(n *doc.Node) string {
	if n.Parent != nil && n.Parent.Type == doc.ArrayType {
		return fmt.Sprintf("[%d]", n.ParentIndex)
	}
	return n.ParentField
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
	env := p.Env(n, col)
	text, err := c.Text.Text(env)
	if err != nil {
		return nil, err
	}
	spec := model.NewSpecifier(text)
	spec.DataType = env.Kind
	spec.Align = c.Align
	spec.Value = env.Value
	if c.Editable && n.Type.IsLeaf() {
		spec.Flags &^= model.FlagReadOnly
	}
	if err := p.rules.Apply(env, spec); err != nil && debug.Provider() {
		debug.Logf("docprov rules at %s: %v\n", env.Path, err)
	}
	return spec, nil
}

// SetData parses the edit text as a YAML scalar and stores it in the leaf.
func (p *Provider) SetData(mp model.Path, spec *model.Specifier) error {
	n, col, err := p.node(mp)
	if err != nil {
		return err
	}
	if col < 0 || col >= len(p.columns) || !p.columns[col].Editable {
		return fmt.Errorf("%w: column %d", ErrNotEditable, col)
	}
	v, err := doc.ParseScalar(spec.Text)
	if err != nil {
		return err
	}
	if err := n.SetScalar(v); err != nil {
		return fmt.Errorf("%w: %w", ErrNotEditable, err)
	}
	// the kind of the value may have changed for the other columns
	return p.notify(p.rowChanged(n))
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

// Lookup returns the column 0 path of the node at the kinded path kp. The
// empty path is the root and yields nil.
func (p *Provider) Lookup(kp string) (model.Path, error) {
	n, err := p.root.GetKPath(kp)
	if err != nil {
		return nil, err
	}
	if n == p.root {
		return nil, nil
	}
	return &Path{node: n, root: p.root}, nil
}
