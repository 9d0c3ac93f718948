package model

import (
	"fmt"
	"strconv"
)

// Model serves consumers positions and data of a provider's hierarchy,
// materialising it lazily. It must be used from a single goroutine.
type Model struct {
	bind *binding
	root *Node

	persistent   []*PersistentIndex
	listeners    []listener
	nextListener uint64
	headers      headerCache
}

// Option configures a Model.
type Option func(*Model)

// WithListener subscribes fn before the model is used.
func WithListener(fn func(Event)) Option {
	return func(m *Model) {
		m.Subscribe(fn)
	}
}

// New returns a model over p. A nil p gives a model that is permanently
// empty until Rebind.
func New(p Provider, opts ...Option) *Model {
	b := &binding{p: p}
	m := &Model{bind: b, root: newRoot(b)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the sentinel node above the top level.
func (m *Model) Root() *Node { return m.root }

// node returns the node designated by parent, the root for the invalid
// index. ok is false if parent refers to a node that went away.
func (m *Model) node(parent Index) (n *Node, ok bool) {
	if parent.n == nil {
		return m.root, true
	}
	if !parent.IsValid() || parent.n.bind != m.bind {
		return nil, false
	}
	return parent.n, true
}

// Index returns the position (row, col) under parent, or the invalid
// index if there is none. Only column 0 positions have children.
func (m *Model) Index(row, col int, parent Index) Index {
	pn, ok := m.node(parent)
	if !ok || (pn != m.root && pn.col != 0) {
		return Index{}
	}
	return indexOf(pn.Child(row, col))
}

// Parent returns the parent of idx; top level positions have the invalid
// index as parent.
func (m *Model) Parent(idx Index) Index {
	if !idx.IsValid() {
		return Index{}
	}
	return indexOf(idx.n.parent)
}

func (m *Model) RowCount(parent Index) int {
	pn, ok := m.node(parent)
	if !ok || (pn != m.root && pn.col != 0) {
		return 0
	}
	return pn.RowCount()
}

func (m *Model) ColumnCount(parent Index) int {
	pn, ok := m.node(parent)
	if !ok {
		return 0
	}
	return pn.ColumnCount()
}

func (m *Model) HasChildren(parent Index) bool {
	pn, ok := m.node(parent)
	if !ok {
		return false
	}
	return pn.HasChildren()
}

// Specifier returns the cached specifier of idx, or nil.
func (m *Model) Specifier(idx Index) *Specifier {
	if !idx.IsValid() {
		return nil
	}
	return idx.n.Specifier()
}

// Data returns the role aspect of the specifier at idx, or nil.
func (m *Model) Data(idx Index, role Role) any {
	return roleData(m.Specifier(idx), role)
}

// Flags returns what consumers may do with idx.
func (m *Model) Flags(idx Index) ItemFlags {
	return itemFlags(m.Specifier(idx))
}

// SetData forwards an edit to the provider, which must implement Setter.
// On success the cell is invalidated and reported changed.
func (m *Model) SetData(idx Index, value any, role Role) bool {
	if !idx.IsValid() {
		return false
	}
	path, err := idx.n.stablePath()
	if err != nil {
		return false
	}
	spec, err := editSpecifier(value, role)
	if err != nil {
		return false
	}
	_, err = call(m.bind, "set_data", func(p Provider) (struct{}, error) {
		s, ok := p.(Setter)
		if !ok {
			return struct{}{}, ErrReadOnly
		}
		return struct{}{}, s.SetData(path, spec)
	})
	if err != nil {
		return false
	}
	n := idx.n
	if n.detached {
		// the provider notified a structural change meanwhile
		return true
	}
	m.changeCell(n.parent, n.row, n.col)
	return true
}

func editSpecifier(value any, role Role) (*Specifier, error) {
	spec := &Specifier{Flags: DefaultFlags, Value: value}
	switch role {
	case RoleEdit, RoleDisplay:
		switch v := value.(type) {
		case string:
			spec.Text = v
		case fmt.Stringer:
			spec.Text = v.String()
		default:
			spec.Text = fmt.Sprint(v)
		}
	case RoleSelection:
		switch v := value.(type) {
		case int:
			spec.Selection = v
		case float64:
			spec.Selection = int(v)
		case string:
			i, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("selection %q: %w", v, err)
			}
			spec.Selection = i
		default:
			return nil, fmt.Errorf("selection of type %T", value)
		}
	}
	return spec, nil
}

// Sort only reports the request; the provider is expected to reorder and
// notify.
func (m *Model) Sort(column int, order SortOrder) {
	m.emit(Event{Type: Sorted, Column: column, Order: order})
}

// RefreshData drops every cached specifier while keeping the shape, and
// reports the whole top level as changed.
func (m *Model) RefreshData() {
	m.remap(m.root, m.root.ResetData)
	m.emit(Event{Type: LayoutChanged})
	rows, cols := m.root.RowCount(), m.root.ColumnCount()
	if rows == 0 || cols == 0 {
		return
	}
	m.emit(Event{
		Type:        DataChanged,
		TopLeft:     m.Index(0, 0, Index{}),
		BottomRight: m.Index(rows-1, cols-1, Index{}),
	})
}

// Rebind replaces the provider. The cache starts over and every persistent
// handle becomes invalid.
func (m *Model) Rebind(p Provider) {
	old := m.root
	m.bind = &binding{p: p}
	m.root = newRoot(m.bind)
	old.detach()
	m.invalidatePersistent()
	m.headers.reset()
	m.emit(Event{Type: ModelReset})
}

// Release unbinds the provider. The model stays usable and empty.
func (m *Model) Release() {
	m.bind.release()
	m.reset()
}

// Available reports whether the provider can currently be called.
func (m *Model) Available() bool {
	_, ok := m.bind.provider()
	return ok
}
