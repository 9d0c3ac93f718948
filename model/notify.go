package model

import (
	"errors"
	"fmt"

	"github.com/signadot/hmodel/debug"
)

// Kind is the kind of a provider notification.
type Kind int

const (
	Reset Kind = iota
	RowsAdded
	RowsRemoved
	RowsChanged
	ColumnsAdded
	ColumnsRemoved
	ColumnsChanged
	// CellChanged reports one cell; the notification's index is the row
	// and its count is the column.
	CellChanged
)

var kindNames = []string{
	Reset:          "reset",
	RowsAdded:      "rows_added",
	RowsRemoved:    "rows_removed",
	RowsChanged:    "rows_changed",
	ColumnsAdded:   "columns_added",
	ColumnsRemoved: "columns_removed",
	ColumnsChanged: "columns_changed",
	CellChanged:    "cell_changed",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown notification kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(d []byte) error {
	v, err := ParseKind(string(d))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Notification is one provider initiated change.
type Notification struct {
	Kind   Kind
	Index  int
	Count  int
	Parent Path
}

func (n Notification) String() string {
	return fmt.Sprintf("%s(%d, %d) under %v", n.Kind, n.Index, n.Count, n.Parent)
}

// Notifier receives provider notifications; *Model is one.
type Notifier interface {
	NotifyAll(ns ...Notification) error
}

// Notify applies one provider notification to the cache, re-seats the
// persistent handles and emits one event for the edited range. parent is
// the stable path of the edited parent, nil for the top level.
//
// An unresolvable parent leaves the model untouched and returns an error
// wrapping ErrAddressNotFound.
func (m *Model) Notify(kind Kind, index, count int, parent Path) error {
	if debug.Cache() {
		debug.Logf("notify: %s\n", Notification{kind, index, count, parent})
	}
	if kind == Reset {
		m.reset()
		return nil
	}
	if kind < 0 || int(kind) >= len(kindNames) {
		return fmt.Errorf("notify: %s", kind)
	}
	pidx, err := m.Resolve(parent)
	if err != nil {
		return fmt.Errorf("notify %s: parent: %w", kind, err)
	}
	pn := m.root
	if pidx.IsValid() {
		pn = pidx.n
	}
	switch kind {
	case RowsAdded:
		m.insertRows(pn, index, count)
	case RowsRemoved:
		m.removeRows(pn, index, count)
	case RowsChanged:
		m.changeRows(pn, index, count)
	case ColumnsAdded:
		m.insertColumns(pn, index, count)
	case ColumnsRemoved:
		m.removeColumns(pn, index, count)
	case ColumnsChanged:
		m.changeColumns(pn, index, count)
	case CellChanged:
		m.changeCell(pn, index, count)
	}
	return nil
}

// NotifyAll applies ns in order, as if notified one at a time.
func (m *Model) NotifyAll(ns ...Notification) error {
	var errs []error
	for _, n := range ns {
		if err := m.Notify(n.Kind, n.Index, n.Count, n.Parent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Model) reset() {
	m.root.Invalidate(true)
	m.invalidatePersistent()
	m.headers.reset()
	m.emit(Event{Type: ModelReset})
}

func (m *Model) insertRows(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.remap(pn, func() { pos, n = pn.InsertRows(pos, count) })
	if n == 0 {
		return
	}
	m.emit(Event{Type: RowsInserted, Parent: indexOf(pn), First: pos, Last: pos + n - 1})
}

func (m *Model) removeRows(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.remap(pn, func() { pos, n = pn.RemoveRows(pos, count) })
	if n == 0 {
		return
	}
	m.emit(Event{Type: EventRowsRemoved, Parent: indexOf(pn), First: pos, Last: pos + n - 1})
}

func (m *Model) changeRows(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.remap(pn, func() { pos, n = pn.ChangeRows(pos, count) })
	if n == 0 {
		return
	}
	parent := indexOf(pn)
	m.emit(Event{
		Type:        DataChanged,
		TopLeft:     m.Index(pos, 0, parent),
		BottomRight: m.Index(pos+n-1, pn.ColumnCount()-1, parent),
	})
}

// Column counts are the same for the whole hierarchy, so column
// insertions and removals apply to every node with a counted column axis.
func (m *Model) insertColumns(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.headers.reset()
	m.remap(m.root, func() {
		pos, n = m.eachNode(pn, func(x *Node) (int, int) { return x.InsertColumns(pos, count) })
	})
	if n == 0 {
		return
	}
	m.emit(Event{Type: ColumnsInserted, Parent: indexOf(pn), First: pos, Last: pos + n - 1})
}

func (m *Model) removeColumns(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.headers.reset()
	m.remap(m.root, func() {
		pos, n = m.eachNode(pn, func(x *Node) (int, int) { return x.RemoveColumns(pos, count) })
	})
	if n == 0 {
		return
	}
	m.emit(Event{Type: EventColumnsRemoved, Parent: indexOf(pn), First: pos, Last: pos + n - 1})
}

// eachNode applies f to every live node, collecting the result of f on pn.
func (m *Model) eachNode(pn *Node, f func(*Node) (int, int)) (pos, n int) {
	var nodes []*Node
	m.root.walk(func(x *Node) { nodes = append(nodes, x) })
	for _, x := range nodes {
		if x.detached {
			continue
		}
		p, c := f(x)
		if x == pn {
			pos, n = p, c
		}
	}
	return pos, n
}

func (m *Model) changeColumns(pn *Node, pos, count int) {
	if count <= 0 {
		return
	}
	var n int
	m.headers.reset()
	m.remap(pn, func() { pos, n = pn.ChangeColumns(pos, count) })
	if n == 0 {
		return
	}
	parent := indexOf(pn)
	m.emit(Event{
		Type:        DataChanged,
		TopLeft:     m.Index(0, pos, parent),
		BottomRight: m.Index(pn.RowCount()-1, pos+n-1, parent),
	})
}

// changeCell fully invalidates the cell at (row, col) under pn. Handles
// below the cell become invalid; a handle on the cell itself is kept.
func (m *Model) changeCell(pn *Node, row, col int) {
	if pn == nil || pn.detached || !pn.HasChild(row, col) {
		return
	}
	cell := pn.Child(row, col)
	m.remap(cell, func() { cell.Invalidate(true) })
	idx := indexOf(cell)
	m.emit(Event{Type: DataChanged, TopLeft: idx, BottomRight: idx})
}
