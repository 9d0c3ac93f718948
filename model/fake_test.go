package model

import (
	"errors"
	"fmt"
	"slices"
)

type fakePath struct {
	row, col int
	parent   *fakePath
}

func (p *fakePath) Row() int    { return p.row }
func (p *fakePath) Column() int { return p.col }
func (p *fakePath) Parent() Path {
	if p.parent == nil {
		return nil
	}
	return p.parent
}

func pathOf(coords ...int) Path {
	var p *fakePath
	for i := 0; i+1 < len(coords); i += 2 {
		p = &fakePath{row: coords[i], col: coords[i+1], parent: p}
	}
	if p == nil {
		return nil
	}
	return p
}

type item struct {
	name string
	kids []*item
}

func mkItems(prefix string, shape []int) []*item {
	if len(shape) == 0 {
		return nil
	}
	var res []*item
	for i := 0; i < shape[0]; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		res = append(res, &item{name: name, kids: mkItems(name+".", shape[1:])})
	}
	return res
}

// fakeProvider serves a tree of items; every item has cols columns and
// only column 0 has children.
type fakeProvider struct {
	root  *item
	cols  int
	calls map[string]int

	unknown   bool
	failRows  bool
	panicData bool
	gone      bool
	onRows    func(Path)
}

func newFake(cols int, shape ...int) *fakeProvider {
	return &fakeProvider{
		root:  &item{kids: mkItems("", shape)},
		cols:  cols,
		calls: map[string]int{},
	}
}

var errFake = errors.New("fake failure")

func (f *fakeProvider) lookup(p Path) (*item, error) {
	if p == nil {
		return f.root, nil
	}
	parent, err := f.lookup(p.Parent())
	if err != nil {
		return nil, err
	}
	if p.Column() != 0 && len(parent.kids) > p.Row() {
		return &item{name: fmt.Sprintf("%s/%d", parent.kids[p.Row()].name, p.Column())}, nil
	}
	if p.Row() < 0 || p.Row() >= len(parent.kids) {
		return nil, fmt.Errorf("%w: no row %d", errFake, p.Row())
	}
	return parent.kids[p.Row()], nil
}

func (f *fakeProvider) at(coords ...int) *item {
	it, err := f.lookup(pathOf(coords...))
	if err != nil {
		panic(err)
	}
	return it
}

func (f *fakeProvider) RowCount(parent Path) (int, error) {
	f.calls["row_count"]++
	if f.onRows != nil {
		f.onRows(parent)
	}
	if f.failRows {
		return 0, errFake
	}
	if parent != nil && parent.Column() != 0 {
		return 0, nil
	}
	it, err := f.lookup(parent)
	if err != nil {
		return 0, err
	}
	return len(it.kids), nil
}

func (f *fakeProvider) ColumnCount() (int, error) {
	f.calls["column_count"]++
	return f.cols, nil
}

func (f *fakeProvider) HasChildren(parent Path) (Tristate, error) {
	f.calls["has_children"]++
	if f.unknown {
		return Unknown, nil
	}
	it, err := f.lookup(parent)
	if err != nil {
		return No, err
	}
	if len(it.kids) > 0 {
		return Yes, nil
	}
	return No, nil
}

func (f *fakeProvider) Data(p Path) (*Specifier, error) {
	f.calls["data"]++
	if f.panicData {
		panic("data")
	}
	it, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	return NewSpecifier(it.name), nil
}

func (f *fakeProvider) Index(row, col int, parent Path) (Path, error) {
	f.calls["index"]++
	fp, _ := parent.(*fakePath)
	return &fakePath{row: row, col: col, parent: fp}, nil
}

func (f *fakeProvider) Available() bool { return !f.gone }

func (f *fakeProvider) SetData(p Path, spec *Specifier) error {
	if p.Column() != 0 {
		return fmt.Errorf("%w: column %d is read only", errFake, p.Column())
	}
	it, err := f.lookup(p)
	if err != nil {
		return err
	}
	it.name = spec.Text
	return nil
}

func (f *fakeProvider) Header(section int, o Orientation) (*Specifier, error) {
	f.calls["header"]++
	if section >= f.cols && o == Horizontal {
		return nil, fmt.Errorf("%w: no section %d", errFake, section)
	}
	return &Specifier{Text: fmt.Sprintf("%s%d", o, section), Flags: FlagElideRight, Width: 10 * (section + 1)}, nil
}

func (f *fakeProvider) insert(parent *item, pos int, names ...string) {
	var its []*item
	for _, n := range names {
		its = append(its, &item{name: n})
	}
	parent.kids = slices.Insert(parent.kids, pos, its...)
}

func (f *fakeProvider) remove(parent *item, pos, count int) {
	parent.kids = slices.Delete(parent.kids, pos, pos+count)
}

// readOnly hides the Setter and HeaderProvider of a fake.
type readOnly struct {
	p *fakeProvider
}

func (r readOnly) RowCount(parent Path) (int, error)         { return r.p.RowCount(parent) }
func (r readOnly) ColumnCount() (int, error)                 { return r.p.ColumnCount() }
func (r readOnly) HasChildren(parent Path) (Tristate, error) { return r.p.HasChildren(parent) }
func (r readOnly) Data(p Path) (*Specifier, error)           { return r.p.Data(p) }
func (r readOnly) Index(row, col int, parent Path) (Path, error) {
	return r.p.Index(row, col, parent)
}

// events records model events.
type events []Event

func (e *events) add(ev Event) { *e = append(*e, ev) }

func (e events) types() []EventType {
	var res []EventType
	for _, ev := range e {
		res = append(res, ev.Type)
	}
	return res
}
