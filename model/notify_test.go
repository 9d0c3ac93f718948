package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRemoveRowsReseatsHandle(t *testing.T) {
	f := newFake(1, 3)
	m := New(f)
	before := m.Index(2, 0, Index{})
	h := m.Persist(before)

	f.remove(f.root, 0, 1)
	if err := m.Notify(RowsRemoved, 0, 1, nil); err != nil {
		t.Fatal(err)
	}
	if h.Row() != 1 {
		t.Errorf("handle at row %d, want 1", h.Row())
	}
	if h.Index().Node() != before.Node() {
		t.Errorf("handle re-seated to another node")
	}
	if got := m.Data(h.Index(), RoleDisplay); got != "2" {
		t.Errorf("handle shows %v", got)
	}
}

func TestNotifyRows(t *testing.T) {
	f := newFake(2, 3, 3, 1)
	var evs events
	m := New(f, WithListener(evs.add))

	other := m.Persist(m.Index(2, 1, m.Index(0, 0, Index{})))
	parent := m.Index(1, 0, Index{})
	first := m.Persist(m.Index(0, 0, parent))
	last := m.Persist(m.Index(2, 1, parent))
	deep := m.Persist(m.Index(0, 0, m.Index(2, 0, parent)))
	parentPath, err := m.StablePath(parent)
	if err != nil {
		t.Fatal(err)
	}
	otherNode := other.Index().Node()

	f.insert(f.at(1, 0), 1, "a", "b")
	if err := m.Notify(RowsAdded, 1, 2, parentPath); err != nil {
		t.Fatal(err)
	}
	if first.Row() != 0 || last.Row() != 4 || last.Column() != 1 {
		t.Errorf("after insert: first row %d, last (%d, %d)", first.Row(), last.Row(), last.Column())
	}
	if m.Parent(deep.Index()).Row() != 4 {
		t.Errorf("deep handle's parent at row %d", m.Parent(deep.Index()).Row())
	}
	if other.Index().Node() != otherNode || other.Row() != 2 {
		t.Errorf("handle in another branch moved")
	}
	if got := m.Data(m.Index(1, 0, parent), RoleDisplay); got != "a" {
		t.Errorf("inserted row shows %v", got)
	}

	f.remove(f.at(1, 0), 3, 2)
	if err := m.Notify(RowsRemoved, 3, 2, parentPath); err != nil {
		t.Fatal(err)
	}
	if last.IsValid() || deep.IsValid() {
		t.Errorf("handles in removed rows survived")
	}
	if !first.IsValid() || !other.IsValid() {
		t.Errorf("unrelated handles lost")
	}
	if got := m.RowCount(parent); got != 3 {
		t.Errorf("RowCount() = %d", got)
	}

	if diff := cmp.Diff([]EventType{RowsInserted, EventRowsRemoved}, evs.types()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if evs[0].Parent != parent || evs[0].First != 1 || evs[0].Last != 2 {
		t.Errorf("insert event %s", evs[0])
	}
	if evs[1].First != 3 || evs[1].Last != 4 {
		t.Errorf("remove event %s", evs[1])
	}
}

func TestNotifyColumns(t *testing.T) {
	f := newFake(3, 2, 2)
	var evs events
	m := New(f, WithListener(evs.add))
	top := m.Persist(m.Index(1, 2, Index{}))
	parent := m.Index(0, 0, Index{})
	nested := m.Persist(m.Index(1, 2, parent))
	gone := m.Persist(m.Index(0, 1, parent))

	f.cols = 2
	if err := m.Notify(ColumnsRemoved, 1, 1, nil); err != nil {
		t.Fatal(err)
	}
	if top.Column() != 1 || nested.Column() != 1 {
		t.Errorf("columns after remove: %d, %d", top.Column(), nested.Column())
	}
	if gone.IsValid() {
		t.Errorf("handle in removed column survived")
	}
	if m.ColumnCount(parent) != 2 || m.ColumnCount(Index{}) != 2 {
		t.Errorf("column counts %d, %d", m.ColumnCount(parent), m.ColumnCount(Index{}))
	}

	f.cols = 4
	if err := m.Notify(ColumnsAdded, 1, 2, nil); err != nil {
		t.Fatal(err)
	}
	if top.Column() != 3 || nested.Column() != 3 {
		t.Errorf("columns after insert: %d, %d", top.Column(), nested.Column())
	}

	if err := m.Notify(ColumnsChanged, 3, 1, nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]EventType{EventColumnsRemoved, ColumnsInserted, DataChanged}, evs.types()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	dc := evs[2]
	if dc.TopLeft.Row() != 0 || dc.TopLeft.Column() != 3 || dc.BottomRight.Row() != 1 || dc.BottomRight.Column() != 3 {
		t.Errorf("data changed %s", dc)
	}
}

func TestNotifyRowsChanged(t *testing.T) {
	f := newFake(2, 4)
	var evs events
	m := New(f, WithListener(evs.add))
	idx := m.Index(1, 0, Index{})
	h := m.Persist(idx)
	m.Data(idx, RoleDisplay)
	f.at(1, 0).name = "changed"

	if err := m.Notify(RowsChanged, 1, 2, nil); err != nil {
		t.Fatal(err)
	}
	if h.Index() != idx {
		t.Errorf("handle moved")
	}
	if got := m.Data(idx, RoleDisplay); got != "changed" {
		t.Errorf("Data() = %v", got)
	}
	if len(evs) != 1 || evs[0].Type != DataChanged || evs[0].TopLeft != idx || evs[0].BottomRight.Row() != 2 || evs[0].BottomRight.Column() != 1 {
		t.Errorf("events %v", evs)
	}
}

func TestNotifyCellChanged(t *testing.T) {
	f := newFake(2, 2, 2)
	var evs events
	m := New(f, WithListener(evs.add))
	cell := m.Index(1, 0, Index{})
	self := m.Persist(cell)
	below := m.Persist(m.Index(1, 1, cell))
	sibling := m.Persist(m.Index(0, 0, Index{}))

	f.at(1, 0).name = "cell"
	if err := m.Notify(CellChanged, 1, 0, nil); err != nil {
		t.Fatal(err)
	}
	if self.Index() != cell || below.IsValid() || !sibling.IsValid() {
		t.Errorf("self %s below %v sibling %v", self.Index(), below.IsValid(), sibling.IsValid())
	}
	if got := m.Data(cell, RoleDisplay); got != "cell" {
		t.Errorf("Data() = %v", got)
	}
	if cell.Node().RowState() != Uncomputed {
		t.Errorf("cell subtree kept")
	}
	if len(evs) != 1 || evs[0].Type != DataChanged || evs[0].TopLeft != cell {
		t.Errorf("events %v", evs)
	}

	evs = nil
	if err := m.Notify(CellChanged, 5, 0, nil); err != nil {
		t.Fatal(err)
	}
	if len(evs) != 0 {
		t.Errorf("out of range cell emitted %v", evs)
	}
}

func TestNotifyReset(t *testing.T) {
	f := newFake(1, 3)
	var evs events
	m := New(f, WithListener(evs.add))
	idx := m.Index(0, 0, Index{})
	h := m.Persist(idx)
	if err := m.Notify(Reset, 0, 0, nil); err != nil {
		t.Fatal(err)
	}
	if h.IsValid() || idx.IsValid() {
		t.Errorf("reset kept handles")
	}
	if m.Root().RowState() != Uncomputed {
		t.Errorf("reset kept counts")
	}
	if diff := cmp.Diff([]EventType{ModelReset}, evs.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyNoops(t *testing.T) {
	f := newFake(1, 3)
	var evs events
	m := New(f, WithListener(evs.add))
	c := materialise(m.Root())
	h := m.Persist(indexOf(c[2]))

	tests := []struct {
		name         string
		kind         Kind
		index, count int
	}{
		{"zero insert", RowsAdded, 1, 0},
		{"negative remove", RowsRemoved, 0, -1},
		{"remove past end", RowsRemoved, 3, 2},
		{"change past end", RowsChanged, 9, 1},
		{"zero column insert", ColumnsAdded, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Notify(tt.kind, tt.index, tt.count, nil); err != nil {
				t.Fatal(err)
			}
			if len(evs) != 0 {
				t.Errorf("events %v", evs)
			}
			if h.Row() != 2 || m.Root().Cached(2, 0) != c[2] {
				t.Errorf("cache changed")
			}
		})
	}
}

func TestNotifyBadParent(t *testing.T) {
	f := newFake(1, 3)
	var evs events
	m := New(f, WithListener(evs.add))
	c := materialise(m.Root())
	h := m.Persist(indexOf(c[1]))

	err := m.Notify(RowsAdded, 0, 1, pathOf(7, 0))
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(evs) != 0 || h.Row() != 1 || m.RowCount(Index{}) != 3 {
		t.Errorf("failed notification changed the model")
	}
	if err := m.Notify(Kind(42), 0, 1, nil); err == nil {
		t.Errorf("unknown kind accepted")
	}
}

func TestNotifyAll(t *testing.T) {
	f := newFake(1, 4)
	var evs events
	m := New(f, WithListener(evs.add))
	c := materialise(m.Root())
	h := m.Persist(indexOf(c[3]))

	err := m.NotifyAll(
		Notification{Kind: RowsRemoved, Index: 0, Count: 2},
		Notification{Kind: RowsAdded, Index: 1, Count: 3},
		Notification{Kind: RowsAdded, Index: 0, Count: 1, Parent: pathOf(9, 0)},
		Notification{Kind: RowsRemoved, Index: 0, Count: 1},
	)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("NotifyAll() error = %v", err)
	}
	// [0 1 2 3] -> [2 3] -> [2 _ _ _ 3] -> [_ _ _ 3]
	if h.Row() != 3 || h.Index().Node() != c[3] {
		t.Errorf("handle at row %d", h.Row())
	}
	if diff := cmp.Diff([]EventType{EventRowsRemoved, RowsInserted, EventRowsRemoved}, evs.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestKindText(t *testing.T) {
	for k := Reset; k <= CellChanged; k++ {
		d, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Kind
		if err := got.UnmarshalText(d); err != nil || got != k {
			t.Errorf("%s round trip gave %s, %v", k, got, err)
		}
	}
	if _, err := ParseKind("rows_moved"); err == nil {
		t.Errorf("ParseKind accepted an unknown kind")
	}
}

// Removal notifications and the events they cause are named apart.
func TestRemovalNames(t *testing.T) {
	got := []string{
		RowsRemoved.String(), EventRowsRemoved.String(),
		ColumnsRemoved.String(), EventColumnsRemoved.String(),
	}
	want := []string{"rows_removed", "rowsRemoved", "columns_removed", "columnsRemoved"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

// locate returns the rows leading from the top level to it, or nil if it is
// no longer in the tree.
func locate(items []*item, it *item) []int {
	for i, x := range items {
		if x == it {
			return []int{i}
		}
		if rows := locate(x.kids, it); rows != nil {
			return append([]int{i}, rows...)
		}
	}
	return nil
}

func rowsOf(n *Node) []int {
	var res []int
	for ; !n.IsRoot(); n = n.Parent() {
		res = append([]int{n.Row()}, res...)
	}
	return res
}

// TestRandomNestedNotify edits the top level and the rows below top level
// parents at random, checking that persistent handles at every depth keep
// their node and follow their item.
func TestRandomNestedNotify(t *testing.T) {
	type held struct {
		h    *PersistentIndex
		node *Node
		it   *item
	}
	r := rand.New(rand.NewPCG(13, 17))
	f := newFake(2, 4, 3, 2)
	m := New(f)
	var hs []held
	names := 0
	for step := range 300 {
		switch op := r.IntN(4); {
		case op == 0:
			// persist a random position at depth 1 to 3
			idx := Index{}
			its := f.root.kids
			var it *item
			for range r.IntN(3) + 1 {
				if len(its) == 0 {
					break
				}
				row := r.IntN(len(its))
				idx = m.Index(row, 0, idx)
				it, its = its[row], its[row].kids
			}
			if it == nil {
				continue
			}
			hs = append(hs, held{h: m.Persist(idx), node: idx.Node(), it: it})
			continue
		default:
			parent, path := f.root, Path(nil)
			if r.IntN(2) == 0 && len(f.root.kids) > 0 {
				row := r.IntN(len(f.root.kids))
				parent, path = f.root.kids[row], pathOf(row, 0)
			}
			if op == 1 || len(parent.kids) == 0 {
				pos, count := r.IntN(len(parent.kids)+1), r.IntN(2)+1
				var add []string
				for range count {
					add = append(add, fmt.Sprintf("n%d", names))
					names++
				}
				f.insert(parent, pos, add...)
				if err := m.Notify(RowsAdded, pos, count, path); err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
			} else {
				pos := r.IntN(len(parent.kids))
				count := min(r.IntN(2)+1, len(parent.kids)-pos)
				f.remove(parent, pos, count)
				if err := m.Notify(RowsRemoved, pos, count, path); err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
			}
		}
		for i, x := range hs {
			rows := locate(f.root.kids, x.it)
			if rows == nil {
				if x.h.IsValid() {
					t.Fatalf("step %d: handle %d on a removed item is valid", step, i)
				}
				continue
			}
			if !x.h.IsValid() || x.h.Index().Node() != x.node {
				t.Fatalf("step %d: handle %d lost its node", step, i)
			}
			if diff := cmp.Diff(rows, rowsOf(x.node)); diff != "" {
				t.Fatalf("step %d: handle %d position mismatch (-want +got):\n%s", step, i, diff)
			}
			if got := m.Data(x.h.Index(), RoleDisplay); got != x.it.name {
				t.Fatalf("step %d: handle %d shows %v, want %s", step, i, got, x.it.name)
			}
		}
	}
}
