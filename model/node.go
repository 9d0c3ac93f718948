package model

import (
	"slices"

	"github.com/signadot/hmodel/debug"
)

// Node is one cached (row, column) position relative to its parent. Nodes
// are created on first access through [Node.Child] and keep their identity
// across structural edits: only their row and column fields move.
type Node struct {
	row, col int
	parent   *Node
	bind     *binding

	rows, cols count
	children   [][]*Node

	path Path
	spec *Specifier

	// gen changes on every mutation so a lazy computation can tell that a
	// re-entrant call got there first.
	gen      uint64
	detached bool
}

func newRoot(b *binding) *Node {
	return &Node{row: -1, col: -1, bind: b}
}

func (n *Node) Row() int    { return n.row }
func (n *Node) Column() int { return n.col }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) IsRoot() bool { return n.parent == nil }

// Detached reports whether the node's subtree was destroyed. A detached
// node never becomes valid again.
func (n *Node) Detached() bool { return n.detached }

func (n *Node) RowState() CountState    { return n.rows.state }
func (n *Node) ColumnState() CountState { return n.cols.state }

// Depth is 0 for the root, 1 for top level positions and so on.
func (n *Node) Depth() int {
	d := 0
	for x := n.parent; x != nil; x = x.parent {
		d++
	}
	return d
}

// Cached returns the child at (row, col) if it has been materialised,
// without querying the provider.
func (n *Node) Cached(row, col int) *Node {
	if row < 0 || row >= len(n.children) {
		return nil
	}
	r := n.children[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

func (n *Node) touch() { n.gen++ }

// RowCount returns the number of rows under n, asking the provider the
// first time. Failures count as zero rows.
func (n *Node) RowCount() int {
	if n.detached {
		return 0
	}
	if n.rows.state != Uncomputed {
		return n.rows.value()
	}
	gen := n.gen
	c, keep := n.queryRows()
	if n.rows.state != Uncomputed {
		return n.rows.value()
	}
	if !keep || n.gen != gen || n.detached {
		return c.value()
	}
	n.rows = c
	n.resize()
	n.touch()
	if debug.Cache() {
		debug.Logf("cache: rows of (%d, %d) depth %d = %s\n", n.row, n.col, n.Depth(), c)
	}
	return c.value()
}

func (n *Node) queryRows() (count, bool) {
	path, err := n.stablePath()
	if err != nil {
		return count{state: Empty}, !isUnavailable(err)
	}
	r, err := call(n.bind, "row_count", func(p Provider) (int, error) {
		return p.RowCount(path)
	})
	if err != nil {
		return count{state: Empty}, !isUnavailable(err)
	}
	return countOf(r), true
}

// ColumnCount returns the number of columns of the rows under n.
func (n *Node) ColumnCount() int {
	if n.detached {
		return 0
	}
	if n.cols.state != Uncomputed {
		return n.cols.value()
	}
	gen := n.gen
	c, err := call(n.bind, "column_count", func(p Provider) (int, error) {
		return p.ColumnCount()
	})
	if n.cols.state != Uncomputed {
		return n.cols.value()
	}
	cc := countOf(c)
	if err != nil {
		cc = count{state: Empty}
	}
	if isUnavailable(err) || n.gen != gen || n.detached {
		return cc.value()
	}
	n.cols = cc
	n.resize()
	n.touch()
	if debug.Cache() {
		debug.Logf("cache: columns of (%d, %d) depth %d = %s\n", n.row, n.col, n.Depth(), cc)
	}
	return cc.value()
}

// HasChildren reports whether n has child rows, whatever the column
// count. The provider may answer Unknown, in which case the rows are
// counted.
func (n *Node) HasChildren() bool {
	if n.detached {
		return false
	}
	if n.rows.state == Uncomputed {
		if n.parent != nil && n.col > 0 {
			return false
		}
		path, err := n.stablePath()
		if err != nil {
			return false
		}
		t, err := call(n.bind, "has_children", func(p Provider) (Tristate, error) {
			return p.HasChildren(path)
		})
		if err != nil {
			return false
		}
		switch t {
		case Yes:
			return true
		case No:
			return false
		}
		return n.RowCount() > 0
	}
	return n.rows.value() > 0
}

// HasChild reports whether (row, col) lies within the counts of n.
func (n *Node) HasChild(row, col int) bool {
	return row >= 0 && col >= 0 && row < n.RowCount() && col < n.ColumnCount()
}

// Child returns the cached child at (row, col), creating it if needed.
// It returns nil only when (row, col) is out of bounds.
func (n *Node) Child(row, col int) *Node {
	if !n.HasChild(row, col) {
		return nil
	}
	if row >= len(n.children) || col >= len(n.children[row]) {
		n.resize()
	}
	c := n.children[row][col]
	if c == nil {
		c = &Node{row: row, col: col, parent: n, bind: n.bind}
		n.children[row][col] = c
	}
	return c
}

// resize makes the grid extent match the current counts.
func (n *Node) resize() {
	rows, cols := n.rows.value(), n.cols.value()
	if len(n.children) > rows {
		for _, r := range n.children[rows:] {
			detachAll(r)
		}
		n.children = n.children[:rows]
	}
	for len(n.children) < rows {
		n.children = append(n.children, make([]*Node, cols))
	}
	for i, r := range n.children {
		if len(r) > cols {
			detachAll(r[cols:])
			r = r[:cols]
		}
		for len(r) < cols {
			r = append(r, nil)
		}
		n.children[i] = r
	}
}

// Invalidate clears the cached specifier and stable path of n. With full,
// the cached subtree is destroyed and both counts return to uncomputed.
func (n *Node) Invalidate(full bool) {
	if full {
		n.dropChildren()
		n.rows, n.cols = count{}, count{}
	}
	n.spec = nil
	n.path = nil
	n.touch()
}

// ResetData clears cached specifiers and stable paths in the whole subtree
// while keeping its shape.
func (n *Node) ResetData() {
	for _, r := range n.children {
		for _, c := range r {
			if c != nil {
				c.ResetData()
			}
		}
	}
	n.spec = nil
	n.path = nil
}

func (n *Node) dropChildren() {
	for _, r := range n.children {
		detachAll(r)
	}
	n.children = nil
}

func (n *Node) detach() {
	n.dropChildren()
	n.detached = true
	n.spec = nil
	n.path = nil
	n.touch()
}

func detachAll(nodes []*Node) {
	for _, c := range nodes {
		if c != nil {
			c.detach()
		}
	}
}

// moveTo rewrites the position of n after a shift. Stable paths below n
// embed the old position, so they are dropped too.
func (n *Node) moveTo(row, col int) {
	n.row, n.col = row, col
	n.Invalidate(false)
	n.dropPaths()
}

func (n *Node) dropPaths() {
	for _, r := range n.children {
		for _, c := range r {
			if c != nil {
				c.path = nil
				c.dropPaths()
			}
		}
	}
}

// InsertRows records that count rows were inserted at pos. Cached rows at
// or after pos move down by count; new slots are empty. It returns the
// effective position and count.
func (n *Node) InsertRows(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	n.touch()
	if n.rows.state != Counted {
		n.rows = emptyToUncomputed(n.rows)
		return pos, count
	}
	pos = min(pos, len(n.children))
	for _, r := range n.children[pos:] {
		for _, c := range r {
			if c != nil {
				c.moveTo(c.row+count, c.col)
			}
		}
	}
	fresh := make([][]*Node, count)
	for i := range fresh {
		fresh[i] = make([]*Node, n.cols.value())
	}
	n.children = slices.Insert(n.children, pos, fresh...)
	n.rows.n += count
	return pos, count
}

// RemoveRows records that count rows starting at pos were removed. The
// removed subtrees are destroyed and later rows move up.
func (n *Node) RemoveRows(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	n.touch()
	if n.rows.state != Counted {
		n.rows = emptyToUncomputed(n.rows)
		return pos, count
	}
	if pos >= len(n.children) {
		return pos, 0
	}
	end := min(pos+count, len(n.children))
	count = end - pos
	for _, r := range n.children[end:] {
		for _, c := range r {
			if c != nil {
				c.moveTo(c.row-count, c.col)
			}
		}
	}
	for _, r := range n.children[pos:end] {
		detachAll(r)
	}
	n.children = slices.Delete(n.children, pos, end)
	n.rows.n -= count
	return pos, count
}

// ChangeRows invalidates the cached specifiers of existing rows in range.
func (n *Node) ChangeRows(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	end := pos + count
	if n.rows.state == Counted {
		end = min(end, len(n.children))
		if pos >= end {
			return pos, 0
		}
	}
	for i := pos; i < end && i < len(n.children); i++ {
		for _, c := range n.children[i] {
			if c != nil {
				c.Invalidate(false)
			}
		}
	}
	return pos, end - pos
}

// InsertColumns is the column analogue of InsertRows, applied to every
// cached row.
func (n *Node) InsertColumns(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	n.touch()
	if n.cols.state != Counted {
		n.cols = emptyToUncomputed(n.cols)
		return pos, count
	}
	pos = min(pos, n.cols.n)
	for i, r := range n.children {
		for _, c := range r[pos:] {
			if c != nil {
				c.moveTo(c.row, c.col+count)
			}
		}
		n.children[i] = slices.Insert(r, pos, make([]*Node, count)...)
	}
	n.cols.n += count
	return pos, count
}

// RemoveColumns is the column analogue of RemoveRows.
func (n *Node) RemoveColumns(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	n.touch()
	if n.cols.state != Counted {
		n.cols = emptyToUncomputed(n.cols)
		return pos, count
	}
	if pos >= n.cols.n {
		return pos, 0
	}
	end := min(pos+count, n.cols.n)
	count = end - pos
	for i, r := range n.children {
		for _, c := range r[end:] {
			if c != nil {
				c.moveTo(c.row, c.col-count)
			}
		}
		detachAll(r[pos:end])
		n.children[i] = slices.Delete(r, pos, end)
	}
	n.cols.n -= count
	return pos, count
}

// ChangeColumns invalidates cached specifiers of existing cells in the
// column range across every cached row.
func (n *Node) ChangeColumns(pos, count int) (int, int) {
	if count <= 0 || pos < 0 || n.detached {
		return pos, 0
	}
	end := pos + count
	if n.cols.state == Counted {
		end = min(end, n.cols.n)
		if pos >= end {
			return pos, 0
		}
	}
	for _, r := range n.children {
		for i := pos; i < end && i < len(r); i++ {
			if c := r[i]; c != nil {
				c.Invalidate(false)
			}
		}
	}
	return pos, end - pos
}

// an empty count came from a failed query; after a notification the
// provider is worth asking again.
func emptyToUncomputed(c count) count {
	if c.state == Empty {
		return count{}
	}
	return c
}

// walk visits n and every materialised descendant in pre-order.
func (n *Node) walk(f func(*Node)) {
	f(n)
	for _, r := range n.children {
		for _, c := range r {
			if c != nil {
				c.walk(f)
			}
		}
	}
}
