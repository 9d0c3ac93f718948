package model

import "fmt"

// Index is a transient position handed to consumers: the row and column
// observed when it was created plus the cache node it designates. The zero
// Index is invalid and, used as a parent, designates the top level.
//
// An Index is only good until the next structural edit; hold a
// [PersistentIndex] to follow an entity across edits.
type Index struct {
	row, col int
	n        *Node
}

func indexOf(n *Node) Index {
	if n == nil || n.parent == nil || n.detached {
		return Index{}
	}
	return Index{row: n.row, col: n.col, n: n}
}

func (i Index) Row() int {
	if i.n == nil {
		return -1
	}
	return i.row
}

func (i Index) Column() int {
	if i.n == nil {
		return -1
	}
	return i.col
}

// Node returns the cache node behind i, or nil for the invalid index.
func (i Index) Node() *Node { return i.n }

func (i Index) IsValid() bool {
	return i.n != nil && !i.n.detached
}

// Sibling returns the index at (row, col) under the same parent as i,
// without creating it; see Model.Index to materialise positions.
func (i Index) Sibling(row, col int) Index {
	if !i.IsValid() {
		return Index{}
	}
	return indexOf(i.n.parent.Cached(row, col))
}

func (i Index) String() string {
	if !i.IsValid() {
		return "<invalid>"
	}
	s := ""
	for n := i.n; n.parent != nil; n = n.parent {
		s = fmt.Sprintf("(%d,%d)", n.row, n.col) + s
	}
	return s
}
