package model

import "cmp"

// Compare orders two indexes in pre-order over the whole hierarchy.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
//
// Siblings compare by (row, column); an ancestor sorts before its
// descendants; positions in different branches compare at the level
// below their nearest shared ancestor. Invalid indexes sort first.
func Compare(a, b Index) int {
	an, bn := a.n, b.n
	if !a.IsValid() {
		an = nil
	}
	if !b.IsValid() {
		bn = nil
	}
	switch {
	case an == bn:
		return 0
	case an == nil:
		return -1
	case bn == nil:
		return 1
	}
	return compareNodes(an, bn)
}

func compareNodes(a, b *Node) int {
	if a == b {
		return 0
	}
	if a.parent == b.parent {
		return compareCells(a, b)
	}
	da, db := a.Depth(), b.Depth()
	aa, bb := a, b
	for i := da; i > db; i-- {
		aa = aa.parent
	}
	for i := db; i > da; i-- {
		bb = bb.parent
	}
	if aa == bb {
		// one is an ancestor of the other
		return cmp.Compare(da, db)
	}
	for aa.parent != bb.parent {
		aa, bb = aa.parent, bb.parent
	}
	return compareCells(aa, bb)
}

func compareCells(a, b *Node) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}
