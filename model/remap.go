package model

import (
	"slices"

	"github.com/signadot/hmodel/debug"
)

// Remap is the permutation that re-seats persistent handles across one
// structural edit.
//
// Before holds the handle positions prior to the edit, indexed by handle
// slot. Order lists the slots of Before in ascending [Compare] order, so
// Order[k] is the slot of the k-th smallest position. Sorted holds the
// recomputed positions in that same order and After maps them back to
// slots: After[Order[k]] == Sorted[k].
type Remap struct {
	Before []Index
	Order  []int
	Sorted []Index
	After  []Index
}

// NewRemap snapshots before and computes its stable order.
func NewRemap(before []Index) *Remap {
	order := make([]int, len(before))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return Compare(before[a], before[b])
	})
	return &Remap{Before: before, Order: order}
}

// Apply computes Sorted and After, visiting positions in sorted order.
func (r *Remap) Apply(recompute func(Index) Index) {
	r.Sorted = make([]Index, len(r.Order))
	for k, slot := range r.Order {
		r.Sorted[k] = recompute(r.Before[slot])
	}
	r.After = make([]Index, len(r.Before))
	for k, slot := range r.Order {
		r.After[slot] = r.Sorted[k]
	}
}

// liveIndex recomputes idx from the current fields of its node.
func liveIndex(idx Index) Index {
	if idx.n == nil || idx.n.detached {
		return Index{}
	}
	return indexOf(idx.n)
}

// within reports whether n is scope or one of its descendants.
func within(n, scope *Node) bool {
	for x := n; x != nil; x = x.parent {
		if x == scope {
			return true
		}
	}
	return false
}

// remap runs mutate between a snapshot of the persistent handles and their
// re-seating. Handles under scope are recomputed, the others are carried
// unchanged.
func (m *Model) remap(scope *Node, mutate func()) *Remap {
	before := make([]Index, len(m.persistent))
	for i, p := range m.persistent {
		before[i] = p.idx
	}
	r := NewRemap(before)
	mutate()
	r.Apply(func(idx Index) Index {
		if idx.n != nil && within(idx.n, scope) {
			return liveIndex(idx)
		}
		return idx
	})
	m.publish(r)
	return r
}

// publish installs r.After as the new handle positions. Handles whose
// entity went away leave the tracked set.
func (m *Model) publish(r *Remap) {
	handles := m.persistent
	live := handles[:0:0]
	for i, p := range handles {
		p.idx = r.After[i]
		if !p.idx.IsValid() {
			p.live = false
			p.idx = Index{}
			continue
		}
		live = append(live, p)
	}
	m.persistent = live
	if debug.Remap() {
		debug.Logf("remap: %d handles, %d live, order %v\n", len(handles), len(live), r.Order)
	}
}
