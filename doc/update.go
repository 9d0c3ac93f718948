package doc

import (
	"errors"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Update transforms dst in place into a copy of src, reporting each step to
// sink (which may be nil).
//
// Containers are compared level by level: object fields by name, array
// elements by content, each as a sequence diff. Unchanged children keep
// their identity; changed leaves are replaced in place and containers of
// the same type are updated recursively. When the roots cannot be matched
// the content of dst is replaced and a single Reset is reported.
func Update(dst, src *Node, sink ChangeSink) error {
	u := &updater{sink: sink}
	switch {
	case dst.Type == src.Type && !dst.Type.IsLeaf():
		u.level(dst, src)
	case !Equal(dst, src):
		src.copyContent(dst)
		u.emit(Change{Kind: Reset})
	}
	return errors.Join(u.errs...)
}

// Diff returns the changes Update would report transforming from into to.
// The changes refer to a copy of from.
func Diff(from, to *Node) []Change {
	var res []Change
	_ = Update(from.Clone(), to, Collect(&res))
	return res
}

type updater struct {
	sink ChangeSink
	errs []error
}

func (u *updater) emit(c Change) {
	if u.sink == nil {
		return
	}
	if err := u.sink(c); err != nil {
		u.errs = append(u.errs, err)
	}
}

func (u *updater) level(dst, src *Node) {
	keys := map[string]rune{}
	if dst.Type == ObjectType {
		diffs := diffRunes(mapKeysTo(keys, dst.Fields), mapKeysTo(keys, src.Fields))
		u.object(dst, src, diffs)
		return
	}
	diffs := diffRunes(mapKeysTo(keys, contentKeys(dst)), mapKeysTo(keys, contentKeys(src)))
	u.array(dst, src, diffs)
}

func diffRunes(from, to []rune) []diffpatch.Diff {
	return diffpatch.New().DiffMainRunes(from, to, false)
}

func runLen(d *diffpatch.Diff) int {
	return len([]rune(d.Text))
}

// object removes deleted fields first, so that fields which moved are
// re-inserted without clashing with their old position.
func (u *updater) object(dst, src *Node, diffs []diffpatch.Diff) {
	di := 0
	for i := range diffs {
		diff := &diffs[i]
		n := runLen(diff)
		switch diff.Type {
		case diffpatch.DiffDelete:
			for range n {
				// cannot fail: the diff covers every field of dst
				_, _ = dst.RemoveAt(di)
			}
			u.emit(Change{Kind: Removed, Parent: dst, Index: di, Count: n})
		case diffpatch.DiffEqual:
			di += n
		}
	}
	di, si := 0, 0
	for i := range diffs {
		diff := &diffs[i]
		n := runLen(diff)
		switch diff.Type {
		case diffpatch.DiffEqual:
			for range n {
				u.child(dst, di, src.Values[si])
				di++
				si++
			}
		case diffpatch.DiffInsert:
			for j := range n {
				_ = dst.InsertAt(di+j, src.Fields[si+j], src.Values[si+j].Clone())
			}
			u.emit(Change{Kind: Added, Parent: dst, Index: di, Count: n})
			di += n
			si += n
		}
	}
}

// array gathers runs of deletions and insertions up to the next equal run
// and pairs them, so that an edited element is updated rather than
// removed and added again.
func (u *updater) array(dst, src *Node, diffs []diffpatch.Diff) {
	di, si, del, ins := 0, 0, 0, 0
	flush := func() {
		k := min(del, ins)
		for j := range k {
			u.child(dst, di+j, src.Values[si+j])
		}
		di += k
		si += k
		if n := del - k; n > 0 {
			for range n {
				_, _ = dst.RemoveAt(di)
			}
			u.emit(Change{Kind: Removed, Parent: dst, Index: di, Count: n})
		}
		if n := ins - k; n > 0 {
			for j := range n {
				_ = dst.InsertAt(di+j, "", src.Values[si+j].Clone())
			}
			u.emit(Change{Kind: Added, Parent: dst, Index: di, Count: n})
			di += n
			si += n
		}
		del, ins = 0, 0
	}
	for i := range diffs {
		diff := &diffs[i]
		n := runLen(diff)
		switch diff.Type {
		case diffpatch.DiffDelete:
			del += n
		case diffpatch.DiffInsert:
			ins += n
		case diffpatch.DiffEqual:
			flush()
			di += n
			si += n
		}
	}
	flush()
}

// child brings the i'th child of dst in line with s.
func (u *updater) child(dst *Node, i int, s *Node) {
	d := dst.Values[i]
	if d.Type == s.Type && !d.Type.IsLeaf() {
		u.level(d, s)
		return
	}
	if Equal(d, s) {
		return
	}
	_, _ = dst.SetAt(i, s.Clone())
	u.emit(Change{Kind: Replaced, Parent: dst, Index: i, Count: 1})
}

func mapKeysTo(m map[string]rune, keys []string) []rune {
	rs := make([]rune, len(keys))
	for i, k := range keys {
		r, ok := m[k]
		if !ok {
			r = keyRune(len(m))
			m[k] = r
		}
		rs[i] = r
	}
	return rs
}

// keyRune maps i to a rune which survives the diff's string conversions.
func keyRune(i int) rune {
	const surrogates = 0xD800
	if i >= surrogates {
		i += 0x800
	}
	return rune(i)
}

func contentKeys(y *Node) []string {
	res := make([]string, len(y.Values))
	for i, v := range y.Values {
		d, err := v.MarshalJSON()
		if err != nil {
			// NaN and infinities: fall back to a textual key
			d = []byte(v.Type.String() + ":" + v.Text())
		}
		res[i] = string(d)
	}
	return res
}
