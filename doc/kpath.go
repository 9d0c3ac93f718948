package doc

import (
	"fmt"

	"github.com/signadot/hmodel/kpath"
)

// KPath returns the kinded path of this node's position in the tree.
//
// Examples:
//   - Root node → nil
//   - Object field "a" → "a"
//   - Array element at index 0 → "[0]"
//   - Mixed → "a[0].b"
func (y *Node) KPath() *kpath.KPath {
	var segs []*kpath.KPath
	for x := y; x.Parent != nil; x = x.Parent {
		switch x.Parent.Type {
		case ObjectType:
			segs = append(segs, kpath.Field(x.ParentField))
		case ArrayType:
			segs = append(segs, kpath.Index(x.ParentIndex))
		default:
			panic("parent but not in container")
		}
	}
	var res *kpath.KPath
	for i := len(segs) - 1; i >= 0; i-- {
		res = res.Append(segs[i])
	}
	return res
}

// Get navigates the tree under y following kp. Unlike Clone based
// accessors, the node itself is returned.
func (y *Node) Get(kp *kpath.KPath) (*Node, error) {
	res := y
	var done *kpath.KPath
	for x := kp; x != nil; x = x.Next {
		seg := &kpath.KPath{Field: x.Field, Index: x.Index}
		switch {
		case seg.Index != nil:
			if res.Type != ArrayType {
				return nil, fmt.Errorf("%w: %q: expected array, got %s", ErrNotFound, done.String(), res.Type)
			}
			index := *seg.Index
			if index < 0 || index >= len(res.Values) {
				return nil, fmt.Errorf("%w: %q: index out of bounds %d (len %d)", ErrNotFound, done.String(), index, len(res.Values))
			}
			res = res.Values[index]
		case seg.Field != nil:
			if res.Type != ObjectType {
				return nil, fmt.Errorf("%w: %q: expected object, got %s", ErrNotFound, done.String(), res.Type)
			}
			i := res.Index(*seg.Field)
			if i < 0 {
				return nil, fmt.Errorf("%w: %q: no field %q", ErrNotFound, done.String(), *seg.Field)
			}
			res = res.Values[i]
		default:
			return nil, fmt.Errorf("empty path segment")
		}
		done = done.Append(seg)
	}
	return res, nil
}

// GetKPath is Get for a kinded path string.
func (y *Node) GetKPath(kp string) (*Node, error) {
	p, err := kpath.Parse(kp)
	if err != nil {
		return nil, err
	}
	return y.Get(p)
}
