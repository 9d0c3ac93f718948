package model

import (
	"errors"
	"fmt"
)

// maxPathDepth bounds upward walks over provider paths so that a provider
// returning a cyclic Parent chain cannot hang the model.
const maxPathDepth = 1 << 16

func isUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// stablePath returns the provider path of n, computing and caching it for
// n and any uncached ancestors. The root has the nil path.
//
// The provider assigns each level's address relative to its parent's
// address, so the chain is resolved from the top down.
func (n *Node) stablePath() (Path, error) {
	if n.parent == nil {
		return nil, nil
	}
	if n.detached {
		return nil, ErrInvalidIndex
	}
	if n.path != nil {
		return n.path, nil
	}
	var (
		chain []*Node
		base  Path
	)
	for x := n; x.parent != nil; x = x.parent {
		if x.path != nil {
			base = x.path
			break
		}
		chain = append(chain, x)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		x := chain[i]
		parent := base
		p, err := call(x.bind, "index", func(pr Provider) (Path, error) {
			return pr.Index(x.row, x.col, parent)
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: index(%d, %d) returned no path", ErrProvider, x.row, x.col)
		}
		x.path = p
		base = p
	}
	return base, nil
}

// StablePath returns the provider's stable path for idx. The invalid index
// designates the top level and has the nil path.
func (m *Model) StablePath(idx Index) (Path, error) {
	if idx.n == nil {
		return nil, nil
	}
	if !idx.IsValid() {
		return nil, ErrInvalidIndex
	}
	return idx.n.stablePath()
}

type coord struct{ row, col int }

// Resolve finds the index for a stable path. A nil path resolves to the
// invalid (top level) index. Paths naming positions outside the hierarchy
// fail with ErrAddressNotFound.
func (m *Model) Resolve(p Path) (idx Index, err error) {
	if p == nil {
		return Index{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			idx = Index{}
			err = fmt.Errorf("%w: walking path: %v", ErrProvider, r)
		}
	}()
	var stack []coord
	for x := p; x != nil; x = x.Parent() {
		if len(stack) == maxPathDepth {
			return Index{}, fmt.Errorf("%w: path deeper than %d", ErrAddressNotFound, maxPathDepth)
		}
		stack = append(stack, coord{x.Row(), x.Column()})
	}
	n := m.root
	for i := len(stack) - 1; i >= 0; i-- {
		c := stack[i]
		if n.parent != nil && n.col != 0 {
			return Index{}, fmt.Errorf("%w: level %d: column %d has no children", ErrAddressNotFound, len(stack)-i, n.col)
		}
		if !n.HasChild(c.row, c.col) {
			return Index{}, fmt.Errorf("%w: level %d: (%d, %d) out of bounds", ErrAddressNotFound, len(stack)-i, c.row, c.col)
		}
		n = n.Child(c.row, c.col)
	}
	if n.path == nil {
		n.path = p
	}
	return indexOf(n), nil
}
