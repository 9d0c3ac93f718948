package docprov

import (
	"fmt"

	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/model"
)

// Path addresses a column of a document node. It follows the node: after
// edits elsewhere in the document, Row reports the node's current position.
// Paths to removed nodes report row -1 and no longer resolve.
type Path struct {
	node *doc.Node
	root *doc.Node
	col  int
}

func (p *Path) Node() *doc.Node { return p.node }

func (p *Path) Row() int {
	if p.node.Parent == nil {
		return -1
	}
	return p.node.ParentIndex
}

func (p *Path) Column() int { return p.col }

func (p *Path) Parent() model.Path {
	par := p.node.Parent
	if par == nil || par == p.root {
		return nil
	}
	return &Path{node: par, root: p.root}
}

func (p *Path) String() string {
	return fmt.Sprintf("%s#%d", p.node.KPath(), p.col)
}

// attached reports whether n is in the document rooted at root. Nodes
// dropped by a wholesale replacement still point at their old parent, so
// each step checks the parent holds the node.
func attached(n, root *doc.Node) bool {
	for x := n; x != nil; x = x.Parent {
		if x == root {
			return true
		}
		par := x.Parent
		if par == nil || par.Child(x.ParentIndex) != x {
			return false
		}
	}
	return false
}
