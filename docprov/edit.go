package docprov

import (
	"fmt"

	"github.com/signadot/hmodel/debug"
	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/model"
)

// Patch applies an RFC 6902 patch to the document. Either the whole patch
// applies or the document is left unchanged. Every structural step is
// notified to the attached model as it happens.
func (p *Provider) Patch(patch []byte) error {
	if p.closed {
		return model.ErrUnavailable
	}
	return doc.ApplyPatch(p.root, patch, p.sink)
}

// Reload brings the document in line with src, keeping the identity of the
// nodes which did not change.
func (p *Provider) Reload(src *doc.Node) error {
	if p.closed {
		return model.ErrUnavailable
	}
	return doc.Update(p.root, src, p.sink)
}

// ReloadBytes parses d and reloads the document from it.
func (p *Provider) ReloadBytes(d []byte) error {
	src, err := doc.Parse(d)
	if err != nil {
		return err
	}
	return p.Reload(src)
}

// SetValue stores the scalar v in the leaf n and notifies its row as
// changed.
func (p *Provider) SetValue(n, v *doc.Node) error {
	if p.closed {
		return model.ErrUnavailable
	}
	if n == p.root || !attached(n, p.root) {
		return fmt.Errorf("%w: %s", doc.ErrNotFound, n.KPath())
	}
	if err := n.SetScalar(v); err != nil {
		return err
	}
	return p.notify(p.rowChanged(n))
}

func (p *Provider) sink(c doc.Change) error {
	return p.notify(p.notifications(c)...)
}

func (p *Provider) notify(ns ...model.Notification) error {
	if p.notifier == nil || len(ns) == 0 {
		return nil
	}
	if debug.Provider() {
		for _, n := range ns {
			debug.Logf("docprov notify %s\n", n)
		}
	}
	if err := p.notifier.NotifyAll(ns...); err != nil {
		return fmt.Errorf("notifying %d changes: %w", len(ns), err)
	}
	return nil
}

// notifications translates a document change. The parent of the change is
// addressed by the path of its column 0 position.
func (p *Provider) notifications(c doc.Change) []model.Notification {
	if c.Kind == doc.Reset {
		return []model.Notification{{Kind: model.Reset}}
	}
	parent, err := p.PathOf(c.Parent, 0)
	if err != nil {
		// the change happened below a node which is gone
		return nil
	}
	var mp model.Path
	if parent != nil {
		mp = parent
	}
	switch c.Kind {
	case doc.Added, doc.Removed:
		kind := model.RowsAdded
		if c.Kind == doc.Removed {
			kind = model.RowsRemoved
		}
		res := []model.Notification{{Kind: kind, Index: c.Index, Count: c.Count, Parent: mp}}
		if parent != nil {
			// the parent row shows its child count
			res = append(res, p.rowChanged(c.Parent))
		}
		return res
	case doc.Replaced:
		// the new value may have other children than the old one
		res := make([]model.Notification, 0, 2*c.Count)
		for i := c.Index; i < c.Index+c.Count; i++ {
			res = append(res, model.Notification{Kind: model.CellChanged, Index: i, Count: 0, Parent: mp})
		}
		return append(res, model.Notification{Kind: model.RowsChanged, Index: c.Index, Count: c.Count, Parent: mp})
	}
	return nil
}

// rowChanged reports the data of every column of n's row as changed.
func (p *Provider) rowChanged(n *doc.Node) model.Notification {
	res := model.Notification{Kind: model.RowsChanged, Index: n.ParentIndex, Count: 1}
	if n.Parent != p.root {
		res.Parent = &Path{node: n.Parent, root: p.root}
	}
	return res
}
