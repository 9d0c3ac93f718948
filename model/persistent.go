package model

// PersistentIndex is a handle on the logical entity behind an Index. The
// model re-seats it on every structural edit; once its entity is removed it
// stays invalid.
type PersistentIndex struct {
	m   *Model
	idx Index
	// live is true while the model tracks the handle.
	live bool
}

// Persist returns a persistent handle on idx. Persisting an invalid index
// gives a handle which is invalid from the start.
func (m *Model) Persist(idx Index) *PersistentIndex {
	p := &PersistentIndex{m: m}
	if !idx.IsValid() || idx.n.bind != m.bind {
		return p
	}
	p.idx = idx
	p.live = true
	m.persistent = append(m.persistent, p)
	return p
}

// Index returns the current position of the handle.
func (p *PersistentIndex) Index() Index {
	if !p.live || !p.idx.IsValid() {
		return Index{}
	}
	return p.idx
}

func (p *PersistentIndex) IsValid() bool { return p.Index().IsValid() }
func (p *PersistentIndex) Row() int      { return p.Index().Row() }
func (p *PersistentIndex) Column() int   { return p.Index().Column() }

// Release stops tracking the handle.
func (p *PersistentIndex) Release() {
	if !p.live {
		return
	}
	p.m.forget(p)
	p.live = false
	p.idx = Index{}
}

func (m *Model) forget(p *PersistentIndex) {
	for i, x := range m.persistent {
		if x == p {
			m.persistent = append(m.persistent[:i:i], m.persistent[i+1:]...)
			return
		}
	}
}

// PersistentIndexes returns the handles the model currently tracks.
func (m *Model) PersistentIndexes() []*PersistentIndex {
	res := make([]*PersistentIndex, len(m.persistent))
	copy(res, m.persistent)
	return res
}

// invalidatePersistent drops every tracked handle.
func (m *Model) invalidatePersistent() {
	for _, p := range m.persistent {
		p.live = false
		p.idx = Index{}
	}
	m.persistent = nil
}
