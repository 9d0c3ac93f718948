package model

import "errors"

// Orientation selects column (Horizontal) or row (Vertical) headers.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// HeaderWidth is the value of the RoleWidth header role.
type HeaderWidth struct {
	Width int  `json:"width"`
	Auto  bool `json:"auto,omitempty"`
	Fixed bool `json:"fixed,omitempty"`
}

var errNoHeaders = errors.New("provider has no headers")

type headerEntry struct {
	spec       *Specifier
	configured bool
}

// headerCache keeps horizontal header specifiers per section. Vertical
// headers are asked for every time; only their configuration is recorded.
type headerCache struct {
	horizontal []*headerEntry
	vertical   map[int]bool
}

func (h *headerCache) reset() {
	h.horizontal = nil
	h.vertical = nil
}

func (m *Model) headerSpec(section int, o Orientation) (*Specifier, error) {
	s, err := call(m.bind, "header", func(p Provider) (*Specifier, error) {
		hp, ok := p.(HeaderProvider)
		if !ok {
			return nil, errNoHeaders
		}
		return hp.Header(section, o)
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &Specifier{}
	}
	s = s.clone()
	s.Align &= AlignHorizontal
	if s.Align == 0 {
		s.Align = AlignLeft
	}
	s.Align |= AlignVCenter
	return s, nil
}

// HeaderData returns role data of a header section. The first time a
// section is seen a HeaderConfigured event reports its elide mode.
func (m *Model) HeaderData(section int, o Orientation, role Role) any {
	if section < 0 {
		return nil
	}
	var (
		spec       *Specifier
		configured bool
	)
	if o == Horizontal && section < len(m.headers.horizontal) && m.headers.horizontal[section] != nil {
		e := m.headers.horizontal[section]
		spec, configured = e.spec, e.configured
	} else {
		s, err := m.headerSpec(section, o)
		if err != nil {
			return nil
		}
		spec = s
		if o == Horizontal {
			for len(m.headers.horizontal) <= section {
				m.headers.horizontal = append(m.headers.horizontal, nil)
			}
			m.headers.horizontal[section] = &headerEntry{spec: spec}
		} else {
			configured = m.headers.vertical[section]
		}
	}
	if !configured {
		if o == Horizontal {
			m.headers.horizontal[section].configured = true
		} else {
			if m.headers.vertical == nil {
				m.headers.vertical = map[int]bool{}
			}
			m.headers.vertical[section] = true
		}
		m.emit(Event{Type: HeaderConfigured, Section: section, Orientation: o, Elide: elideOf(spec.Flags)})
	}
	switch role {
	case RoleDisplay:
		return spec.Text
	case RoleTextAlignment:
		return spec.Align
	case RoleWidth:
		switch {
		case spec.Flags&FlagAutoWidth != 0:
			return HeaderWidth{Auto: true}
		case spec.Flags&FlagFixedWidth != 0:
			return HeaderWidth{Width: spec.Width, Fixed: true}
		}
		return HeaderWidth{Width: spec.Width}
	case RoleSizeHint:
		if spec.Width != 0 || spec.Height != 0 {
			return Size{Width: spec.Width, Height: spec.Height}
		}
	}
	return nil
}

func elideOf(f Flags) Elide {
	switch {
	case f&FlagElideLeft != 0:
		return ElideLeft
	case f&FlagElideMiddle != 0:
		return ElideMiddle
	case f&FlagElideRight != 0:
		return ElideRight
	}
	return ElideNone
}
