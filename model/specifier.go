package model

import (
	"fmt"
	"slices"
)

// Flags describe how a position may be displayed and edited.
type Flags uint32

const (
	FlagReadOnly Flags = 1 << iota
	FlagSelectable
	FlagEnabled
	FlagDraggable
	FlagDropTarget
	FlagSeparator
	// FlagNone marks a placeholder position carrying no data.
	FlagNone
	FlagClickableIcon
	// FlagInvalid is set by the model on specifiers the provider failed
	// to produce.
	FlagInvalid

	// header only
	FlagElideLeft
	FlagElideMiddle
	FlagElideRight
	FlagAutoWidth
	FlagFixedWidth
)

// DefaultFlags are the flags of a specifier nobody customised.
const DefaultFlags = FlagReadOnly | FlagSelectable | FlagEnabled

// Align is a combination of one horizontal and one vertical alignment.
type Align uint8

const (
	AlignLeft Align = 1 << iota
	AlignRight
	AlignHCenter
	AlignJustify
	AlignTop
	AlignBottom
	AlignVCenter

	AlignHorizontal = AlignLeft | AlignRight | AlignHCenter | AlignJustify
	AlignVertical   = AlignTop | AlignBottom | AlignVCenter
)

// Specifier is the display and edit metadata of one position.
type Specifier struct {
	Text      string
	DataType  string
	Format    string
	Align     Align
	IconAlign Align
	Length    int
	Filter    string
	Tip       string
	Flags     Flags
	Icon      string
	Color     string
	BGColor   string
	Font      string
	Width     int
	Height    int
	Selection int
	Choices   []string

	// Value is the typed value behind Text, when the provider has one.
	Value any
}

// NewSpecifier returns a specifier with default flags.
func NewSpecifier(text string) *Specifier {
	return &Specifier{Text: text, Flags: DefaultFlags}
}

func (s *Specifier) IsReadOnly() bool      { return s.Flags&FlagReadOnly != 0 }
func (s *Specifier) IsSelectable() bool    { return s.Flags&FlagSelectable != 0 }
func (s *Specifier) IsEnabled() bool       { return s.Flags&FlagEnabled != 0 }
func (s *Specifier) IsDraggable() bool     { return s.Flags&FlagDraggable != 0 }
func (s *Specifier) IsDropTarget() bool    { return s.Flags&FlagDropTarget != 0 }
func (s *Specifier) IsSeparator() bool     { return s.Flags&FlagSeparator != 0 }
func (s *Specifier) IsClickableIcon() bool { return s.Flags&FlagClickableIcon != 0 }

// IsNone reports whether s carries no data, either by choice of the
// provider or because the provider failed.
func (s *Specifier) IsNone() bool { return s.Flags&(FlagNone|FlagInvalid) != 0 }

func (s *Specifier) clone() *Specifier {
	c := *s
	c.Choices = slices.Clone(s.Choices)
	return &c
}

// normalize fills in defaults the way consumers expect them.
func (s *Specifier) normalize() {
	if s.Filter == "" {
		s.Filter = ".*"
	}
	if s.Align&AlignHorizontal == 0 {
		s.Align |= AlignLeft
	}
	if s.Align&AlignVertical == 0 {
		s.Align |= AlignVCenter
	}
	if s.IconAlign&AlignHorizontal == 0 {
		s.IconAlign |= AlignHCenter
	}
	if s.IconAlign&AlignVertical == 0 {
		s.IconAlign |= AlignVCenter
	}
}

// Specifier returns the cached specifier of n, asking the provider the
// first time. A failing provider yields a cached FlagInvalid specifier; an
// unavailable one yields nil and nothing is cached.
func (n *Node) Specifier() *Specifier {
	if n.detached || n.parent == nil {
		return nil
	}
	if n.spec != nil {
		return n.spec
	}
	path, err := n.stablePath()
	if err != nil {
		return nil
	}
	gen := n.gen
	s, err := call(n.bind, "data", func(p Provider) (*Specifier, error) {
		return p.Data(path)
	})
	switch {
	case isUnavailable(err):
		return nil
	case err != nil || s == nil:
		s = &Specifier{Flags: FlagInvalid}
	default:
		s = s.clone()
	}
	s.normalize()
	if n.spec != nil {
		return n.spec
	}
	if n.gen != gen || n.detached {
		return s
	}
	n.spec = s
	return s
}

// Role selects which aspect of a specifier Data returns.
type Role int

const (
	RoleDisplay Role = iota
	RoleEdit
	RoleDecoration
	RoleFont
	RoleTextAlignment
	RoleBackground
	RoleForeground
	RoleSizeHint
	RoleToolTip
	RoleStatusTip
	RoleAccessibleDescription
	// RoleSelection carries the selected choice on edits.
	RoleSelection
	// RoleWidth is the header width role.
	RoleWidth
)

var roleNames = map[Role]string{
	RoleDisplay:               "display",
	RoleEdit:                  "edit",
	RoleDecoration:            "decoration",
	RoleFont:                  "font",
	RoleTextAlignment:         "alignment",
	RoleBackground:            "background",
	RoleForeground:            "foreground",
	RoleSizeHint:              "sizeHint",
	RoleToolTip:               "toolTip",
	RoleStatusTip:             "statusTip",
	RoleAccessibleDescription: "accessibleDescription",
	RoleSelection:             "selection",
	RoleWidth:                 "width",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Size is a width and height hint.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// roleData picks the value of role out of s, or nil.
func roleData(s *Specifier, role Role) any {
	if s == nil || s.IsNone() {
		return nil
	}
	switch role {
	case RoleDisplay, RoleEdit:
		if s.Text != "" {
			return s.Text
		}
	case RoleDecoration:
		if s.Icon != "" && !s.IsClickableIcon() {
			return s.Icon
		}
	case RoleFont:
		if s.Font != "" {
			return s.Font
		}
	case RoleTextAlignment:
		return s.Align
	case RoleBackground:
		if s.BGColor != "" {
			return s.BGColor
		}
	case RoleForeground:
		if s.Color != "" {
			return s.Color
		}
	case RoleSizeHint:
		if s.Height != 0 {
			return Size{Height: s.Height}
		}
	case RoleToolTip, RoleStatusTip:
		if s.Tip != "" {
			return s.Tip
		}
	case RoleAccessibleDescription:
		if s.IsSeparator() {
			return "separator"
		}
	case RoleSelection:
		return s.Selection
	}
	return nil
}

// ItemFlags are the capabilities a consumer may offer on a position.
type ItemFlags uint8

const (
	ItemSelectable ItemFlags = 1 << iota
	ItemEditable
	ItemDragEnabled
	ItemDropEnabled
	ItemEnabled
)

func (f ItemFlags) String() string {
	names := []string{"selectable", "editable", "draggable", "drop-target", "enabled"}
	s := ""
	for i, name := range names {
		if f&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	if s == "" {
		return "none"
	}
	return s
}

func itemFlags(s *Specifier) ItemFlags {
	var f ItemFlags
	if s == nil || s.IsSeparator() {
		return 0
	}
	if s.IsSelectable() {
		f |= ItemSelectable
	}
	if s.IsEnabled() {
		f |= ItemEnabled
	}
	if !s.IsNone() {
		f |= ItemDropEnabled
		if !s.IsReadOnly() {
			f |= ItemEditable
		}
		if s.IsDraggable() {
			f |= ItemDragEnabled
		}
		if !s.IsDropTarget() {
			f &^= ItemDropEnabled
		}
	}
	return f
}
