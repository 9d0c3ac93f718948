package model

import "fmt"

// EventType classifies model events.
type EventType int

const (
	RowsInserted EventType = iota + 1
	EventRowsRemoved
	ColumnsInserted
	EventColumnsRemoved
	DataChanged
	LayoutChanged
	ModelReset
	Sorted
	HeaderConfigured
)

var eventTypeNames = map[EventType]string{
	RowsInserted:        "rowsInserted",
	EventRowsRemoved:    "rowsRemoved",
	ColumnsInserted:     "columnsInserted",
	EventColumnsRemoved: "columnsRemoved",
	DataChanged:         "dataChanged",
	LayoutChanged:       "layoutChanged",
	ModelReset:          "modelReset",
	Sorted:              "sorted",
	HeaderConfigured:    "headerConfigured",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// SortOrder is forwarded with Sorted events.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// Elide says where header text is shortened when it does not fit.
type Elide int

const (
	ElideNone Elide = iota
	ElideLeft
	ElideMiddle
	ElideRight
)

func (e Elide) String() string {
	switch e {
	case ElideLeft:
		return "left"
	case ElideMiddle:
		return "middle"
	case ElideRight:
		return "right"
	}
	return "none"
}

// Event describes one change observed by consumers.
//
// Row and column events carry Parent and the inclusive range First..Last.
// DataChanged carries TopLeft and BottomRight. Sorted carries Column and
// Order; HeaderConfigured carries Section, Orientation and Elide.
type Event struct {
	Type EventType

	Parent      Index
	First, Last int

	TopLeft, BottomRight Index

	Column int
	Order  SortOrder

	Section     int
	Orientation Orientation
	Elide       Elide
}

func (e Event) String() string {
	switch e.Type {
	case RowsInserted, EventRowsRemoved, ColumnsInserted, EventColumnsRemoved:
		return fmt.Sprintf("%s parent=%s [%d, %d]", e.Type, e.Parent, e.First, e.Last)
	case DataChanged:
		return fmt.Sprintf("%s %s..%s", e.Type, e.TopLeft, e.BottomRight)
	case Sorted:
		return fmt.Sprintf("%s column=%d %s", e.Type, e.Column, e.Order)
	case HeaderConfigured:
		return fmt.Sprintf("%s %s section=%d elide=%s", e.Type, e.Orientation, e.Section, e.Elide)
	}
	return e.Type.String()
}

type listener struct {
	id uint64
	fn func(Event)
}

// Subscribe registers fn to receive every event, in emission order. The
// returned function cancels the subscription.
func (m *Model) Subscribe(fn func(Event)) func() {
	m.nextListener++
	id := m.nextListener
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Model) emit(e Event) {
	// listeners may subscribe or cancel while being notified
	ls := m.listeners
	for _, l := range ls {
		l.fn(e)
	}
}
