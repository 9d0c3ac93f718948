package server

import (
	"slices"

	"github.com/signadot/hmodel/model"
)

// Coord is the (row, column) of one level of a position, top down.
type Coord [2]int

// Event is the model/event notification. Positions are sent as
// coordinate chains rather than handles so that events do not pin
// persistent references.
type Event struct {
	Type        string  `json:"type"`
	Parent      []Coord `json:"parent,omitempty"`
	First       int     `json:"first"`
	Last        int     `json:"last"`
	TopLeft     []Coord `json:"topLeft,omitempty"`
	BottomRight []Coord `json:"bottomRight,omitempty"`
	Column      int     `json:"column,omitempty"`
	Order       string  `json:"order,omitempty"`
	Section     int     `json:"section,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
	Elide       string  `json:"elide,omitempty"`
}

func coords(idx model.Index) []Coord {
	var res []Coord
	for n := idx.Node(); n != nil && !n.IsRoot(); n = n.Parent() {
		res = append(res, Coord{n.Row(), n.Column()})
	}
	slices.Reverse(res)
	return res
}

func eventOf(e model.Event) Event {
	w := Event{Type: e.Type.String()}
	switch e.Type {
	case model.RowsInserted, model.EventRowsRemoved, model.ColumnsInserted, model.EventColumnsRemoved:
		w.Parent = coords(e.Parent)
		w.First, w.Last = e.First, e.Last
	case model.DataChanged:
		w.TopLeft = coords(e.TopLeft)
		w.BottomRight = coords(e.BottomRight)
	case model.Sorted:
		w.Column = e.Column
		w.Order = e.Order.String()
	case model.HeaderConfigured:
		w.Section = e.Section
		w.Orientation = e.Orientation.String()
		w.Elide = e.Elide.String()
	}
	return w
}
