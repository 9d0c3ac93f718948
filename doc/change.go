package doc

import "fmt"

// ChangeKind classifies structural steps.
type ChangeKind int

const (
	// Added children were inserted at Index.
	Added ChangeKind = iota + 1
	// Removed children starting at Index were removed.
	Removed
	// Replaced children starting at Index got new values in place.
	Replaced
	// Reset means the whole document was replaced.
	Reset
)

var changeKindNames = map[ChangeKind]string{
	Added:    "added",
	Removed:  "removed",
	Replaced: "replaced",
	Reset:    "reset",
}

func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("change(%d)", int(k))
}

// Change is one structural step applied to a document. Parent is the
// container whose children changed, as it was when the step was reported;
// indexes are relative to the children at that time.
type Change struct {
	Kind   ChangeKind
	Parent *Node
	Index  int
	Count  int
}

func (c Change) String() string {
	if c.Kind == Reset {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s parent=%q [%d, +%d]", c.Kind, c.Parent.KPath().String(), c.Index, c.Count)
}

// ChangeSink receives changes right after they are applied.
type ChangeSink func(Change) error

// Collect returns a sink appending to dst.
func Collect(dst *[]Change) ChangeSink {
	return func(c Change) error {
		*dst = append(*dst, c)
		return nil
	}
}
