package doc

import (
	"fmt"
	"slices"
	"strconv"
)

type Node struct {
	Type        Type
	Parent      *Node
	ParentIndex int
	ParentField string
	Fields      []string
	Values      []*Node

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromBool(v bool) *Node {
	return &Node{Type: BoolType, Bool: v}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:   NumberType,
		Number: strconv.FormatInt(v, 10),
		Int64:  &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Number:  strconv.FormatFloat(f, 'g', -1, 64),
		Float64: &f,
	}
}

// KeyVal is an object member used to build objects.
type KeyVal struct {
	Key string
	Val *Node
}

func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Type: ObjectType}
	for _, kv := range kvs {
		res.Fields = append(res.Fields, kv.Key)
		res.Values = append(res.Values, kv.Val)
	}
	res.reindex(0)
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type:   ArrayType,
		Values: slices.Clone(ySlice),
	}
	res.reindex(0)
	return res
}

// Len is the number of children of y.
func (y *Node) Len() int {
	if y == nil {
		return 0
	}
	return len(y.Values)
}

// Child returns the i'th child of y, or nil.
func (y *Node) Child(i int) *Node {
	if y == nil || i < 0 || i >= len(y.Values) {
		return nil
	}
	return y.Values[i]
}

// Index returns the position of field in the object y, or -1.
func (y *Node) Index(field string) int {
	if y == nil || y.Type != ObjectType {
		return -1
	}
	return slices.Index(y.Fields, field)
}

// Detached reports whether y was removed from its document. Roots are not
// detached.
func (y *Node) Detached() bool {
	return y.Parent == nil && y.ParentIndex < 0
}

func (y *Node) Root() *Node {
	x := y
	for x.Parent != nil {
		x = x.Parent
	}
	return x
}

// Depth is the number of ancestors of y.
func (y *Node) Depth() int {
	n := 0
	for x := y.Parent; x != nil; x = x.Parent {
		n++
	}
	return n
}

// Text is the textual form of a leaf. Containers have no text.
func (y *Node) Text() string {
	switch y.Type {
	case StringType:
		return y.String
	case NumberType:
		return y.Number
	case BoolType:
		return strconv.FormatBool(y.Bool)
	case NullType:
		return "null"
	}
	return ""
}

// Value converts y into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func (y *Node) Value() any {
	switch y.Type {
	case BoolType:
		return y.Bool
	case NumberType:
		if y.Int64 != nil {
			return *y.Int64
		}
		if y.Float64 != nil {
			return *y.Float64
		}
		return y.Number
	case StringType:
		return y.String
	case ArrayType:
		res := make([]any, len(y.Values))
		for i, v := range y.Values {
			res[i] = v.Value()
		}
		return res
	case ObjectType:
		res := make(map[string]any, len(y.Values))
		for i, v := range y.Values {
			res[y.Fields[i]] = v.Value()
		}
		return res
	}
	return nil
}

func (y *Node) Clone() *Node {
	res := &Node{}
	return y.CloneTo(res)
}

func (y *Node) CloneTo(dst *Node) *Node {
	dst.Parent = y.Parent
	dst.ParentIndex = y.ParentIndex
	dst.ParentField = y.ParentField
	y.copyContent(dst)
	return dst
}

// copyContent copies everything but the position of y into dst, cloning
// the children.
func (y *Node) copyContent(dst *Node) {
	dst.Type = y.Type
	dst.Fields = slices.Clone(y.Fields)
	dst.Values = make([]*Node, len(y.Values))
	for i, yv := range y.Values {
		dst.Values[i] = yv.Clone()
	}
	dst.reindex(0)
	dst.String = y.String
	dst.Bool = y.Bool
	dst.Number = y.Number
	dst.Float64, dst.Int64 = nil, nil
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
}

// Equal reports whether x and y hold the same document.
func Equal(x, y *Node) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Type != y.Type {
		return false
	}
	switch x.Type {
	case NullType:
		return true
	case BoolType:
		return x.Bool == y.Bool
	case StringType:
		return x.String == y.String
	case NumberType:
		return x.Number == y.Number
	case ObjectType:
		if !slices.Equal(x.Fields, y.Fields) {
			return false
		}
	}
	if len(x.Values) != len(y.Values) {
		return false
	}
	for i := range x.Values {
		if !Equal(x.Values[i], y.Values[i]) {
			return false
		}
	}
	return true
}

func (y *Node) reindex(from int) {
	for i := from; i < len(y.Values); i++ {
		v := y.Values[i]
		v.Parent = y
		v.ParentIndex = i
		v.ParentField = ""
		if y.Type == ObjectType {
			v.ParentField = y.Fields[i]
		}
	}
}

func (y *Node) detach() {
	y.Parent = nil
	y.ParentIndex = -1
	y.ParentField = ""
}

func (y *Node) checkContainer() error {
	if y.Type.IsLeaf() {
		return fmt.Errorf("%s has no children", y.Type)
	}
	return nil
}

// InsertAt inserts child before position i. The key is used for objects
// only; an object may not hold the same key twice.
func (y *Node) InsertAt(i int, key string, child *Node) error {
	if err := y.checkContainer(); err != nil {
		return err
	}
	if i < 0 || i > len(y.Values) {
		return fmt.Errorf("insert at %d: index out of bounds (len %d)", i, len(y.Values))
	}
	if y.Type == ObjectType {
		if y.Index(key) >= 0 {
			return fmt.Errorf("insert: duplicate field %q", key)
		}
		y.Fields = slices.Insert(y.Fields, i, key)
	}
	y.Values = slices.Insert(y.Values, i, child)
	y.reindex(i)
	return nil
}

// RemoveAt removes and returns the child at position i. The removed node
// is detached.
func (y *Node) RemoveAt(i int) (*Node, error) {
	if err := y.checkContainer(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(y.Values) {
		return nil, fmt.Errorf("remove at %d: index out of bounds (len %d)", i, len(y.Values))
	}
	res := y.Values[i]
	if y.Type == ObjectType {
		y.Fields = slices.Delete(y.Fields, i, i+1)
	}
	y.Values = slices.Delete(y.Values, i, i+1)
	y.reindex(i)
	res.detach()
	return res, nil
}

// SetAt replaces the child at position i, returning the detached previous
// child.
func (y *Node) SetAt(i int, child *Node) (*Node, error) {
	if err := y.checkContainer(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(y.Values) {
		return nil, fmt.Errorf("set at %d: index out of bounds (len %d)", i, len(y.Values))
	}
	old := y.Values[i]
	y.Values[i] = child
	y.reindex(i)
	if old != child {
		old.detach()
	}
	return old, nil
}

// SetScalar replaces the value of the leaf y by the leaf v, keeping the
// identity and position of y.
func (y *Node) SetScalar(v *Node) error {
	if !y.Type.IsLeaf() {
		return fmt.Errorf("%w: cannot set a %s", ErrNotScalar, y.Type)
	}
	if !v.Type.IsLeaf() {
		return fmt.Errorf("%w: cannot set to a %s", ErrNotScalar, v.Type)
	}
	v.copyContent(y)
	return nil
}
