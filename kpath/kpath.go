package kpath

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// KPath is a kinded path into a document. Each segment records how its
// parent is accessed:
//   - "a.b" → b is a field of the object a
//   - "a[0]" → [0] is an element of the array a
//
// The nil *KPath is the document root.
type KPath struct {
	Field *string // Object field name
	Index *int    // Array index
	Next  *KPath  // Next segment in path (nil for leaf)
}

// Field returns a single field segment.
func Field(name string) *KPath {
	return &KPath{Field: &name}
}

// Index returns a single index segment.
func Index(i int) *KPath {
	return &KPath{Index: &i}
}

// EntryKind is the kind of container a segment accesses.
type EntryKind int

const (
	FieldEntry EntryKind = iota
	ArrayEntry
)

func (k EntryKind) String() string {
	if k == ArrayEntry {
		return "array"
	}
	return "field"
}

// EntryKind returns the kind of the first segment of p.
func (p *KPath) EntryKind() EntryKind {
	if p != nil && p.Index != nil {
		return ArrayEntry
	}
	return FieldEntry
}

// String returns the kinded path string representation of p.
//
//	KPath{Field: &"a", Next: &KPath{Field: &"b"}} → "a.b"
//	KPath{Field: &"a", Next: &KPath{Index: &0}} → "a[0]"
func (p *KPath) String() string {
	if p == nil {
		return ""
	}
	buf := bytes.NewBuffer(nil)
	for x := p; x != nil; x = x.Next {
		if x.Field != nil && buf.Len() > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(x.SegmentString())
	}
	return buf.String()
}

// SegmentString returns the representation of the first segment only:
// "a", "'field name'" or "[0]".
func (p *KPath) SegmentString() string {
	if p == nil {
		return ""
	}
	if p.Field != nil {
		if needsQuote(*p.Field) {
			return quote(*p.Field)
		}
		return *p.Field
	}
	if p.Index != nil {
		return fmt.Sprintf("[%d]", *p.Index)
	}
	return ""
}

func needsQuote(field string) bool {
	if field == "" {
		return true
	}
	for _, r := range field {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return strings.ContainsAny(field, ".[]{}'\"")
}

// quote prefers single quotes, as most fields with special characters
// contain no quote at all.
func quote(field string) string {
	if !strings.ContainsAny(field, "'\\") && isPrintable(field) {
		return "'" + field + "'"
	}
	return strconv.Quote(field)
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Parse parses a kinded path string. The empty string is the root and
// yields nil.
//
//   - "a.b.c" → three field segments
//   - "a[0][1]" → a field then two indexes
//   - "[2].name" → an index then a field
//   - "'a b'.c" → quoted field names
func Parse(kpath string) (*KPath, error) {
	if kpath == "" {
		return nil, nil
	}
	root := &KPath{}
	if err := parseFrag(kpath, root, true); err != nil {
		return nil, fmt.Errorf("kpath %q: %w", kpath, err)
	}
	return root, nil
}

// MustParse is like Parse but panics on error.
func MustParse(kpath string) *KPath {
	p, err := Parse(kpath)
	if err != nil {
		panic(err)
	}
	return p
}

func parseFrag(frag string, seg *KPath, first bool) error {
	switch {
	case frag[0] == '[':
		i := strings.IndexByte(frag, ']')
		if i == -1 {
			return fmt.Errorf("expected '[' <index> ']'")
		}
		u, err := strconv.ParseUint(frag[1:i], 10, 31)
		if err != nil {
			return fmt.Errorf("invalid array index %q: %w", frag[1:i], err)
		}
		idx := int(u)
		seg.Index = &idx
		frag = frag[i+1:]
	case frag[0] == '.' || first:
		if frag[0] == '.' {
			frag = frag[1:]
		}
		field, rest, err := parseField(frag)
		if err != nil {
			return err
		}
		seg.Field = &field
		frag = rest
	default:
		return fmt.Errorf("expected '.' or '[', got %q", frag[0])
	}
	if frag == "" {
		return nil
	}
	seg.Next = &KPath{}
	return parseFrag(frag, seg.Next, false)
}

func parseField(frag string) (field, rest string, err error) {
	if frag == "" {
		return "", "", fmt.Errorf("expected field at end of string")
	}
	switch frag[0] {
	case '\'':
		i := strings.IndexByte(frag[1:], '\'')
		if i == -1 {
			return "", "", fmt.Errorf("unterminated quoted field")
		}
		return frag[1 : i+1], frag[i+2:], nil
	case '"':
		q, err := strconv.QuotedPrefix(frag)
		if err != nil {
			return "", "", fmt.Errorf("invalid quoted field: %w", err)
		}
		field, err = strconv.Unquote(q)
		if err != nil {
			return "", "", fmt.Errorf("invalid quoted field: %w", err)
		}
		return field, frag[len(q):], nil
	}
	i := strings.IndexAny(frag, ".[")
	if i == 0 {
		return "", "", fmt.Errorf("expected field, got %q", frag[0])
	}
	if i == -1 {
		return frag, "", nil
	}
	return frag[:i], frag[i:], nil
}

// Segments returns copies of the segments of p, root first.
func (p *KPath) Segments() []*KPath {
	var res []*KPath
	for x := p; x != nil; x = x.Next {
		res = append(res, x.copySegment())
	}
	return res
}

func (p *KPath) copySegment() *KPath {
	res := &KPath{}
	if p.Field != nil {
		f := *p.Field
		res.Field = &f
	}
	if p.Index != nil {
		i := *p.Index
		res.Index = &i
	}
	return res
}

// LastSegment returns a copy of the last segment, or nil for the root.
func (p *KPath) LastSegment() *KPath {
	if p == nil {
		return nil
	}
	x := p
	for x.Next != nil {
		x = x.Next
	}
	return x.copySegment()
}

// Parent returns the path without its last segment. The parent of a single
// segment path is the root (nil).
func (p *KPath) Parent() *KPath {
	if p == nil || p.Next == nil {
		return nil
	}
	segs := p.Segments()
	for i := 0; i < len(segs)-2; i++ {
		segs[i].Next = segs[i+1]
	}
	return segs[0]
}

// Append returns a new path made of p followed by the segments of child.
// Neither input is modified.
func (p *KPath) Append(child *KPath) *KPath {
	segs := append(p.Segments(), child.Segments()...)
	if len(segs) == 0 {
		return nil
	}
	for i := 0; i < len(segs)-1; i++ {
		segs[i].Next = segs[i+1]
	}
	return segs[0]
}

// Depth is the number of segments of p.
func (p *KPath) Depth() int {
	n := 0
	for x := p; x != nil; x = x.Next {
		n++
	}
	return n
}

// IsChildOf reports whether p lies strictly below parent. Every non-root
// path lies below the root.
func (p *KPath) IsChildOf(parent *KPath) bool {
	if p == nil {
		return false
	}
	x, y := p, parent
	for y != nil {
		if x == nil || compareSegment(x, y) != 0 {
			return false
		}
		x, y = x.Next, y.Next
	}
	return x != nil
}

// Equal reports whether p and other denote the same path.
func (p *KPath) Equal(other *KPath) bool {
	return p.Compare(other) == 0
}

// Compare compares two paths segment by segment.
// Returns -1 if p < other, 0 if p == other, 1 if p > other.
// A path sorts before its descendants; fields sort before indexes.
func (p *KPath) Compare(other *KPath) int {
	a, b := p, other
	for a != nil && b != nil {
		if c := compareSegment(a, b); c != 0 {
			return c
		}
		a, b = a.Next, b.Next
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	}
	return 1
}

func compareSegment(a, b *KPath) int {
	switch {
	case a.Field != nil && b.Field != nil:
		return strings.Compare(*a.Field, *b.Field)
	case a.Field != nil:
		return -1
	case b.Field != nil:
		return 1
	case a.Index != nil && b.Index != nil:
		switch {
		case *a.Index < *b.Index:
			return -1
		case *a.Index > *b.Index:
			return 1
		}
	}
	return 0
}

func (p *KPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *KPath) UnmarshalText(d []byte) error {
	pp, err := Parse(string(d))
	if err != nil {
		return err
	}
	if pp == nil {
		*p = KPath{}
		return nil
	}
	*p = *pp
	return nil
}
