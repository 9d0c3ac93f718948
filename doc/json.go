package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON encodes y keeping the order of object fields.
func (y *Node) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := y.writeJSON(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (y *Node) writeJSON(buf *bytes.Buffer) error {
	switch y.Type {
	case NullType:
		buf.WriteString("null")
	case BoolType:
		buf.WriteString(strconv.FormatBool(y.Bool))
	case NumberType:
		if y.Float64 != nil && (math.IsInf(*y.Float64, 0) || math.IsNaN(*y.Float64)) {
			return fmt.Errorf("%s is not representable in JSON", y.Number)
		}
		buf.WriteString(y.Number)
	case StringType:
		writeJSONString(buf, y.String)
	case ArrayType:
		buf.WriteByte('[')
		for i, v := range y.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectType:
		buf.WriteByte('{')
		for i, v := range y.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, y.Fields[i])
			buf.WriteByte(':')
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown type %s", y.Type)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode never fails on a string; drop its trailing newline.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1)
}

func (y *Node) UnmarshalJSON(d []byte) error {
	res, err := Parse(d)
	if err != nil {
		return err
	}
	res.copyContent(y)
	return nil
}

var (
	pointerDecoder = strings.NewReplacer("~1", "/", "~0", "~")
	pointerEncoder = strings.NewReplacer("~", "~0", "/", "~1")
)

// ParsePointer splits an RFC 6901 JSON pointer into its unescaped
// reference tokens. The empty pointer is the root and has no tokens.
func ParsePointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if ptr[0] != '/' {
		return nil, fmt.Errorf("json pointer %q does not start with '/'", ptr)
	}
	toks := strings.Split(ptr[1:], "/")
	for i, tok := range toks {
		toks[i] = pointerDecoder.Replace(tok)
	}
	return toks, nil
}

// Pointer returns the JSON pointer of y's position.
func (y *Node) Pointer() string {
	var toks []string
	for x := y; x.Parent != nil; x = x.Parent {
		tok := strconv.Itoa(x.ParentIndex)
		if x.Parent.Type == ObjectType {
			tok = pointerEncoder.Replace(x.ParentField)
		}
		toks = append(toks, tok)
	}
	buf := bytes.NewBuffer(nil)
	for i := len(toks) - 1; i >= 0; i-- {
		buf.WriteByte('/')
		buf.WriteString(toks[i])
	}
	return buf.String()
}

// GetPointer resolves a JSON pointer under y.
func (y *Node) GetPointer(ptr string) (*Node, error) {
	toks, err := ParsePointer(ptr)
	if err != nil {
		return nil, err
	}
	return y.resolveTokens(toks)
}

func (y *Node) resolveTokens(toks []string) (*Node, error) {
	res := y
	for i, tok := range toks {
		switch res.Type {
		case ObjectType:
			j := res.Index(tok)
			if j < 0 {
				return nil, fmt.Errorf("%w: /%s: no field %q", ErrNotFound, strings.Join(toks[:i], "/"), tok)
			}
			res = res.Values[j]
		case ArrayType:
			j, err := strconv.Atoi(tok)
			if err != nil || j < 0 || j >= len(res.Values) {
				return nil, fmt.Errorf("%w: /%s: bad array index %q (len %d)", ErrNotFound, strings.Join(toks[:i], "/"), tok, len(res.Values))
			}
			res = res.Values[j]
		default:
			return nil, fmt.Errorf("%w: /%s: %s has no children", ErrNotFound, strings.Join(toks[:i], "/"), res.Type)
		}
	}
	return res, nil
}
