package doc

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Parse parses a YAML or JSON document keeping the order of object fields.
// An empty document is null.
func Parse(d []byte) (*Node, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(d, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return FromValue(v)
}

// ParseScalar parses text as a YAML scalar, so that "3" is a number and
// "true" a bool. The empty text is the empty string.
func ParseScalar(text string) (*Node, error) {
	if text == "" {
		return FromString(""), nil
	}
	y, err := Parse([]byte(text))
	if err != nil {
		return nil, err
	}
	if !y.Type.IsLeaf() {
		return nil, fmt.Errorf("%w: %q is a %s", ErrNotScalar, text, y.Type)
	}
	return y, nil
}

// FromValue converts decoded YAML or JSON values into a document.
func FromValue(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return x.Clone(), nil
	case bool:
		return FromBool(x), nil
	case string:
		return FromString(x), nil
	case int:
		return FromInt(int64(x)), nil
	case int64:
		return FromInt(x), nil
	case uint64:
		if x > math.MaxInt64 {
			y := FromFloat(float64(x))
			y.Number = strconv.FormatUint(x, 10)
			return y, nil
		}
		return FromInt(int64(x)), nil
	case float32:
		return FromFloat(float64(x)), nil
	case float64:
		return FromFloat(x), nil
	case yaml.MapSlice:
		kvs := make([]KeyVal, 0, len(x))
		for _, item := range x {
			val, err := FromValue(item.Value)
			if err != nil {
				return nil, err
			}
			kvs = append(kvs, KeyVal{Key: keyString(item.Key), Val: val})
		}
		return fromKeyVals(kvs)
	case map[string]any:
		kvs := make([]KeyVal, 0, len(x))
		for _, k := range slices.Sorted(maps.Keys(x)) {
			val, err := FromValue(x[k])
			if err != nil {
				return nil, err
			}
			kvs = append(kvs, KeyVal{Key: k, Val: val})
		}
		return FromKeyVals(kvs), nil
	case []any:
		vals := make([]*Node, len(x))
		for i, e := range x {
			val, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			vals[i] = val
		}
		return FromSlice(vals), nil
	}
	return nil, fmt.Errorf("%w: unsupported value of type %T", ErrParse, v)
}

func keyString(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case nil:
		return "null"
	}
	return fmt.Sprint(k)
}

func fromKeyVals(kvs []KeyVal) (*Node, error) {
	seen := make(map[string]bool, len(kvs))
	for _, kv := range kvs {
		if seen[kv.Key] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrParse, kv.Key)
		}
		seen[kv.Key] = true
	}
	return FromKeyVals(kvs), nil
}

// ordered converts y into values the YAML encoder writes in document
// order.
func (y *Node) ordered() any {
	switch y.Type {
	case ObjectType:
		res := make(yaml.MapSlice, len(y.Values))
		for i, v := range y.Values {
			res[i] = yaml.MapItem{Key: y.Fields[i], Value: v.ordered()}
		}
		return res
	case ArrayType:
		res := make([]any, len(y.Values))
		for i, v := range y.Values {
			res[i] = v.ordered()
		}
		return res
	}
	return y.Value()
}

// YAML encodes y as a block style YAML document.
func (y *Node) YAML() ([]byte, error) {
	return yaml.MarshalWithOptions(y.ordered(), yaml.Indent(2), yaml.IndentSequence(true))
}
