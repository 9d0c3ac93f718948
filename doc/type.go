package doc

import "fmt"

type Type int

const (
	NullType Type = iota
	NumberType
	StringType
	BoolType
	ObjectType
	ArrayType
)

var typeNames = map[Type]string{
	ObjectType: "Object",
	ArrayType:  "Array",
	StringType: "String",
	NumberType: "Number",
	BoolType:   "Bool",
	NullType:   "Null",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "<unknown type>"
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(d []byte) error {
	for k, v := range typeNames {
		if v == string(d) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unrecognized type %q", d)
}

func (t Type) IsLeaf() bool {
	return t != ObjectType && t != ArrayType
}
