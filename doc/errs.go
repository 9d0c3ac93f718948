package doc

import "errors"

var (
	ErrParse     = errors.New("parse error")
	ErrNotFound  = errors.New("not found")
	ErrPatch     = errors.New("patch error")
	ErrNotScalar = errors.New("not a scalar")
)
