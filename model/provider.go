package model

import (
	"fmt"

	"github.com/signadot/hmodel/debug"
)

// Path is a provider defined stable address of a position. The model never
// interprets a Path beyond walking it upwards.
type Path interface {
	Row() int
	Column() int
	// Parent returns the enclosing path, or nil for a top level position.
	Parent() Path
}

// Tristate is the answer to a has-children query.
type Tristate int

const (
	Unknown Tristate = iota
	No
	Yes
)

func (t Tristate) String() string {
	switch t {
	case No:
		return "no"
	case Yes:
		return "yes"
	}
	return "unknown"
}

// Provider supplies counts and per position data for a hierarchy. A nil
// parent designates the top level.
type Provider interface {
	RowCount(parent Path) (int, error)
	ColumnCount() (int, error)
	HasChildren(parent Path) (Tristate, error)
	Data(p Path) (*Specifier, error)
	Index(row, column int, parent Path) (Path, error)
}

// Setter is implemented by providers accepting edits.
type Setter interface {
	SetData(p Path, spec *Specifier) error
}

// HeaderProvider is implemented by providers describing header sections.
type HeaderProvider interface {
	Header(section int, o Orientation) (*Specifier, error)
}

// Availability is implemented by providers which can go away independently
// of the model. It is consulted before every provider call.
type Availability interface {
	Available() bool
}

// binding is the model's non-owning handle on a provider.
type binding struct {
	p        Provider
	released bool
}

func (b *binding) provider() (Provider, bool) {
	if b == nil || b.released || b.p == nil {
		return nil, false
	}
	if a, ok := b.p.(Availability); ok && !a.Available() {
		return nil, false
	}
	return b.p, true
}

func (b *binding) release() {
	if b == nil {
		return
	}
	b.released = true
	b.p = nil
}

// call runs f against the bound provider, converting unavailability,
// errors and panics into errors.
func call[T any](b *binding, what string, f func(Provider) (T, error)) (res T, err error) {
	p, ok := b.provider()
	if !ok {
		return res, ErrUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = zero
			err = fmt.Errorf("%w: %s panicked: %v", ErrProvider, what, r)
		}
		if err != nil && debug.Provider() {
			debug.Logf("provider %s: %v\n", what, err)
		}
	}()
	res, err = f(p)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrProvider, what, err)
	}
	return res, err
}
