package model

import "fmt"

// CountState is the state of a lazily computed row or column count.
type CountState uint8

const (
	// Uncomputed means the provider has not been asked yet.
	Uncomputed CountState = iota
	// Empty means the provider failed or was unavailable; the count is 0.
	Empty
	// Counted means the provider answered; see Count.
	Counted
)

func (s CountState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Counted:
		return "counted"
	}
	return "uncomputed"
}

type count struct {
	state CountState
	n     int
}

func countOf(n int) count {
	if n < 0 {
		n = 0
	}
	return count{state: Counted, n: n}
}

func (c count) value() int {
	if c.state != Counted {
		return 0
	}
	return c.n
}

func (c count) String() string {
	switch c.state {
	case Uncomputed:
		return "uncomputed"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("count(%d)", c.n)
}
