package rules

import (
	"errors"
	"fmt"

	"github.com/signadot/hmodel/model"
)

// Rule adjusts the specifier of positions matching When.
type Rule struct {
	// Column restricts the rule to one column; empty matches all.
	Column string
	// When is a condition; nil matches every position.
	When *Program

	Color      string
	Background string
	// Tip, when set, computes the tool tip text.
	Tip *Program

	Set, Clear model.Flags
}

// Matches reports whether r applies to env.
func (r *Rule) Matches(env *Env) (bool, error) {
	if r.Column != "" && r.Column != env.Column {
		return false, nil
	}
	if r.When == nil {
		return true, nil
	}
	return r.When.Bool(env)
}

// Apply adjusts spec if r matches env.
func (r *Rule) Apply(env *Env, spec *model.Specifier) error {
	ok, err := r.Matches(env)
	if err != nil || !ok {
		return err
	}
	if r.Color != "" {
		spec.Color = r.Color
	}
	if r.Background != "" {
		spec.BGColor = r.Background
	}
	if r.Tip != nil {
		tip, err := r.Tip.Text(env)
		if err != nil {
			return err
		}
		spec.Tip = tip
	}
	spec.Flags = spec.Flags&^r.Clear | r.Set
	return nil
}

// Set is an ordered list of rules; later rules override earlier ones.
type Set []*Rule

// Apply runs every rule of s against spec. Failing rules are skipped and
// their errors joined.
func (s Set) Apply(env *Env, spec *model.Specifier) error {
	var errs []error
	for i, r := range s {
		if err := r.Apply(env, spec); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
