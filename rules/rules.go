// Package rules compiles the expressions used to compute specifiers: column
// text expressions and conditional rules setting colours, tips and flags.
//
// Expressions are written in the expr language and evaluated against an
// Env describing one position:
//
//	kind == "object" ? "{" + string(children) + "}" : text
//	kind == "null" && column == "value"
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/signadot/hmodel/model"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is what expressions see of a position.
type Env struct {
	Key      string `expr:"key"`
	Value    any    `expr:"value"`
	Text     string `expr:"text"`
	Kind     string `expr:"kind"`
	Depth    int    `expr:"depth"`
	Row      int    `expr:"row"`
	Column   string `expr:"column"`
	Path     string `expr:"path"`
	Size     int64  `expr:"size"`
	Children int    `expr:"children"`
	Mode     string `expr:"mode"`
	Modified string `expr:"modified"`
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Env(Env{}),
		expr.Function("human", func(params ...any) (any, error) {
			return Human(params[0].(int64)), nil
		},
			new(func(int64) string)),
		expr.Function("truncate", func(params ...any) (any, error) {
			return Truncate(params[0].(string), params[1].(int)), nil
		},
			new(func(string, int) string)),
		expr.Function("getenv", func(params ...any) (any, error) {
			return os.Getenv(params[0].(string)), nil
		},
			new(func(string) string)),
	}
}

// Program is a compiled expression.
type Program struct {
	src string
	prg *vm.Program
}

func (p *Program) String() string {
	return p.src
}

// CompileText compiles an expression producing the text of a position.
func CompileText(src string) (*Program, error) {
	prg, err := expr.Compile(src, exprOpts()...)
	if err != nil {
		return nil, fmt.Errorf("text expression %q: %w", src, err)
	}
	return &Program{src: src, prg: prg}, nil
}

// CompileCond compiles a boolean condition.
func CompileCond(src string) (*Program, error) {
	prg, err := expr.Compile(src, append(exprOpts(), expr.AsBool())...)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", src, err)
	}
	return &Program{src: src, prg: prg}, nil
}

// Text runs p and formats the result as text. A nil result is empty.
func (p *Program) Text(env *Env) (string, error) {
	res, err := expr.Run(p.prg, *env)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.src, err)
	}
	switch x := res.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	}
	return fmt.Sprint(res), nil
}

// Bool runs a condition compiled with CompileCond.
func (p *Program) Bool(env *Env) (bool, error) {
	res, err := expr.Run(p.prg, *env)
	if err != nil {
		return false, fmt.Errorf("%s: %w", p.src, err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("%s: returned type %T", p.src, res)
	}
	return b, nil
}

// Human formats a byte count with a binary unit.
func Human(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

var flagNames = map[string]model.Flags{
	"readonly":      model.FlagReadOnly,
	"selectable":    model.FlagSelectable,
	"enabled":       model.FlagEnabled,
	"draggable":     model.FlagDraggable,
	"droptarget":    model.FlagDropTarget,
	"separator":     model.FlagSeparator,
	"none":          model.FlagNone,
	"clickableicon": model.FlagClickableIcon,
}

// ParseFlags converts flag names into flags.
func ParseFlags(names []string) (model.Flags, error) {
	var res model.Flags
	for _, name := range names {
		f, ok := flagNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		res |= f
	}
	return res, nil
}
