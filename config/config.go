// Package config holds the view configuration: which columns a document or
// directory is shown with, the rules computing their specifiers, and the
// settings of the server and the directory watcher.
//
// Configurations are YAML (or JSON) files:
//
//	columns:
//	- name: key
//	  header: Key
//	  text: key
//	- name: value
//	  text: 'kind == "object" ? "{…}" : text'
//	  editable: true
//	rules:
//	- column: value
//	  when: kind == "null"
//	  color: magenta
//	watch:
//	  debounce: 100ms
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/rules"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Columns []Column `yaml:"columns" json:"columns"`
	Rules   []Rule   `yaml:"rules,omitempty" json:"rules,omitempty"`
	Server  Server   `yaml:"server,omitempty" json:"server,omitempty"`
	Watch   Watch    `yaml:"watch,omitempty" json:"watch,omitempty"`
}

type Column struct {
	Name   string `yaml:"name" json:"name"`
	Header string `yaml:"header,omitempty" json:"header,omitempty"`
	// Text is an expression computing the text of the column.
	Text string `yaml:"text" json:"text"`
	// Width is the fixed header width; 0 sizes the column automatically.
	Width int `yaml:"width,omitempty" json:"width,omitempty"`
	// Align is one of left, right, center, justify.
	Align string `yaml:"align,omitempty" json:"align,omitempty"`
	// Elide is one of none, left, middle, right.
	Elide    string `yaml:"elide,omitempty" json:"elide,omitempty"`
	Editable bool   `yaml:"editable,omitempty" json:"editable,omitempty"`
}

type Rule struct {
	Column     string   `yaml:"column,omitempty" json:"column,omitempty"`
	When       string   `yaml:"when,omitempty" json:"when,omitempty"`
	Color      string   `yaml:"color,omitempty" json:"color,omitempty"`
	Background string   `yaml:"background,omitempty" json:"background,omitempty"`
	Tip        string   `yaml:"tip,omitempty" json:"tip,omitempty"`
	Set        []string `yaml:"set,omitempty" json:"set,omitempty"`
	Clear      []string `yaml:"clear,omitempty" json:"clear,omitempty"`
}

type Server struct {
	// Addr is a TCP address; empty serves stdio.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

type Watch struct {
	Debounce time.Duration `yaml:"debounce,omitempty" json:"debounce,omitempty"`
}

const DefaultDebounce = 100 * time.Millisecond

// Default shows documents as key, value and type columns.
func Default() *Config {
	return &Config{
		Columns: []Column{
			{Name: "key", Header: "Key", Text: "key"},
			{
				Name:     "value",
				Header:   "Value",
				Text:     `kind == "object" ? "{" + string(children) + "}" : kind == "array" ? "[" + string(children) + "]" : text`,
				Editable: true,
			},
			{Name: "type", Header: "Type", Text: "kind", Width: 8},
		},
		Rules: []Rule{
			{Column: "value", When: `kind == "string"`, Color: "green"},
			{Column: "value", When: `kind in ["number", "bool"]`, Color: "cyan"},
			{Column: "value", When: `kind == "null"`, Color: "magenta"},
			{Column: "value", When: `kind in ["object", "array"]`, Set: []string{"readonly"}, Tip: `string(children) + " children"`},
		},
		Watch: Watch{Debounce: DefaultDebounce},
	}
}

// Files shows directories with name, size, mode and modification time.
func Files() *Config {
	return &Config{
		Columns: []Column{
			{Name: "name", Header: "Name", Text: "key"},
			{Name: "size", Header: "Size", Text: `kind == "dir" ? "" : human(size)`, Align: "right", Width: 8},
			{Name: "mode", Header: "Mode", Text: "mode", Width: 10},
			{Name: "modified", Header: "Modified", Text: "modified", Elide: "left"},
		},
		Rules: []Rule{
			{Column: "name", When: `kind == "dir"`, Color: "blue"},
			{Column: "name", When: `kind == "symlink"`, Color: "cyan"},
		},
		Watch: Watch{Debounce: DefaultDebounce},
	}
}

// Parse decodes a configuration. Unknown fields are rejected.
func Parse(d []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalWithOptions(d, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.MarshalWithOptions(cfg, yaml.Indent(2))
}

// Validate checks column names and compiles every expression.
func (cfg *Config) Validate() error {
	if len(cfg.Columns) == 0 {
		return fmt.Errorf("config: no columns")
	}
	var errs []error
	seen := map[string]bool{}
	for i := range cfg.Columns {
		c := &cfg.Columns[i]
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("column %d has no name", i))
		} else if seen[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate column %q", c.Name))
		}
		seen[c.Name] = true
		if _, err := c.Compile(); err != nil {
			errs = append(errs, fmt.Errorf("column %q: %w", c.Name, err))
		}
	}
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if r.Column != "" && !seen[r.Column] {
			errs = append(errs, fmt.Errorf("rule %d: unknown column %q", i, r.Column))
		}
		if _, err := r.Compile(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("negative watch debounce %s", cfg.Watch.Debounce))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CompiledColumn is a column ready for evaluation.
type CompiledColumn struct {
	Name     string
	Header   string
	Text     *rules.Program
	Width    int
	Align    model.Align
	Elide    model.Flags
	Editable bool
}

func (c *Column) Compile() (*CompiledColumn, error) {
	text, err := rules.CompileText(c.Text)
	if err != nil {
		return nil, err
	}
	align, err := ParseAlign(c.Align)
	if err != nil {
		return nil, err
	}
	elide, err := ParseElide(c.Elide)
	if err != nil {
		return nil, err
	}
	header := c.Header
	if header == "" {
		header = c.Name
	}
	return &CompiledColumn{
		Name:     c.Name,
		Header:   header,
		Text:     text,
		Width:    c.Width,
		Align:    align,
		Elide:    elide,
		Editable: c.Editable,
	}, nil
}

// HeaderSpecifier describes the column header.
func (c *CompiledColumn) HeaderSpecifier() *model.Specifier {
	spec := model.NewSpecifier(c.Header)
	spec.Align = c.Align
	spec.Flags |= c.Elide
	if c.Width > 0 {
		spec.Width = c.Width
		spec.Flags |= model.FlagFixedWidth
	} else {
		spec.Flags |= model.FlagAutoWidth
	}
	return spec
}

func (r *Rule) Compile() (*rules.Rule, error) {
	res := &rules.Rule{
		Column:     r.Column,
		Color:      r.Color,
		Background: r.Background,
	}
	var err error
	if r.When != "" {
		if res.When, err = rules.CompileCond(r.When); err != nil {
			return nil, err
		}
	}
	if r.Tip != "" {
		if res.Tip, err = rules.CompileText(r.Tip); err != nil {
			return nil, err
		}
	}
	if res.Set, err = rules.ParseFlags(r.Set); err != nil {
		return nil, err
	}
	if res.Clear, err = rules.ParseFlags(r.Clear); err != nil {
		return nil, err
	}
	return res, nil
}

// Compile compiles every column and rule of cfg.
func (cfg *Config) Compile() ([]*CompiledColumn, rules.Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cols := make([]*CompiledColumn, len(cfg.Columns))
	for i := range cfg.Columns {
		c, err := cfg.Columns[i].Compile()
		if err != nil {
			return nil, nil, err
		}
		cols[i] = c
	}
	set := make(rules.Set, len(cfg.Rules))
	for i := range cfg.Rules {
		r, err := cfg.Rules[i].Compile()
		if err != nil {
			return nil, nil, err
		}
		set[i] = r
	}
	return cols, set, nil
}

func ParseAlign(s string) (model.Align, error) {
	var h model.Align
	switch strings.ToLower(s) {
	case "", "left":
		h = model.AlignLeft
	case "right":
		h = model.AlignRight
	case "center":
		h = model.AlignHCenter
	case "justify":
		h = model.AlignJustify
	default:
		return 0, fmt.Errorf("unknown alignment %q", s)
	}
	return h | model.AlignVCenter, nil
}

func ParseElide(s string) (model.Flags, error) {
	switch strings.ToLower(s) {
	case "", "right":
		return model.FlagElideRight, nil
	case "left":
		return model.FlagElideLeft, nil
	case "middle":
		return model.FlagElideMiddle, nil
	case "none":
		return 0, nil
	}
	return 0, fmt.Errorf("unknown elide mode %q", s)
}
