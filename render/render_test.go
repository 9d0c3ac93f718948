package render

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/docprov"
	"github.com/signadot/hmodel/model"
)

func docModel(t *testing.T, src string) *model.Model {
	t.Helper()
	root, err := doc.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	_, m, err := docprov.Open(root, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTree(t *testing.T) {
	src := "name: demo\nports: [80]\n"
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "full",
			want: `Key    Value  Type
name   demo   string
ports  [1]    array
  [0]  80     number
`,
		},
		{
			name: "depth",
			opts: []Option{MaxDepth(1), NoHeader()},
			want: `name   demo  string
ports  [1]   array
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := Tree(&sb, docModel(t, src), tt.opts...); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, sb.String()); diff != "" {
				t.Errorf("Tree() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTreeColors(t *testing.T) {
	var sb strings.Builder
	if err := Tree(&sb, docModel(t, "name: demo\n"), WithColors(NewColors())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), sprint(color.New(color.FgGreen), "demo")) {
		t.Errorf("no green value in %q", sb.String())
	}
}

// sprint renders s the way the terminal would get it.
func sprint(c *color.Color, s string) string {
	c.EnableColor()
	return c.Sprint(s)
}

func TestColors(t *testing.T) {
	c := NewColors()
	tests := []struct {
		fg, bg string
		s      string
		want   string
	}{
		{"", "", "x", "x"},
		{"nosuch", "", "x", "x"},
		{"red", "", "x", sprint(color.New(color.FgRed), "x")},
		{"Blue", "white", "x", sprint(color.New(color.FgBlue, color.BgWhite), "x")},
		{"#102030", "", "x", sprint(color.New().AddRGB(16, 32, 48), "x")},
		{"red", "", "100%", sprint(color.New(color.FgRed), "100%")},
		{"red", "", "%d %s%%", sprint(color.New(color.FgRed), "%d %s%%")},
		{"nosuch", "", "%d%%", "%d%%"},
	}
	for _, tt := range tests {
		if got := c.Color(tt.fg, tt.bg, tt.s); got != tt.want {
			t.Errorf("Color(%q, %q, %q) = %q, want %q", tt.fg, tt.bg, tt.s, got, tt.want)
		}
	}
	var none *Colors
	if got := none.Color("red", "", "x"); got != "x" {
		t.Errorf("nil Colors coloured %q", got)
	}
}

func TestDiff(t *testing.T) {
	got := Diff("a\nb\n\nd\n", "a\nc\n\nd\ne\n", nil)
	want := " a\n-b\n+c\n \n d\n+e\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}
	if got := Diff("same\n", "same\n", NewColors()); got != " same\n" {
		t.Errorf("Diff() of equal text = %q", got)
	}
}
