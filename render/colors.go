package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var fgNames = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
	"grey":    color.FgHiBlack,
	"gray":    color.FgHiBlack,
}

var bgNames = map[string]color.Attribute{
	"black":   color.BgBlack,
	"red":     color.BgRed,
	"green":   color.BgGreen,
	"yellow":  color.BgYellow,
	"blue":    color.BgBlue,
	"magenta": color.BgMagenta,
	"cyan":    color.BgCyan,
	"white":   color.BgWhite,
	"grey":    color.BgHiBlack,
	"gray":    color.BgHiBlack,
}

type style struct {
	fg, bg string
}

// Colors turns the colour names of specifiers into terminal escapes.
// Names are the basic terminal colours or #rrggbb.
type Colors struct {
	cache map[style]func(...any) string
}

func NewColors() *Colors {
	return &Colors{cache: map[style]func(...any) string{}}
}

// Color renders s with the foreground fg and background bg; empty or
// unknown names leave s as is. A nil *Colors never colours.
func (c *Colors) Color(fg, bg, s string) string {
	if c == nil || (fg == "" && bg == "") {
		return s
	}
	return c.get(style{fg: strings.ToLower(fg), bg: strings.ToLower(bg)})(s)
}

// Attr renders s with a fixed terminal attribute, for diff markers.
func (c *Colors) Attr(a color.Attribute, s string) string {
	if c == nil {
		return s
	}
	col := color.New(a)
	col.EnableColor()
	return col.Sprint(s)
}

func (c *Colors) get(st style) func(...any) string {
	if f, ok := c.cache[st]; ok {
		return f
	}
	col := color.New()
	n := 0
	if a, ok := fgNames[st.fg]; ok {
		col.Add(a)
		n++
	} else if r, g, b, ok := parseRGB(st.fg); ok {
		col.AddRGB(r, g, b)
		n++
	}
	if a, ok := bgNames[st.bg]; ok {
		col.Add(a)
		n++
	} else if r, g, b, ok := parseRGB(st.bg); ok {
		col.AddBgRGB(r, g, b)
		n++
	}
	f := fmt.Sprint
	if n > 0 {
		col.EnableColor()
		f = col.SprintFunc()
	}
	c.cache[st] = f
	return f
}

func parseRGB(s string) (r, g, b int, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
