package main

import (
	"fmt"
	"io"

	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/render"

	"github.com/scott-cotton/cli"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: get requires a path and a file or directory", cli.ErrUsage)
	}
	s, err := cfg.open(args[1])
	if err != nil {
		return err
	}
	defer s.close()
	if err := getPath(cc.Out, s, args[0], cfg.colors(cc.Out)); err != nil {
		return fmt.Errorf("error getting %s from %s: %w", args[0], args[1], err)
	}
	return nil
}

// getPath prints the row designated by path: one line per column, then
// its flags, tip, child count and stable path.
func getPath(w io.Writer, s *source, path string, c *render.Colors) error {
	mp, err := s.Lookup(path)
	if err != nil {
		return err
	}
	idx, err := s.m.Resolve(mp)
	if err != nil {
		return err
	}
	if !idx.IsValid() {
		return fmt.Errorf("%w: %q is the top level", model.ErrAddressNotFound, path)
	}
	parent := s.m.Parent(idx)
	var tip string
	for col := range s.m.ColumnCount(parent) {
		cell := s.m.Index(idx.Row(), col, parent)
		spec := s.m.Specifier(cell)
		if spec == nil {
			return model.ErrUnavailable
		}
		header, _ := s.m.HeaderData(col, model.Horizontal, model.RoleDisplay).(string)
		fmt.Fprintf(w, "%s: %s\n", header, c.Color(spec.Color, spec.BGColor, spec.Text))
		if tip == "" {
			tip = spec.Tip
		}
	}
	fmt.Fprintf(w, "flags: %s\n", s.m.Flags(idx))
	if tip != "" {
		fmt.Fprintf(w, "tip: %s\n", tip)
	}
	fmt.Fprintf(w, "rows: %d\n", s.m.RowCount(idx))
	sp, err := s.m.StablePath(idx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "path: %s\n", sp)
	return nil
}
