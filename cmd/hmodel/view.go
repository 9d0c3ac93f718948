package main

import (
	"fmt"
	"io"

	"github.com/signadot/hmodel/render"

	"github.com/scott-cotton/cli"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: view requires a file or directory", cli.ErrUsage)
	}
	c := cfg.colors(cc.Out)
	for i, arg := range args {
		if i > 0 {
			fmt.Fprintln(cc.Out)
		}
		if err := viewPath(cfg, cc.Out, arg, c); err != nil {
			return fmt.Errorf("error viewing %s: %w", arg, err)
		}
	}
	return nil
}

func viewPath(cfg *ViewConfig, w io.Writer, path string, c *render.Colors) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	defer s.close()
	return render.Tree(w, s.m, renderOpts(cfg.Depth, cfg.NoHeader, c)...)
}
