package main

import (
	"io"
	"os"

	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/render"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Color      bool   `cli:"name=color desc='render with color'"`
	ConfigFile string `cli:"name=config desc='view configuration file (yaml or json)'"`
	Verbose    bool   `cli:"name=v aliases=verbose desc='log debug messages'"`

	Main *cli.Command
}

// viewConfig returns the configuration given with -config, or the default
// one for documents or directories.
func (cfg *MainConfig) viewConfig(dir bool) (*config.Config, error) {
	if cfg.ConfigFile != "" {
		return config.Load(cfg.ConfigFile)
	}
	if dir {
		return config.Files(), nil
	}
	return config.Default(), nil
}

// colors returns the colours to render to w with, or nil. Without an
// explicit -color, terminals get colours.
func (cfg *MainConfig) colors(w io.Writer) *render.Colors {
	if cfg.Color {
		return render.NewColors()
	}
	if cfg.Main != nil {
		for _, opt := range cfg.Main.Opts {
			if opt.Name != "color" {
				continue
			}
			if opt.Value != nil {
				return nil
			}
			break
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) {
		return render.NewColors()
	}
	return nil
}

type ViewConfig struct {
	*MainConfig

	Depth    int  `cli:"name=d aliases=depth desc='maximum depth (0 is unlimited)'"`
	NoHeader bool `cli:"name=H desc='omit the header row'"`

	View *cli.Command
}

func renderOpts(depth int, noHeader bool, c *render.Colors) []render.Option {
	opts := []render.Option{render.MaxDepth(depth), render.WithColors(c)}
	if noHeader {
		opts = append(opts, render.NoHeader())
	}
	return opts
}

type GetConfig struct {
	*MainConfig

	Get *cli.Command
}

type PatchConfig struct {
	*MainConfig

	String bool `cli:"name=s desc='patch arg as string'"`
	Write  bool `cli:"name=w desc='write the result back to the file'"`
	Quiet  bool `cli:"name=q desc='do not show the diff'"`

	Patch *cli.Command
}

type WatchConfig struct {
	*MainConfig

	Depth    int  `cli:"name=d aliases=depth desc='maximum depth (0 is unlimited)'"`
	NoHeader bool `cli:"name=H desc='omit the header row'"`
	Count    int  `cli:"name=n desc='stop after n changes (0 is unlimited)'"`

	Watch *cli.Command
}

type ServeConfig struct {
	*MainConfig

	Addr  string `cli:"name=addr desc='TCP listen address (default stdio)'"`
	Gops  bool   `cli:"name=gops desc='start a gops agent'"`
	Watch bool   `cli:"name=watch desc='follow changes of the served file or directory'"`

	Serve *cli.Command
}
