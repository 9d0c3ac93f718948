package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/signadot/hmodel/fsprov"
	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/render"

	"github.com/scott-cotton/cli"
)

func watch(cfg *WatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Watch.Parse(cc, args)
	if err != nil {
		cfg.Watch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: watch requires a file or directory", cli.ErrUsage)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := newLogger(os.Stderr, cfg.Verbose)
	return watchPath(ctx, cfg, cc.Out, args[0], cfg.colors(cc.Out), log)
}

// watchPath renders path, then renders it again after every batch of
// changes which altered the model, until ctx is done or cfg.Count batches
// were shown.
func watchPath(ctx context.Context, cfg *WatchConfig, w io.Writer, path string, c *render.Colors, log *slog.Logger) error {
	events := 0
	s, err := cfg.open(path, model.WithListener(func(model.Event) { events++ }))
	if err != nil {
		return err
	}
	defer s.close()

	wt, err := fsprov.NewWatcher(s.cfg.Watch.Debounce, log)
	if err != nil {
		return err
	}
	defer wt.Close()
	opts := renderOpts(cfg.Depth, cfg.NoHeader, c)
	if err := render.Tree(w, s.m, opts...); err != nil {
		return err
	}
	if err := s.watch(wt); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go wt.Run(ctx)

	shown := 0
	for batch := range wt.Changes() {
		events = 0
		if err := s.apply(batch); err != nil {
			log.Warn("applying changes", "path", path, "error", err)
			continue
		}
		if events == 0 {
			continue
		}
		log.Debug("model changed", "changes", len(batch), "events", events)
		fmt.Fprintln(w)
		if err := render.Tree(w, s.m, opts...); err != nil {
			return err
		}
		shown++
		if cfg.Count > 0 && shown >= cfg.Count {
			cancel()
		}
	}
	return nil
}
