package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/signadot/hmodel/fsprov"
	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/server"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
)

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: serve requires a file or directory", cli.ErrUsage)
	}
	// stdout may carry the protocol
	log := newLogger(os.Stderr, cfg.Verbose)

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warn("gops agent failed", "error", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := cfg.open(args[0])
	if err != nil {
		return err
	}
	defer s.close()

	opts := []server.Option{server.WithLogger(log), server.WithResolver(s)}
	if s.doc != nil {
		opts = append(opts, server.WithPatcher(s.doc))
	}
	srv := server.New(s.m, opts...)

	var followed chan struct{}
	if cfg.Watch {
		wt, err := fsprov.NewWatcher(s.cfg.Watch.Debounce, log)
		if err != nil {
			return err
		}
		defer wt.Close()
		if err := s.watch(wt); err != nil {
			return err
		}
		followed = make(chan struct{})
		go wt.Run(ctx)
		go func() {
			defer close(followed)
			follow(ctx, srv, s, wt, log)
		}()
	}

	addr := cfg.Addr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	if addr == "" {
		err = srv.ServeStdio(ctx)
	} else {
		err = srv.ListenAndServe(ctx, addr)
	}
	stop()
	if followed != nil {
		<-followed
	}
	return err
}

// follow applies each batch of changes under the server's lock, so that
// clients get the resulting events.
func follow(ctx context.Context, srv *server.Server, s *source, wt *fsprov.Watcher, log *slog.Logger) {
	for batch := range wt.Changes() {
		err := srv.Update(ctx, func(*model.Model) error {
			return s.apply(batch)
		})
		if err != nil && ctx.Err() == nil {
			log.Warn("applying changes", "path", s.path, "error", err)
		}
	}
}
