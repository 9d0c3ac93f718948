// Package server exposes a model to remote consumers over JSON-RPC 2.0.
//
// Positions are exchanged as handles: integer ids of persistent references
// kept by the server, so a handle keeps designating the same position
// across provider edits. Handle 0 is the top level. Clients release the
// handles they no longer need with model/release.
//
// Model events are pushed to every connection as model/event
// notifications.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"sync"

	"github.com/signadot/hmodel/model"

	"go.lsp.dev/jsonrpc2"
)

// Resolver is implemented by providers which can turn a textual address
// into a provider path.
type Resolver interface {
	Lookup(s string) (model.Path, error)
}

// Patcher is implemented by providers accepting RFC 6902 patches.
type Patcher interface {
	Patch(patch []byte) error
}

type Server struct {
	mu       sync.Mutex
	m        *model.Model
	resolver Resolver
	patcher  Patcher
	log      *slog.Logger

	handles map[int64]*model.PersistentIndex
	next    int64
	pending []Event

	connMu sync.Mutex
	conns  map[*outbox]struct{}
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithResolver enables model/resolve.
func WithResolver(r Resolver) Option {
	return func(s *Server) { s.resolver = r }
}

// WithPatcher enables doc/patch.
func WithPatcher(p Patcher) Option {
	return func(s *Server) { s.patcher = p }
}

// New returns a server for m. The server subscribes to m's events; m must
// only be used through the server afterwards (see Update).
func New(m *model.Model, opts ...Option) *Server {
	s := &Server{
		m:       m,
		log:     slog.Default(),
		handles: map[int64]*model.PersistentIndex{},
		conns:   map[*outbox]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	// positions are read when the event is emitted; later steps of the
	// same request may move them
	m.Subscribe(func(e model.Event) {
		s.pending = append(s.pending, eventOf(e))
	})
	return s
}

// Update runs f with exclusive access to the model, then pushes the
// events f caused to the clients. f is not run once ctx is done.
func (s *Server) Update(ctx context.Context, f func(m *model.Model) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := f(s.m)
	s.broadcast(s.takeEvents(), nil)
	return err
}

func (s *Server) takeEvents() []Event {
	if len(s.pending) == 0 {
		return nil
	}
	res := slices.Clone(s.pending)
	s.pending = s.pending[:0]
	return res
}

// broadcast queues evs on every connection and returns the mark to flush
// for the connection from. It must be called with s.mu held, so that every
// connection receives the events in the order the model emitted them.
func (s *Server) broadcast(evs []Event, from *outbox) int {
	mark := 0
	if len(evs) == 0 {
		return mark
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for o := range s.conns {
		n := o.push(evs)
		if o == from {
			mark = n
		}
	}
	return mark
}

// ServeConn serves one client over rwc until the connection closes or ctx
// is done.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	o := newOutbox(conn, s.log)
	s.connMu.Lock()
	s.conns[o] = struct{}{}
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		delete(s.conns, o)
		s.connMu.Unlock()
		o.close()
	}()
	s.log.Info("client connected")
	go o.run(ctx)
	conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		return s.handle(ctx, o, reply, req)
	})
	select {
	case <-conn.Done():
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
	}
	s.log.Info("client disconnected")
	if err := conn.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type stdioReadWriteCloser struct {
	read  io.Reader
	write io.Writer
}

func (s *stdioReadWriteCloser) Read(p []byte) (n int, err error) {
	return s.read.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (n int, err error) {
	return s.write.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return nil
}

// ServeStdio serves a single client on the standard input and output.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.ServeConn(ctx, &stdioReadWriteCloser{read: os.Stdin, write: os.Stdout})
}

// ListenAndServe accepts clients on the TCP address addr until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts clients on ln until ctx is done. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String())
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ServeConn(ctx, c); err != nil {
				s.log.Error("serving client", "remote", c.RemoteAddr().String(), "error", err)
			}
		}()
	}
}
