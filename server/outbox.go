package server

import (
	"context"
	"log/slog"
	"sync"

	"go.lsp.dev/jsonrpc2"
)

// outbox sends the events queued for one connection, in queue order. A
// client which stops reading only holds up its own outbox.
type outbox struct {
	conn jsonrpc2.Conn
	log  *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	evs    []Event
	queued int
	sent   int
	closed bool
}

func newOutbox(conn jsonrpc2.Conn, log *slog.Logger) *outbox {
	o := &outbox{conn: conn, log: log}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// push queues evs and returns the number of events queued so far.
func (o *outbox) push(evs []Event) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return o.queued
	}
	o.evs = append(o.evs, evs...)
	o.queued += len(evs)
	o.cond.Broadcast()
	return o.queued
}

// flush waits until the first mark events queued were sent, or the outbox
// is closed.
func (o *outbox) flush(mark int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.sent < mark && !o.closed {
		o.cond.Wait()
	}
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.evs = nil
	o.cond.Broadcast()
}

func (o *outbox) run(ctx context.Context) {
	o.mu.Lock()
	for {
		for len(o.evs) == 0 && !o.closed {
			o.cond.Wait()
		}
		if o.closed {
			o.mu.Unlock()
			return
		}
		evs := o.evs
		o.evs = nil
		o.mu.Unlock()
		for i := range evs {
			if err := o.conn.Notify(ctx, MethodEvent, &evs[i]); err != nil {
				o.log.Warn("pushing event", "event", evs[i].Type, "error", err)
				o.close()
				return
			}
		}
		o.mu.Lock()
		o.sent += len(evs)
		o.cond.Broadcast()
	}
}
