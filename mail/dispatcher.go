package mail

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	BufferSize int
	DropIfFull bool
}

// Dispatcher sends messages asynchronously through a [Transport]. Callers
// enqueue and move on; a send failure never propagates back into the flow
// that requested the mail. Close drains the buffer before returning.
type Dispatcher struct {
	cfg       Config
	transport Transport
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(cfg Config, transport Transport) *Dispatcher {
	if transport == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		ch:        make(chan Message, cfg.BufferSize),
		done:      make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.send(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) send(msg Message) {
	if err := d.transport.Send(context.Background(), msg); err != nil {
		d.failed.Add(1)
	}
}

// Enqueue hands a message to the worker. Returns false when the message
// was dropped (buffer full with DropIfFull, or dispatcher closed).
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- msg:
			return true
		case <-d.done:
			return false
		default:
			d.dropped.Add(1)
			return false
		}
	}

	select {
	case d.ch <- msg:
		return true
	case <-ctx.Done():
		d.dropped.Add(1)
		return false
	case <-d.done:
		return false
	}
}

// Close stops the worker after draining buffered messages.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports messages rejected at enqueue time.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed reports messages the transport could not deliver.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
