// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/creachadair/taskgroup"
	"github.com/rs/zerolog"

	"github.com/prodigy-go/prodigy/codec"
	"github.com/prodigy-go/prodigy/transport"
)

// RunnerState is one of the states a [Runner] moves through: New → Bound →
// Running → Closed (terminal). Bind or Run called out of order, including
// a second call to Run, reports [InvalidState] rather than panicking.
type RunnerState int

const (
	StateNew RunnerState = iota
	StateBound
	StateRunning
	StateClosed
)

func (s RunnerState) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateBound:
		return "Bound"
	case StateRunning:
		return "Running"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("RunnerState(%d)", int(s))
	}
}

// Runner drives the dispatch loop for one transport endpoint: it pumps a
// [transport.Provider], classifies inbound packets, completes pending
// exchanges, and spawns a handler task for each inbound request. A
// zero-valued Runner is not ready for use; construct one with [NewRunner].
type Runner struct {
	registry *Registry
	codec    codec.Codec

	mu       sync.Mutex
	state    RunnerState
	provider transport.Provider
	log      zerolog.Logger
	cancel   context.CancelFunc
	fatalErr error

	pending *pendingTable
	metrics *runnerMetrics
	tasks   *taskgroup.Group
}

// NewRunner constructs a new, unbound Runner dispatching against registry.
// The runner starts with [codec.Wire] as its codec; use WithCodec to
// install a different one before calling Bind.
func NewRunner(registry *Registry) *Runner {
	return &Runner{
		registry: registry,
		codec:    codec.Wire{},
		state:    StateNew,
		pending:  newPendingTable(),
		metrics:  newRunnerMetrics(),
		log:      zerolog.Nop(),
	}
}

// WithCodec installs c as the runner's codec and returns r to permit
// chaining. It must be called before Bind.
func (r *Runner) WithCodec(c codec.Codec) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codec = c
	return r
}

// State reports the runner's current state.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Sender returns the outbound capability bound to this runner. It is safe
// to call concurrently and from within a handler.
func (r *Runner) Sender() *Sender { return &Sender{runner: r} }

// PendingCount reports the number of exchange-response slots currently
// awaiting delivery, for the "no slot leak" property (spec §8, property 3).
func (r *Runner) PendingCount() int { return r.pending.len() }

// Bind claims provider's local endpoint at addr. Bind may only be called
// once, while the runner is New.
func (r *Runner) Bind(ctx context.Context, provider transport.Provider, addr string) error {
	r.mu.Lock()
	if r.state != StateNew {
		r.mu.Unlock()
		return &InvalidState{Op: "Bind", State: r.state}
	}
	r.mu.Unlock()

	if err := provider.Bind(ctx, addr); err != nil {
		return &TransportError{Op: "bind", Err: err}
	}

	r.mu.Lock()
	r.provider = provider
	r.state = StateBound
	r.mu.Unlock()
	return nil
}

// Run starts the dispatch loop and the provider's I/O pump as background
// tasks and returns immediately; it does not block. The runner must be
// Bound. Call Wait to block until the runner stops, or Close to stop it.
func (r *Runner) Run(parent context.Context) error {
	r.mu.Lock()
	if r.state != StateBound {
		r.mu.Unlock()
		return &InvalidState{Op: "Run", State: r.state}
	}
	runCtx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.state = StateRunning
	r.tasks = taskgroup.New(nil)
	provider := r.provider
	r.mu.Unlock()

	r.tasks.Go(func() error {
		return provider.Run(runCtx)
	})
	r.tasks.Go(func() error {
		r.receiveLoop(runCtx)
		return nil
	})
	return nil
}

// receiveLoop is the dispatch loop proper (spec §4.7). It terminates when
// the provider's Receive reports an error (including the provider being
// closed), at which point the runner stops spawning new handler tasks.
func (r *Runner) receiveLoop(ctx context.Context) {
	for {
		data, sender, err := r.provider.Receive(ctx)
		if err != nil {
			if !isBenignClose(err) {
				r.setFatal(err)
			}
			return
		}

		wire, err := r.codec.DecodePacket(data)
		if err != nil {
			r.metrics.packetsDropped.Add(1)
			r.log.Debug().Err(err).Msg("dropping malformed packet")
			continue
		}
		r.metrics.packetsRecv.Add(1)
		pkt := fromWire(wire)

		switch pkt.Kind {
		case KindResponse:
			if !r.pending.deliver(pkt) {
				r.log.Debug().Str("kind", kindAbbrev(pkt.Kind)).Uint64("exchange_id", uint64(pkt.ExchangeID)).Msg("dropping late or unknown response")
			}

		case KindRequest:
			r.dispatchRequest(ctx, pkt, sender)

		default:
			r.metrics.packetsDropped.Add(1)
			r.log.Debug().Int("kind", int(pkt.Kind)).Msg("dropping packet of unknown kind")
		}
	}
}

func isBenignClose(err error) bool {
	return errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled)
}

// dispatchRequest looks up the handler for an inbound request and, if
// found, spawns it as a new task so the dispatch loop itself never blocks
// on user code (spec §4.7 step 5, §9's deadlock-avoidance rule).
func (r *Runner) dispatchRequest(ctx context.Context, pkt *Packet, sender net.Addr) {
	handler := r.registry.Lookup(pkt.ProtocolName, pkt.MessageType)
	if handler == nil {
		r.metrics.packetsDropped.Add(1)
		r.log.Debug().
			Str("protocol", pkt.ProtocolName).
			Str("message_type", pkt.MessageType).
			Msg("dropping request for unknown protocol or message type")
		return
	}

	r.metrics.requestsIn.Add(1)
	r.metrics.handlersActive.Add(1)

	req := &Request{
		From:         sender,
		Payload:      pkt.Payload,
		ExchangeID:   pkt.ExchangeID,
		MessageType:  pkt.MessageType,
		ProtocolName: pkt.ProtocolName,
		runner:       r,
	}

	r.tasks.Go(func() error {
		defer r.metrics.handlersActive.Add(-1)

		sender := r.Sender()
		hctx := withSender(ctx, sender)
		data, err := func() (data []byte, err error) {
			defer func() {
				if x := recover(); x != nil && err == nil {
					err = fmt.Errorf("handler panicked (recovered): %v", x)
				}
			}()
			return handler(hctx, req, sender)
		}()
		if err != nil {
			r.metrics.requestsErr.Add(1)
			r.log.Debug().
				Err(err).
				Str("protocol", pkt.ProtocolName).
				Str("message_type", pkt.MessageType).
				Msg("handler reported an error")
			return nil
		}
		// A handler's returned bytes are its response, unless it already sent
		// one itself via req.Respond; per spec a response is never mandatory.
		if !req.Responded() {
			if rerr := req.Respond(data); rerr != nil {
				r.log.Debug().
					Err(rerr).
					Str("protocol", pkt.ProtocolName).
					Str("message_type", pkt.MessageType).
					Msg("failed to deliver handler response")
			}
		}
		return nil
	})
}

// sendPacket encodes pkt and hands it to the provider.
func (r *Runner) sendPacket(ctx context.Context, pkt *Packet, recipient net.Addr) error {
	r.mu.Lock()
	provider := r.provider
	r.mu.Unlock()
	if provider == nil {
		return errRunnerNotBound
	}
	data, err := r.codec.EncodePacket(toWire(pkt))
	if err != nil {
		return err
	}
	if err := provider.Send(ctx, data, recipient); err != nil {
		return err
	}
	r.metrics.packetsSent.Add(1)
	return nil
}

// newExchangeID draws a 64-bit random exchange ID, per spec §3.
func (r *Runner) newExchangeID() ExchangeID {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("prodigy: failed to read random exchange id: " + err.Error())
	}
	return ExchangeID(binary.BigEndian.Uint64(buf[:]))
}

func (r *Runner) setFatal(err error) {
	r.mu.Lock()
	if r.fatalErr == nil {
		r.fatalErr = err
	}
	r.mu.Unlock()
}

// Wait blocks until the runner's background tasks have exited and reports
// the error (if any) that caused the dispatch loop to stop. Wait returns
// nil if the runner was stopped cleanly via Close.
func (r *Runner) Wait() error {
	r.mu.Lock()
	tasks := r.tasks
	r.mu.Unlock()
	if tasks == nil {
		return nil
	}
	tasks.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatalErr
}

// Close stops the runner: it cancels outstanding handler tasks' shared
// context, closes the provider (unblocking any pending Send/Receive), and
// removes all pending exchange slots so no caller leaks waiting forever.
// Close is idempotent; calling it after the runner has already closed is a
// no-op that returns nil.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return nil
	}
	provider := r.provider
	cancel := r.cancel
	r.state = StateClosed
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.pending.closeAll()

	var err error
	if provider != nil {
		err = provider.Close()
	}
	r.Wait()
	return err
}

func fromWire(w *codec.Packet) *Packet {
	return &Packet{
		ExchangeID:   ExchangeID(w.ExchangeID),
		Kind:         PacketKind(w.Kind),
		ProtocolName: w.ProtocolName,
		MessageType:  w.MessageType,
		Payload:      w.Payload,
	}
}

func toWire(p *Packet) *codec.Packet {
	return &codec.Packet{
		ExchangeID:   uint64(p.ExchangeID),
		Kind:         byte(p.Kind),
		ProtocolName: p.ProtocolName,
		MessageType:  p.MessageType,
		Payload:      p.Payload,
	}
}
