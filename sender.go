// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"context"
	"net"
	"time"
)

// DefaultExchangeTimeout is used by Exchange when the caller passes timeout
// <= 0. spec §6 allows any default in the 10–30s range; 10s is chosen here
// (see SPEC_FULL.md §6 for the rationale).
const DefaultExchangeTimeout = 10 * time.Second

// senderContextKey is the context key under which a handler's *Sender is
// stashed, so adapters that only see a context.Context (see the handler
// subpackage) can still reach it, mirroring chirp's ContextPeer.
type senderContextKey struct{}

// ContextSender returns the Sender associated with ctx, or nil if none is
// set. The context passed to a Handler by a Runner carries this value.
func ContextSender(ctx context.Context) *Sender {
	if v := ctx.Value(senderContextKey{}); v != nil {
		return v.(*Sender)
	}
	return nil
}

// withSender returns a copy of ctx carrying s, for use by Runner.dispatchRequest.
func withSender(ctx context.Context, s *Sender) context.Context {
	return context.WithValue(ctx, senderContextKey{}, s)
}

// Sender is the outbound capability bound to one Runner: fire-and-forget
// Send, plus the free function [Exchange] for request/response. A handler
// receives the same *Sender its Runner exposes, so it can send further
// messages — including exchanges — from inside its own invocation.
type Sender struct {
	runner *Runner
}

// Send transmits a fire-and-forget request and returns once the transport
// has accepted the datagram; no response is awaited.
func (s *Sender) Send(ctx context.Context, protocolName, messageType string, recipient net.Addr, body any) error {
	payload, err := s.runner.codec.EncodePayload(body)
	if err != nil {
		return &PayloadDecodeError{Err: err}
	}
	pkt := &Packet{
		ExchangeID:   s.runner.newExchangeID(),
		Kind:         KindRequest,
		ProtocolName: protocolName,
		MessageType:  messageType,
		Payload:      payload,
	}
	if err := s.runner.sendPacket(ctx, pkt, recipient); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Exchange sends a request for (protocolName, messageType) to recipient and
// blocks until the matching response arrives, ctx ends, or timeout elapses
// (whichever comes first), then decodes the response payload as T.
//
// timeout <= 0 selects [DefaultExchangeTimeout]. The pending-response slot
// is reserved before the datagram is sent, so a response racing the send
// can never be lost (spec §4.5's required ordering).
func Exchange[T any](ctx context.Context, s *Sender, protocolName, messageType string, recipient net.Addr, body any, timeout time.Duration) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	m := s.runner.metrics
	m.exchangesOut.Add(1)

	payload, err := s.runner.codec.EncodePayload(body)
	if err != nil {
		m.exchangesErr.Add(1)
		return zero, &PayloadDecodeError{Err: err}
	}

	id := s.runner.newExchangeID()
	ch, rerr := s.runner.pending.reserve(id)
	if rerr != nil {
		// Generator collision: draw a fresh id once, per spec §4.4.
		id = s.runner.newExchangeID()
		ch, rerr = s.runner.pending.reserve(id)
		if rerr != nil {
			m.exchangesErr.Add(1)
			return zero, rerr
		}
	}
	m.exchangesPend.Add(1)
	defer m.exchangesPend.Add(-1)

	req := &Packet{
		ExchangeID:   id,
		Kind:         KindRequest,
		ProtocolName: protocolName,
		MessageType:  messageType,
		Payload:      payload,
	}

	ectx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.runner.sendPacket(ectx, req, recipient); err != nil {
		s.runner.pending.cancel(id)
		m.exchangesErr.Add(1)
		return zero, &TransportError{Op: "exchange", Err: err}
	}

	rsp, err := s.runner.pending.await(ectx, id, ch)
	if err != nil {
		m.exchangesErr.Add(1)
		if te, ok := err.(*TransportError); ok {
			return zero, te
		}
		return zero, &Timeout{ExchangeID: id, Timeout: timeout.String()}
	}

	var out T
	if err := s.runner.codec.DecodePayload(rsp.Payload, &out); err != nil {
		m.exchangesErr.Add(1)
		return zero, &PayloadDecodeError{Err: err}
	}
	return out, nil
}
