// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

// Package transport defines the datagram endpoint contract a prodigy Runner
// depends on ([Provider]), and ships two implementations: [UDP], a thin
// net.UDPConn-backed reference transport, and [Memory], an in-process
// provider whose instances reach each other through a shared [Hub], used by
// this module's own tests. Neither implementation is part of the dispatch
// engine's contract — any Provider satisfying the interface below works,
// the way chirp's peers depend only on its Channel interface rather than
// any one transport.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Provider is the capability set a prodigy Runner needs from a transport:
// bind a local endpoint, send and receive datagrams, drive internal I/O
// progress, and release resources. Implementations make no promise of
// delivery or ordering beyond what they individually document.
type Provider interface {
	// Bind claims a local endpoint at addr. It is called at most once.
	Bind(ctx context.Context, addr string) error

	// Send hands payload to the transport for delivery to recipient. It may
	// block until the transport accepts the datagram, not until the peer
	// acknowledges it.
	Send(ctx context.Context, payload []byte, recipient net.Addr) error

	// Receive produces the next inbound datagram, blocking until one
	// arrives, the provider is closed, or ctx ends.
	Receive(ctx context.Context) (payload []byte, sender net.Addr, err error)

	// Run drives internal I/O progress. It blocks cooperatively until ctx
	// ends or the provider is closed, and must be safe to call concurrently
	// with Send/Receive.
	Run(ctx context.Context) error

	// Close releases resources and unblocks any pending Send/Receive/Run.
	// Close is idempotent.
	Close() error

	// LocalAddr reports the address bound by Bind, or nil if unbound.
	LocalAddr() net.Addr
}

// BindConflict is reported by Bind when addr is already in use.
type BindConflict struct {
	Addr string
	Err  error
}

func (e *BindConflict) Error() string { return fmt.Sprintf("bind %q: %v", e.Addr, e.Err) }
func (e *BindConflict) Unwrap() error  { return e.Err }

// ErrClosed is returned by Send/Receive after Close has completed. Run
// returns nil when the provider is closed.
var ErrClosed = errors.New("transport: closed")
