// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

// Package runnerpair provides support code for managing and testing a pair
// of connected prodigy Runners, the way github.com/creachadair/chirp/peers
// does for a pair of chirp Peers.
package runnerpair

import (
	"context"

	"github.com/prodigy-go/prodigy"
	"github.com/prodigy-go/prodigy/transport"
)

// Local is a pair of Runners connected over an in-memory [transport.Hub],
// suitable for tests that don't need real sockets.
type Local struct {
	A, B  *prodigy.Runner
	AAddr string
	BAddr string
}

// NewLocal binds and starts two runners, named A and B, backed by
// registries regA and regB, connected through a fresh in-memory hub.
func NewLocal(ctx context.Context, regA, regB *prodigy.Registry) (*Local, error) {
	hub := transport.NewHub()
	const addrA, addrB = "A", "B"

	a := prodigy.NewRunner(regA)
	if err := a.Bind(ctx, hub.NewProvider(), addrA); err != nil {
		return nil, err
	}
	b := prodigy.NewRunner(regB)
	if err := b.Bind(ctx, hub.NewProvider(), addrB); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.Run(ctx); err != nil {
		a.Close()
		b.Close()
		return nil, err
	}
	if err := b.Run(ctx); err != nil {
		a.Close()
		b.Close()
		return nil, err
	}

	return &Local{A: a, B: b, AAddr: addrA, BAddr: addrB}, nil
}

// Stop closes both runners and blocks until both have exited.
func (p *Local) Stop() error {
	aerr := p.A.Close()
	berr := p.B.Close()
	if aerr != nil {
		return aerr
	}
	return berr
}
