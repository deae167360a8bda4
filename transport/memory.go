// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// memAddr is the net.Addr implementation used by [Memory] providers.
type memAddr string

func (a memAddr) Network() string { return "memory" }
func (a memAddr) String() string  { return string(a) }

// Addr returns the net.Addr a [Memory] provider bound to addr is reachable
// at, for use as the recipient argument to Sender.Send/Exchange.
func Addr(addr string) net.Addr { return memAddr(addr) }

// Hub is an in-process switch connecting any number of [Memory] providers
// by address, the way github.com/creachadair/chirp/channel.Direct connects
// exactly two peers, generalized to the many-peer datagram model this
// package's core requires.
type Hub struct {
	mu   sync.Mutex
	subs map[memAddr]chan datagram
}

type datagram struct {
	payload []byte
	from    net.Addr
}

// NewHub creates an empty hub.
func NewHub() *Hub { return &Hub{subs: make(map[memAddr]chan datagram)} }

// NewProvider returns a new, unbound [Memory] provider attached to h.
func (h *Hub) NewProvider() *Memory { return &Memory{hub: h} }

// Memory is an in-memory [Provider] implementation. Two or more Memory
// providers sharing a [Hub] can address each other by the strings passed to
// Bind; no encoding occurs, since packets are handed directly by reference,
// mirroring chirp/channel.Direct's "no encoding" in-memory channel.
type Memory struct {
	hub   *Hub
	addr  memAddr
	inbox chan datagram

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Provider = (*Memory)(nil)

// Bind implements [Provider].
func (m *Memory) Bind(ctx context.Context, addr string) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	a := memAddr(addr)
	if _, taken := m.hub.subs[a]; taken {
		return &BindConflict{Addr: addr, Err: fmt.Errorf("address already bound")}
	}
	m.addr = a
	m.inbox = make(chan datagram, 64)
	m.closed = make(chan struct{})
	m.hub.subs[a] = m.inbox
	return nil
}

// LocalAddr implements [Provider].
func (m *Memory) LocalAddr() net.Addr {
	if m.addr == "" {
		return nil
	}
	return m.addr
}

// Send implements [Provider]. A datagram to an address with no bound
// provider is silently dropped, the way a real UDP send can succeed with
// nobody listening on the other end.
func (m *Memory) Send(ctx context.Context, payload []byte, recipient net.Addr) error {
	select {
	case <-m.closed:
		return ErrClosed
	default:
	}
	m.hub.mu.Lock()
	ch, ok := m.hub.subs[memAddr(recipient.String())]
	m.hub.mu.Unlock()
	if !ok {
		return nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	select {
	case ch <- datagram{payload: cp, from: m.addr}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrClosed
	}
}

// Receive implements [Provider].
func (m *Memory) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case d := <-m.inbox:
		return d.payload, d.from, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-m.closed:
		return nil, nil, ErrClosed
	}
}

// Run implements [Provider]. A Memory provider has no background I/O pump
// to drive; Run simply blocks until ctx ends or the provider closes.
func (m *Memory) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-m.closed:
		return nil
	}
}

// Close implements [Provider].
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		if m.closed != nil {
			close(m.closed)
		}
		m.hub.mu.Lock()
		delete(m.hub.subs, m.addr)
		m.hub.mu.Unlock()
	})
	return nil
}
