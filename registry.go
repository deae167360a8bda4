// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"context"
	"sync"
)

// Handler processes an inbound request. A handler may use the Sender to
// send further messages or exchanges to any peer — including back to the
// caller — while it runs; it is always invoked from its own goroutine, so a
// handler that itself calls Exchange will not deadlock the dispatch loop.
//
// If a handler returns a nil error and has not called Request.Respond
// itself, the Runner sends its returned bytes as the response. A non-nil
// error is logged by the Runner and no response is sent, so a caller's
// Exchange times out. There is no requirement that a handler call
// Request.Respond at all.
type Handler func(ctx context.Context, req *Request, sender *Sender) ([]byte, error)

// Protocol is an immutable, named bundle of message handlers. Protocols are
// built with [NewProtocol] and are read-only once constructed.
type Protocol struct {
	name     string
	handlers map[string]Handler
}

// Name returns the protocol's name.
func (p *Protocol) Name() string { return p.name }

// Handler returns the handler registered for messageType, or nil.
func (p *Protocol) Handler(messageType string) Handler { return p.handlers[messageType] }

// Registry maps protocol names to protocol descriptors. Registrations occur
// via Register; lookups happen concurrently from the dispatch loop and from
// any handler goroutine, and must observe a consistent snapshot of whatever
// was registered before the lookup began.
type Registry struct {
	mu        sync.RWMutex
	protocols map[string]*Protocol
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{protocols: make(map[string]*Protocol)}
}

// Register inserts protocol under its name. A protocol already registered
// under that name is replaced — registration is idempotent and "last writer
// wins", per spec §4.3; at most one protocol descriptor is kept per name.
func (r *Registry) Register(p *Protocol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protocols[p.name] = p
}

// Lookup returns the handler registered for (protocolName, messageType), or
// nil if either the protocol or the message type is unknown.
func (r *Registry) Lookup(protocolName, messageType string) Handler {
	r.mu.RLock()
	p, ok := r.protocols[protocolName]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.Handler(messageType)
}

// Protocol returns the protocol registered under name, and whether it was found.
func (r *Registry) Protocol(name string) (*Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.protocols[name]
	return p, ok
}
