// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

// ProtocolBuilder is a declarative surface for authoring a [Protocol]: a
// chain of Handle calls followed by Build, in the same method-chaining
// idiom used throughout this package for configuration (see Runner's
// With* methods).
//
// Handle panics if the same message type is added twice — duplicate
// handlers within a single protocol are a construction-time programming
// error, unlike duplicate protocol names in a [Registry], which are
// expected to be overwritten freely.
type ProtocolBuilder struct {
	name     string
	handlers map[string]Handler
}

// NewProtocol starts building a protocol named name.
func NewProtocol(name string) *ProtocolBuilder {
	return &ProtocolBuilder{name: name, handlers: make(map[string]Handler)}
}

// Handle adds a handler for messageType and returns the builder so calls
// may be chained.
func (b *ProtocolBuilder) Handle(messageType string, h Handler) *ProtocolBuilder {
	if _, dup := b.handlers[messageType]; dup {
		panic("prodigy: duplicate message type " + messageType + " in protocol " + b.name)
	}
	b.handlers[messageType] = h
	return b
}

// Build returns the finished, read-only protocol descriptor.
func (b *ProtocolBuilder) Build() *Protocol {
	handlers := make(map[string]Handler, len(b.handlers))
	for k, v := range b.handlers {
		handlers[k] = v
	}
	return &Protocol{name: b.name, handlers: handlers}
}
