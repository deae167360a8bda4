// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"context"
	"net"
	"sync"
)

// Request is the transient, per-invocation view handed to a handler. It is
// created by the dispatch loop, consumed by exactly one handler invocation,
// and must not be retained or shared across goroutines after the handler
// returns.
type Request struct {
	// From is the address the request was received from.
	From         net.Addr
	Payload      []byte
	ExchangeID   ExchangeID
	MessageType  string
	ProtocolName string

	mu        sync.Mutex
	responded bool
	runner    *Runner
}

// Responded reports whether Respond has already been called. It reports
// true even if that call failed to encode or send the response.
func (r *Request) Responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responded
}

// GetPayloadAs decodes the request payload into out using the Runner's
// configured codec.
func (r *Request) GetPayloadAs(out any) error {
	if err := r.runner.codec.DecodePayload(r.Payload, out); err != nil {
		return &PayloadDecodeError{Err: err}
	}
	return nil
}

// EncodeResult encodes v using the Runner's configured codec, the same
// codec GetPayloadAs decodes with. It is the counterpart adapters (see the
// handler subpackage) use to build a response body without reaching past
// the Request for a hardcoded wire format.
func (r *Request) EncodeResult(v any) ([]byte, error) {
	data, err := r.runner.codec.EncodePayload(v)
	if err != nil {
		return nil, &PayloadDecodeError{Err: err}
	}
	return data, nil
}

// Respond encodes body and sends it back to the original sender as a
// response packet carrying this request's exchange ID. Calling Respond a
// second time reports [AlreadyResponded]. A handler that never calls
// Respond is permitted: the Runner then sends the handler's returned bytes
// as the response if it returned a nil error, and sends nothing if it
// returned an error, in which case the caller's Exchange (if any) will
// eventually time out.
func (r *Request) Respond(body any) error {
	r.mu.Lock()
	if r.responded {
		r.mu.Unlock()
		return &AlreadyResponded{ExchangeID: r.ExchangeID}
	}
	r.responded = true
	r.mu.Unlock()

	payload, err := r.runner.codec.EncodePayload(body)
	if err != nil {
		return &PayloadDecodeError{Err: err}
	}
	pkt := &Packet{
		ExchangeID:   r.ExchangeID,
		Kind:         KindResponse,
		ProtocolName: r.ProtocolName,
		MessageType:  r.MessageType,
		Payload:      payload,
	}
	if err := r.runner.sendPacket(context.Background(), pkt, r.From); err != nil {
		return &TransportError{Op: "respond", Err: err}
	}
	return nil
}
