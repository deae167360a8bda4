// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"errors"
	"fmt"
)

// errRunnerClosed is wrapped by TransportError when an Exchange's pending
// slot is torn down because its Runner shut down before a response arrived.
var errRunnerClosed = errors.New("prodigy: runner closed")

// errRunnerNotBound is reported by sendPacket when the Runner has no bound
// provider, for example when a Sender obtained from a Runner that was never
// bound is used to Send or Exchange.
var errRunnerNotBound = errors.New("prodigy: runner has no bound transport")

// Timeout is reported by [Exchange] when no matching response
// arrives before the exchange's deadline.
type Timeout struct {
	ExchangeID ExchangeID
	Timeout    string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("exchange %d: timed out after %s", e.ExchangeID, e.Timeout)
}

// AlreadyResponded is reported by [Request.Respond] when called more than
// once for the same inbound request.
type AlreadyResponded struct {
	ExchangeID ExchangeID
}

func (e *AlreadyResponded) Error() string {
	return fmt.Sprintf("exchange %d: already responded", e.ExchangeID)
}

// PayloadDecodeError is reported when a payload cannot be decoded as the
// type requested by the caller or handler.
type PayloadDecodeError struct {
	Err error
}

func (e *PayloadDecodeError) Error() string { return fmt.Sprintf("decode payload: %v", e.Err) }
func (e *PayloadDecodeError) Unwrap() error  { return e.Err }

// TransportError wraps an error reported by the underlying
// [transport.Provider] while sending or binding.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error  { return e.Err }

// InvalidState is reported when a [Runner] method is called in a state that
// does not permit it, for example calling Run before Bind, or Bind twice.
type InvalidState struct {
	Op    string
	State RunnerState
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("prodigy: invalid state for %s: %v", e.Op, e.State)
}

// malformedPacket wraps an error from decoding a datagram as a Packet. The
// dispatch loop does not construct it: on a decode failure the loop logs the
// codec's own error at debug and drops the datagram.
type malformedPacket struct{ Err error }

func (e *malformedPacket) Error() string { return fmt.Sprintf("malformed packet: %v", e.Err) }
func (e *malformedPacket) Unwrap() error  { return e.Err }
