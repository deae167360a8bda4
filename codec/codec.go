// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

// Package codec defines the (de)serialization contract used by prodigy
// Runners, and provides a reference binary implementation.
//
// The wire format is not part of the prodigy core contract — any Codec is
// acceptable provided DecodePacket(EncodePacket(p)) reproduces p's fields
// exactly. [Wire] is the format shipped by this package, built the way
// github.com/creachadair/chirp's packet subpackage builds binary framing: a
// Builder accumulates length-prefixed fields, a Scanner consumes them back.
package codec

// Packet mirrors the fields of prodigy.Packet. The codec package does not
// import the root package — it would create an import cycle, since the
// root package accepts a Codec — so callers adapt between the two with a
// one-line conversion (see prodigy.Runner's use of Codec).
type Packet struct {
	ExchangeID   uint64
	Kind         byte
	ProtocolName string
	MessageType  string
	Payload      []byte
}

// FormatError signals that a byte string could not be decoded as a valid
// Packet. The dispatch loop catches this, logs it at debug level, and drops
// the datagram; it never reaches application code.
type FormatError struct{ Reason string }

func (e *FormatError) Error() string { return "codec: malformed packet: " + e.Reason }

// Codec is the (de)serialization capability required by a prodigy Runner.
type Codec interface {
	// EncodePacket serializes p to its wire representation.
	EncodePacket(p *Packet) ([]byte, error)
	// DecodePacket parses a wire representation back into a Packet. It
	// returns a *FormatError if data is not a well-formed encoding.
	DecodePacket(data []byte) (*Packet, error)
	// EncodePayload serializes an arbitrary payload value to bytes, for use
	// inside Exchange, Sender.Send and Request.Respond.
	EncodePayload(v any) ([]byte, error)
	// DecodePayload deserializes data into out, which must be a pointer.
	DecodePayload(data []byte, out any) error
}
