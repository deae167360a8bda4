// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"fmt"

	"github.com/creachadair/mds/value"
)

// ExchangeID is an opaque 64-bit correlation token. It is generated at
// send-time for every outbound request and copied verbatim into the
// matching response. Implementations draw exchange IDs from a 64-bit random
// space; a collision with an in-flight exchange is treated as a programming
// error of the generator and is detected by the pending-response table's
// reserve, not silently tolerated.
type ExchangeID uint64

// PacketKind distinguishes a request packet from a response packet.
type PacketKind byte

const (
	// KindRequest marks a packet that invokes a handler on the receiver.
	KindRequest PacketKind = 1
	// KindResponse marks a packet that completes an outstanding exchange.
	KindResponse PacketKind = 2
)

func (k PacketKind) String() string {
	switch k {
	case KindRequest:
		return "REQUEST"
	case KindResponse:
		return "RESPONSE"
	default:
		return fmt.Sprintf("KIND:%d", byte(k))
	}
}

// Packet is the self-describing record exchanged between peers.
//
// ExchangeID and Kind are routing metadata, not identity: two packets are
// considered equal — for testing purposes only, never for routing — when
// their ProtocolName, MessageType, and Payload match, regardless of
// ExchangeID or Kind. See [PacketsEqual].
type Packet struct {
	ExchangeID   ExchangeID
	Kind         PacketKind
	ProtocolName string
	MessageType  string
	Payload      []byte
}

// String returns a human-friendly rendering of the packet.
func (p *Packet) String() string {
	return fmt.Sprintf("Packet(id=%d, %v, %s/%s, %d byte payload)",
		p.ExchangeID, p.Kind, p.ProtocolName, p.MessageType, len(p.Payload))
}

// kindAbbrev renders a compact label for k, for use in the dispatch loop's
// structured debug logging (spec §4.9), where a full Kind.String() reads as
// noisy next to the rest of a log line's key/value pairs.
func kindAbbrev(k PacketKind) string {
	return value.Cond(k == KindRequest, "req", "resp")
}

// PacketsEqual reports whether a and b carry the same protocol name,
// message type, and payload. ExchangeID and Kind are deliberately excluded,
// per spec §3: implementations must not use packet equality for routing.
func PacketsEqual(a, b *Packet) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ProtocolName != b.ProtocolName || a.MessageType != b.MessageType {
		return false
	}
	if len(a.Payload) != len(b.Payload) {
		return false
	}
	for i := range a.Payload {
		if a.Payload[i] != b.Payload[i] {
			return false
		}
	}
	return true
}
