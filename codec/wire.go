// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package codec

import (
	"encoding/binary"
	"fmt"
)

// Wire is the reference [Codec] implementation. Its layout follows the
// teacher's root packet format (a short magic/version header followed by
// fixed-width fields), generalized from a single numeric method ID to the
// two string fields (protocol name, message type) this spec routes on:
//
//	"PD" magic (2 bytes)
//	kind (1 byte)
//	exchange id (8 bytes, big-endian)
//	protocol name length (2 bytes) + protocol name
//	message type length (2 bytes) + message type
//	payload length (4 bytes) + payload
//
// Payloads are marshaled with [EncodeValue] / [DecodeValue], which follow
// the encoding.BinaryMarshaler/TextMarshaler convention used by
// github.com/creachadair/chirp's handler package, so typed Go values can
// cross the wire without a reflection-based codec.
type Wire struct{}

const wireMagic = "PD"

// EncodePacket implements [Codec].
func (Wire) EncodePacket(p *Packet) ([]byte, error) {
	if len(p.ProtocolName) > 0xFFFF || len(p.MessageType) > 0xFFFF {
		return nil, fmt.Errorf("codec: protocol/message name too long")
	}
	size := 2 + 1 + 8 + 2 + len(p.ProtocolName) + 2 + len(p.MessageType) + 4 + len(p.Payload)
	buf := make([]byte, size)
	n := copy(buf, wireMagic)
	buf[n] = p.Kind
	n++
	binary.BigEndian.PutUint64(buf[n:], p.ExchangeID)
	n += 8
	n += putString(buf[n:], p.ProtocolName)
	n += putString(buf[n:], p.MessageType)
	binary.BigEndian.PutUint32(buf[n:], uint32(len(p.Payload)))
	n += 4
	copy(buf[n:], p.Payload)
	return buf, nil
}

func putString(buf []byte, s string) int {
	binary.BigEndian.PutUint16(buf, uint16(len(s)))
	copy(buf[2:], s)
	return 2 + len(s)
}

// DecodePacket implements [Codec].
func (Wire) DecodePacket(data []byte) (*Packet, error) {
	if len(data) < len(wireMagic)+1+8 {
		return nil, &FormatError{Reason: "short header"}
	}
	if string(data[:2]) != wireMagic {
		return nil, &FormatError{Reason: fmt.Sprintf("bad magic %q", data[:2])}
	}
	pos := 2
	kind := data[pos]
	pos++
	exID := binary.BigEndian.Uint64(data[pos:])
	pos += 8

	protoName, pos, err := getString(data, pos)
	if err != nil {
		return nil, err
	}
	msgType, pos, err := getString(data, pos)
	if err != nil {
		return nil, err
	}
	if pos+4 > len(data) {
		return nil, &FormatError{Reason: "short payload length"}
	}
	plen := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4
	if pos+plen != len(data) {
		return nil, &FormatError{Reason: "payload length mismatch"}
	}
	var payload []byte
	if plen > 0 {
		payload = make([]byte, plen)
		copy(payload, data[pos:])
	}
	return &Packet{
		ExchangeID:   exID,
		Kind:         kind,
		ProtocolName: protoName,
		MessageType:  msgType,
		Payload:      payload,
	}, nil
}

func getString(data []byte, pos int) (string, int, error) {
	if pos+2 > len(data) {
		return "", pos, &FormatError{Reason: "short string length"}
	}
	slen := int(binary.BigEndian.Uint16(data[pos:]))
	pos += 2
	if pos+slen > len(data) {
		return "", pos, &FormatError{Reason: "short string body"}
	}
	s := string(data[pos : pos+slen])
	return s, pos + slen, nil
}

// EncodePayload implements [Codec] using [EncodeValue].
func (Wire) EncodePayload(v any) ([]byte, error) { return EncodeValue(v) }

// DecodePayload implements [Codec] using [DecodeValue].
func (Wire) DecodePayload(data []byte, out any) error { return DecodeValue(data, out) }
