// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package codec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prodigy-go/prodigy/codec"
)

// Packet equality (property 4, spec §8): decode(encode(p)) == p for all
// well-formed packets.
func TestWireRoundTrip(t *testing.T) {
	tests := []*codec.Packet{
		{ExchangeID: 0, Kind: 1, ProtocolName: "", MessageType: "", Payload: nil},
		{ExchangeID: 1, Kind: 1, ProtocolName: "chat", MessageType: "say", Payload: []byte("hello")},
		{ExchangeID: 0xFFFFFFFFFFFFFFFF, Kind: 2, ProtocolName: "P", MessageType: "echo", Payload: []byte{0x01, 0x02, 0x03}},
		{ExchangeID: 42, Kind: 1, ProtocolName: "room", MessageType: "join", Payload: make([]byte, 4096)},
	}

	var w codec.Wire
	for _, p := range tests {
		data, err := w.EncodePacket(p)
		if err != nil {
			t.Fatalf("EncodePacket(%+v): %v", p, err)
		}
		got, err := w.DecodePacket(data)
		if err != nil {
			t.Fatalf("DecodePacket: %v", err)
		}
		if diff := cmp.Diff(got, p); diff != "" {
			t.Errorf("round trip (-got, +want):\n%s", diff)
		}
	}
}

func TestDecodePacketMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{'P', 'D', 1}},
		{"bad magic", []byte{'X', 'X', 1, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	var w codec.Wire
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := w.DecodePacket(tc.data); err == nil {
				t.Error("DecodePacket: got nil error, want *FormatError")
			} else if _, ok := err.(*codec.FormatError); !ok {
				t.Errorf("DecodePacket: got %T, want *codec.FormatError", err)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	var w codec.Wire

	data, err := w.EncodePayload([]byte("raw bytes"))
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var out []byte
	if err := w.DecodePayload(data, &out); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if string(out) != "raw bytes" {
		t.Errorf("DecodePayload = %q, want %q", out, "raw bytes")
	}

	data, err = w.EncodePayload("a string")
	if err != nil {
		t.Fatalf("EncodePayload(string): %v", err)
	}
	var s string
	if err := w.DecodePayload(data, &s); err != nil {
		t.Fatalf("DecodePayload(string): %v", err)
	}
	if s != "a string" {
		t.Errorf("DecodePayload(string) = %q, want %q", s, "a string")
	}
}

func TestEncodePayloadRejectsUnsupportedType(t *testing.T) {
	var w codec.Wire
	if _, err := w.EncodePayload(42); err == nil {
		t.Error("EncodePayload(int): got nil error, want one")
	}
}

func TestEncodePacketRejectsOversizeNames(t *testing.T) {
	var w codec.Wire
	long := make([]byte, 1<<17)
	for i := range long {
		long[i] = 'a'
	}
	p := &codec.Packet{ProtocolName: string(long)}
	if _, err := w.EncodePacket(p); err == nil {
		t.Error("EncodePacket with oversize protocol name: got nil error, want one")
	}
}
