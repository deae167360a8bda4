// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import (
	"context"
	"sync"
)

// pendingTable is the correlation map from exchange ID to a one-shot
// delivery slot, matching the shape of the teacher's Peer.ocall map (a
// mutex-guarded map of buffered channels), generalized to 64-bit random IDs
// with collision detection on reserve (spec §4.4).
type pendingTable struct {
	mu   sync.Mutex
	slot map[ExchangeID]chan *Packet
}

func newPendingTable() *pendingTable {
	return &pendingTable{slot: make(map[ExchangeID]chan *Packet)}
}

// reserveErr is returned by reserve when id is already pending; it signals
// an exchange-ID generator collision, which spec §4.4 treats as a
// programming error rather than a normal runtime condition.
type reserveErr struct{ id ExchangeID }

func (e *reserveErr) Error() string {
	return "pending table: exchange id already reserved (generator collision)"
}

// reserve creates a one-shot slot for id before any datagram is sent, so a
// response racing the send cannot be lost (spec §4.4 step 1).
func (t *pendingTable) reserve(id ExchangeID) (chan *Packet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.slot[id]; exists {
		return nil, &reserveErr{id: id}
	}
	ch := make(chan *Packet, 1)
	t.slot[id] = ch
	return ch, nil
}

// deliver fulfills the slot for id if present, and is a silent no-op
// otherwise — covering both unknown exchange IDs and late replies that
// arrive after the caller already timed out or cancelled (spec §4.4 step
//2, §4.9).
func (t *pendingTable) deliver(pkt *Packet) (delivered bool) {
	t.mu.Lock()
	ch, ok := t.slot[pkt.ExchangeID]
	if ok {
		delete(t.slot, pkt.ExchangeID)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- pkt
	return true
}

// cancel removes id's slot without delivering to it. A deliver that races a
// cancel and loses becomes a no-op drop, per spec §4.4's tie-break rule.
func (t *pendingTable) cancel(id ExchangeID) {
	t.mu.Lock()
	delete(t.slot, id)
	t.mu.Unlock()
}

// await blocks until id's slot is fulfilled, ctx ends, or the table is torn
// down. On any non-success path the slot is removed, so every reservation
// is resolved exactly once regardless of outcome (spec §3's no-leak
// invariant).
func (t *pendingTable) await(ctx context.Context, id ExchangeID, ch chan *Packet) (*Packet, error) {
	select {
	case pkt, ok := <-ch:
		if !ok {
			return nil, &TransportError{Op: "exchange", Err: errRunnerClosed}
		}
		return pkt, nil
	case <-ctx.Done():
		t.cancel(id)
		// The channel may have raced us to delivery; drain it without
		// blocking so a packet that arrived in the same instant as the
		// deadline is returned as a success rather than lost. A channel
		// closed by closeAll in that instant still reports an error.
		select {
		case pkt, ok := <-ch:
			if !ok {
				return nil, &TransportError{Op: "exchange", Err: errRunnerClosed}
			}
			return pkt, nil
		default:
		}
		return nil, ctx.Err()
	}
}

// len reports the number of slots currently pending. It exists to support
// the "no slot leak" property (spec §8, property 3) in tests.
func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slot)
}

// closeAll cancels every pending slot without delivering to it, used when
// the owning Runner shuts down (spec §4.7, §5's cancellation rules). Slots
// are closed (not just deleted) so any awaiter blocked without its own
// deadline wakes up with an error instead of leaking forever.
func (t *pendingTable) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.slot {
		close(ch)
		delete(t.slot, id)
	}
}
