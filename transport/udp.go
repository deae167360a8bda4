// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package transport

import (
	"context"
	"net"
	"sync"
	"time"
)

// These constants are the default values of the tunable knobs named in
// spec §6. They are not enforced by this reference transport's
// Send/Receive path — a real reliable-UDP transport (out of scope for this
// module, per spec §1) would use them to drive retransmission and flow
// control — but they are kept here as the default values any such
// transport layered under [UDP] should honor.
const (
	DefaultRetransmitTimeoutMS   = 15000
	DefaultFlowControlIntervalMS = 100
	DefaultWindowSizeBytes       = 1400
)

// UDP is a [Provider] backed by a net.UDPConn. It is the reference
// implementation of "the unreliable-but-reliable-delivery datagram
// provider" described by spec §1: this module supplies only the plain UDP
// socket plumbing, not retransmission or flow control, which spec §1 treats
// as an external collaborator's responsibility.
type UDP struct {
	mu   sync.Mutex
	conn *net.UDPConn

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Provider = (*UDP)(nil)

// Bind implements [Provider].
func (u *UDP) Bind(ctx context.Context, addr string) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return &BindConflict{Addr: addr, Err: err}
	}
	conn, err := net.ListenUDP("udp", raddr)
	if err != nil {
		return &BindConflict{Addr: addr, Err: err}
	}
	u.mu.Lock()
	u.conn = conn
	u.closed = make(chan struct{})
	u.mu.Unlock()
	return nil
}

// LocalAddr implements [Provider].
func (u *UDP) LocalAddr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Send implements [Provider].
func (u *UDP) Send(ctx context.Context, payload []byte, recipient net.Addr) error {
	u.mu.Lock()
	conn, closed := u.conn, u.closed
	u.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	select {
	case <-closed:
		return ErrClosed
	default:
	}
	udpAddr, ok := recipient.(*net.UDPAddr)
	if !ok {
		resolved, err := net.ResolveUDPAddr("udp", recipient.String())
		if err != nil {
			return err
		}
		udpAddr = resolved
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(dl)
		defer conn.SetWriteDeadline(time.Time{})
	}
	_, err := conn.WriteToUDP(payload, udpAddr)
	return err
}

// Receive implements [Provider]. It honors ctx cancellation even when ctx
// carries no deadline of its own: a watcher goroutine arms an immediate
// read deadline the moment ctx ends, unblocking ReadFromUDP the same way
// [Memory.Receive] unblocks on its own closed/ctx.Done() select.
func (u *UDP) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return nil, nil, ErrClosed
	}

	if dl, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(dl)
	}
	defer conn.SetReadDeadline(time.Time{})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	buf := make([]byte, 64*1024)
	n, from, err := conn.ReadFromUDP(buf)
	if err != nil {
		select {
		case <-u.closed:
			return nil, nil, ErrClosed
		default:
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	return buf[:n], from, nil
}

// Run implements [Provider]. The kernel UDP stack does its own I/O pumping,
// so Run has nothing to drive; it blocks until ctx ends or the provider is
// closed, as a cooperative yield point.
func (u *UDP) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-u.closed:
		return nil
	}
}

// Close implements [Provider].
func (u *UDP) Close() error {
	var err error
	u.closeOnce.Do(func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.closed != nil {
			close(u.closed)
		}
		if u.conn != nil {
			err = u.conn.Close()
		}
	})
	return err
}
