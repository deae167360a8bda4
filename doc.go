// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

// Package prodigy implements a peer-to-peer protocol dispatch engine.
//
// Applications declare one or more protocols — named bundles of message
// handlers — and drive them over a pluggable datagram transport. Peers
// exchange self-describing packets; some are fire-and-forget, others follow
// a request/response exchange correlated by an exchange ID. The package
// multiplexes many concurrent exchanges over a single bound endpoint and
// dispatches inbound packets to the right protocol/message handler.
//
// # Runners
//
// The core type is [Runner]. A Runner owns exactly one [transport.Provider]
// (see the transport subpackage) and a [Registry] of protocols:
//
//	r := prodigy.NewRunner(registry)
//	if err := r.Bind(ctx, provider, "127.0.0.1:9000"); err != nil {
//	    log.Fatal(err)
//	}
//	r.Run(ctx)
//	defer r.Close()
//
// A Runner moves through the states New → Bound → Running → Closed. Calling
// a method out of order reports an [InvalidState] error.
//
// # Protocols and handlers
//
// Protocols are declared with a [ProtocolBuilder]:
//
//	echo := prodigy.NewProtocol("chat").
//	    Handle("say", func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
//	        return req.Payload, nil
//	    }).
//	    Build()
//
//	reg := prodigy.NewRegistry()
//	reg.Register(echo)
//
// # Sending and exchanging
//
// [Sender.Send] transmits a fire-and-forget request. [Exchange]
// transmits a request and suspends the calling goroutine until the matching
// response arrives or a timeout elapses:
//
//	sender := r.Sender()
//	recipient := transport.Addr("127.0.0.1:9001")
//	reply, err := prodigy.Exchange[[]byte](ctx, sender, "chat", "say", recipient, []byte("hi"), 0)
//
// # Responding
//
// Inside a handler, the [*Request] carries a one-shot [Request.Respond]
// capability. Calling it twice reports [AlreadyResponded] on the second
// call. A handler that returns a nil error without having called Respond
// has its returned bytes sent as the response; a handler that returns an
// error sends no response, in which case the caller's Exchange eventually
// times out.
package prodigy
