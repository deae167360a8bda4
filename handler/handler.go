// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

// Package handler provides adapters from plain Go functions to the
// prodigy.Handler signature, the way github.com/creachadair/chirp's
// handler package adapts functions to chirp.Handler.
//
// Parameters may be []byte or string, or a type whose pointer implements
// encoding.BinaryUnmarshaler or encoding.TextUnmarshaler. Results follow the
// matching Marshaler convention. Decoding/encoding goes through the
// Request's own codec (req.GetPayloadAs and req.EncodeResult), so adapters
// built with this package honor whatever [prodigy.Codec] the owning Runner
// was configured with.
package handler

import (
	"context"

	"github.com/prodigy-go/prodigy"
)

// ParamResultError adapts f, a function accepting P and returning (R,
// error), to a [prodigy.Handler].
func ParamResultError[P, R any](f func(context.Context, P) (R, error)) prodigy.Handler {
	return func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
		var p P
		if err := req.GetPayloadAs(&p); err != nil {
			return nil, err
		}
		r, err := f(ctx, p)
		if err != nil {
			return nil, err
		}
		return req.EncodeResult(r)
	}
}

// ParamResult adapts f, a function accepting P and returning R without
// error, to a [prodigy.Handler].
func ParamResult[P, R any](f func(context.Context, P) R) prodigy.Handler {
	return func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
		var p P
		if err := req.GetPayloadAs(&p); err != nil {
			return nil, err
		}
		return req.EncodeResult(f(ctx, p))
	}
}

// ParamError adapts f, a function accepting P and returning only an error,
// to a [prodigy.Handler].
func ParamError[P any](f func(context.Context, P) error) prodigy.Handler {
	return func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
		var p P
		if err := req.GetPayloadAs(&p); err != nil {
			return nil, err
		}
		return nil, f(ctx, p)
	}
}

// ResultError adapts f, a function accepting no parameters and returning
// (R, error), to a [prodigy.Handler]. Useful for messages whose payload is
// ignored, like a status ping.
func ResultError[R any](f func(context.Context) (R, error)) prodigy.Handler {
	return func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
		r, err := f(ctx)
		if err != nil {
			return nil, err
		}
		return req.EncodeResult(r)
	}
}
