// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package handler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prodigy-go/prodigy"
	"github.com/prodigy-go/prodigy/handler"
	"github.com/prodigy-go/prodigy/runnerpair"
	"github.com/prodigy-go/prodigy/transport"
)

// check builds a protocol around h, wires it into a fresh pair of
// connected runners, and asserts that an exchange against it returns want.
func check(t *testing.T, want string, h prodigy.Handler) {
	t.Helper()
	ctx := context.Background()

	reg := prodigy.NewRegistry()
	reg.Register(prodigy.NewProtocol("p").Handle("m", h).Build())

	pair, err := runnerpair.NewLocal(ctx, reg, prodigy.NewRegistry())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer pair.Stop()

	out, err := prodigy.Exchange[string](ctx, pair.B.Sender(), "p", "m", transport.Addr(pair.AAddr), "input", 0)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if out != want {
		t.Errorf("Exchange result: got %q, want %q", out, want)
	}
}

// captureRequest seeds a fresh runner pair with a handler that stashes the
// *prodigy.Request it receives, so other adapters can be unit-tested
// directly against a Request bound to a real Runner's codec without
// needing a further wire round trip.
func captureRequest(t *testing.T) *prodigy.Request {
	t.Helper()
	ctx := context.Background()

	var captured *prodigy.Request
	done := make(chan struct{})
	h := prodigy.Handler(func(ctx context.Context, req *prodigy.Request, s *prodigy.Sender) ([]byte, error) {
		captured = req
		close(done)
		return nil, nil
	})

	reg := prodigy.NewRegistry()
	reg.Register(prodigy.NewProtocol("p").Handle("m", h).Build())

	pair, err := runnerpair.NewLocal(ctx, reg, prodigy.NewRegistry())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	t.Cleanup(func() { pair.Stop() })

	if err := pair.B.Sender().Send(ctx, "p", "m", transport.Addr(pair.AAddr), "seed"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-done
	return captured
}

func TestParamResultError(t *testing.T) {
	check(t, "input-ok", handler.ParamResultError(
		func(ctx context.Context, s string) (string, error) { return s + "-ok", nil },
	))
}

func TestParamResultErrorPropagatesFailure(t *testing.T) {
	wantErr := errors.New("boom")
	h := handler.ParamResultError(func(ctx context.Context, s string) (string, error) {
		return "", wantErr
	})
	out, err := h(context.Background(), captureRequest(t), nil)
	if err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if out != nil {
		t.Errorf("result = %q, want nil", out)
	}
}

func TestParamResult(t *testing.T) {
	check(t, "input-ok", handler.ParamResult(
		func(ctx context.Context, s string) string { return s + "-ok" },
	))
}

func TestParamError(t *testing.T) {
	var gotP string
	done := make(chan struct{})
	h := handler.ParamError(func(ctx context.Context, s string) error {
		gotP = s
		close(done)
		return nil
	})

	ctx := context.Background()
	reg := prodigy.NewRegistry()
	reg.Register(prodigy.NewProtocol("p").Handle("m", h).Build())

	pair, err := runnerpair.NewLocal(ctx, reg, prodigy.NewRegistry())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer pair.Stop()

	if err := pair.B.Sender().Send(ctx, "p", "m", transport.Addr(pair.AAddr), "ping"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-done
	if gotP != "ping" {
		t.Errorf("param = %q, want %q", gotP, "ping")
	}
}

func TestResultError(t *testing.T) {
	check(t, "pong", handler.ResultError(
		func(ctx context.Context) (string, error) { return "pong", nil },
	))
}

func TestResultErrorPropagatesFailure(t *testing.T) {
	wantErr := errors.New("nope")
	h := handler.ResultError(func(ctx context.Context) (string, error) { return "", wantErr })
	out, err := h(context.Background(), captureRequest(t), nil)
	if err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if out != nil {
		t.Errorf("result = %q, want nil", out)
	}
}
