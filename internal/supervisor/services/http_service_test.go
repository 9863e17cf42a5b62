// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown unless failWith is set.
type fakeServer struct {
	failWith    error
	shutdownErr error

	listens   atomic.Int32
	shutdowns atomic.Int32
	started   chan struct{}
	release   chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.failWith != nil {
		return f.failWith
	}
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.release)
	}
	return f.shutdownErr
}

func (f *fakeServer) awaitStart(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe was not called")
	}
}

func TestNewHTTPServerService_Timeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{15 * time.Second, 15 * time.Second},
		{0, 10 * time.Second},
		{-time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		svc := NewHTTPServerService(newFakeServer(), tt.in)
		if svc.shutdownTimeout != tt.want {
			t.Errorf("NewHTTPServerService(%v).shutdownTimeout = %v, want %v", tt.in, svc.shutdownTimeout, tt.want)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}

func TestHTTPServerService_CancelShutsDown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		shutdownErr error
	}{
		{"clean shutdown", nil},
		{"shutdown failure surfaces", errors.New("deadline exceeded draining connections")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newFakeServer()
			srv.shutdownErr = tt.shutdownErr
			svc := NewHTTPServerService(srv, time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			srv.awaitStart(t)
			cancel()

			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return after cancel")
			}

			want := context.Canceled
			if tt.shutdownErr != nil {
				want = tt.shutdownErr
			}
			if !errors.Is(err, want) {
				t.Errorf("Serve() error = %v, want %v", err, want)
			}
			if n := srv.shutdowns.Load(); n != 1 {
				t.Errorf("Shutdown calls = %d, want 1", n)
			}
		})
	}
}

func TestHTTPServerService_ListenError(t *testing.T) {
	t.Parallel()
	bindErr := errors.New("listen tcp :8480: bind: address already in use")
	srv := newFakeServer()
	srv.failWith = bindErr

	err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Errorf("Serve() error = %v, want %v", err, bindErr)
	}
	if n := srv.shutdowns.Load(); n != 0 {
		t.Errorf("Shutdown calls = %d, want 0", n)
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	t.Parallel()
	srv := newFakeServer()
	sup := suture.New("api-test", suture.Spec{
		FailureBackoff: 10 * time.Millisecond,
		Timeout:        2 * time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := sup.ServeBackground(ctx)

	srv.awaitStart(t)
	cancel()
	<-stopped

	if srv.listens.Load() != 1 || srv.shutdowns.Load() != 1 {
		t.Errorf("listens = %d, shutdowns = %d, want 1 and 1", srv.listens.Load(), srv.shutdowns.Load())
	}
}

func TestHTTPServerService_WaitFor(t *testing.T) {
	t.Parallel()

	t.Run("listens after processor is running", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer()
		running := make(chan struct{})
		svc := NewHTTPServerService(srv, time.Second).WaitFor(running)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		select {
		case <-srv.started:
			t.Fatal("listening before the processor is running")
		case <-time.After(50 * time.Millisecond):
		}

		close(running)
		srv.awaitStart(t)

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	})

	t.Run("canceled before ready never listens", func(t *testing.T) {
		t.Parallel()
		srv := newFakeServer()
		svc := NewHTTPServerService(srv, time.Second).WaitFor(make(chan struct{}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
		if srv.listens.Load() != 0 || srv.shutdowns.Load() != 0 {
			t.Errorf("listens = %d, shutdowns = %d, want 0 and 0", srv.listens.Load(), srv.shutdowns.Load())
		}
	})
}
