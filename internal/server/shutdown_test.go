package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"superstore-dashboard/internal/config"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestGracefulServer_RunsHooksOnCancel(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}, quiet, testServerConfig())

	var ran atomic.Int32
	for range 3 {
		gs.RegisterShutdownHook(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(3), ran.Load())
}

func TestGracefulServer_HookError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, quiet, testServerConfig())
	boom := errors.New("flush failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, gs.Run(ctx), boom)
}

func TestGracefulServer_ListenFailure(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"}, quiet, testServerConfig())

	err := gs.Run(context.Background())
	assert.ErrorContains(t, err, "server failed")
}
