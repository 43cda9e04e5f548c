package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeShell drives a Controller the way a real shell would, then exits.
type fakeShell struct {
	run func(ctx context.Context, ctl *Controller, presses chan Press) (int, error)
}

func (s fakeShell) Run(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
	return s.run(ctx, ctl, presses)
}

func TestServe_PropagatesShellExitCode(t *testing.T) {
	shell := fakeShell{run: func(context.Context, *Controller, chan Press) (int, error) {
		return 3, nil
	}}

	cfg := DefaultConfig()
	ctl := newTestController(&recordingLauncher{}, newFakeClock())
	if code := serve(context.Background(), cfg, shell, ctl, testLogger()); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestServe_ShellErrorIsNonZero(t *testing.T) {
	shell := fakeShell{run: func(context.Context, *Controller, chan Press) (int, error) {
		return 0, errors.New("window creation failed")
	}}

	cfg := DefaultConfig()
	ctl := newTestController(&recordingLauncher{}, newFakeClock())
	if code := serve(context.Background(), cfg, shell, ctl, testLogger()); code == 0 {
		t.Fatalf("expected non-zero exit code on shell error")
	}
}

func TestServe_CancelStopsShell(t *testing.T) {
	shell := fakeShell{run: func(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
		runLoop(ctx, presses, ctl, nil, testLogger())
		return 0, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- serve(ctx, DefaultConfig(), shell, newTestController(&recordingLauncher{}, newFakeClock()), testLogger())
	}()

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestServe_IPCPressReachesShell(t *testing.T) {
	socket := shortSocketPath(t)

	cfg := DefaultConfig()
	cfg.IPC.Enabled = true
	cfg.IPC.SocketPath = socket

	launcher := &recordingLauncher{}
	shell := fakeShell{run: func(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
		select {
		case p := <-presses:
			out := ctl.Press(ctx, p)
			if !out.Accepted {
				return 1, errors.New("first press should be accepted")
			}
			return 0, nil
		case <-time.After(3 * time.Second):
			return 1, errors.New("no press received")
		}
	}}

	done := make(chan int, 1)
	go func() {
		done <- serve(context.Background(), cfg, shell, newTestController(launcher, newFakeClock()), testLogger())
	}()

	// The server starts asynchronously; retry until it accepts.
	waitUntil(t, 2*time.Second, func() bool {
		return SendIPCPress(socket, DirectionUp, 200*time.Millisecond) == nil
	}, "IPC server never accepted the press")

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return")
	}

	if len(launcher.calls) != 1 {
		t.Fatalf("expected 1 spawn, got %d", len(launcher.calls))
	}
}
