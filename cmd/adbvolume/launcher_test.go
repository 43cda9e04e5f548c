//go:build unix

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExecLauncher_DoesNotWaitForChild(t *testing.T) {
	sh := "/bin/sh"
	if _, err := os.Stat(sh); err != nil {
		t.Skipf("%s not available: %v", sh, err)
	}

	start := time.Now()
	if err := (ExecLauncher{}).Spawn(context.Background(), sh, []string{"-c", "sleep 3"}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Spawn blocked for %v; it must not wait for the child", elapsed)
	}
}

func TestExecLauncher_ChildOutputIsDiscarded(t *testing.T) {
	sh := "/bin/sh"
	if _, err := os.Stat(sh); err != nil {
		t.Skipf("%s not available: %v", sh, err)
	}

	// Writes to both streams must not fail the child.
	marker := filepath.Join(t.TempDir(), "done")
	script := "echo noise; echo noise >&2; touch " + marker
	if err := (ExecLauncher{}).Spawn(context.Background(), sh, []string{"-c", script}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	waitUntil(t, 3*time.Second, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, "child did not run to completion")
}

func TestExecLauncher_ChildStdinIsEmpty(t *testing.T) {
	sh := "/bin/sh"
	if _, err := os.Stat(sh); err != nil {
		t.Skipf("%s not available: %v", sh, err)
	}

	// cat returns at once on an empty stdin; a blocked read never reaches touch.
	marker := filepath.Join(t.TempDir(), "eof")
	script := "cat >/dev/null; touch " + marker
	if err := (ExecLauncher{}).Spawn(context.Background(), sh, []string{"-c", script}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	waitUntil(t, 3*time.Second, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, "child stdin was not at EOF")
}

func TestExecLauncher_MissingExecutable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-adb")
	if err := (ExecLauncher{}).Spawn(context.Background(), missing, []string{"shell"}); err == nil {
		t.Fatalf("expected error spawning %s", missing)
	}
}

func TestExecLauncher_EmptyPath(t *testing.T) {
	if err := (ExecLauncher{}).Spawn(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestExecLauncher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (ExecLauncher{}).Spawn(ctx, "/bin/sh", []string{"-c", "true"}); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestController_MissingBridgeKeepsRunning(t *testing.T) {
	bridge := testBridge()
	bridge.Path = filepath.Join(t.TempDir(), "adb")
	ctl := NewController(NewGate(30*time.Millisecond), NewDispatcher(bridge, ExecLauncher{}), newFakeClock(), testLogger())

	out := ctl.Press(context.Background(), Press{Direction: DirectionUp})
	if !out.Accepted {
		t.Fatalf("press should be accepted even though the bridge is missing")
	}
}
