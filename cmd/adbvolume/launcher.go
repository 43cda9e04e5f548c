package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Launcher starts external processes without waiting for them.
type Launcher interface {
	// Spawn starts name with args as a detached child. It returns once the
	// process has been created; it never waits for the child to exit.
	Spawn(ctx context.Context, name string, args []string) error
}

// ExecLauncher is the os/exec backed Launcher.
//
// The child gets an empty stdin, stdout/stderr on the null device, no
// console window, and a raised scheduling priority. Platform details live in
// launcher_windows.go and launcher_unix.go.
type ExecLauncher struct{}

// Spawn implements Launcher.
func (ExecLauncher) Spawn(ctx context.Context, name string, args []string) error {
	if name == "" {
		return fmt.Errorf("spawn: empty executable path")
	}

	sink, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open discard sink: %w", err)
	}
	// The child holds its own copy once started.
	defer sink.Close()

	// Not exec.CommandContext: the child must outlive ctx.
	cmd := exec.Command(name, args...)
	cmd.Stdout = sink
	cmd.Stderr = sink
	configureDetached(cmd)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("spawn %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", name, err)
	}

	raisePriority(cmd.Process)
	release(cmd)
	return nil
}
