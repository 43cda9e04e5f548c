package main

import (
	"context"
	"log/slog"
)

// Dispatcher turns a Direction into a bridge invocation.
type Dispatcher struct {
	bridge   BridgeConfig
	launcher Launcher
}

func NewDispatcher(bridge BridgeConfig, launcher Launcher) *Dispatcher {
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	return &Dispatcher{bridge: bridge, launcher: launcher}
}

// Command returns the executable and arguments for dir.
func (d *Dispatcher) Command(dir Direction) (name string, args []string) {
	switch dir {
	case DirectionUp:
		args = d.bridge.UpArgs
	case DirectionDown:
		args = d.bridge.DownArgs
	}
	return d.bridge.Path, append([]string(nil), args...)
}

// Dispatch spawns the bridge for dir and returns as soon as it has started.
func (d *Dispatcher) Dispatch(ctx context.Context, dir Direction) error {
	name, args := d.Command(dir)
	return d.launcher.Spawn(ctx, name, args)
}

// Controller couples the input gate with the dispatcher. It is driven by
// exactly one goroutine (the event loop or the window thread).
type Controller struct {
	gate       *Gate
	dispatcher *Dispatcher
	clock      Clock
	logger     *slog.Logger
}

func NewController(gate *Gate, dispatcher *Dispatcher, clock Clock, logger *slog.Logger) *Controller {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gate:       gate,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

// Press runs the gate check and, if accepted, one spawn attempt.
// Spawn failures are not reported to the caller.
func (c *Controller) Press(ctx context.Context, p Press) Outcome {
	now := c.clock.Now()
	out := Outcome{Press: p, At: now}

	if !c.gate.Allow(now) {
		c.logger.Debug("press dropped", "direction", p.Direction, "source", p.Source)
		return out
	}
	out.Accepted = true

	if err := c.dispatcher.Dispatch(ctx, p.Direction); err != nil {
		c.logger.Debug("bridge spawn failed", "direction", p.Direction, "error", err)
		return out
	}
	c.logger.Debug("bridge spawned", "direction", p.Direction, "source", p.Source)
	return out
}
