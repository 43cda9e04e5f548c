package main

import (
	"context"
	"log/slog"
)

// ============================================================================
// Event loop
// ============================================================================
//
// runLoop is the single owner of the Controller for the non-window shells.
// Producers (panel websocket readers, the evdev reader, IPC connections) only
// send Presses on a channel; every gate check and spawn happens here, one
// press at a time, in arrival order.
//
// Shutdown semantics:
//   - Returns when ctx is canceled
//   - Returns when the presses channel is closed
//
// ============================================================================

func runLoop(
	ctx context.Context,
	presses <-chan Press,
	ctl *Controller,
	onOutcome func(Outcome),
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("event loop stopping (context canceled)")
			return

		case p, ok := <-presses:
			if !ok {
				logger.Debug("event loop stopping (presses channel closed)")
				return
			}
			out := ctl.Press(ctx, p)
			if onOutcome != nil {
				onOutcome(out)
			}
		}
	}
}
