package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"
)

// Shell is an input surface. Run blocks until the surface is closed or ctx
// is canceled and returns the process exit code.
//
// presses carries presses from secondary sources (IPC). A shell must route
// them through the same single owner of ctl as its own input.
type Shell interface {
	Run(ctx context.Context, ctl *Controller, presses chan Press) (int, error)
}

func newShell(cfg Config, logger *slog.Logger) (Shell, error) {
	switch cfg.Shell {
	case ShellWindow:
		return newWindowShell(cfg.Window, logger), nil
	case ShellPanel:
		return &panelShell{cfg: cfg.Panel, title: cfg.Window.Title, logger: logger}, nil
	case ShellKeys:
		return &keysShell{devices: cfg.Keys.Devices, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown shell %q", cfg.Shell)
	}
}

// ============================================================================
// panel
// ============================================================================

type panelShell struct {
	cfg    PanelConfig
	title  string
	logger *slog.Logger
}

func (s *panelShell) Run(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
	srv := NewPanelServer(s.logger, presses, s.title)

	mux := http.NewServeMux()
	srv.Register(mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		return runHTTPServer(gctx, s.cfg.Listen, mux, s.logger)
	})
	g.Go(func() error {
		runLoop(gctx, presses, ctl, srv.Publish, s.logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return 1, err
	}
	return 0, nil
}

// ============================================================================
// keys
// ============================================================================

type keysShell struct {
	devices []string
	logger  *slog.Logger
}

func (s *keysShell) Run(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
	files := make([]*os.File, 0, len(s.devices))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, dev := range s.devices {
		f, err := os.Open(dev)
		if err != nil {
			return 1, fmt.Errorf("open input device %s: %w (run as root or add user to 'input' group)", dev, err)
		}
		files = append(files, f)
	}

	s.logger.Info("listening for volume keys", "devices", s.devices)

	events := make(chan inputEvent, defaultPressQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := readInputEventsEpoll(gctx, files, events)
		if err == nil && gctx.Err() == nil {
			err = errors.New("input reader stopped")
		}
		return err
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				p, ok := keyPress(ev)
				if !ok {
					continue
				}
				select {
				case presses <- p:
				default:
					s.logger.Warn("press queue full, dropping key event")
				}
			}
		}
	})
	g.Go(func() error {
		runLoop(gctx, presses, ctl, nil, s.logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return 1, err
	}
	return 0, nil
}
