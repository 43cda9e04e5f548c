//go:build !windows

package main

import (
	"context"
	"errors"
	"log/slog"
)

type windowShell struct{}

func newWindowShell(WindowConfig, *slog.Logger) Shell { return windowShell{} }

func (windowShell) Run(context.Context, *Controller, chan Press) (int, error) {
	return 1, errors.New("the window shell is only available on Windows; use -shell panel or -shell keys")
}
