//go:build !linux

package main

import (
	"context"
	"errors"
	"os"
)

func readInputEventsEpoll(context.Context, []*os.File, chan<- inputEvent) error {
	return errors.New("the keys shell needs Linux evdev devices")
}
