//go:build windows

package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ============================================================================
// Win32 window shell
// ============================================================================
//
// A fixed-size top-level window with two push buttons. The message loop runs
// on a locked OS thread and is the only code that touches the Controller;
// presses from other sources are posted to the window as wmAppPress so they
// are handled on the same thread, in order.
//
// ============================================================================

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procUpdateWindow     = user32.NewProc("UpdateWindow")
	procGetMessageW      = user32.NewProc("GetMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
	procPostMessageW     = user32.NewProc("PostMessageW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procLoadCursorW      = user32.NewProc("LoadCursorW")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procMessageBoxW      = user32.NewProc("MessageBoxW")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	wmDestroy  = 0x0002
	wmClose    = 0x0010
	wmCommand  = 0x0111
	wmApp      = 0x8000
	wmAppPress = wmApp + 1

	wsOverlappedWindow = 0x00CF0000
	wsThickFrame       = 0x00040000
	wsMaximizeBox      = 0x00010000
	wsTabStop          = 0x00010000
	wsVisible          = 0x10000000
	wsChild            = 0x40000000
	bsPushButton       = 0x00000000

	swShowDefault = 10
	smCxScreen    = 0
	smCyScreen    = 1
	idcArrow      = 32512
	colorWindow   = 5

	mbOK        = 0x00000000
	mbIconError = 0x00000010
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type point struct {
	x, y int32
}

type winMsg struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type windowShell struct {
	cfg    WindowConfig
	logger *slog.Logger
}

func newWindowShell(cfg WindowConfig, logger *slog.Logger) Shell {
	return &windowShell{cfg: cfg, logger: logger}
}

// Run shows the window and pumps messages until WM_QUIT. The exit code is
// the WM_QUIT wParam. Startup failures are reported with a modal dialog.
func (s *windowShell) Run(ctx context.Context, ctl *Controller, presses chan Press) (int, error) {
	// Window messages are delivered to the creating thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd, err := s.create(ctx, ctl)
	if err != nil {
		showErrorDialog(err.Error())
		return 1, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go forwardPresses(hwnd, presses, stop)

	// Closing the window is the shutdown path for signals too.
	go func() {
		select {
		case <-ctx.Done():
			procPostMessageW.Call(uintptr(hwnd), wmClose, 0, 0)
		case <-stop:
		}
	}()

	s.logger.Info("window shown", "title", s.cfg.Title)

	var m winMsg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case -1:
			return 1, fmt.Errorf("GetMessageW: %w", err)
		case 0:
			return int(int32(m.wParam)), nil
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *windowShell) create(ctx context.Context, ctl *Controller) (windows.HWND, error) {
	hInstance, _, _ := procGetModuleHandleW.Call(0)

	className, err := windows.UTF16PtrFromString(s.cfg.ClassName)
	if err != nil {
		return 0, fmt.Errorf("window class name: %w", err)
	}
	title, err := windows.UTF16PtrFromString(s.cfg.Title)
	if err != nil {
		return 0, fmt.Errorf("window title: %w", err)
	}

	wndProc := func(hwnd windows.HWND, msg uint32, wParam, lParam uintptr) uintptr {
		switch msg {
		case wmCommand:
			if dir, ok := buttonDirection(int(wParam & 0xffff)); ok {
				ctl.Press(ctx, Press{Direction: dir, Source: SourceWindow})
			}
			return 0

		case wmAppPress:
			ctl.Press(ctx, Press{Direction: Direction(int32(wParam)), Source: SourceIPC})
			return 0

		case wmDestroy:
			procPostQuitMessage.Call(0)
			return 0
		}
		r, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
		return r
	}

	cursor, _, _ := procLoadCursorW.Call(0, idcArrow)

	wc := wndClassEx{
		lpfnWndProc:   windows.NewCallback(wndProc),
		hInstance:     windows.Handle(hInstance),
		hCursor:       windows.Handle(cursor),
		hbrBackground: windows.Handle(colorWindow + 1),
		lpszClassName: className,
	}
	wc.cbSize = uint32(unsafe.Sizeof(wc))

	if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		return 0, fmt.Errorf("window class registration failed: %w", err)
	}

	screenW, _, _ := procGetSystemMetrics.Call(smCxScreen)
	screenH, _, _ := procGetSystemMetrics.Call(smCyScreen)
	x, y := windowOrigin(int(int32(screenW)), int(int32(screenH)), s.cfg)

	style := uintptr(wsOverlappedWindow &^ (wsThickFrame | wsMaximizeBox))
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		style,
		uintptr(x), uintptr(y), uintptr(s.cfg.Width), uintptr(s.cfg.Height),
		0, 0, hInstance, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("window creation failed: %w", err)
	}

	buttonClass, _ := windows.UTF16PtrFromString("BUTTON")
	for _, b := range windowButtons {
		label, _ := windows.UTF16PtrFromString(b.Label)
		h, _, err := procCreateWindowExW.Call(
			0,
			uintptr(unsafe.Pointer(buttonClass)),
			uintptr(unsafe.Pointer(label)),
			wsTabStop|wsVisible|wsChild|bsPushButton,
			uintptr(b.X), uintptr(b.Y), uintptr(b.W), uintptr(b.H),
			hwnd, uintptr(b.ID), hInstance, 0,
		)
		if h == 0 {
			procDestroyWindow.Call(hwnd)
			return 0, fmt.Errorf("button %q creation failed: %w", b.Label, err)
		}
	}

	procShowWindow.Call(hwnd, swShowDefault)
	procUpdateWindow.Call(hwnd)

	return windows.HWND(hwnd), nil
}

// forwardPresses posts presses from other sources to the window thread.
func forwardPresses(hwnd windows.HWND, presses <-chan Press, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case p, ok := <-presses:
			if !ok {
				return
			}
			procPostMessageW.Call(uintptr(hwnd), wmAppPress, uintptr(int32(p.Direction)), 0)
		}
	}
}

func showErrorDialog(text string) {
	msg, err := windows.UTF16PtrFromString(text)
	if err != nil {
		return
	}
	caption, _ := windows.UTF16PtrFromString("Error")
	procMessageBoxW.Call(0, uintptr(unsafe.Pointer(msg)), uintptr(unsafe.Pointer(caption)), mbIconError|mbOK)
}
