package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_VOLUMEDOWN = 114
	KEY_VOLUMEUP   = 115
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Android keycodes sent through "adb shell input keyevent".
const (
	androidKeycodeVolumeUp   = 24
	androidKeycodeVolumeDown = 25
)

const (
	defaultMinIntervalMS = 30 // Input gate: minimum spacing between accepted presses (ms)

	// Window geometry (pixels).
	defaultWindowWidth        = 250
	defaultWindowHeight       = 120
	defaultWindowRightMargin  = 300 // distance from the right screen edge
	defaultWindowBottomMargin = 50  // keeps the window above the taskbar
	defaultWindowClass        = "AdbVolumeCtrl"
	defaultWindowTitle        = "ADB Volume Controller"

	defaultPanelListen = "127.0.0.1:8765"
	ipcSocketName      = "adbvolume.sock"

	// Event queue between the shells and the event loop.
	defaultPressQueue = 64

	// Inbound flood limit per panel / IPC connection.
	defaultInboundPerSec = 50
	defaultInboundBurst  = 10
)
