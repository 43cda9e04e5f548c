package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ============================================================================
// adbvolume-ctl - Command-line IPC Client
// ============================================================================
// Sends presses to a running adbvolume (started with -ipc).
//
// Usage:
//   adbvolume-ctl up
//   adbvolume-ctl down
//   adbvolume-ctl -socket /run/user/1000/adbvolume.sock up
// ============================================================================

// Message types (duplicated from the main package for a standalone binary)
type MessageEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type pressData struct {
	Direction string `json:"direction"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := filepath.Join(os.TempDir(), "adbvolume.sock")

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var direction string
	switch args[0] {
	case "up", "volume-up", "+":
		direction = "up"

	case "down", "volume-down", "-":
		direction = "down"

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err := sendPress(socketPath, direction); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func sendPress(socketPath, direction string) error {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(pressData{Direction: direction})
	if err != nil {
		return fmt.Errorf("marshal press: %w", err)
	}
	msg, err := json.Marshal(MessageEnvelope{Type: "press", Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", msg); err != nil {
		return fmt.Errorf("send press: %w", err)
	}

	var response IPCResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if response.Status == "error" {
		return fmt.Errorf("adbvolume error: %s", response.Error)
	}

	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `adbvolume-ctl - Send volume presses to adbvolume via IPC

Usage:
  adbvolume-ctl [options] <command>

Options:
  -socket PATH    Unix domain socket path (default: $TMPDIR/adbvolume.sock)

Commands:
  up, volume-up, +        Press "Volume +"
  down, volume-down, -    Press "Volume -"
  help, -h, --help        Show this help message

Presses go through the same input gate as the on-screen buttons, so
"ok" means the press was queued, not that the volume changed.
`)
}
