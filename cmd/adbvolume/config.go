package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration.
//
// Every field has a default reproducing the stock behaviour, so running
// without a file is the normal case. The file and the flags only override.
type Config struct {
	// Shell selects the input surface: window, panel or keys.
	Shell string `yaml:"shell"`

	Bridge BridgeConfig `yaml:"bridge"`
	Gate   GateConfig   `yaml:"gate"`
	Window WindowConfig `yaml:"window"`
	Panel  PanelConfig  `yaml:"panel"`
	Keys   KeysConfig   `yaml:"keys"`
	IPC    IPCConfig    `yaml:"ipc"`

	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig describes the device-bridge executable and its two command lines.
type BridgeConfig struct {
	Path     string   `yaml:"path"`
	UpArgs   []string `yaml:"up_args"`
	DownArgs []string `yaml:"down_args"`
}

type GateConfig struct {
	MinIntervalMS int `yaml:"min_interval_ms"`
}

// WindowConfig holds the fixed window geometry. The window is placed
// RightMargin/BottomMargin pixels in from the bottom-right screen corner.
type WindowConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	RightMargin  int    `yaml:"right_margin"`
	BottomMargin int    `yaml:"bottom_margin"`
	Title        string `yaml:"title"`
	ClassName    string `yaml:"class_name"`
}

type PanelConfig struct {
	Listen string `yaml:"listen"`
}

type KeysConfig struct {
	Devices []string `yaml:"devices"`
}

type IPCConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	ShellWindow = "window"
	ShellPanel  = "panel"
	ShellKeys   = "keys"
)

// defaultBridgePath is the adb shipped with scrcpy on the reference Windows
// setup; elsewhere adb is looked up on PATH.
func defaultBridgePath() string {
	if runtime.GOOS == "windows" {
		return `D:\scrcpy-win64-v3.3.4\adb.exe`
	}
	return "adb"
}

// defaultIPCSocket lives in the temp dir so it also resolves on Windows.
func defaultIPCSocket() string {
	return filepath.Join(os.TempDir(), ipcSocketName)
}

func defaultShell() string {
	if runtime.GOOS == "windows" {
		return ShellWindow
	}
	return ShellPanel
}

func keyeventArgs(keycode int) []string {
	return []string{"shell", "input", "keyevent", strconv.Itoa(keycode)}
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Shell: defaultShell(),
		Bridge: BridgeConfig{
			Path:     defaultBridgePath(),
			UpArgs:   keyeventArgs(androidKeycodeVolumeUp),
			DownArgs: keyeventArgs(androidKeycodeVolumeDown),
		},
		Gate: GateConfig{
			MinIntervalMS: defaultMinIntervalMS,
		},
		Window: WindowConfig{
			Width:        defaultWindowWidth,
			Height:       defaultWindowHeight,
			RightMargin:  defaultWindowRightMargin,
			BottomMargin: defaultWindowBottomMargin,
			Title:        defaultWindowTitle,
			ClassName:    defaultWindowClass,
		},
		Panel: PanelConfig{
			Listen: defaultPanelListen,
		},
		Keys: KeysConfig{
			Devices: nil,
		},
		IPC: IPCConfig{
			Enabled:    false,
			SocketPath: defaultIPCSocket(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads a YAML file on top of DefaultConfig.
// Unknown fields are rejected to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments may follow the document.
	var trailing yaml.Node
	switch err := dec.Decode(&trailing); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	default:
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries explicitly-set flags. A nil pointer means the flag
// was not given; a non-nil pointer is applied even if it holds a zero value.
type FlagOverrides struct {
	Shell *string

	BridgePath *string
	UpArgs     *string // whitespace separated
	DownArgs   *string

	MinIntervalMS *int

	PanelListen *string
	KeysDevices *string // comma separated

	IPCEnabled    *bool
	IPCSocketPath *string

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Shell != nil {
		cfg.Shell = *o.Shell
	}

	if o.BridgePath != nil {
		cfg.Bridge.Path = *o.BridgePath
	}
	if o.UpArgs != nil {
		cfg.Bridge.UpArgs = strings.Fields(*o.UpArgs)
	}
	if o.DownArgs != nil {
		cfg.Bridge.DownArgs = strings.Fields(*o.DownArgs)
	}

	if o.MinIntervalMS != nil {
		cfg.Gate.MinIntervalMS = *o.MinIntervalMS
	}

	if o.PanelListen != nil {
		cfg.Panel.Listen = *o.PanelListen
	}
	if o.KeysDevices != nil {
		cfg.Keys.Devices = splitList(*o.KeysDevices)
	}

	if o.IPCEnabled != nil {
		cfg.IPC.Enabled = *o.IPCEnabled
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	switch c.Shell {
	case ShellWindow, ShellPanel, ShellKeys:
	default:
		return fmt.Errorf("shell must be one of %q, %q, %q", ShellWindow, ShellPanel, ShellKeys)
	}

	// Bridge
	if c.Bridge.Path == "" {
		return errors.New("bridge.path must not be empty")
	}
	if len(c.Bridge.UpArgs) == 0 {
		return errors.New("bridge.up_args must not be empty")
	}
	if len(c.Bridge.DownArgs) == 0 {
		return errors.New("bridge.down_args must not be empty")
	}

	// Gate
	if c.Gate.MinIntervalMS < 0 {
		return errors.New("gate.min_interval_ms must be >= 0")
	}

	// Window
	if c.Shell == ShellWindow {
		if c.Window.Width <= 0 || c.Window.Height <= 0 {
			return errors.New("window.width and window.height must be > 0")
		}
		if c.Window.RightMargin < 0 || c.Window.BottomMargin < 0 {
			return errors.New("window.right_margin and window.bottom_margin must be >= 0")
		}
		if c.Window.ClassName == "" {
			return errors.New("window.class_name must not be empty")
		}
	}

	// Panel
	if c.Shell == ShellPanel && c.Panel.Listen == "" {
		return errors.New("panel.listen must not be empty")
	}

	// Keys
	if c.Shell == ShellKeys {
		if len(c.Keys.Devices) == 0 {
			return errors.New("keys.devices must not be empty when shell is keys")
		}
		for i, dev := range c.Keys.Devices {
			if dev == "" {
				return fmt.Errorf("keys.devices[%d] is empty", i)
			}
		}
	}

	// IPC
	if c.IPC.Enabled && c.IPC.SocketPath == "" {
		return errors.New("ipc.enabled is true but ipc.socket_path is empty")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// MinInterval returns the gate interval as a duration.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Gate.MinIntervalMS) * time.Millisecond
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
