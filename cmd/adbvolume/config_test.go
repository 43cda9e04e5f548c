package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adbvolume.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MinInterval() != 30*time.Millisecond {
		t.Fatalf("default interval = %v, want 30ms", cfg.MinInterval())
	}
	if want := []string{"shell", "input", "keyevent", "24"}; !reflect.DeepEqual(cfg.Bridge.UpArgs, want) {
		t.Fatalf("up args = %v, want %v", cfg.Bridge.UpArgs, want)
	}
	if want := []string{"shell", "input", "keyevent", "25"}; !reflect.DeepEqual(cfg.Bridge.DownArgs, want) {
		t.Fatalf("down args = %v, want %v", cfg.Bridge.DownArgs, want)
	}
}

func TestLoadConfigFile_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
shell: keys
bridge:
  path: /usr/local/bin/adb
gate:
  min_interval_ms: 120
keys:
  devices: [/dev/input/event3]
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Shell != ShellKeys || cfg.Bridge.Path != "/usr/local/bin/adb" || cfg.Gate.MinIntervalMS != 120 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// Unset fields keep their defaults.
	if len(cfg.Bridge.UpArgs) != 4 || cfg.Window.Width != defaultWindowWidth {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigFile_RejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "gate:\n  min_interval: 10\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeConfig(t, "shell: panel\n---\nshell: keys\n")
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), "trailing document") {
		t.Fatalf("expected trailing document error, got %v", err)
	}
}

func TestLoadConfigFile_TrailingDocumentNotApplied(t *testing.T) {
	path := writeConfig(t, "shell: panel\n---\nshell: keys\n")
	cfg, err := LoadConfigFile(path)
	if err == nil {
		t.Fatalf("accepted two documents, shell=%q", cfg.Shell)
	}
	if cfg.Shell != "" {
		t.Fatalf("partial config returned on error: %+v", cfg)
	}
}

func TestLoadConfigFile_TrailingCommentAllowed(t *testing.T) {
	path := writeConfig(t, "shell: keys\n# end of file\n\n")
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Shell != ShellKeys {
		t.Fatalf("shell = %q, want %q", cfg.Shell, ShellKeys)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()

	path := "/opt/adb"
	up := "shell input keyevent 164"
	interval := 0
	devices := "/dev/input/event1, /dev/input/event2,"
	ipc := true

	FlagOverrides{
		BridgePath:    &path,
		UpArgs:        &up,
		MinIntervalMS: &interval,
		KeysDevices:   &devices,
		IPCEnabled:    &ipc,
	}.Apply(&cfg)

	if cfg.Bridge.Path != path {
		t.Errorf("bridge path = %q", cfg.Bridge.Path)
	}
	if want := []string{"shell", "input", "keyevent", "164"}; !reflect.DeepEqual(cfg.Bridge.UpArgs, want) {
		t.Errorf("up args = %v, want %v", cfg.Bridge.UpArgs, want)
	}
	if cfg.Gate.MinIntervalMS != 0 {
		t.Errorf("zero-valued override not applied: %d", cfg.Gate.MinIntervalMS)
	}
	if want := []string{"/dev/input/event1", "/dev/input/event2"}; !reflect.DeepEqual(cfg.Keys.Devices, want) {
		t.Errorf("devices = %v, want %v", cfg.Keys.Devices, want)
	}
	if !cfg.IPC.Enabled {
		t.Errorf("ipc not enabled")
	}
	// Untouched fields keep their values.
	if want := DefaultConfig().Bridge.DownArgs; !reflect.DeepEqual(cfg.Bridge.DownArgs, want) {
		t.Errorf("down args changed: %v", cfg.Bridge.DownArgs)
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"bad shell", func(c *Config) { c.Shell = "tray" }, "shell must be one of"},
		{"empty bridge", func(c *Config) { c.Bridge.Path = "" }, "bridge.path"},
		{"empty up args", func(c *Config) { c.Bridge.UpArgs = nil }, "bridge.up_args"},
		{"empty down args", func(c *Config) { c.Bridge.DownArgs = nil }, "bridge.down_args"},
		{"negative interval", func(c *Config) { c.Gate.MinIntervalMS = -1 }, "gate.min_interval_ms"},
		{"zero window", func(c *Config) { c.Shell = ShellWindow; c.Window.Width = 0 }, "window.width"},
		{"empty listen", func(c *Config) { c.Shell = ShellPanel; c.Panel.Listen = "" }, "panel.listen"},
		{"keys without devices", func(c *Config) { c.Shell = ShellKeys }, "keys.devices"},
		{"ipc without socket", func(c *Config) { c.IPC.Enabled = true; c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errSub) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.errSub)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := ExpandPath("~/cfg.yaml"); got != filepath.Join(home, "cfg.yaml") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/etc/x"); got != "/etc/x" {
		t.Fatalf("ExpandPath changed absolute path: %q", got)
	}
}
