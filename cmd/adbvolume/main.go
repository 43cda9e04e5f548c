package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "adbvolume v%s\n", version)
	fmt.Fprintln(w, "Two-button volume control for an adb-connected device")
}

func printUsage() {
	w := os.Stderr
	printVersion(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  adbvolume [OPTIONS]")
	fmt.Fprintln(w, "  adbvolume press up|down [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DESCRIPTION:")
	fmt.Fprintln(w, "  Shows \"Volume +\" and \"Volume -\" buttons. Each press runs")
	fmt.Fprintln(w, "  `adb shell input keyevent 24|25` in the background. Presses closer")
	fmt.Fprintf(w, "  together than the gate interval (default %d ms) are dropped.\n", defaultMinIntervalMS)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -config string")
	fmt.Fprintln(w, "        YAML config file (optional; flags override it)")
	fmt.Fprintln(w, "  -shell string")
	fmt.Fprintf(w, "        Input surface: window|panel|keys (default %q)\n", defaultShell())
	fmt.Fprintln(w, "  -adb string")
	fmt.Fprintf(w, "        Device bridge executable (default %q)\n", defaultBridgePath())
	fmt.Fprintln(w, "  -up-args string")
	fmt.Fprintln(w, "        Arguments for volume up (default \"shell input keyevent 24\")")
	fmt.Fprintln(w, "  -down-args string")
	fmt.Fprintln(w, "        Arguments for volume down (default \"shell input keyevent 25\")")
	fmt.Fprintln(w, "  -min-interval-ms int")
	fmt.Fprintf(w, "        Minimum spacing between accepted presses (default %d)\n", defaultMinIntervalMS)
	fmt.Fprintln(w, "  -panel-listen string")
	fmt.Fprintf(w, "        Panel HTTP listen address (default %q)\n", defaultPanelListen)
	fmt.Fprintln(w, "  -keys-devices string")
	fmt.Fprintln(w, "        Comma separated evdev devices for -shell keys")
	fmt.Fprintln(w, "  -ipc")
	fmt.Fprintln(w, "        Accept presses over the IPC socket")
	fmt.Fprintln(w, "  -ipc-socket string")
	fmt.Fprintf(w, "        Unix domain socket path for IPC (default %q)\n", defaultIPCSocket())
	fmt.Fprintln(w, "  -log-level string")
	fmt.Fprintln(w, "        Log level: error, warn, info, debug (default \"info\")")
	fmt.Fprintln(w, "  -version")
	fmt.Fprintln(w, "        Print version and exit")
	fmt.Fprintln(w, "  -help")
	fmt.Fprintln(w, "        Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  adbvolume")
	fmt.Fprintln(w, "  adbvolume -shell keys -keys-devices /dev/input/event3 -adb /usr/bin/adb")
	fmt.Fprintln(w, "  adbvolume -ipc &  adbvolume press up")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "press" {
		os.Exit(runPressSubcommand(os.Args[2:]))
	}
	os.Exit(run(os.Args[1:]))
}

// run is the main command. It returns the process exit code.
func run(args []string) int {
	fs := flag.NewFlagSet("adbvolume", flag.ContinueOnError)
	fs.Usage = printUsage

	var (
		configPath  = fs.String("config", "", "YAML config file")
		shell       = fs.String("shell", defaultShell(), "Input surface: window|panel|keys")
		bridgePath  = fs.String("adb", defaultBridgePath(), "Device bridge executable")
		upArgs      = fs.String("up-args", "shell input keyevent 24", "Arguments for volume up")
		downArgs    = fs.String("down-args", "shell input keyevent 25", "Arguments for volume down")
		minInterval = fs.Int("min-interval-ms", defaultMinIntervalMS, "Minimum spacing between accepted presses (ms)")
		panelListen = fs.String("panel-listen", defaultPanelListen, "Panel HTTP listen address")
		keysDevices = fs.String("keys-devices", "", "Comma separated evdev devices")
		ipcEnabled  = fs.Bool("ipc", false, "Accept presses over the IPC socket")
		ipcSocket   = fs.String("ipc-socket", defaultIPCSocket(), "Unix domain socket path for IPC")
		logLevelStr = fs.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = fs.Bool("version", false, "Print version and exit")
	)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *showVersion {
		printVersion(os.Stdout)
		return 0
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov FlagOverrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shell":
			ov.Shell = shell
		case "adb":
			ov.BridgePath = bridgePath
		case "up-args":
			ov.UpArgs = upArgs
		case "down-args":
			ov.DownArgs = downArgs
		case "min-interval-ms":
			ov.MinIntervalMS = minInterval
		case "panel-listen":
			ov.PanelListen = panelListen
		case "keys-devices":
			ov.KeysDevices = keysDevices
		case "ipc":
			ov.IPCEnabled = ipcEnabled
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocket
		case "log-level":
			ov.LogLevel = logLevelStr
		}
	})
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stderr, logLevel)

	logger.Debug("starting adbvolume", "version", version)
	logger.Debug("configuration",
		"shell", cfg.Shell,
		"bridge_path", cfg.Bridge.Path,
		"up_args", cfg.Bridge.UpArgs,
		"down_args", cfg.Bridge.DownArgs,
		"min_interval_ms", cfg.Gate.MinIntervalMS,
		"panel_listen", cfg.Panel.Listen,
		"keys_devices", cfg.Keys.Devices,
		"ipc_enabled", cfg.IPC.Enabled,
		"ipc_socket", cfg.IPC.SocketPath)

	shellImpl, err := newShell(cfg, logger)
	if err != nil {
		logger.Error("failed to create shell", "error", err)
		return 1
	}

	ctl := NewController(
		NewGate(cfg.MinInterval()),
		NewDispatcher(cfg.Bridge, ExecLauncher{}),
		systemClock{},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, shellImpl, ctl, logger)
}

// serve runs the shell, plus the IPC server when enabled, and returns the
// shell's exit code.
func serve(ctx context.Context, cfg Config, shell Shell, ctl *Controller, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	presses := make(chan Press, defaultPressQueue)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.IPC.Enabled {
		g.Go(func() error {
			return runIPCServer(gctx, cfg.IPC.SocketPath, presses, logger)
		})
	}

	code := 0
	g.Go(func() error {
		// The shell owns the process lifetime; stop the rest when it ends.
		defer cancel()
		c, err := shell.Run(gctx, ctl, presses)
		code = c
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("stopped with error", "error", err)
		if code == 0 {
			code = 1
		}
	}
	logger.Debug("exiting", "code", code)
	return code
}

// runPressSubcommand sends one press to a running instance over IPC.
func runPressSubcommand(args []string) int {
	fs := flag.NewFlagSet("press", flag.ContinueOnError)
	ipcSocket := fs.String("ipc-socket", defaultIPCSocket(), "Unix domain socket path for IPC")
	timeoutMS := fs.Int("timeout-ms", 2000, "Timeout for the IPC round trip in ms")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "USAGE:")
		fmt.Fprintln(os.Stderr, "  adbvolume press up|down [-ipc-socket PATH] [-timeout-ms N]")
	}

	if len(args) == 0 {
		fs.Usage()
		return 2
	}
	dir, err := ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if err := SendIPCPress(*ipcSocket, dir, time.Duration(*timeoutMS)*time.Millisecond); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
