package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dacdial/tlv320"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("dacdial v%s\n", version)
	fmt.Println("Interactive gain control daemon for the TLV320DAC3100 codec")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  dacdial [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Brings up a TLV320DAC3100 codec over I2C and exposes live,")
	fmt.Println("  keystroke-driven gain control on the console. Gain can also be")
	fmt.Println("  adjusted remotely over a Unix socket (see dacdial-remote), and")
	fmt.Println("  gain-state changes are broadcast to WebSocket clients.")
	fmt.Println()
	fmt.Println("KEYS:")
	fmt.Println("  D / d    digital DAC volume up / down")
	fmt.Println("  A / a    analog headphone volume up / down")
	fmt.Println("  G / g    headphone amplifier gain up / down")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -i2c-bus int")
	fmt.Printf("        Linux I2C bus number (default %d)\n", defaultI2CBus)
	fmt.Println()
	fmt.Println("  -i2c-addr int")
	fmt.Printf("        Codec I2C address (default 0x%02X)\n", tlv320.DefaultAddr)
	fmt.Println()
	fmt.Println("  -sample-rate int")
	fmt.Printf("        I2S sample rate in Hz (default %d)\n", defaultSampleRate)
	fmt.Println()
	fmt.Println("  -bit-depth int")
	fmt.Printf("        I2S word length: 16 or 32 (default %d)\n", defaultBitDepth)
	fmt.Println()
	fmt.Println("  -line-level")
	fmt.Println("        Start at line-level output volume (TOO LOUD FOR EARBUDS)")
	fmt.Println()
	fmt.Println("  -max-dv float")
	fmt.Printf("        Digital volume ceiling in dB (default %.1f)\n", defaultMaxDV)
	fmt.Println()
	fmt.Println("  -dv-step float")
	fmt.Printf("        Digital volume change per keystroke in dB (default %.1f)\n", defaultDVStepDB)
	fmt.Println()
	fmt.Println("  -poll-interval-ms int")
	fmt.Printf("        Console poll cadence in ms (default %d)\n", defaultPollIntervalMS)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/dacdial.sock\")")
	fmt.Println()
	fmt.Println("  -ws-port int")
	fmt.Println("        State WebSocket listener port, 0 disables (default 3002)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults (headphone-safe volume preset)")
	fmt.Println("  dacdial")
	fmt.Println()
	fmt.Println("  # Line-level output for a mixer or powered speakers")
	fmt.Println("  dacdial -line-level")
	fmt.Println()
	fmt.Println("  # Nudge volume from a script")
	fmt.Println("  dacdial-remote step digital +2")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires access to the I2C device node (run as root or add")
	fmt.Println("    user to the 'i2c' group)")
	fmt.Println("  - Volume requests outside the hardware range saturate; they are")
	fmt.Println("    never errors")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags
	var (
		configPath     = flag.String("config", "", "Path to YAML config file")
		i2cBus         = flag.Int("i2c-bus", defaultI2CBus, "Linux I2C bus number")
		i2cAddr        = flag.Int("i2c-addr", tlv320.DefaultAddr, "Codec I2C address")
		sampleRate     = flag.Int("sample-rate", defaultSampleRate, "I2S sample rate in Hz")
		bitDepth       = flag.Int("bit-depth", defaultBitDepth, "I2S word length: 16 or 32")
		lineLevel      = flag.Bool("line-level", false, "Start at line-level output volume")
		maxDV          = flag.Float64("max-dv", defaultMaxDV, "Digital volume ceiling in dB")
		dvStep         = flag.Float64("dv-step", defaultDVStepDB, "Digital volume change per keystroke in dB")
		pollIntervalMS = flag.Int("poll-interval-ms", defaultPollIntervalMS, "Console poll cadence in ms")
		ipcSocketPath  = flag.String("ipc-socket", "/tmp/dacdial.sock", "Unix domain socket path for IPC")
		wsPort         = flag.Int("ws-port", 3002, "State WebSocket listener port (0 disables)")
		logLevelStr    = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion    = flag.Bool("version", false, "Print version and exit")
		showHelp       = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Config file first, then flag overrides on top. Only flags the user
	// actually set override file values.
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i2c-bus":
			overrides.I2CBus = i2cBus
		case "i2c-addr":
			overrides.I2CAddr = i2cAddr
		case "sample-rate":
			overrides.SampleRate = sampleRate
		case "bit-depth":
			overrides.BitDepth = bitDepth
		case "line-level":
			overrides.LineLevel = lineLevel
		case "max-dv":
			overrides.MaxDV = maxDV
		case "dv-step":
			overrides.DVStepDB = dvStep
		case "poll-interval-ms":
			overrides.PollIntervalMS = pollIntervalMS
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocketPath
		case "ws-port":
			overrides.StateWSPort = wsPort
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(os.Stderr, logLevel)

	// Bring up the codec.
	dac, err := tlv320.Open(cfg.Codec.I2CBus, uint8(cfg.Codec.I2CAddr), logger)
	if err != nil {
		logger.Error("failed to open codec", "error", err, "tip", "run as root or add user to 'i2c' group")
		os.Exit(1)
	}
	defer dac.Close()

	if err := dac.Reset(); err != nil {
		logger.Error("codec reset failed", "error", err)
		os.Exit(1)
	}
	if err := dac.Configure(cfg.Codec.SampleRate, cfg.Codec.BitDepth); err != nil {
		logger.Error("codec configure failed", "error", err)
		os.Exit(1)
	}
	if err := dac.SetSpeakerMute(true); err != nil {
		logger.Error("codec speaker mute failed", "error", err)
		os.Exit(1)
	}
	if err := dac.SetHeadphoneOutput(true); err != nil {
		logger.Error("codec headphone enable failed", "error", err)
		os.Exit(1)
	}

	// Initial volume preset. Line level suits a mixer or powered speakers
	// but is far too loud for earbuds.
	dv, av := headphoneDV, headphoneAV
	if cfg.Codec.LineLevel {
		dv, av = lineLevelDV, lineLevelAV
	}
	if _, err := dac.SetDACVolume(dv); err != nil {
		logger.Error("set initial dac volume failed", "error", err)
		os.Exit(1)
	}
	if _, err := dac.SetHeadphoneVolume(av); err != nil {
		logger.Error("set initial headphone volume failed", "error", err)
		os.Exit(1)
	}

	// Console in raw mode; restored on exit.
	console, err := OpenConsole(os.Stdin)
	if err != nil {
		logger.Error("failed to open console", "error", err)
		os.Exit(1)
	}
	defer console.Close()

	// Controller reads its starting state back from the hardware.
	ctrl, err := NewController(dac, os.Stdout, logger, cfg.Control.DVStepDB, cfg.Codec.MaxDV)
	if err != nil {
		logger.Error("failed to initialize controller", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	actions := make(chan Action, 64)
	hub := NewHub(logger)
	hub.BroadcastState(ctrl.Snapshot())

	logger.Debug("configuration",
		"i2c_bus", cfg.Codec.I2CBus,
		"i2c_addr", fmt.Sprintf("0x%02X", cfg.Codec.I2CAddr),
		"sample_rate", cfg.Codec.SampleRate,
		"bit_depth", cfg.Codec.BitDepth,
		"line_level", cfg.Codec.LineLevel,
		"max_dv", cfg.Codec.MaxDV,
		"dv_step", cfg.Control.DVStepDB,
		"poll_interval_ms", cfg.Control.PollIntervalMS,
		"ipc_socket", cfg.IPC.SocketPath,
		"ws_port", cfg.StateWS.Port)
	logger.Info("listening",
		"ipc", cfg.IPC.SocketPath,
		"ws_port", cfg.StateWS.Port,
		"dv", ctrl.Snapshot().DV,
		"av", ctrl.Snapshot().AV,
		"gain", ctrl.Snapshot().AmpGain)

	fmt.Println("dacdial ready - D/d digital, A/a analog, G/g amp gain")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return runIPCServer(ctx, cfg.IPC.SocketPath, actions, logger)
	})
	if cfg.StateWS.Port > 0 {
		g.Go(func() error {
			return runStateWSServer(ctx, cfg.StateWS.Port, hub, logger)
		})
	}
	g.Go(func() error {
		defer stop() // control loop exit ends the whole daemon
		return runControlLoop(ctx, console, actions, ctrl,
			hub, time.Duration(cfg.Control.PollIntervalMS)*time.Millisecond, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
