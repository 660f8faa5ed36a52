// Logwarden - concurrent log tailing and pattern classification
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/logwarden/logwarden/pkg/engine"
	"github.com/logwarden/logwarden/pkg/logger"
	"github.com/logwarden/logwarden/pkg/util"
)

// Build-time variables set by the release tooling
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath   = flag.String("config", "/etc/logwarden/config.yaml", "Path to configuration file")
	logLevel     = flag.String("log-level", "", "Override log level (debug, info, warn, error, fatal)")
	logFormat    = flag.String("log-format", "", "Override log format (json, text)")
	duration     = flag.Duration("duration", 0, "Stop after this duration (0 = run until signalled)")
	exportFormat = flag.String("export-format", "", "Export retained matches on shutdown (json, csv)")
	exportPath   = flag.String("export-path", "", "Destination file for the shutdown export")
	version      = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	config, err := util.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flag overrides take precedence over the config file.
	if *logLevel != "" {
		config.Settings.LogLevel = *logLevel
	}
	if *logFormat != "" {
		config.Settings.LogFormat = *logFormat
	}

	if err := logger.Initialize(config.Settings.LogLevel, config.Settings.LogFormat,
		config.Settings.LogOutput, config.Settings.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("logwarden %s starting", Version)

	eng, err := engine.New(config)
	if err != nil {
		logger.Errorf("failed to build engine: %v", err)
		os.Exit(1)
	}

	if err := eng.Start(); err != nil {
		logger.Errorf("failed to start engine: %v", err)
		os.Exit(1)
	}

	waitForShutdown(*duration)

	if err := eng.Stop(); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}

	if *exportFormat != "" {
		dest := *exportPath
		if dest == "" {
			dest = "logwarden-matches." + *exportFormat
		}
		if err := eng.Export(*exportFormat, dest); err != nil {
			logger.Errorf("shutdown export failed: %v", err)
			os.Exit(1)
		}
		logger.Infof("exported retained matches to %s", dest)
	}
}

// waitForShutdown blocks until a termination signal arrives or the
// optional run duration elapses.
func waitForShutdown(duration time.Duration) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case sig := <-sigCh:
			logger.Infof("received signal %v, shutting down", sig)
		case <-timer.C:
			logger.Infof("run duration %v elapsed, shutting down", duration)
		}
		return
	}

	sig := <-sigCh
	logger.Infof("received signal %v, shutting down", sig)
}

func printVersion() {
	fmt.Printf("logwarden %s\n", Version)
	fmt.Printf("  git commit: %s\n", GitCommit)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
