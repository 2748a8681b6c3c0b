// Sensor hub time service

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/sensorhub-time/benchmark"

	"example.com/sensorhub-time/core/sync"

	"example.com/sensorhub-time/driver/clock"
	"example.com/sensorhub-time/driver/hub"
	"example.com/sensorhub-time/driver/wake"
)

const (
	defaultHubAddress     = 0x43
	defaultSampleInterval = 200 * time.Millisecond
	defaultMetricsAddr    = "127.0.0.1:8080"
)

type svcConfig struct {
	I2CBus                string `toml:"i2c_bus"`
	I2CAddress            int    `toml:"i2c_address,omitempty"`
	WakeLine              string `toml:"wake_line"`
	ResyncIntervalSeconds int    `toml:"resync_interval_seconds,omitempty"`
	SampleIntervalMillis  int    `toml:"sample_interval_ms,omitempty"`
	Streaming             bool   `toml:"streaming,omitempty"`
	MetricsAddr           string `toml:"metrics_address,omitempty"`
}

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
}

func runMonitor(log *zap.Logger, addr string) {
	if addr == "" {
		addr = defaultMetricsAddr
	}
	http.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, nil)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

func loadConfig(configFile string) svcConfig {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	var cfg svcConfig
	err = toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		log.Fatal("failed to decode configuration", zap.Error(err))
	}
	return cfg
}

func hubAddress(cfg svcConfig) uint16 {
	if cfg.I2CAddress == 0 {
		return defaultHubAddress
	}
	if cfg.I2CAddress < 0 || cfg.I2CAddress > 0x7F {
		log.Fatal("invalid i2c_address in configuration",
			zap.Int("i2c_address", cfg.I2CAddress))
	}
	return uint16(cfg.I2CAddress)
}

func sampleInterval(cfg svcConfig) time.Duration {
	if cfg.SampleIntervalMillis == 0 {
		return defaultSampleInterval
	}
	if cfg.SampleIntervalMillis < 0 {
		log.Fatal("invalid sample_interval_ms in configuration",
			zap.Int("sample_interval_ms", cfg.SampleIntervalMillis))
	}
	return time.Duration(cfg.SampleIntervalMillis) * time.Millisecond
}

func openDevices(cfg svcConfig) (*wake.Line, *hub.Device) {
	if cfg.WakeLine == "" {
		log.Fatal("wake_line not specified in config")
	}
	if cfg.I2CBus == "" {
		log.Fatal("i2c_bus not specified in config")
	}
	line, err := wake.Open(log, cfg.WakeLine)
	if err != nil {
		log.Fatal("failed to open wake line", zap.Error(err))
	}
	dev, err := hub.Open(log, cfg.I2CBus, hubAddress(cfg))
	if err != nil {
		log.Fatal("failed to open hub device", zap.Error(err))
	}
	return line, dev
}

func runDaemon(configFile string) {
	ctx := context.Background()

	cfg := loadConfig(configFile)
	line, dev := openDevices(cfg)

	lclk := &clock.SystemClock{Log: log}
	cs := sync.NewClockSync(log, lclk, line, dev)

	cs.Synchronize(ctx)
	if !cs.Synchronized() {
		log.Warn("initial handshake failed, sample recovery deferred to resync")
	}

	if cfg.ResyncIntervalSeconds > 0 {
		go sync.RunResyncLoop(log, cs,
			time.Duration(cfg.ResyncIntervalSeconds)*time.Second)
	}
	go sync.RunSampleLoop(log, cs, lclk, dev, sampleInterval(cfg), cfg.Streaming)

	runMonitor(log, cfg.MetricsAddr)
}

func runTool(busName string, addr uint16, lineName string) {
	ctx := context.Background()

	lclk := &clock.SystemClock{Log: log}
	line, err := wake.Open(log, lineName)
	if err != nil {
		log.Fatal("failed to open wake line", zap.Error(err))
	}
	dev, err := hub.Open(log, busName, addr)
	if err != nil {
		log.Fatal("failed to open hub device", zap.Error(err))
	}
	defer func() {
		err := dev.Close()
		if err != nil {
			log.Info("failed to close hub device", zap.Error(err))
		}
	}()

	cs := sync.NewClockSync(log, lclk, line, dev)
	cs.Synchronize(ctx)
	if !cs.Synchronized() {
		log.Fatal("handshake failed")
	}
	fmt.Printf("realtime delta: %d ns\n", cs.Delta())
}

func runBenchmark() {
	lclk := &clock.SystemClock{Log: zap.NewNop()}
	benchmark.RunRecoveryBenchmark(lclk)
}

func exitWithUsage() {
	fmt.Println("<usage>")
	os.Exit(1)
}

func main() {
	var (
		verbose    bool
		configFile string
		busName    string
		hubAddr    uint
		lineName   string
	)

	daemonFlags := flag.NewFlagSet("daemon", flag.ExitOnError)
	toolFlags := flag.NewFlagSet("tool", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)

	daemonFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	daemonFlags.StringVar(&configFile, "config", "", "Config file")

	toolFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	toolFlags.StringVar(&busName, "bus", "", "I2C bus name")
	toolFlags.UintVar(&hubAddr, "addr", defaultHubAddress, "Hub I2C address")
	toolFlags.StringVar(&lineName, "wake", "", "Wake line GPIO name")

	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case daemonFlags.Name():
		err := daemonFlags.Parse(os.Args[2:])
		if err != nil || daemonFlags.NArg() != 0 {
			exitWithUsage()
		}
		if configFile == "" {
			exitWithUsage()
		}
		initLogger(verbose)
		runDaemon(configFile)
	case toolFlags.Name():
		err := toolFlags.Parse(os.Args[2:])
		if err != nil || toolFlags.NArg() != 0 {
			exitWithUsage()
		}
		if busName == "" || lineName == "" || hubAddr > 0x7F {
			exitWithUsage()
		}
		initLogger(verbose)
		runTool(busName, uint16(hubAddr), lineName)
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runBenchmark()
	case "x":
		runX()
	default:
		exitWithUsage()
	}
}
