// Command reorg-monitor runs the reorg detector as a standalone process
// against a real main-node JSON-RPC endpoint and a JSON snapshot of local
// chain state, exposing a health/metrics HTTP surface. In a real external
// node deployment the detector is embedded directly in the node binary and
// wired against its own SQL-backed block store (spec §6); this command
// exists for local testing of the detector in isolation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/peterbourgon/ff/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/reorg-monitor/op-node/rollup/reorg"
	"github.com/ethereum-optimism/reorg-monitor/op-service/healthz"
	"github.com/ethereum-optimism/reorg-monitor/op-service/sources"
)

// ENV_PREFIX lets every flag below also be set via an OP_REORG_MONITOR_*
// environment variable.
const ENV_PREFIX = "OP_REORG_MONITOR"

var (
	fs            = flag.NewFlagSet("reorg-monitor", flag.ContinueOnError)
	mainNodeAddr  = fs.String("main-node-rpc", "http://127.0.0.1:3050", "JSON-RPC address of the main node")
	storeFile     = fs.String("store-file", "", "path to a JSON snapshot of local chain state (see sources.FileChainStore)")
	metricsAddr   = fs.String("metrics-addr", "127.0.0.1:9091", "listen address for the /health and /metrics endpoints")
	sleepInterval = fs.Duration("sleep-interval", reorg.DefaultSleepInterval, "pause between check rounds")
	logLevel      = fs.String("log-level", "info", "log level: trace, debug, info, warn, error, crit")
)

func main() {
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix(ENV_PREFIX)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *storeFile == "" {
		fmt.Fprintln(os.Stderr, "-store-file is required")
		os.Exit(2)
	}

	l := newLogger(*logLevel)
	if err := run(l); err != nil {
		l.Crit("reorg-monitor exited with error", "err", err)
		os.Exit(1)
	}
}

func run(l log.Logger) error {
	ctx := context.Background()

	store, err := sources.LoadFileChainStore(*storeFile)
	if err != nil {
		return fmt.Errorf("load chain store snapshot: %w", err)
	}

	client, err := sources.NewRPCMainNodeClient(ctx, l, *mainNodeAddr)
	if err != nil {
		return fmt.Errorf("connect to main node: %w", err)
	}
	defer client.Close()

	registry := prometheus.NewRegistry()
	reporter := healthz.NewReporter(registry, "op_reorg_monitor", "reorg_detector")

	router := chi.NewRouter()
	router.Handle("/health", reporter)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: *metricsAddr, Handler: router}
	go func() {
		l.Info("serving health and metrics", "addr", *metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("health/metrics server failed", "err", err)
		}
	}()
	defer server.Close()

	detector := reorg.New(l, reorg.Config{SleepInterval: *sleepInterval}, client, store, reporter)

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		l.Info("received shutdown signal")
		close(stop)
	}()

	return detector.Run(ctx, stop)
}

func newLogger(levelStr string) log.Logger {
	level, ok := logLevels[levelStr]
	if !ok {
		level = log.LevelInfo
	}
	l := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stdout, level, true))
	log.SetDefault(l)
	return l
}

var logLevels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}
