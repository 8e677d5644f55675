// Package main implements the entry point for the GOnSales data service: a
// tiered cache and schema-validated data store for sales operations data,
// with snapshot persistence and optional remote sync.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MbazzaTZ/GOnSales/config"
	"github.com/MbazzaTZ/GOnSales/service"
)

const (
	Version = "0.1.0"
	appName = "gonsales"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	pullRemote := flag.Bool("pull", false, "replace local data from the remote store on startup")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	// A .env file is optional; environment beats file either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting",
		"app", appName,
		"version", Version,
		"config_path", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := service.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := rt.Start(ctx); err != nil {
		_ = rt.Stop()
		return err
	}

	if *pullRemote {
		if err := rt.PullRemote(ctx); err != nil {
			logger.Warn("remote pull incomplete", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	return rt.Stop()
}
