package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/thisisjab/jitsoql/config"
	"github.com/thisisjab/jitsoql/engine"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "./.config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	engineCfg, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	if c, ok := engineCfg.Storage.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("cannot close storage.", "error", err)
			}
		}()
	}

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	e, err := engine.New(*engineCfg, logger)
	if err != nil {
		logger.Error("engine error.", "error", err)
		os.Exit(1)
	}

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine error.", "error", err)
	}

	stats := e.Stats()
	logger.Info("engine stopped.", "processed", stats.Processed, "invalid", stats.Invalid)
}
