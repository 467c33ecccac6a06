package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/moment_stack/config"
	deps "github.com/bwise1/moment_stack/internal/debs"
	api "github.com/bwise1/moment_stack/internal/http/rest"
	"github.com/bwise1/moment_stack/internal/logger"
	"go.uber.org/zap"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.NewLogger(cfg.Environment, logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	d, err := deps.New(cfg, l)
	if err != nil {
		l.Fatal("failed to initialise dependencies", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.WebSocket.Run(ctx)

	a := api.New(cfg, d)
	go func() {
		l.Info("server running", zap.Int("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server stopped", zap.Error(err))
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	l.Info("shutdown requested, draining", zap.Duration("grace", allowConnectionsAfterShutdown))
	time.Sleep(allowConnectionsAfterShutdown)

	if err := a.Shutdown(); err != nil {
		l.Error("server shutdown", zap.Error(err))
	}
	cancel()
	d.Close()
	l.Info("shutdown complete")
}
