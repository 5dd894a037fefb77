// Command careerforge-server runs the CareerForge chat API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careerforge/careerforge"
	"github.com/careerforge/careerforge/server"
	"github.com/careerforge/careerforge/sessions"
	"github.com/careerforge/careerforge/stores"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "careerforge-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := careerforge.Load()
	if err != nil {
		return err
	}
	logger, err := careerforge.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := stores.NewStore(cfg.StoreConfig(logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	attempts, err := stores.NewGORMAttemptStore(store.DB())
	if err != nil {
		return fmt.Errorf("open attempt store: %w", err)
	}

	providers, err := cfg.Providers(ctx, logger)
	if err != nil {
		return err
	}
	assistant := careerforge.NewAssistant(logger, attempts, cfg.ProviderTimeout, providers...)

	service := sessions.NewService(store, assistant, logger, sessions.Options{
		MaxMessageLength:  cfg.MaxMessageLength,
		MaxDocumentLength: cfg.MaxDocumentLength,
		HistoryWindow:     cfg.HistoryWindow,
	})

	janitor, err := sessions.NewJanitor(store, attempts, logger, sessions.JanitorOptions{
		Schedule:         cfg.JanitorSchedule,
		IdleTimeout:      cfg.IdleSessionTimeout,
		AttemptRetention: cfg.AttemptRetention,
	})
	if err != nil {
		return err
	}

	srv := server.New(service, store, logger, cfg.GinMode)
	srv.SetMaxBodyBytes(cfg.MaxRequestBytes)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.Int("providers", len(providers)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		janitor.Start()
		<-gctx.Done()
		janitor.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		// Hijacked sockets are not tracked by Shutdown
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
