package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/config"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/observability"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/questions"
	"finitefield.org/elevates-web/internal/shopper"
	"finitefield.org/elevates-web/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", invalid.Fields())
		} else {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		}
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("storefront")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.shoppers.Run(gctx)
	})
	g.Go(func() error {
		serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
		serverLogger.Info("elevates storefront listening", zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// newApp wires every collaborator from configuration.
func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	cat, err := loadCatalog(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}

	renderer, err := views.New(cfg.Templates.Dir, cfg.Templates.Reload)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	sessions, err := mw.NewSessionManager(mw.SessionConfig{
		CookieName: cfg.Session.CookieName,
		HashKey:    []byte(cfg.Session.HashKey),
		BlockKey:   []byte(cfg.Session.BlockKey),
		Secure:     cfg.Session.Secure,
		TTL:        cfg.Session.TTL,
	})
	if err != nil {
		return nil, err
	}
	if sessions.Ephemeral() {
		logger.Warn("session hash key not configured; sessions will not survive a restart")
	}

	client := questions.NewClient(questions.Config{
		BaseURL:         cfg.Questions.BaseURL,
		Timeout:         cfg.Questions.Timeout,
		MaxAttempts:     cfg.Questions.MaxAttempts,
		InitialInterval: cfg.Questions.InitialInterval,
		Logger:          logger.Named("questions"),
	})
	if client.Fallback() != nil {
		logger.Info("questions backend not configured; keeping questions in memory")
	}

	registry := shopper.NewRegistry(shopper.Config{
		TTL:           cfg.Shopper.TTL,
		SweepInterval: cfg.Shopper.SweepInterval,
		FocusDelay:    cfg.Overlay.FocusDelay,
		Logger:        logger.Named("shopper"),
	})

	return &app{
		logger:    logger,
		catalog:   cat,
		views:     renderer,
		sessions:  sessions,
		shoppers:  registry,
		questions: client,
		asked:     client.Fallback(),
		taxRate:   cfg.Pricing.TaxRate,
		shipping:  pricing.DefaultShippingOptions(),
	}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
