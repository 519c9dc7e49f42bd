package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/auth"
	"expenses/internal/backend"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
)

func main() {
	cfg, err := cli.LoadConfig("expenses", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.ValidateServer)

	tokens, err := auth.ParseTokens(cfg.AuthTokens)
	if err == nil && len(tokens) == 0 {
		err = errors.New("no token:owner pairs")
	}
	if err != nil {
		logger.Error("Invalid AUTH_TOKENS", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	store, err := factory.CreateStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	publisher, err := factory.CreatePublisher(cfg)
	if err != nil {
		logger.Error("Failed to initialize events publisher", log.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	svc := services.NewExpenseService(store, publisher)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SummaryCacheTTL:    cfg.SummaryCacheTTL,
		TrustedProxies:     cfg.TrustedProxies,
	}, svc, auth.NewTokenAuthenticator(tokens), logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 35 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"broker", cfg.EventsBroker,
			"owners", len(tokens))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, cfg.ShutdownTimeout,
			cli.ShutdownStep{Name: "http", Fn: srv.Shutdown},
			cli.ShutdownStep{Name: "service", Fn: func(context.Context) error { return svc.Close() }},
		)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
