package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cfg, err := cli.LoadConfig("expenses-worker", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)
	logger.Info("Starting expenses-worker", "broker", cfg.EventsBroker)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	factory := backend.NewFactory(logger)
	mirror, err := factory.CreateMirror(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err)
		os.Exit(1)
	}
	consumer, err := factory.CreateConsumer(cfg)
	if err != nil {
		logger.Error("Failed to initialize events consumer", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(mirror)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consumer.Consume(gctx, syncWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, cfg.ShutdownTimeout,
			cli.ShutdownStep{Name: "consumer", Fn: func(context.Context) error { return consumer.Close() }},
		)
	})

	err = g.Wait()
	processed, failed := syncWorker.Stats()
	logger.Info("Worker stopped", "processed", processed, "failed", failed)
	if err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}
