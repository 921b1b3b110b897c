package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/api"
	"github.com/sheikh-saqib/token-ledger/internal/config"
	"github.com/sheikh-saqib/token-ledger/internal/events/kafka"
	eventlog "github.com/sheikh-saqib/token-ledger/internal/events/logger"
	"github.com/sheikh-saqib/token-ledger/internal/host"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/ledger"
	"github.com/sheikh-saqib/token-ledger/internal/logging"
	"github.com/sheikh-saqib/token-ledger/internal/metrics"
	"github.com/sheikh-saqib/token-ledger/internal/storage"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "token-ledger",
		Usage: "fungible token ledger service",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "open or construct the ledger and serve the HTTP API",
				Action: serve,
			},
			{
				Name:   "audit",
				Usage:  "check that stored balances add up to the total supply",
				Action: audit,
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.Open(c.Context, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	var publisher interfaces.EventPublisher = eventlog.NewPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
	}
	defer publisher.Close()

	m := metrics.New()
	h, err := host.Bootstrap(c.Context, store, cfg.Token, publisher, m, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(h, m, logger).Handler(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-c.Context.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func audit(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	store, err := storage.Open(c.Context, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	l, err := ledger.Open(c.Context, store)
	if err != nil {
		return err
	}
	report, err := l.Audit(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "token:        %s\n", l.Name())
	fmt.Fprintf(c.App.Writer, "total supply: %s\n", report.TotalSupply.Dec())
	fmt.Fprintf(c.App.Writer, "circulating:  %s\n", report.Circulating.Dec())
	fmt.Fprintf(c.App.Writer, "holders:      %d\n", report.Holders)
	if !report.Balanced {
		return cli.Exit("conservation invariant violated", 2)
	}
	return nil
}
