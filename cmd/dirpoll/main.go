// Package main is the entry point for the dirpoll application.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/dirpoll/internal/config"
	"github.com/joe/dirpoll/internal/consumer"
	"github.com/joe/dirpoll/internal/logging"
	"github.com/joe/dirpoll/internal/metrics"
	"github.com/joe/dirpoll/internal/output"
	"github.com/joe/dirpoll/internal/poller"
	pkgerrors "github.com/joe/dirpoll/pkg/errors"
	"github.com/joe/dirpoll/pkg/filesystem"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2

	metricsShutdownTimeout = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	defer func() {
		_ = logging.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr)
		defer shutdown()
	}

	if err := poll(ctx, cfg); err != nil {
		reportError(err)
		return exitFailed
	}

	return exitOK
}

// poll opens the source and runs one or more poll cycles.
func poll(ctx context.Context, cfg *config.Config) error {
	source, err := filesystem.CreateSource(ctx, cfg.Source, cfg.SourceOptions())
	if err != nil {
		return err //nolint:wrapcheck // Already names the source
	}

	defer func() {
		if err := source.Close(); err != nil {
			logging.Warn("failed to close source", zap.Error(err))
		}
	}()

	logger := logging.L().With(zap.String("source", source.Host))

	p := poller.New(source.Lister, cfg.PollerOptions(source.Root, source.Host))
	p.SetLogger(logger.Named("poller"))

	filters, idempotent, err := cfg.Filters()
	if err != nil {
		return err //nolint:wrapcheck // Already names the bad pattern
	}

	p.SetFilter(filters)

	if cfg.Verbose {
		events := output.NewEventPrinter(os.Stderr)
		defer events.Close()

		p.SetEventEmitter(events)
	}

	opts := cfg.ConsumerOptions()
	opts.OnReady = func() {
		logger.Info("source is ready", zap.String("root", source.Root))
	}

	c := consumer.New(p, opts)
	c.SetIdempotent(idempotent)
	c.SetLogger(logger.Named("consumer"))

	printer := output.NewPrinter(os.Stdout, cfg.Output, term.IsTerminal(int(os.Stdout.Fd())))

	if cfg.Once {
		batch, err := c.PollOnce(ctx)
		if batch != nil && len(batch.Files) > 0 {
			if printErr := printer.PrintBatch(batch); printErr != nil {
				return printErr
			}
		}

		return err
	}

	logger.Info("polling", zap.String("root", source.Root), zap.Duration("interval", cfg.Interval))

	return c.Run(ctx, func(_ context.Context, batch *consumer.Batch) error {
		return printer.PrintBatch(batch)
	})
}

// serveMetrics exposes Prometheus metrics in the background.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsShutdownTimeout,
	}

	go func() {
		logging.Info("metrics server listening", zap.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(ctx)
	}
}

// reportError prints err with suggestions derived from its category.
func reportError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	var listErr *filesystem.ListError

	path := ""
	if errors.As(err, &listErr) {
		path = listErr.Path
	}

	enriched := pkgerrors.NewEnricher().Enrich(err, path)

	fmt.Fprintln(os.Stderr, output.RenderError("Error: "+enriched.Error()))

	if suggestions := pkgerrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintln(os.Stderr, suggestions)
	}
}
