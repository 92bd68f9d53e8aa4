package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/config"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/data"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/indicator"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/output"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/parity"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pipeline"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pubsub"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	in := flag.String("in", cfg.Indicators.InputPath, "input OHLCV CSV file")
	out := flag.String("out", cfg.Indicators.OutputPath, "output file, - for stdout")
	symbol := flag.String("symbol", cfg.Indicators.Symbol, "instrument symbol")
	format := flag.String("format", cfg.Indicators.OutputFormat, "output format: csv or json")
	checkParity := flag.Bool("parity", false, "cross-check SMAs against techan")
	flag.Parse()

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment, "indicators"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks, err := buildSinks(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize sinks", logger.ErrorField(err))
		logger.Sync()
		os.Exit(1)
	}
	defer closeSinks()

	opts := runOptions{
		In:          *in,
		Out:         *out,
		Symbol:      *symbol,
		Format:      *format,
		CheckParity: *checkParity,
	}
	if err := run(ctx, cfg, opts, sinks...); err != nil {
		logger.Error("Indicator run failed", logger.ErrorField(err))
		closeSinks()
		logger.Sync()
		os.Exit(1)
	}
}

// runOptions are the per-invocation flags
type runOptions struct {
	In          string
	Out         string // "-" writes to stdout
	Symbol      string
	Format      string
	CheckParity bool
}

// buildSinks opens the store and publisher enabled in cfg. The returned
// close func is safe to call more than once.
func buildSinks(ctx context.Context, cfg *config.Config) ([]pipeline.Option, func(), error) {
	var (
		opts    []pipeline.Option
		closers []func() error
		once    sync.Once
	)
	closeAll := func() {
		once.Do(func() {
			for _, c := range closers {
				c()
			}
		})
	}

	if cfg.Indicators.DBEnabled {
		store, err := storage.NewIndicatorStore(cfg.Database)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to initialize indicator store: %w", err)
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, closeAll, err
		}
		opts = append(opts, pipeline.WithStore(store))
	}
	if cfg.Indicators.RedisEnabled {
		redisClient, err := pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			closeAll()
			return nil, closeAll, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		closers = append(closers, redisClient.Close)
		publisherConfig := pubsub.SnapshotPublisherConfigFromRedisConfig(cfg.Redis)
		publisherConfig.DateLayout = cfg.Indicators.OutputDateLayout
		opts = append(opts, pipeline.WithPublisher(pubsub.NewSnapshotPublisher(redisClient, publisherConfig)))
	}
	return opts, closeAll, nil
}

// run reads, computes and writes one table. A sink failure does not stop
// the output from being written; it is returned afterwards.
func run(ctx context.Context, cfg *config.Config, opts runOptions, sinks ...pipeline.Option) error {
	started := time.Now()

	writer, err := output.NewTableWriter(opts.Format, cfg.Indicators.OutputDateLayout)
	if err != nil {
		return err
	}

	engineConfig := indicator.DefaultEngineConfig()
	engineConfig.Parallel = cfg.Indicators.Parallel
	engine, err := indicator.NewDefaultEngine(engineConfig)
	if err != nil {
		return err
	}

	reader := data.NewCSVReader(data.CSVReaderConfig{
		DateLayouts: cfg.Indicators.DateLayouts,
		Strict:      cfg.Indicators.StrictInput,
	})

	bars, err := reader.ReadFile(opts.In)
	if err != nil {
		return err
	}
	logger.Info("Loaded price series",
		logger.String("input", opts.In),
		logger.Symbol(opts.Symbol),
		logger.Int("rows", len(bars)),
	)

	if opts.CheckParity {
		if err := checkSMAParity(bars); err != nil {
			return err
		}
	}

	table, sinkErr := pipeline.New(reader, engine, sinks...).RunBars(ctx, opts.Symbol, bars)
	if table == nil {
		return sinkErr
	}

	if opts.Out == "-" {
		err = writer.Write(os.Stdout, table)
	} else {
		err = output.WriteFile(opts.Out, writer, table)
	}
	if err != nil {
		return err
	}

	logger.Info("Indicator run complete",
		logger.RunID(table.RunID),
		logger.String("output", opts.Out),
		logger.String("format", opts.Format),
		logger.Int("rows", table.Len()),
		logger.Bool("sinks_ok", sinkErr == nil),
		logger.Duration("duration", time.Since(started)),
	)
	return sinkErr
}

func checkSMAParity(bars []models.PriceBar) error {
	reports, err := parity.CompareDefaultSMAs(bars, parity.DefaultTolerance)
	if err != nil {
		return fmt.Errorf("parity check failed: %w", err)
	}
	for _, report := range reports {
		logger.Info("Parity check",
			logger.String("indicator", report.Indicator),
			logger.Int("compared", report.Compared),
			logger.Float64("max_abs_diff", report.MaxAbsDiff),
			logger.Bool("ok", report.OK()),
		)
		if !report.OK() {
			return fmt.Errorf("parity check failed: %s", report)
		}
	}
	return nil
}
