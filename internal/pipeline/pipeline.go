package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/data"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/indicator"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Publisher receives every computed table
type Publisher interface {
	Publish(ctx context.Context, table *models.IndicatorTable) error
}

// Pipeline reads a price CSV, computes the indicator table and hands it to
// the configured sinks
type Pipeline struct {
	reader    *data.CSVReader
	engine    *indicator.Engine
	store     storage.IndicatorStorage
	publisher Publisher
}

// Option configures optional sinks
type Option func(*Pipeline)

// WithStore persists every table to store
func WithStore(store storage.IndicatorStorage) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithPublisher publishes every table with publisher
func WithPublisher(publisher Publisher) Option {
	return func(p *Pipeline) { p.publisher = publisher }
}

// New creates a pipeline
func New(reader *data.CSVReader, engine *indicator.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{reader: reader, engine: engine}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the engine the pipeline computes with
func (p *Pipeline) Engine() *indicator.Engine {
	return p.engine
}

// RunFile runs the pipeline over a CSV file
func (p *Pipeline) RunFile(ctx context.Context, symbol, path string) (*models.IndicatorTable, error) {
	bars, err := p.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.RunBars(ctx, symbol, bars)
}

// Run runs the pipeline over a CSV stream
func (p *Pipeline) Run(ctx context.Context, symbol string, in io.Reader) (*models.IndicatorTable, error) {
	bars, err := p.reader.Read(in)
	if err != nil {
		return nil, err
	}
	return p.RunBars(ctx, symbol, bars)
}

// RunBars computes the table for bars and delivers it to the sinks. Sinks
// run concurrently; the table is returned together with the first sink error.
// An input without rows is rejected before anything reaches a sink.
func (p *Pipeline) RunBars(ctx context.Context, symbol string, bars []models.PriceBar) (*models.IndicatorTable, error) {
	if len(bars) == 0 {
		return nil, models.ErrEmptySeries
	}
	table, err := p.engine.Compute(symbol, bars)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.store != nil {
		g.Go(func() error {
			if err := p.store.WriteRows(gctx, table.RunID, table.Symbol, table.Rows); err != nil {
				return fmt.Errorf("failed to persist run %s: %w", table.RunID, err)
			}
			return nil
		})
	}
	if p.publisher != nil {
		g.Go(func() error {
			if err := p.publisher.Publish(gctx, table); err != nil {
				return fmt.Errorf("failed to publish run %s: %w", table.RunID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ForRun(table.RunID, symbol).Error("Indicator sink failed", logger.ErrorField(err))
		return table, err
	}

	return table, nil
}
