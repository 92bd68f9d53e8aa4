package indicator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	indicatorpkg "github.com/mohamedkhairy/ohlcv-indicators/pkg/indicator"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// EngineConfig holds configuration for the indicator engine
type EngineConfig struct {
	// Parallel computes independent studies concurrently
	Parallel bool
	// MaxWorkers bounds concurrent studies when Parallel is set (0 = one per study)
	MaxWorkers int
}

// DefaultEngineConfig returns default configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallel:   true,
		MaxWorkers: 0,
	}
}

// Engine turns a date-sorted price series into an indicator table. It keeps
// no state between runs, so one Engine may serve concurrent callers.
type Engine struct {
	config   EngineConfig
	registry *IndicatorRegistry
	now      func() time.Time
}

// NewEngine creates a new indicator engine
func NewEngine(config EngineConfig, registry *IndicatorRegistry) *Engine {
	return &Engine{
		config:   config,
		registry: registry,
		now:      time.Now,
	}
}

// NewDefaultEngine creates an engine with the default studies registered
func NewDefaultEngine(config EngineConfig) (*Engine, error) {
	registry := NewIndicatorRegistry()
	if err := RegisterDefaultStudies(registry); err != nil {
		return nil, fmt.Errorf("failed to register studies: %w", err)
	}
	return NewEngine(config, registry), nil
}

// Columns returns the output columns the engine fills
func (e *Engine) Columns() []ColumnInfo {
	return e.registry.Columns()
}

// Compute runs every registered study over bars and assembles one row per
// bar, in input order. bars must already be sorted ascending by date; it is
// read but never modified. Derived values are rounded to two decimals only
// after every study has finished. An empty input yields an empty table.
func (e *Engine) Compute(symbol string, bars []models.PriceBar) (*models.IndicatorTable, error) {
	start := e.now()
	runID := uuid.NewString()
	src := sourceFromBars(bars)
	studies := e.registry.Studies()

	outputs, err := e.runStudies(studies, src)
	if err != nil {
		engineRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rows := make([]models.IndicatorRow, len(bars))
	for i, bar := range bars {
		rows[i] = models.NewIndicatorRow(bar)
	}
	for si, study := range studies {
		for ci, col := range study.Columns {
			if col.Name == "" {
				continue
			}
			series := outputs[si][ci]
			for i := range rows {
				if err := rows[i].Set(col.Name, indicatorpkg.Round2(series[i])); err != nil {
					engineRunsTotal.WithLabelValues("error").Inc()
					return nil, err
				}
			}
		}
	}

	engineRunsTotal.WithLabelValues("success").Inc()
	engineRowsTotal.Add(float64(len(rows)))
	logger.Info("Computed indicator table",
		logger.RunID(runID),
		logger.Symbol(symbol),
		logger.Int("rows", len(rows)),
		logger.Int("studies", len(studies)),
		logger.Duration("duration", e.now().Sub(start)),
	)

	return &models.IndicatorTable{
		RunID:      runID,
		Symbol:     symbol,
		ComputedAt: start.UTC(),
		Rows:       rows,
	}, nil
}

// runStudies returns outputs[study][output]. Studies share only the
// read-only source, so they can run in any order.
func (e *Engine) runStudies(studies []Study, src *indicatorpkg.Source) ([][]indicatorpkg.Series, error) {
	outputs := make([][]indicatorpkg.Series, len(studies))

	run := func(i int) error {
		study := studies[i]
		name := study.Calculator.Name()
		began := time.Now()

		series := study.Calculator.Calculate(src)
		if len(series) != len(study.Columns) {
			return fmt.Errorf("%w: study %q returned %d series for %d columns",
				models.ErrLengthMismatch, name, len(series), len(study.Columns))
		}
		for _, s := range series {
			if len(s) != src.Len() {
				return fmt.Errorf("%w: study %q returned %d values for %d rows",
					models.ErrLengthMismatch, name, len(s), src.Len())
			}
		}

		elapsed := time.Since(began)
		studyDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		logger.Debug("Computed study",
			logger.Study(name),
			logger.Int("rows", src.Len()),
			logger.Duration("duration", elapsed),
		)
		outputs[i] = series
		return nil
	}

	if !e.config.Parallel {
		for i := range studies {
			if err := run(i); err != nil {
				return nil, err
			}
		}
		return outputs, nil
	}

	var g errgroup.Group
	if e.config.MaxWorkers > 0 {
		g.SetLimit(e.config.MaxWorkers)
	}
	for i := range studies {
		i := i
		g.Go(func() error { return run(i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// sourceFromBars copies the price columns out of bars
func sourceFromBars(bars []models.PriceBar) *indicatorpkg.Source {
	n := len(bars)
	src := &indicatorpkg.Source{
		Open:  make(indicatorpkg.Series, n),
		High:  make(indicatorpkg.Series, n),
		Low:   make(indicatorpkg.Series, n),
		Close: make(indicatorpkg.Series, n),
	}
	for i, b := range bars {
		src.Open[i] = b.Open
		src.High[i] = b.High
		src.Low[i] = b.Low
		src.Close[i] = b.Close
	}
	return src
}
