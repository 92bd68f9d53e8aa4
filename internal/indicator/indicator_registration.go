package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	indicatorpkg "github.com/mohamedkhairy/ohlcv-indicators/pkg/indicator"
)

// Parameters of the daily indicator table
const (
	bollingerWindow     = 20
	bollingerMultiplier = 2.0
	macdFast            = 12
	macdSlow            = 26
	macdSignal          = 9
	atrPeriod           = 14
)

var (
	smaWindows = []struct {
		window int
		column string
	}{
		{10, models.ColMA10},
		{20, models.ColMA20},
		{50, models.ColMA50},
		{200, models.ColMA200},
	}

	rsiPeriods = []struct {
		period int
		column string
	}{
		{9, models.ColRSI9},
		{14, models.ColRSI14},
	}
)

// First defined row per indicator, 0-indexed.
const (
	// SMA and Bollinger need a full window
	firstIndexBollinger = bollingerWindow - 1
	// The MACD line needs the slow EMA seed
	firstIndexMACDLine = macdSlow - 1
	// The signal needs macdSignal defined MACD line values
	firstIndexMACDSignal = macdSlow + macdSignal - 2
	// True range starts at row 1, which moves the Wilder seed to row period
	firstIndexATR = atrPeriod
)

func firstIndexSMA(window int) int { return window - 1 }

// The Wilder seed of an RSI sits at row period, one row after period-1,
// because the first price change is undefined.
func firstIndexRSI(period int) int { return period }

// RegisterDefaultStudies registers the studies of the daily indicator table
func RegisterDefaultStudies(registry *IndicatorRegistry) error {
	if err := registerTrendStudies(registry); err != nil {
		return err
	}
	if err := registerMomentumStudies(registry); err != nil {
		return err
	}
	return registerVolatilityStudies(registry)
}

func registerTrendStudies(registry *IndicatorRegistry) error {
	for _, s := range smaWindows {
		calc, err := indicatorpkg.NewSMA(s.window)
		if err != nil {
			return err
		}
		if err := registry.Register(Study{
			Calculator: calc,
			Columns:    []ColumnInfo{{Name: s.column, FirstIndex: firstIndexSMA(s.window)}},
			Metadata: StudyMetadata{
				Name:        calc.Name(),
				Description: fmt.Sprintf("Simple Moving Average (%d period)", s.window),
				Category:    "trend",
				Parameters:  map[string]interface{}{"window": s.window},
			},
		}); err != nil {
			return err
		}
	}

	macd, err := indicatorpkg.NewMACD(macdFast, macdSlow, macdSignal)
	if err != nil {
		return err
	}
	return registry.Register(Study{
		Calculator: macd,
		Columns: []ColumnInfo{
			{Name: models.ColMACDLine, FirstIndex: firstIndexMACDLine},
			{Name: models.ColMACDSignal, FirstIndex: firstIndexMACDSignal},
			{Name: models.ColMACDHistogram, FirstIndex: firstIndexMACDSignal},
		},
		Metadata: StudyMetadata{
			Name:        macd.Name(),
			Description: fmt.Sprintf("MACD (%d, %d, %d)", macdFast, macdSlow, macdSignal),
			Category:    "trend",
			Parameters: map[string]interface{}{
				"fast_period":   macdFast,
				"slow_period":   macdSlow,
				"signal_period": macdSignal,
			},
		},
	})
}

func registerMomentumStudies(registry *IndicatorRegistry) error {
	for _, r := range rsiPeriods {
		calc, err := indicatorpkg.NewRSI(r.period)
		if err != nil {
			return err
		}
		if err := registry.Register(Study{
			Calculator: calc,
			Columns:    []ColumnInfo{{Name: r.column, FirstIndex: firstIndexRSI(r.period)}},
			Metadata: StudyMetadata{
				Name:        calc.Name(),
				Description: fmt.Sprintf("Relative Strength Index (%d period)", r.period),
				Category:    "momentum",
				Parameters:  map[string]interface{}{"period": r.period},
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func registerVolatilityStudies(registry *IndicatorRegistry) error {
	bb, err := indicatorpkg.NewBollingerBands(bollingerWindow, bollingerMultiplier)
	if err != nil {
		return err
	}
	if err := registry.Register(Study{
		Calculator: bb,
		Columns: []ColumnInfo{
			{Name: models.ColBBUpper, FirstIndex: firstIndexBollinger},
			{Name: models.ColBBMid, FirstIndex: firstIndexBollinger},
			{Name: models.ColBBLower, FirstIndex: firstIndexBollinger},
		},
		Metadata: StudyMetadata{
			Name:        bb.Name(),
			Description: fmt.Sprintf("Bollinger Bands (%d, %.0fσ)", bollingerWindow, bollingerMultiplier),
			Category:    "volatility",
			Parameters: map[string]interface{}{
				"window":     bollingerWindow,
				"multiplier": bollingerMultiplier,
			},
		},
	}); err != nil {
		return err
	}

	atr, err := indicatorpkg.NewATR(atrPeriod)
	if err != nil {
		return err
	}
	return registry.Register(Study{
		Calculator: atr,
		Columns:    []ColumnInfo{{Name: models.ColATR14, FirstIndex: firstIndexATR}},
		Metadata: StudyMetadata{
			Name:        atr.Name(),
			Description: fmt.Sprintf("Average True Range (%d period)", atrPeriod),
			Category:    "volatility",
			Parameters:  map[string]interface{}{"period": atrPeriod},
		},
	})
}
