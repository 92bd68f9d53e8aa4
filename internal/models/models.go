package models

import (
	"fmt"
	"math"
	"time"
)

// Output column names. Downstream consumers key off these literals.
const (
	ColMA10          = "MA10"
	ColMA20          = "MA20"
	ColMA50          = "MA50"
	ColMA200         = "MA200"
	ColBBUpper       = "BB_Upper"
	ColBBMid         = "BB_Mid"
	ColBBLower       = "BB_Lower"
	ColRSI9          = "RSI9"
	ColRSI14         = "RSI14"
	ColMACDLine      = "MACD_Line"
	ColMACDSignal    = "MACD_Signal"
	ColMACDHistogram = "MACD_Histogram"
	ColATR14         = "ATR14"
)

// IndicatorColumns lists the derived columns in output order
var IndicatorColumns = []string{
	ColMA10, ColMA20, ColMA50, ColMA200,
	ColBBUpper, ColBBMid, ColBBLower,
	ColRSI9, ColRSI14,
	ColMACDLine, ColMACDSignal, ColMACDHistogram,
	ColATR14,
}

// PriceBar represents one daily OHLCV record
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Validate validates a PriceBar. High/low ordering is not checked; such
// rows are passed through to the indicators as they are.
func (b *PriceBar) Validate() error {
	if b.Date.IsZero() {
		return ErrInvalidDate
	}
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close, b.AdjClose} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return ErrInvalidPrice
		}
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// IndicatorRow is the output record for one input row. Derived fields hold
// NaN while their warm-up period has not elapsed.
type IndicatorRow struct {
	PriceBar

	MA10          float64
	MA20          float64
	MA50          float64
	MA200         float64
	BBUpper       float64
	BBMid         float64
	BBLower       float64
	RSI9          float64
	RSI14         float64
	MACDLine      float64
	MACDSignal    float64
	MACDHistogram float64
	ATR14         float64
}

// NewIndicatorRow returns a row for bar with every derived field undefined
func NewIndicatorRow(bar PriceBar) IndicatorRow {
	nan := math.NaN()
	return IndicatorRow{
		PriceBar:      bar,
		MA10:          nan,
		MA20:          nan,
		MA50:          nan,
		MA200:         nan,
		BBUpper:       nan,
		BBMid:         nan,
		BBLower:       nan,
		RSI9:          nan,
		RSI14:         nan,
		MACDLine:      nan,
		MACDSignal:    nan,
		MACDHistogram: nan,
		ATR14:         nan,
	}
}

func (r *IndicatorRow) field(column string) (*float64, error) {
	switch column {
	case ColMA10:
		return &r.MA10, nil
	case ColMA20:
		return &r.MA20, nil
	case ColMA50:
		return &r.MA50, nil
	case ColMA200:
		return &r.MA200, nil
	case ColBBUpper:
		return &r.BBUpper, nil
	case ColBBMid:
		return &r.BBMid, nil
	case ColBBLower:
		return &r.BBLower, nil
	case ColRSI9:
		return &r.RSI9, nil
	case ColRSI14:
		return &r.RSI14, nil
	case ColMACDLine:
		return &r.MACDLine, nil
	case ColMACDSignal:
		return &r.MACDSignal, nil
	case ColMACDHistogram:
		return &r.MACDHistogram, nil
	case ColATR14:
		return &r.ATR14, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// Set assigns a derived value by column name
func (r *IndicatorRow) Set(column string, value float64) error {
	f, err := r.field(column)
	if err != nil {
		return err
	}
	*f = value
	return nil
}

// Get returns a derived value by column name
func (r *IndicatorRow) Get(column string) (float64, error) {
	f, err := r.field(column)
	if err != nil {
		return 0, err
	}
	return *f, nil
}

// Values returns the derived values in IndicatorColumns order
func (r *IndicatorRow) Values() []float64 {
	return []float64{
		r.MA10, r.MA20, r.MA50, r.MA200,
		r.BBUpper, r.BBMid, r.BBLower,
		r.RSI9, r.RSI14,
		r.MACDLine, r.MACDSignal, r.MACDHistogram,
		r.ATR14,
	}
}

// IndicatorTable is the result of one engine run
type IndicatorTable struct {
	RunID      string
	Symbol     string
	ComputedAt time.Time
	Rows       []IndicatorRow
}

// Len returns the number of rows
func (t *IndicatorTable) Len() int {
	return len(t.Rows)
}

// Last returns the most recent row, if any
func (t *IndicatorTable) Last() (IndicatorRow, bool) {
	if len(t.Rows) == 0 {
		return IndicatorRow{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}
