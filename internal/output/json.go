package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
)

// RowJSON is the wire form of an indicator row. Undefined values encode as null.
type RowJSON struct {
	Date     string   `json:"date"`
	Open     *float64 `json:"open"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Close    *float64 `json:"close"`
	AdjClose *float64 `json:"adj_close"`
	Volume   int64    `json:"volume"`

	MA10          *float64 `json:"ma10"`
	MA20          *float64 `json:"ma20"`
	MA50          *float64 `json:"ma50"`
	MA200         *float64 `json:"ma200"`
	BBUpper       *float64 `json:"bb_upper"`
	BBMid         *float64 `json:"bb_mid"`
	BBLower       *float64 `json:"bb_lower"`
	RSI9          *float64 `json:"rsi9"`
	RSI14         *float64 `json:"rsi14"`
	MACDLine      *float64 `json:"macd_line"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	ATR14         *float64 `json:"atr14"`
}

// TableJSON is the wire form of an indicator table
type TableJSON struct {
	RunID      string    `json:"run_id"`
	Symbol     string    `json:"symbol"`
	ComputedAt time.Time `json:"computed_at"`
	Count      int       `json:"count"`
	Rows       []RowJSON `json:"rows"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewRowJSON converts a row, formatting its date with layout
func NewRowJSON(row *models.IndicatorRow, layout string) RowJSON {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return RowJSON{
		Date:          row.Date.Format(layout),
		Open:          optional(row.Open),
		High:          optional(row.High),
		Low:           optional(row.Low),
		Close:         optional(row.Close),
		AdjClose:      optional(row.AdjClose),
		Volume:        row.Volume,
		MA10:          optional(row.MA10),
		MA20:          optional(row.MA20),
		MA50:          optional(row.MA50),
		MA200:         optional(row.MA200),
		BBUpper:       optional(row.BBUpper),
		BBMid:         optional(row.BBMid),
		BBLower:       optional(row.BBLower),
		RSI9:          optional(row.RSI9),
		RSI14:         optional(row.RSI14),
		MACDLine:      optional(row.MACDLine),
		MACDSignal:    optional(row.MACDSignal),
		MACDHistogram: optional(row.MACDHistogram),
		ATR14:         optional(row.ATR14),
	}
}

// NewTableJSON converts a whole table
func NewTableJSON(table *models.IndicatorTable, layout string) TableJSON {
	rows := make([]RowJSON, len(table.Rows))
	for i := range table.Rows {
		rows[i] = NewRowJSON(&table.Rows[i], layout)
	}
	return TableJSON{
		RunID:      table.RunID,
		Symbol:     table.Symbol,
		ComputedAt: table.ComputedAt,
		Count:      len(rows),
		Rows:       rows,
	}
}

// JSONWriter writes indicator tables as JSON documents
type JSONWriter struct {
	dateLayout string
	indent     bool
}

// NewJSONWriter creates a JSON writer
func NewJSONWriter(dateLayout string, indent bool) *JSONWriter {
	return &JSONWriter{dateLayout: dateLayout, indent: indent}
}

// Write encodes table to out
func (w *JSONWriter) Write(out io.Writer, table *models.IndicatorTable) error {
	enc := json.NewEncoder(out)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewTableJSON(table, w.dateLayout)); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return nil
}
