package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/shopspring/decimal"
)

// Price column headers, in output order
var priceHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// DefaultDateLayout is the output date format
const DefaultDateLayout = "2006-01-02"

// derivedPlaces is the number of decimals written for derived columns
const derivedPlaces = 2

// Header returns the full output header
func Header() []string {
	header := make([]string, 0, len(priceHeader)+len(models.IndicatorColumns))
	header = append(header, priceHeader...)
	return append(header, models.IndicatorColumns...)
}

// CSVWriter writes indicator tables as CSV
type CSVWriter struct {
	dateLayout string
}

// NewCSVWriter creates a CSV writer. An empty layout selects DefaultDateLayout.
func NewCSVWriter(dateLayout string) *CSVWriter {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &CSVWriter{dateLayout: dateLayout}
}

// Write writes the header and one record per row
func (w *CSVWriter) Write(out io.Writer, table *models.IndicatorTable) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, 0, len(priceHeader)+len(models.IndicatorColumns))
	for i := range table.Rows {
		record = w.appendRecord(record[:0], &table.Rows[i])
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func (w *CSVWriter) appendRecord(record []string, row *models.IndicatorRow) []string {
	record = append(record,
		row.Date.Format(w.dateLayout),
		FormatPrice(row.Open),
		FormatPrice(row.High),
		FormatPrice(row.Low),
		FormatPrice(row.Close),
		FormatPrice(row.AdjClose),
		strconv.FormatInt(row.Volume, 10),
	)
	for _, v := range row.Values() {
		record = append(record, FormatDerived(v))
	}
	return record
}

// FormatPrice writes an input price as read, without padding
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).String()
}

// FormatDerived writes a derived value with two fixed decimals, or an empty
// field when the value is undefined
func FormatDerived(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	return decimal.NewFromFloat(v).StringFixed(derivedPlaces)
}
