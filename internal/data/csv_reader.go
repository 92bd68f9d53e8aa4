package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
)

// ErrMalformedRow is returned when a data row has the wrong number of fields
var ErrMalformedRow = errors.New("malformed CSV row")

// CSVReaderConfig holds configuration for reading daily price CSV files
type CSVReaderConfig struct {
	// DateLayouts are tried in order for every Date cell
	DateLayouts []string
	// Strict rejects unparseable prices, negative volumes and duplicate
	// dates. When false those rows are kept: bad prices become undefined,
	// bad volumes become 0, and the last row of a duplicated date wins.
	Strict bool
}

// DefaultCSVReaderConfig returns default configuration
func DefaultCSVReaderConfig() CSVReaderConfig {
	return CSVReaderConfig{
		DateLayouts: []string{"2006/01/02", "2006-01-02"},
		Strict:      true,
	}
}

// CSVReader parses a daily OHLCV CSV into a date-sorted bar slice
type CSVReader struct {
	config CSVReaderConfig
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(config CSVReaderConfig) *CSVReader {
	if len(config.DateLayouts) == 0 {
		config.DateLayouts = DefaultCSVReaderConfig().DateLayouts
	}
	return &CSVReader{config: config}
}

// ReadFile reads bars from a CSV file on disk
func (r *CSVReader) ReadFile(path string) ([]models.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	bars, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// Read parses bars from a CSV stream and returns them sorted ascending by date
func (r *CSVReader) Read(in io.Reader) ([]models.PriceBar, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", models.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, width, err := buildColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []models.PriceBar
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(record) != width {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrMalformedRow, line, len(record), width)
		}

		bar, err := r.parseRecord(cols, record, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return r.dedupe(bars)
}

func (r *CSVReader) parseRecord(cols columnIndex, record []string, line int) (models.PriceBar, error) {
	var bar models.PriceBar

	rawDate, _ := cols.value(record, colDate)
	date, err := r.parseDate(rawDate)
	if err != nil {
		return bar, err
	}
	bar.Date = date

	fields := []struct {
		key  string
		dest *float64
	}{
		{colOpen, &bar.Open},
		{colHigh, &bar.High},
		{colLow, &bar.Low},
		{colClose, &bar.Close},
	}
	for _, f := range fields {
		raw, _ := cols.value(record, f.key)
		v, err := r.parsePrice(f.key, raw, line)
		if err != nil {
			return bar, err
		}
		*f.dest = v
	}

	bar.AdjClose = bar.Close
	if raw, ok := cols.value(record, colAdjClose); ok && raw != "" {
		v, err := r.parsePrice(colAdjClose, raw, line)
		if err != nil {
			return bar, err
		}
		bar.AdjClose = v
	}

	rawVolume, _ := cols.value(record, colVolume)
	volume, err := parseVolume(rawVolume)
	if err != nil {
		if r.config.Strict {
			return bar, err
		}
		logger.Warn("Invalid volume, using 0",
			logger.Int("line", line),
			logger.String("value", rawVolume),
		)
		volume = 0
	}
	bar.Volume = volume

	return bar, nil
}

func (r *CSVReader) parseDate(raw string) (time.Time, error) {
	for _, layout := range r.config.DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, raw)
}

func (r *CSVReader) parsePrice(column, raw string, line int) (float64, error) {
	v, err := parseNumber(raw)
	if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v, nil
	}
	if r.config.Strict {
		return 0, fmt.Errorf("%w: %s=%q", models.ErrInvalidPrice, column, raw)
	}
	logger.Warn("Invalid price, treating as undefined",
		logger.Int("line", line),
		logger.String("column", column),
		logger.String("value", raw),
	)
	return math.NaN(), nil
}

// dedupe enforces strictly increasing dates on a sorted slice
func (r *CSVReader) dedupe(bars []models.PriceBar) ([]models.PriceBar, error) {
	if len(bars) < 2 {
		return bars, nil
	}

	out := bars[:1]
	for _, bar := range bars[1:] {
		last := &out[len(out)-1]
		if !bar.Date.Equal(last.Date) {
			out = append(out, bar)
			continue
		}
		if r.config.Strict {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateDate, bar.Date.Format("2006-01-02"))
		}
		logger.Warn("Duplicate date, keeping last row",
			logger.Date("date", bar.Date),
		)
		*last = bar
	}
	return out, nil
}

// parseNumber accepts plain decimals and thousands separators ("1,234.5")
func parseNumber(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" || strings.EqualFold(raw, "null") {
		return math.NaN(), fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(raw, 64)
}

// parseVolume accepts integer or float text ("1234" or "1234.0")
func parseVolume(raw string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %d", models.ErrInvalidVolume, v)
		}
		return v, nil
	}
	f, err := parseNumber(clean)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidVolume, raw)
	}
	return int64(f), nil
}
