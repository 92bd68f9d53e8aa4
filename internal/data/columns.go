package data

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
)

// Canonical input column keys
const (
	colDate     = "date"
	colOpen     = "open"
	colHigh     = "high"
	colLow      = "low"
	colClose    = "close"
	colAdjClose = "adjclose"
	colVolume   = "volume"
)

var requiredColumns = []string{colDate, colOpen, colHigh, colLow, colClose, colVolume}

// canonicalColumn folds a header cell to its lookup key: lower case with
// spaces, underscores, dashes, dots and commas removed, so "Adj Close",
// "adj_close", "AdjClose" and the quoted typo "Adj,Close" all match.
func canonicalColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '_', '-', '.', ',', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// columnIndex maps canonical column keys to field positions
type columnIndex map[string]int

// buildColumnIndex normalizes a header row. It returns the index and the
// number of fields each data row is expected to carry. An unquoted
// "Adj,Close" typo splits into "Adj" followed by a second "Close"; those
// two cells are merged back into one adjusted-close column.
func buildColumnIndex(header []string) (columnIndex, int, error) {
	idx := make(columnIndex, len(header))
	pos := 0
	for i := 0; i < len(header); i++ {
		key := canonicalColumn(header[i])
		if key == "adj" && i+1 < len(header) && canonicalColumn(header[i+1]) == colClose {
			key = colAdjClose
			i++
		}
		if key == "" {
			pos++
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = pos
		}
		pos++
	}

	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", models.ErrMissingColumn, col)
		}
	}
	return idx, pos, nil
}

func (c columnIndex) value(record []string, key string) (string, bool) {
	i, ok := c[key]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}
