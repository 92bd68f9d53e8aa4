package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// TableWriter writes a computed table to a stream
type TableWriter interface {
	Write(out io.Writer, table *models.IndicatorTable) error
}

// NewTableWriter returns the writer for format
func NewTableWriter(format, dateLayout string) (TableWriter, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVWriter(dateLayout), nil
	case FormatJSON:
		return NewJSONWriter(dateLayout, true), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// ContentType returns the HTTP media type of format
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// WriteFile writes table to path with w
func WriteFile(path string, w TableWriter, table *models.IndicatorTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := w.Write(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
