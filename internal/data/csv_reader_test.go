package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCSVReader_ReadSortsAscending(t *testing.T) {
	input := `Date,Open,High,Low,Close,Adj Close,Volume
2024/01/04,12,13,11,12.5,12.4,300
2024/01/02,10,11,9,10.5,10.4,100
2024/01/03,11,12,10,11.5,11.4,200
`
	bars, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, day(2024, 1, 2), bars[0].Date)
	assert.Equal(t, day(2024, 1, 3), bars[1].Date)
	assert.Equal(t, day(2024, 1, 4), bars[2].Date)
	assert.Equal(t, models.PriceBar{
		Date: day(2024, 1, 2), Open: 10, High: 11, Low: 9, Close: 10.5, AdjClose: 10.4, Volume: 100,
	}, bars[0])
}

func TestCSVReader_AdjCloseTypos(t *testing.T) {
	cases := map[string]string{
		"quoted":   "Date,Open,High,Low,Close,\"Adj,Close\",Volume\n2024-01-02,1,2,0.5,1.5,1.4,10\n",
		"unquoted": "Date,Open,High,Low,Close,Adj,Close,Volume\n2024-01-02,1,2,0.5,1.5,1.4,10\n",
		"snake":    "date,open,high,low,close,adj_close,volume\n2024-01-02,1,2,0.5,1.5,1.4,10\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			bars, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(input))
			require.NoError(t, err)
			require.Len(t, bars, 1)
			assert.Equal(t, 1.5, bars[0].Close)
			assert.Equal(t, 1.4, bars[0].AdjClose)
			assert.Equal(t, int64(10), bars[0].Volume)
		})
	}
}

func TestCSVReader_AdjCloseOptional(t *testing.T) {
	input := "Date,Open,High,Low,Close,Volume\n2024-01-02,1,2,0.5,1.5,10.0\n"
	bars, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.5, bars[0].AdjClose)
	assert.Equal(t, int64(10), bars[0].Volume)
}

func TestCSVReader_MissingColumn(t *testing.T) {
	input := "Date,Open,High,Close,Volume\n2024-01-02,1,2,1.5,10\n"
	_, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(input))
	assert.ErrorIs(t, err, models.ErrMissingColumn)

	_, err = NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(""))
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestCSVReader_StrictRejects(t *testing.T) {
	header := "Date,Open,High,Low,Close,Adj Close,Volume\n"
	cases := map[string]struct {
		rows string
		err  error
	}{
		"bad date":      {"2024-13-45,1,2,0.5,1.5,1.5,10\n", models.ErrInvalidDate},
		"bad price":     {"2024-01-02,1,abc,0.5,1.5,1.5,10\n", models.ErrInvalidPrice},
		"null price":    {"2024-01-02,1,2,0.5,null,1.5,10\n", models.ErrInvalidPrice},
		"neg volume":    {"2024-01-02,1,2,0.5,1.5,1.5,-10\n", models.ErrInvalidVolume},
		"duplicate day": {"2024-01-02,1,2,0.5,1.5,1.5,10\n2024-01-02,1,2,0.5,1.6,1.6,10\n", models.ErrDuplicateDate},
		"short row":     {"2024-01-02,1,2,0.5,1.5\n", ErrMalformedRow},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(header + c.rows))
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestCSVReader_LenientKeepsRows(t *testing.T) {
	input := `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-02,1,2,0.5,1.5,1.5,10
2024-01-03,1,2,0.5,null,1.5,abc
2024-01-02,1,2,0.5,1.7,1.7,20
`
	config := DefaultCSVReaderConfig()
	config.Strict = false
	bars, err := NewCSVReader(config).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 1.7, bars[0].Close, "last row of a duplicated date wins")
	assert.Equal(t, int64(20), bars[0].Volume)
	assert.True(t, math.IsNaN(bars[1].Close))
	assert.Equal(t, int64(0), bars[1].Volume)
}

func TestCSVReader_ThousandsSeparators(t *testing.T) {
	input := "Date,Open,High,Low,Close,Adj Close,Volume\n2024-01-02,\"15,001.25\",\"15,100\",\"14,950.5\",\"15,050\",\"15,050\",\"1,234\"\n"
	bars, err := NewCSVReader(DefaultCSVReaderConfig()).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 15001.25, bars[0].Open)
	assert.Equal(t, int64(1234), bars[0].Volume)
}

func TestCSVReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Open,High,Low,Close,Adj Close,Volume\n2024/01/02,1,2,0.5,1.5,1.5,10\n"), 0o644))

	bars, err := NewCSVReader(DefaultCSVReaderConfig()).ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	_, err = NewCSVReader(DefaultCSVReaderConfig()).ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCanonicalColumn(t *testing.T) {
	assert.Equal(t, "adjclose", canonicalColumn(" Adj Close "))
	assert.Equal(t, "adjclose", canonicalColumn("Adj,Close"))
	assert.Equal(t, "adjclose", canonicalColumn("ADJ_CLOSE"))
	assert.Equal(t, "date", canonicalColumn("\ufeffDate"))
}
