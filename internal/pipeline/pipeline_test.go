package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/data"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/indicator"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pubsub"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvInput(n int) string {
	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Adj,Close,Volume\n")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		c := 10 + float64(i)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%.2f,%d\n",
			base.AddDate(0, 0, i).Format("2006/01/02"), c, c+1, c-1, c, c, 100+i)
	}
	return b.String()
}

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	engine, err := indicator.NewDefaultEngine(indicator.DefaultEngineConfig())
	require.NoError(t, err)
	return New(data.NewCSVReader(data.DefaultCSVReaderConfig()), engine, opts...)
}

func TestPipeline_Run(t *testing.T) {
	p := newPipeline(t)

	table, err := p.Run(context.Background(), "NQ=F", strings.NewReader(csvInput(11)))
	require.NoError(t, err)
	require.Len(t, table.Rows, 11)

	// input was newest first; rows come out oldest first
	assert.Equal(t, 10.0, table.Rows[0].Close)
	assert.Equal(t, 14.5, table.Rows[9].MA10)
	assert.Equal(t, 15.5, table.Rows[10].MA10)
}

func TestPipeline_Run_DeliversToSinks(t *testing.T) {
	store := storage.NewMockIndicatorStorage()
	redis := pubsub.NewMockRedisClient()
	publisher := pubsub.NewSnapshotPublisher(redis, pubsub.DefaultSnapshotPublisherConfig())
	p := newPipeline(t, WithStore(store), WithPublisher(publisher))

	table, err := p.Run(context.Background(), "NQ=F", strings.NewReader(csvInput(30)))
	require.NoError(t, err)

	assert.Equal(t, []string{table.RunID}, store.RunIDs)
	rows, err := store.GetRows(context.Background(), "NQ=F", table.Rows[0].Date, table.Rows[29].Date)
	require.NoError(t, err)
	assert.Len(t, rows, 30)

	snapshot, err := publisher.LatestSnapshot(context.Background(), "NQ=F")
	require.NoError(t, err)
	assert.Equal(t, table.RunID, snapshot.RunID)
	assert.Equal(t, "2024-01-30", snapshot.Row.Date)
}

func TestPipeline_Run_SinkErrorKeepsTable(t *testing.T) {
	store := storage.NewMockIndicatorStorage()
	store.WriteErr = errors.New("db down")
	p := newPipeline(t, WithStore(store))

	table, err := p.Run(context.Background(), "NQ=F", strings.NewReader(csvInput(5)))
	assert.Error(t, err)
	require.NotNil(t, table)
	assert.Len(t, table.Rows, 5)
}

func TestPipeline_Run_EmptyInput(t *testing.T) {
	p := newPipeline(t)

	_, err := p.Run(context.Background(), "NQ=F", strings.NewReader("Date,Open,High,Low,Close,Volume\n"))
	assert.ErrorIs(t, err, models.ErrEmptySeries)

	store := storage.NewMockIndicatorStorage()
	table, err := newPipeline(t, WithStore(store)).RunBars(context.Background(), "NQ=F", nil)
	assert.ErrorIs(t, err, models.ErrEmptySeries)
	assert.Nil(t, table)
	assert.Empty(t, store.RunIDs)
}

func TestPipeline_Run_BadInput(t *testing.T) {
	p := newPipeline(t)

	_, err := p.Run(context.Background(), "NQ=F", strings.NewReader("Date,Open,High,Low\n2024/01/01,1,2,3\n"))
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}
