package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/data"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/output"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pipeline"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pubsub"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
)

// Input errors reported to clients as 400 Bad Request
var badInputErrors = []error{
	models.ErrEmptySeries,
	models.ErrInvalidDate,
	models.ErrDuplicateDate,
	models.ErrInvalidPrice,
	models.ErrInvalidVolume,
	models.ErrMissingColumn,
	models.ErrInvalidSymbol,
	data.ErrMalformedRow,
}

// IndicatorHandler computes indicator tables from uploaded CSV files
type IndicatorHandler struct {
	pipeline      *pipeline.Pipeline
	defaultSymbol string
	dateLayout    string
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(p *pipeline.Pipeline, defaultSymbol, dateLayout string) *IndicatorHandler {
	return &IndicatorHandler{
		pipeline:      p,
		defaultSymbol: defaultSymbol,
		dateLayout:    dateLayout,
	}
}

// Compute handles POST /api/v1/indicators
//
// The body is a daily OHLCV CSV. Query parameters: symbol (defaults to the
// configured symbol) and format, csv or json (default json).
func (h *IndicatorHandler) Compute(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	if symbol == "" {
		symbol = h.defaultSymbol
	}
	format := query.Get("format")
	if format == "" {
		format = output.FormatJSON
	}

	writer, err := output.NewTableWriter(format, h.dateLayout)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.pipeline.Run(r.Context(), symbol, r.Body)
	if err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case isBadInput(err):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case table != nil:
			// computed, but a sink failed
			respondWithError(w, http.StatusBadGateway, err.Error())
		default:
			logger.Error("Failed to compute indicators",
				logger.Symbol(symbol),
				logger.ErrorField(err),
			)
			respondWithError(w, http.StatusInternalServerError, "Failed to compute indicators")
		}
		return
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, table); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to encode indicators")
		return
	}

	w.Header().Set("Content-Type", output.ContentType(format))
	w.Header().Set("X-Run-ID", table.RunID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Columns handles GET /api/v1/indicators/columns
func (h *IndicatorHandler) Columns(w http.ResponseWriter, r *http.Request) {
	columns := h.pipeline.Engine().Columns()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"columns": columns,
		"count":   len(columns),
	})
}

func isBadInput(err error) bool {
	for _, target := range badInputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// SnapshotHandler serves the latest published rows and run history
type SnapshotHandler struct {
	publisher *pubsub.SnapshotPublisher
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(publisher *pubsub.SnapshotPublisher) *SnapshotHandler {
	return &SnapshotHandler{publisher: publisher}
}

// Latest handles GET /api/v1/indicators/{symbol}/latest
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snapshot, err := h.publisher.LatestSnapshot(r.Context(), symbol)
	if errors.Is(err, pubsub.ErrSnapshotNotFound) {
		respondWithError(w, http.StatusNotFound, "Snapshot not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve snapshot")
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// Runs handles GET /api/v1/runs
func (h *SnapshotHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 1000 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	runs, err := h.publisher.RecentRuns(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HistoryHandler serves persisted rows
type HistoryHandler struct {
	store      storage.IndicatorStorage
	dateLayout string
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store storage.IndicatorStorage, dateLayout string) *HistoryHandler {
	return &HistoryHandler{store: store, dateLayout: dateLayout}
}

// History handles GET /api/v1/indicators/{symbol}/history?start=&end=
//
// start and end are YYYY-MM-DD; end defaults to today and start to one
// year before end.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	query := r.URL.Query()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := query.Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid end date")
			return
		}
		end = parsed
	}
	start := end.AddDate(-1, 0, 0)
	if raw := query.Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid start date")
			return
		}
		start = parsed
	}
	if start.After(end) {
		respondWithError(w, http.StatusBadRequest, "start must not be after end")
		return
	}

	rows, err := h.store.GetRows(r.Context(), symbol, start, end)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve indicator rows")
		return
	}

	result := make([]output.RowJSON, len(rows))
	for i := range rows {
		result[i] = output.NewRowJSON(&rows[i], h.dateLayout)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"rows":   result,
		"count":  len(result),
	})
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler over named checks
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = make(map[string]HealthCheck)
	}
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]interface{}, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = map[string]interface{}{"status": "error", "error": err.Error()}
			continue
		}
		results[name] = map[string]interface{}{"status": "ok"}
	}

	overall := "UP"
	if status != http.StatusOK {
		overall = "DOWN"
	}
	respondWithJSON(w, status, map[string]interface{}{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range h.checks {
		if err := check(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT READY"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

// Live handles GET /live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("LIVE"))
}

