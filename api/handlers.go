package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riskmanagement123/amortize"
	"github.com/riskmanagement123/amortize/cache"
	"github.com/riskmanagement123/amortize/scenario"
)

// DefaultTTL is how long a computed result stays retrievable.
const DefaultTTL = 24 * time.Hour

// Result is what POST /api/schedules returns and GET serves back.
type Result struct {
	ID          string                   `json:"id"`
	Scenario    scenario.Scenario        `json:"scenario"`
	Summary     amortize.Summary         `json:"summary"`
	Prepayments []amortize.PrepayResult  `json:"prepayments"`
	Schedule    []amortize.PaymentRecord `json:"schedule"`
}

// Handler holds dependencies for the HTTP handlers. Every request builds its
// own Calculator; nothing is shared between loans.
type Handler struct {
	cache   cache.Cache
	logger  *zap.Logger
	metrics *Metrics
	ttl     time.Duration
}

func NewHandler(c cache.Cache, logger *zap.Logger, m *Metrics, ttl time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = NewMetrics()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Handler{cache: c, logger: logger, metrics: m, ttl: ttl}
}

func resultKey(id string) string { return "schedule:" + id }

// CreateSchedule runs a scenario. Identical scenarios are answered from the cache.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var sc scenario.Scenario
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if err := sc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if sc.Loan.Start == "" {
		sc.Loan.Start = amortize.DateKey(amortize.Today())
	}

	ctx := r.Context()
	canonical, _ := json.Marshal(sc)
	dedupKey := cache.Key("scenario", canonical)
	if id, ok, err := h.cache.Get(ctx, dedupKey); err == nil && ok {
		if res, found, err := h.load(ctx, string(id)); err == nil && found {
			h.metrics.cacheHits.Inc()
			writeJSON(w, http.StatusOK, res)
			return
		}
	}

	start := time.Now()
	calc, prepays, err := sc.Run(h.logger)
	h.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, amortize.ErrInvalidArgument) || errors.Is(err, amortize.ErrOutOfOrder) ||
			errors.Is(err, amortize.ErrPaymentBelowInterest) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	h.metrics.calculations.WithLabelValues(string(calc.Method())).Inc()
	for _, p := range prepays {
		h.metrics.prepayments.WithLabelValues(string(p.Outcome)).Inc()
	}

	res := Result{
		ID:          uuid.NewString(),
		Scenario:    sc,
		Summary:     calc.Summary(),
		Prepayments: prepays,
		Schedule:    calc.Schedule(),
	}
	body, err := json.Marshal(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.cache.Set(ctx, resultKey(res.ID), body, h.ttl); err != nil {
		h.logger.Error("caching result failed", zap.String("id", res.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store result")
		return
	}
	if err := h.cache.Set(ctx, dedupKey, []byte(res.ID), h.ttl); err != nil {
		h.logger.Warn("caching scenario key failed", zap.Error(err))
	}
	writeJSONBytes(w, http.StatusCreated, body)
}

func (h *Handler) load(ctx context.Context, id string) (*Result, bool, error) {
	body, ok, err := h.cache.Get(ctx, resultKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, false, err
	}
	return &res, true, nil
}

// lookup writes the error response itself and returns nil when the result is unavailable.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) *Result {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return nil
	}
	res, ok, err := h.load(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if !ok {
		writeError(w, http.StatusNotFound, "schedule not found")
		return nil
	}
	return res
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if res := h.lookup(w, r); res != nil {
		writeJSON(w, http.StatusOK, res)
	}
}

// rerun rebuilds the calculator of a cached result for file exports.
func (h *Handler) rerun(w http.ResponseWriter, r *http.Request) (*amortize.Calculator, string, bool) {
	res := h.lookup(w, r)
	if res == nil {
		return nil, "", false
	}
	calc, _, err := res.Scenario.Run(h.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, "", false
	}
	return calc, res.ID, true
}

func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	calc, id, ok := h.rerun(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := calc.WriteCSV(&buf, r.URL.Query().Get("header") != "false"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=schedule_%s.csv", id))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) DownloadXLSX(w http.ResponseWriter, r *http.Request) {
	calc, id, ok := h.rerun(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := calc.WriteXLSX(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=schedule_%s.xlsx", id))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, status, body)
}

func writeJSONBytes(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
