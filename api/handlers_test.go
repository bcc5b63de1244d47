package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/riskmanagement123/amortize"
	"github.com/riskmanagement123/amortize/cache"
)

const linearScenario = `{
  "loan": {"method": "linear", "annual_rate": 0.12, "principal": 12000, "term": 12, "start": "20250101"},
  "prepayments": [{"date": "20250315", "amount": 2000, "mode": "fixed"}]
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewRouter(NewHandler(cache.NewMemory(), logger, NewMetrics(), 0), logger)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func create(t *testing.T, router http.Handler) Result {
	t.Helper()
	rr := do(t, router, http.MethodPost, "/api/schedules", linearScenario)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func TestCreateSchedule(t *testing.T) {
	router := newTestRouter(t)

	res := create(t, router)
	_, err := uuid.Parse(res.ID)
	require.NoError(t, err)
	assert.Equal(t, amortize.RepayTypeEqualPrincipal, res.Summary.Method)
	assert.Equal(t, 12, res.Summary.Periods)
	require.Len(t, res.Schedule, 12)
	assert.Equal(t, "20250201", res.Schedule[0].Key())
	require.Len(t, res.Prepayments, 1)
	assert.Equal(t, amortize.PrepayRescheduled, res.Prepayments[0].Outcome)
	assert.Equal(t, amortize.PrepayPaymentReduction, res.Prepayments[0].Strategy)
}

func TestCreateScheduleDeduplicates(t *testing.T) {
	router := newTestRouter(t)
	first := create(t, router)

	rr := do(t, router, http.MethodPost, "/api/schedules", linearScenario)
	require.Equal(t, http.StatusOK, rr.Code)
	var second Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)
}

func TestCreateScheduleBadRequest(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"loan":`},
		{"unknown field", `{"loan": {"method": "linear", "principal": 1, "term": 1}, "extra": true}`},
		{"invalid loan", `{"loan": {"method": "linear", "principal": 0, "term": 12, "start": "20250101"}}`},
		{"invalid date", `{"loan": {"method": "annuity", "principal": 1000, "term": 12, "start": "2025-01-01"}}`},
		{"invalid mode", `{"loan": {"method": "annuity", "principal": 1000, "term": 12}, "prepayments": [{"date": "20250301", "amount": 10, "mode": "half"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/api/schedules", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetSchedule(t *testing.T) {
	router := newTestRouter(t)
	created := create(t, router)

	rr := do(t, router, http.MethodGet, "/api/schedules/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, len(created.Schedule), len(got.Schedule))
	assert.True(t, created.Summary.TotalInterest.Equal(got.Summary.TotalInterest))

	rr = do(t, router, http.MethodGet, "/api/schedules/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/schedules/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadCSV(t *testing.T) {
	router := newTestRouter(t)
	created := create(t, router)

	rr := do(t, router, http.MethodGet, "/api/schedules/"+created.ID+"/csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), created.ID+".csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, strings.Join(amortize.CSVHeader, ","), lines[0])
	assert.Equal(t, "20250201,1120.00,1000.00,120.00,11000.00", lines[1])

	rr = do(t, router, http.MethodGet, "/api/schedules/"+created.ID+"/csv?header=false", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "20250201,"))
}

func TestDownloadXLSX(t *testing.T) {
	router := newTestRouter(t)
	created := create(t, router)

	rr := do(t, router, http.MethodGet, "/api/schedules/"+created.ID+"/xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(amortize.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, len(created.Schedule)+2)

	rr = do(t, router, http.MethodGet, "/api/schedules/"+uuid.NewString()+"/xlsx", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	create(t, router)
	do(t, router, http.MethodPost, "/api/schedules", linearScenario)

	rr = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `amortize_calculations_total{method="EQUAL_PRINCIPAL"} 1`)
	assert.Contains(t, body, `amortize_prepayments_total{outcome="RESCHEDULED"} 1`)
	assert.Contains(t, body, "amortize_cache_hits_total 1")
	assert.Contains(t, body, "amortize_calculation_seconds_count 1")
}
