package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "BrentCast/internal/domain/models"
	"BrentCast/internal/repository"
	"BrentCast/internal/services/boost"
	"BrentCast/internal/services/trend"
	"BrentCast/internal/usecase"
	"BrentCast/pkg/cache"
	xhttp "BrentCast/pkg/http"
	"BrentCast/pkg/metrics"
)

type staticSource struct{ s *models.HistoricalSeries }

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context) (*models.HistoricalSeries, error) { return s.s, nil }

func series(from, to time.Time) *models.HistoricalSeries {
	var pts []models.TimeSeriesPoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		t := d.Sub(from).Hours() / 24
		p := 70 + 0.01*t + 5*math.Sin(2*math.Pi*t/365.25) + math.Sin(t*7.3)
		pts = append(pts, models.TimeSeriesPoint{Date: d, Price: math.Round(p*100) / 100})
	}
	return models.NewHistoricalSeries(pts, "static")
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)

	src := staticSource{s: series(
		time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)}
	history := usecase.NewHistoryService(src, nil)
	store := repository.NewFileModelStore(t.TempDir(), nil)
	p := boost.DefaultParams()
	p.Estimators = 20
	trainer := usecase.NewTrainer(usecase.TrainerConfig{
		MinHistory: 30,
		HorizonEnd: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		TrainRatio: 0.8,
		Trend:      trend.DefaultOptions(),
		Boost:      p,
	}, history, store, nil, repository.NoopPublisher{}, mem, metrics.Nop{}, nil)
	composer := usecase.NewComposer(store, history, mem, time.Hour, 60, metrics.Nop{}, nil)

	h := NewForecastEchoHandler(nil, composer, history, usecase.NewTrainDispatcher(trainer, nil))
	h.now = func() time.Time { return time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC) }
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func call(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestForecastEndpoints(t *testing.T) {
	e := newServer(t)

	rec, _ := call(e, http.MethodGet, "/api/forecast?start=2025-01-01&days=5")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := call(e, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var h models.Health
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.False(t, h.ModelTrained)

	rec, env = call(e, http.MethodPost, "/api/train")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep models.TrainingReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.NotEmpty(t, rep.Manifest.ModelID)

	rec, env = call(e, http.MethodGet, "/api/forecast?days=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.ForecastResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2025/01/01", res.Rows[0].Date)
	assert.Equal(t, rep.Manifest.ModelID, res.ModelID)

	rec, _ = call(e, http.MethodGet, "/api/forecast?days=3")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec, _ = call(e, http.MethodGet, "/api/forecast?start=2025-01-01&days=61")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = call(e, http.MethodGet, "/api/forecast?start=01-2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start must be a date")

	rec, env = call(e, http.MethodGet, "/api/forecast?start=2025/01/02&days=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "2025/01/02", res.Rows[0].Date)

	for _, days := range []string{"0", "-1"} {
		rec, _ = call(e, http.MethodGet, "/api/forecast?days="+days)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}

	rec, env = call(e, http.MethodGet, "/api/forecast")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Rows, 30)

	rec, env = call(e, http.MethodGet, "/api/model")
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.ModelManifest
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, rep.Manifest.ModelID, m.ModelID)
}

func TestHistoryEndpoints(t *testing.T) {
	e := newServer(t)

	rec, env := call(e, http.MethodGet, "/api/history?from=2024-12-01&to=2024-12-31")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.HistoryRow `json:"rows"`
		Total int64               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, len(list.Rows), list.Total)
	assert.Equal(t, 22, len(list.Rows))

	rec, _ = call(e, http.MethodGet, "/api/history?from=2024-12-31&to=2024-12-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = call(e, http.MethodGet, "/api/history/analytics?bins=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var a models.HistoryAnalytics
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Len(t, a.Histogram.Counts, 10)

	rec, _ = call(e, http.MethodGet, "/api/history/analytics?bins=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&models.ModelNotTrainedError{}, http.StatusConflict},
		{&models.DataValidationError{Field: "price", Row: 3}, http.StatusUnprocessableEntity},
		{&models.InsufficientHistoryError{Stage: "trend", Need: 30, Have: 2}, http.StatusUnprocessableEntity},
		{&models.UpstreamUnavailableError{Source: "ipea"}, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, xhttp.AppErrorResponse(ctx, toAppError(c.err)))
		assert.Equal(t, c.status, rec.Code, c.err.Error())
	}
}
