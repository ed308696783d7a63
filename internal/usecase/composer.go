package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/services/boost"
	"BrentCast/internal/services/features"
	"BrentCast/internal/services/trend"
	"BrentCast/pkg/cache"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

// loadedPair is a decoded model pair.
type loadedPair struct {
	manifest models.ModelManifest
	trend    domsvc.TrendModel
	residual domsvc.ResidualModel
}

// Composer turns the persisted model pair into adjusted, rounded forecasts.
type Composer struct {
	store   domrepo.ModelStore
	history *HistoryService
	cache   cache.Service
	ttl     time.Duration
	maxDays int
	metrics domrepo.Metrics
	l       *applogger.Logger

	mu   sync.Mutex
	pair *loadedPair
}

// NewComposer wires a composer. c and m may be nil; maxDays <= 0 means unlimited.
func NewComposer(store domrepo.ModelStore, history *HistoryService, c cache.Service, ttl time.Duration,
	maxDays int, m domrepo.Metrics, l *applogger.Logger) *Composer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Composer{store: store, history: history, cache: c, ttl: ttl, maxDays: maxDays, metrics: m, l: l}
}

// forecastKeyPrefix scopes every cached forecast.
const forecastKeyPrefix = "forecast"

// ForecastCacheKey identifies a composed forecast. tailHash fingerprints the residual
// window, so newer history under the same model misses the cache.
func ForecastCacheKey(modelID, tailHash string, start time.Time, days int) string {
	return cache.GenerateKeyWithParams(forecastKeyPrefix, modelID, tailHash, start.Format(util.ISODate), days)
}

// Forecast returns days rows starting at start, ascending by date. The same scalar
// correction, predicted from the seven most recent residuals, shifts every row.
func (c *Composer) Forecast(ctx context.Context, start time.Time, days int) (*models.ForecastResult, error) {
	if days < 1 {
		return nil, &models.DataValidationError{Field: "days", Value: fmt.Sprint(days), Reason: "must be a positive number of days"}
	}
	if c.maxDays > 0 && days > c.maxDays {
		return nil, &models.DataValidationError{Field: "days", Value: fmt.Sprint(days), Reason: fmt.Sprintf("at most %d days per request", c.maxDays)}
	}
	start = util.Day(start)
	began := time.Now()

	pair, err := c.model(ctx)
	if err != nil {
		return nil, err
	}

	tail, err := c.tail(ctx)
	if err != nil {
		return nil, err
	}

	key := ForecastCacheKey(pair.manifest.ModelID, SeriesHash(tail), start, days)
	if c.cache != nil {
		var cached models.ForecastResult
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			cached.Cached = true
			c.record(days, true, time.Since(began))
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.l.Warn("forecast cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	correction, err := c.correction(pair, tail)
	if err != nil {
		return nil, err
	}

	dates := util.DayRange(start, days)
	tf := pair.trend.Predict(dates)
	rows := make([]models.AdjustedForecast, len(tf))
	for i, f := range tf {
		rows[i] = models.AdjustedForecast{
			Date:  f.Date.Format(util.SlashDate),
			Point: models.Price(models.Round2(f.Point + correction)),
			Lower: models.Price(models.Round2(f.Lower + correction)),
			Upper: models.Price(models.Round2(f.Upper + correction)),
		}
	}
	res := &models.ForecastResult{
		ModelID:    pair.manifest.ModelID,
		Start:      start.Format(util.ISODate),
		Days:       days,
		Correction: models.Price(models.Round2(correction)),
		Rows:       rows,
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, res, c.ttl); err != nil {
			c.l.Warn("forecast cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	if c.metrics != nil {
		c.metrics.RecordCorrection(correction)
	}
	c.record(days, false, time.Since(began))
	return res, nil
}

// Correction returns the scalar residual correction of the current model.
func (c *Composer) Correction(ctx context.Context) (float64, error) {
	pair, err := c.model(ctx)
	if err != nil {
		return 0, err
	}
	tail, err := c.tail(ctx)
	if err != nil {
		return 0, err
	}
	return c.correction(pair, tail)
}

// Manifest returns the manifest of the current model.
func (c *Composer) Manifest(ctx context.Context) (*models.ModelManifest, error) {
	pair, err := c.model(ctx)
	if err != nil {
		return nil, err
	}
	m := pair.manifest
	return &m, nil
}

// tail returns the residual window of the in-memory series.
func (c *Composer) tail(ctx context.Context) (*models.HistoricalSeries, error) {
	series, err := c.history.Series(ctx)
	if err != nil {
		return nil, err
	}
	return &models.HistoricalSeries{Points: series.Tail(models.ResidualLags), Source: series.Source}, nil
}

func (c *Composer) correction(pair *loadedPair, tail *models.HistoricalSeries) (float64, error) {
	dates := make([]time.Time, tail.Len())
	for i, p := range tail.Points {
		dates[i] = p.Date
	}
	residuals, err := features.ComputeResiduals(tail, pair.trend.Predict(dates))
	if err != nil {
		return 0, err
	}
	row, err := features.InferenceRow(residuals)
	if err != nil {
		return 0, err
	}
	return pair.residual.Predict(row.Lags[:]), nil
}

// model returns the decoded pair, reloading it when the stored manifest changed.
func (c *Composer) model(ctx context.Context) (*loadedPair, error) {
	m, err := c.store.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pair != nil && c.pair.manifest.ModelID == m.ModelID {
		return c.pair, nil
	}

	art, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	tm, err := trend.Decode(art.Trend)
	if err != nil {
		return nil, err
	}
	ens, err := boost.Decode(art.Residual)
	if err != nil {
		return nil, err
	}
	c.pair = &loadedPair{manifest: art.Manifest, trend: tm, residual: ens}
	c.l.Info("model pair loaded", applogger.String("model_id", art.Manifest.ModelID))
	return c.pair, nil
}

func (c *Composer) record(days int, cached bool, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordForecast(days, cached, d)
	}
}
