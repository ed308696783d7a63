package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/internal/services/boost"
	"BrentCast/internal/services/features"
	"BrentCast/internal/services/trend"
	"BrentCast/pkg/cache"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

// ForecastCachePattern matches every cached forecast.
var ForecastCachePattern = cache.BuildPattern(forecastKeyPrefix + ":")

// TrainerConfig holds the training knobs.
type TrainerConfig struct {
	MinHistory int
	HorizonEnd time.Time
	TrainRatio float64
	Trend      trend.Options
	Boost      boost.Params
}

// TrainOptions control one cycle.
type TrainOptions struct {
	Force bool
}

// Trainer runs the training cycle: load, fit trend, fit residual model, evaluate,
// persist. Cycles are serialized.
type Trainer struct {
	cfg       TrainerConfig
	history   *HistoryService
	store     domrepo.ModelStore
	prices    domrepo.PriceStore
	publisher domrepo.EventPublisher
	cache     cache.Service
	metrics   domrepo.Metrics
	l         *applogger.Logger

	mu        sync.Mutex
	obsMu     sync.RWMutex
	observers []domrepo.TrainingObserver
	now       func() time.Time
}

// NewTrainer wires a trainer. prices, publisher and c may be nil.
func NewTrainer(cfg TrainerConfig, history *HistoryService, store domrepo.ModelStore, prices domrepo.PriceStore,
	publisher domrepo.EventPublisher, c cache.Service, m domrepo.Metrics, l *applogger.Logger) *Trainer {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.TrainRatio <= 0 || cfg.TrainRatio >= 1 {
		cfg.TrainRatio = 0.8
	}
	return &Trainer{
		cfg:       cfg,
		history:   history,
		store:     store,
		prices:    prices,
		publisher: publisher,
		cache:     c,
		metrics:   m,
		l:         l.With(applogger.String("component", "trainer")),
		now:       time.Now,
	}
}

// Subscribe registers a progress observer.
func (t *Trainer) Subscribe(o domrepo.TrainingObserver) {
	t.obsMu.Lock()
	t.observers = append(t.observers, o)
	t.obsMu.Unlock()
}

// Train runs one cycle. Nothing is persisted unless every stage succeeds.
func (t *Trainer) Train(ctx context.Context, opt TrainOptions) (*models.TrainingReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.now()
	report, err := t.train(ctx, opt)
	d := t.now().Sub(start)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordTraining(d, 0, err)
			t.metrics.RecordError("training")
		}
		t.l.Error("training failed", applogger.Duration("duration_ms", d), applogger.Error(err))
		return nil, err
	}
	report.Duration, report.TookMS = d, d.Milliseconds()
	if !report.Skipped && t.metrics != nil {
		t.metrics.RecordTraining(d, report.Manifest.Points, nil)
		t.metrics.RecordModelQuality(report.Manifest.Evaluation)
	}
	t.l.Info("training finished",
		applogger.String("model_id", report.Manifest.ModelID),
		applogger.Bool("skipped", report.Skipped),
		applogger.Int("points", report.Manifest.Points),
		applogger.Float64("hybrid_rmse", report.Manifest.Evaluation.Hybrid.RMSE),
		applogger.Duration("duration_ms", d),
	)
	return report, nil
}

func (t *Trainer) train(ctx context.Context, opt TrainOptions) (*models.TrainingReport, error) {
	// load
	t.emit(models.StageLoad, "started", "", nil)
	series, err := t.history.Fetch(ctx)
	if err == nil && series.Len() < t.cfg.MinHistory {
		err = &models.InsufficientHistoryError{Stage: "training", Need: t.cfg.MinHistory, Have: series.Len()}
	}
	if err != nil {
		return nil, t.fail(models.StageLoad, err)
	}
	hash := SeriesHash(series)
	t.emit(models.StageLoad, "completed", "", nil)

	if !opt.Force {
		if m, err := t.store.Manifest(ctx); err == nil && m.SeriesHash == hash {
			t.history.Replace(series)
			t.emit(models.StageDone, "skipped", m.ModelID, nil)
			return &models.TrainingReport{Manifest: *m, Skipped: true}, nil
		}
	}

	// trend
	if err := ctx.Err(); err != nil {
		return nil, t.fail(models.StageTrend, err)
	}
	t.emit(models.StageTrend, "started", "", nil)
	tm, err := trend.Fit(series.Points, t.cfg.Trend)
	if err != nil {
		return nil, t.fail(models.StageTrend, err)
	}
	frameEnd := t.cfg.HorizonEnd
	if frameEnd.Before(series.Last()) {
		frameEnd = series.Last()
	}
	residuals, err := features.ComputeResiduals(series, tm.Frame(frameEnd))
	if err != nil {
		return nil, t.fail(models.StageTrend, err)
	}
	t.emit(models.StageTrend, "completed", "", nil)

	// residual
	if err := ctx.Err(); err != nil {
		return nil, t.fail(models.StageResidual, err)
	}
	t.emit(models.StageResidual, "started", "", nil)
	rows, err := features.BuildLagRows(residuals)
	if err != nil {
		return nil, t.fail(models.StageResidual, err)
	}
	targeted := features.Targeted(rows)
	if len(targeted) == 0 {
		return nil, t.fail(models.StageResidual, &models.InsufficientHistoryError{
			Stage: "residual training", Unit: "residuals", Need: models.ResidualLags + 1, Have: len(residuals),
		})
	}
	trainRows, testRows := features.SplitChronological(targeted, t.cfg.TrainRatio)
	x, y := features.Matrix(trainRows)
	ens, err := boost.Fit(ctx, x, y, t.cfg.Boost)
	if err != nil {
		return nil, t.fail(models.StageResidual, err)
	}
	eval := evaluate(series, testRows, ens)
	t.emit(models.StageResidual, "completed", "", nil)

	// persist
	if err := ctx.Err(); err != nil {
		return nil, t.fail(models.StagePersist, err)
	}
	t.emit(models.StagePersist, "started", "", nil)
	trendJSON, err := json.Marshal(tm)
	if err != nil {
		return nil, t.fail(models.StagePersist, fmt.Errorf("encode trend: %w", err))
	}
	residualJSON, err := json.Marshal(ens)
	if err != nil {
		return nil, t.fail(models.StagePersist, fmt.Errorf("encode residual model: %w", err))
	}
	manifest := models.ModelManifest{
		SchemaVersion: models.ModelSchemaVersion,
		ModelID:       uuid.NewString(),
		TrainedAt:     t.now().UTC(),
		SeriesHash:    hash,
		Source:        series.Source,
		HistoryStart:  series.First(),
		HistoryEnd:    series.Last(),
		HorizonEnd:    frameEnd,
		Points:        series.Len(),
		ResidualRows:  len(targeted),
		TrainRows:     len(trainRows),
		Evaluation:    eval,
	}
	art := &models.ModelArtifacts{Manifest: manifest, Trend: trendJSON, Residual: residualJSON}
	if err := t.store.Save(ctx, art); err != nil {
		return nil, t.fail(models.StagePersist, err)
	}
	t.history.Replace(series)
	t.afterSave(ctx, art.Manifest)
	t.emit(models.StagePersist, "completed", manifest.ModelID, nil)
	t.emit(models.StageDone, "completed", manifest.ModelID, nil)

	return &models.TrainingReport{Manifest: art.Manifest}, nil
}

// afterSave runs the side effects of a new model. None of them fail the cycle.
func (t *Trainer) afterSave(ctx context.Context, m models.ModelManifest) {
	if t.cache != nil {
		if err := t.cache.DeleteByPattern(ctx, ForecastCachePattern); err != nil {
			t.l.Warn("forecast cache invalidation failed", applogger.Error(err))
		}
	}
	if t.prices != nil {
		if err := t.prices.RecordTrainingRun(ctx, m); err != nil {
			t.l.Warn("training run not recorded", applogger.Error(err))
		}
	}
	if t.publisher != nil {
		evt := models.ModelTrainedEvent{
			ModelID:    m.ModelID,
			TrainedAt:  m.TrainedAt,
			SeriesHash: m.SeriesHash,
			Points:     m.Points,
			HistoryEnd: m.HistoryEnd.Format(util.ISODate),
			Evaluation: m.Evaluation,
		}
		if err := t.publisher.PublishModelTrained(ctx, evt); err != nil {
			t.l.Warn("model trained event not published", applogger.Error(err))
			if t.metrics != nil {
				t.metrics.RecordError("publish")
			}
		}
	}
}

func (t *Trainer) fail(stage string, err error) error {
	t.emit(stage, "failed", "", err)
	return err
}

func (t *Trainer) emit(stage, status, modelID string, err error) {
	evt := models.TrainingEvent{Stage: stage, Status: status, ModelID: modelID, At: t.now().UTC()}
	if err != nil {
		evt.Error = err.Error()
	}
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnTrainingEvent(evt)
	}
}

// evaluate scores trend-only and corrected predictions on the held-out rows. The
// trend point of a row is its actual price minus its target residual.
func evaluate(series *models.HistoricalSeries, test []models.ResidualFeatureRow, ens *boost.Ensemble) models.Evaluation {
	if len(test) == 0 {
		return models.Evaluation{}
	}
	price := make(map[time.Time]float64, series.Len())
	for _, p := range series.Points {
		price[p.Date] = p.Price
	}
	actual := make([]float64, len(test))
	trendOnly := make([]float64, len(test))
	hybrid := make([]float64, len(test))
	for i, r := range test {
		actual[i] = price[r.Date]
		trendOnly[i] = actual[i] - r.Target
		hybrid[i] = trendOnly[i] + ens.Predict(r.Lags[:])
	}
	return models.Evaluation{
		TestRows:  len(test),
		TrendOnly: features.Errors(actual, trendOnly),
		Hybrid:    features.Errors(actual, hybrid),
	}
}

// SeriesHash fingerprints a series by its dates and prices.
func SeriesHash(s *models.HistoricalSeries) string {
	var b strings.Builder
	b.Grow(s.Len() * 20)
	for _, p := range s.Points {
		b.WriteString(p.Date.Format(util.ISODate))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p.Price, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return cache.HashKey(b.String())
}
