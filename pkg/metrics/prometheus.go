package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	trainings     *prometheus.CounterVec
	trainDuration prometheus.Histogram
	trainPoints   prometheus.Gauge
	lastTrained   prometheus.Gauge
	quality       *prometheus.GaugeVec
	forecasts     *prometheus.CounterVec
	forecastDur   prometheus.Histogram
	correction    prometheus.Gauge
	sourceLoads   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// New creates a recorder registered on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		trainings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_trainings_total",
				Help: "Training cycles by outcome",
			},
			[]string{"outcome"},
		),
		trainDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "brentcast_training_duration_seconds",
				Help:    "Duration of training cycles in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		trainPoints: f.NewGauge(prometheus.GaugeOpts{
			Name: "brentcast_training_points",
			Help: "Observations used by the last successful training",
		}),
		lastTrained: f.NewGauge(prometheus.GaugeOpts{
			Name: "brentcast_model_last_trained_timestamp_seconds",
			Help: "Unix time of the last successful training",
		}),
		quality: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brentcast_model_holdout_error",
				Help: "Held-out error of the current model",
			},
			[]string{"model", "metric"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_forecasts_total",
				Help: "Forecast requests served",
			},
			[]string{"cached"},
		),
		forecastDur: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "brentcast_forecast_duration_seconds",
			Help:    "Forecast composition time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		correction: f.NewGauge(prometheus.GaugeOpts{
			Name: "brentcast_residual_correction",
			Help: "Last scalar correction applied to forecasts",
		}),
		sourceLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_source_loads_total",
				Help: "Price source loads by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordTraining(d time.Duration, points int, err error) {
	if err != nil {
		r.trainings.WithLabelValues("failed").Inc()
		return
	}
	r.trainings.WithLabelValues("ok").Inc()
	r.trainDuration.Observe(d.Seconds())
	r.trainPoints.Set(float64(points))
	r.lastTrained.SetToCurrentTime()
}

func (r *Recorder) RecordModelQuality(e models.Evaluation) {
	set := func(model string, m models.ErrorMetrics) {
		r.quality.WithLabelValues(model, "rmse").Set(m.RMSE)
		r.quality.WithLabelValues(model, "mae").Set(m.MAE)
		r.quality.WithLabelValues(model, "mape").Set(m.MAPE)
	}
	set("trend", e.TrendOnly)
	set("hybrid", e.Hybrid)
}

func (r *Recorder) RecordForecast(_ int, cached bool, d time.Duration) {
	r.forecasts.WithLabelValues(strconv.FormatBool(cached)).Inc()
	if !cached {
		r.forecastDur.Observe(d.Seconds())
	}
}

func (r *Recorder) RecordCorrection(v float64) { r.correction.Set(v) }

func (r *Recorder) RecordSourceLoad(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	r.sourceLoads.WithLabelValues(source, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards everything. Used by the CLI and tests.
type Nop struct{}

var _ domrepo.Metrics = Nop{}

func (Nop) RecordTraining(time.Duration, int, error) {}
func (Nop) RecordModelQuality(models.Evaluation) {}
func (Nop) RecordForecast(int, bool, time.Duration) {}
func (Nop) RecordCorrection(float64) {}
func (Nop) RecordSourceLoad(string, error) {}
func (Nop) RecordError(string) {}
