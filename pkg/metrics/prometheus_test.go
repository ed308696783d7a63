package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"BrentCast/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordTraining(2*time.Second, 5000, nil)
	r.RecordTraining(time.Second, 0, errors.New("boom"))
	r.RecordForecast(5, true, time.Millisecond)
	r.RecordForecast(5, false, time.Millisecond)
	r.RecordForecast(5, false, time.Millisecond)
	r.RecordCorrection(-0.42)
	r.RecordSourceLoad("ipea", errors.New("down"))
	r.RecordModelQuality(models.Evaluation{Hybrid: models.ErrorMetrics{RMSE: 1.5}})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.trainings.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trainings.WithLabelValues("failed")))
	assert.Equal(t, 5000.0, testutil.ToFloat64(r.trainPoints))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecasts.WithLabelValues("false")))
	assert.Equal(t, -0.42, testutil.ToFloat64(r.correction))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceLoads.WithLabelValues("ipea", "failed")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.quality.WithLabelValues("hybrid", "rmse")))
}
