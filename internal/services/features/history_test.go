package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
)

func TestAnalyze(t *testing.T) {
	pts := []models.TimeSeriesPoint{
		{Date: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Price: 80},
		{Date: time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC), Price: 90},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: 81},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Price: 89},
	}
	a, err := Analyze(models.NewHistoricalSeries(pts, "test"), 2)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Summary.Count)
	assert.Equal(t, "2023/12/29", a.Summary.FirstDate)
	assert.Equal(t, "2024/01/03", a.Summary.LastDate)
	assert.Equal(t, models.Price(80), a.Summary.Min)
	assert.Equal(t, models.Price(90), a.Summary.Max)
	assert.InDelta(t, 85, float64(a.Summary.Mean), 1e-9)
	assert.InDelta(t, 11.25, a.Summary.TotalPct, 1e-9)

	require.Len(t, a.DailyChange, 3)
	assert.Equal(t, "2023/12/30", a.DailyChange[0].Date)
	assert.InDelta(t, 12.5, a.DailyChange[0].Pct, 1e-9)
	assert.InDelta(t, -10, a.DailyChange[1].Pct, 1e-9)

	require.Len(t, a.AnnualMean, 2)
	assert.Equal(t, 2023, a.AnnualMean[0].Year)
	assert.InDelta(t, 85, float64(a.AnnualMean[0].Mean), 1e-9)
	assert.Equal(t, 2, a.AnnualMean[1].Count)

	assert.Equal(t, []float64{80, 85, 90}, a.Histogram.Edges)
	assert.Equal(t, []float64{2, 2}, a.Histogram.Counts)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(&models.HistoricalSeries{}, 10)
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	m := Errors([]float64{100, 200}, []float64{110, 190})
	assert.InDelta(t, 10, m.RMSE, 1e-9)
	assert.InDelta(t, 10, m.MAE, 1e-9)
	assert.InDelta(t, 7.5, m.MAPE, 1e-9)

	assert.Equal(t, models.ErrorMetrics{}, Errors(nil, nil))
}
