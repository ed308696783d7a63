package trend

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticSeries has a slope break, yearly seasonality and bounded pseudo-noise.
func syntheticSeries(start time.Time, days int) []models.TimeSeriesPoint {
	pts := make([]models.TimeSeriesPoint, days)
	for i := 0; i < days; i++ {
		d := float64(i)
		level := 60 + 0.02*d
		if i > days/2 {
			level = 60 + 0.02*float64(days/2) - 0.01*(d-float64(days/2))
		}
		season := 4 * math.Sin(2*math.Pi*d/yearPeriod)
		noise := 0.6 * math.Sin(1.7*d) * math.Cos(0.31*d)
		pts[i] = models.TimeSeriesPoint{Date: start.AddDate(0, 0, i), Price: level + season + noise}
	}
	return pts
}

func fitSynthetic(t *testing.T) (*Model, []models.TimeSeriesPoint) {
	t.Helper()
	pts := syntheticSeries(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), 3*365)
	m, err := Fit(pts, DefaultOptions())
	require.NoError(t, err)
	return m, pts
}

func TestFitTracksHistory(t *testing.T) {
	m, pts := fitSynthetic(t)

	dates := make([]time.Time, len(pts))
	for i, p := range pts {
		dates[i] = p.Date
	}
	fc := m.Predict(dates)
	require.Len(t, fc, len(pts))

	var mae float64
	for i, f := range fc {
		assert.True(t, f.Date.Equal(pts[i].Date))
		mae += math.Abs(f.Point - pts[i].Price)
	}
	mae /= float64(len(pts))
	assert.Less(t, mae, 1.5, "in-sample MAE too large")
	assert.Len(t, m.Changepoints, 25)
}

func TestBoundsContainPointAndWidenPastHistory(t *testing.T) {
	m, _ := fitSynthetic(t)

	near := m.Predict([]time.Time{m.End.AddDate(0, 0, 1)})[0]
	far := m.Predict([]time.Time{m.End.AddDate(2, 0, 0)})[0]
	inSample := m.Predict([]time.Time{m.End.AddDate(0, 0, -10)})[0]

	for _, f := range []models.TrendForecast{near, far, inSample} {
		assert.LessOrEqual(t, f.Lower, f.Point)
		assert.LessOrEqual(t, f.Point, f.Upper)
	}
	assert.Greater(t, far.Upper-far.Lower, near.Upper-near.Lower)
	assert.GreaterOrEqual(t, near.Upper-near.Lower, inSample.Upper-inSample.Lower)
}

func TestFrameIsContiguousFromStart(t *testing.T) {
	m, pts := fitSynthetic(t)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	frame := m.Frame(end)
	require.Equal(t, util.DaysBetween(pts[0].Date, end)+1, len(frame))
	assert.True(t, frame[0].Date.Equal(pts[0].Date))
	assert.True(t, frame[len(frame)-1].Date.Equal(end))
	for i := 1; i < len(frame); i++ {
		assert.Equal(t, 1, util.DaysBetween(frame[i-1].Date, frame[i].Date))
	}
	assert.Nil(t, m.Frame(pts[0].Date.AddDate(0, 0, -1)))
}

func TestSerializationReproducesPredictions(t *testing.T) {
	m, _ := fitSynthetic(t)
	dates := util.DayRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 30)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	back, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, m.Predict(dates), back.Predict(dates))
	assert.Equal(t, m.Predict(dates), m.Predict(dates))
}

func TestFitRejectsTinySeries(t *testing.T) {
	_, err := Fit([]models.TimeSeriesPoint{{Date: time.Now(), Price: 1}}, DefaultOptions())
	var ihe *models.InsufficientHistoryError
	require.ErrorAs(t, err, &ihe)
	assert.Equal(t, 1, ihe.Have)

	_, err = Decode([]byte(`{"beta":[1,2],"span_days":10,"y_scale":1,"yearly_order":1}`))
	require.Error(t, err)
}

func TestFitFewPointsCapsChangepoints(t *testing.T) {
	pts := syntheticSeries(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 12)
	m, err := Fit(pts, DefaultOptions())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(m.Changepoints), 8)
	f := m.Predict([]time.Time{pts[5].Date})[0]
	assert.False(t, math.IsNaN(f.Point))
}
