package features

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
)

func residualSeq(n int) []models.Residual {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Residual, n)
	for i := range out {
		out[i] = models.Residual{Date: start.AddDate(0, 0, i), Value: float64(i)}
	}
	return out
}

func TestBuildLagRowsWarmUp(t *testing.T) {
	rows, err := BuildLagRows(residualSeq(7))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasTarget)
	assert.Equal(t, [7]float64{6, 5, 4, 3, 2, 1, 0}, rows[0].Lags)

	_, err = BuildLagRows(residualSeq(6))
	var ih *models.InsufficientHistoryError
	require.True(t, errors.As(err, &ih))
	assert.Equal(t, 7, ih.Need)
	assert.Equal(t, 6, ih.Have)
}

func TestBuildLagRowsTargets(t *testing.T) {
	rs := residualSeq(10)
	rows, err := BuildLagRows(rs)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	targeted := Targeted(rows)
	require.Len(t, targeted, 3)
	// row for i=7: lag_k = r[7-k]
	assert.Equal(t, 7.0, targeted[0].Target)
	assert.Equal(t, rs[7].Date, targeted[0].Date)
	for k := 1; k <= 7; k++ {
		assert.Equal(t, float64(7-k), targeted[0].Lags[k-1])
	}
}

func TestInferenceRowUsesMostRecent(t *testing.T) {
	row, err := InferenceRow(residualSeq(30))
	require.NoError(t, err)
	assert.Equal(t, 29.0, row.Lags[0])
	assert.Equal(t, 23.0, row.Lags[6])

	_, err = InferenceRow(residualSeq(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 7 residuals, have 3")
}

func TestComputeResiduals(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	series := models.NewHistoricalSeries([]models.TimeSeriesPoint{
		{Date: d(1), Price: 80}, {Date: d(2), Price: 82},
	}, "test")
	trend := []models.TrendForecast{{Date: d(1), Point: 79}, {Date: d(2), Point: 83}, {Date: d(3), Point: 84}}

	rs, err := ComputeResiduals(series, trend)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.InDelta(t, 1.0, rs[0].Value, 1e-12)
	assert.InDelta(t, -1.0, rs[1].Value, 1e-12)

	_, err = ComputeResiduals(series, trend[:1])
	var dv *models.DataValidationError
	require.True(t, errors.As(err, &dv))
	assert.Equal(t, "date", dv.Field)
	assert.Equal(t, 2, dv.Row)
}

func TestSplitChronological(t *testing.T) {
	rows, _ := BuildLagRows(residualSeq(17))
	targeted := Targeted(rows)
	require.Len(t, targeted, 10)

	train, test := SplitChronological(targeted, 0.8)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
	assert.True(t, train[7].Date.Before(test[0].Date))

	train, test = SplitChronological(targeted[:1], 0.8)
	assert.Len(t, train, 1)
	assert.Empty(t, test)
}

func TestMatrix(t *testing.T) {
	rows, _ := BuildLagRows(residualSeq(9))
	x, y := Matrix(Targeted(rows))
	require.Len(t, x, 2)
	assert.Equal(t, []float64{6, 5, 4, 3, 2, 1, 0}, x[0])
	assert.Equal(t, []float64{7, 6, 5, 4, 3, 2, 1}, x[1])
	assert.Equal(t, []float64{7, 8}, y)
}
