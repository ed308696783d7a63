package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestNewHistoricalSeriesSortsAndDeduplicates(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	s := NewHistoricalSeries([]TimeSeriesPoint{
		{Date: day(2024, 1, 3), Price: 3},
		{Date: day(2024, 1, 1), Price: 1},
		{Date: time.Date(2024, 1, 3, 9, 0, 0, 0, loc), Price: 33},
		{Date: day(2024, 1, 2), Price: 2},
	}, "test")

	require.Equal(t, 3, s.Len())
	assert.Equal(t, day(2024, 1, 1), s.First())
	assert.Equal(t, day(2024, 1, 3), s.Last())
	assert.Equal(t, 33.0, s.Points[2].Price)
	require.NoError(t, s.Validate())
}

func TestValidateRejectsBadPoints(t *testing.T) {
	cases := map[string][]TimeSeriesPoint{
		"empty":     nil,
		"nan":       {{Date: day(2024, 1, 1), Price: math.NaN()}},
		"negative":  {{Date: day(2024, 1, 1), Price: -1}},
		"unordered": {{Date: day(2024, 1, 2), Price: 1}, {Date: day(2024, 1, 1), Price: 1}},
		"duplicate": {{Date: day(2024, 1, 1), Price: 1}, {Date: day(2024, 1, 1), Price: 2}},
	}
	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			s := &HistoricalSeries{Points: pts}
			err := s.Validate()
			var dve *DataValidationError
			require.True(t, errors.As(err, &dve), "got %v", err)
		})
	}
}

func TestSeriesBetweenAndTail(t *testing.T) {
	s := NewHistoricalSeries([]TimeSeriesPoint{
		{Date: day(2024, 1, 1), Price: 1},
		{Date: day(2024, 1, 2), Price: 2},
		{Date: day(2024, 1, 3), Price: 3},
	}, "")
	assert.Len(t, s.Between(day(2024, 1, 2), time.Time{}), 2)
	assert.Len(t, s.Between(time.Time{}, day(2024, 1, 1)), 1)
	assert.Equal(t, []float64{2, 3}, []float64{s.Tail(2)[0].Price, s.Tail(2)[1].Price})
	assert.Len(t, s.Tail(10), 3)
}

func TestPriceMarshalsTwoDecimals(t *testing.T) {
	row := AdjustedForecast{Date: "2025/01/01", Point: 80.5, Lower: 79.994, Upper: 81}
	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025/01/01","predicted_price":80.50,"lower_bound":79.99,"upper_bound":81.00}`, string(b))
	assert.Contains(t, string(b), `"predicted_price":80.50`)
	assert.Contains(t, string(b), `"upper_bound":81.00`)

	var back AdjustedForecast
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Price(80.5), back.Point)
}

func TestErrorMessagesNameTheConstraint(t *testing.T) {
	err := &InsufficientHistoryError{Stage: "residual features", Unit: "residuals", Need: 7, Have: 3}
	assert.Equal(t, "insufficient history for residual features: need 7 residuals, have 3", err.Error())
	assert.Contains(t, (&InsufficientHistoryError{Stage: "trend", Need: 30, Have: 2}).Error(), "need 30 observations")

	up := &UpstreamUnavailableError{Source: "ipeadata", Err: errors.New("timeout")}
	assert.ErrorContains(t, up, "timeout")
	assert.Contains(t, (&ModelNotTrainedError{Location: "modelo"}).Error(), "modelo")

	dve := &DataValidationError{Field: "price", Row: 4, Value: "abc", Reason: "not a number"}
	assert.Equal(t, `invalid price at row 4 ("abc"): not a number`, dve.Error())
}
