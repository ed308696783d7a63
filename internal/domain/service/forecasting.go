package service

import (
	"time"

	"BrentCast/internal/domain/models"
)

// TrendModel produces point forecasts with uncertainty bounds for any date.
type TrendModel interface {
	// Predict returns one forecast per date, in the given order.
	Predict(dates []time.Time) []models.TrendForecast
	// Frame returns the contiguous daily calendar from the first training date through end.
	Frame(end time.Time) []models.TrendForecast
}

// ResidualModel predicts the next residual from lag_1..lag_7 (lag_1 first).
type ResidualModel interface {
	Predict(lags []float64) float64
}
