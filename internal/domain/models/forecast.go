package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// ResidualLags is the number of lagged residuals fed to the residual model.
const ResidualLags = 7

// TrendForecast is the trend model output for one date.
type TrendForecast struct {
	Date  time.Time
	Point float64
	Lower float64
	Upper float64
}

// Residual is actual minus trend point estimate at one historical date.
type Residual struct {
	Date  time.Time
	Value float64
}

// ResidualFeatureRow holds lag_1..lag_7 for Date; Lags[0] is the most recent residual.
// Rows built from the tail of history have no target.
type ResidualFeatureRow struct {
	Date      time.Time
	Lags      [ResidualLags]float64
	Target    float64
	HasTarget bool
}

// Price is a monetary value that always serializes with two decimals.
type Price float64

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Round2(float64(p)), 'f', 2, 64)), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

// String renders the value with two decimals.
func (p Price) String() string {
	return strconv.FormatFloat(Round2(float64(p)), 'f', 2, 64)
}

// AdjustedForecast is the final, rounded forecast row.
type AdjustedForecast struct {
	Date  string `json:"date"`
	Point Price  `json:"predicted_price"`
	Lower Price  `json:"lower_bound"`
	Upper Price  `json:"upper_bound"`
}

// ForecastResult wraps a forecast with the model provenance and the applied correction.
type ForecastResult struct {
	ModelID    string             `json:"model_id"`
	Start      string             `json:"start"`
	Days       int                `json:"days"`
	Correction Price              `json:"correction"`
	Rows       []AdjustedForecast `json:"rows"`
	Cached     bool               `json:"cached"`
}

// HistoryRow is one serialized observation.
type HistoryRow struct {
	Date  string `json:"date"`
	Price Price  `json:"price"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
