package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"BrentCast/internal/domain/models"
)

// Errors computes RMSE, MAE and MAPE of predicted against actual. MAPE skips zero actuals.
func Errors(actual, predicted []float64) models.ErrorMetrics {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return models.ErrorMetrics{}
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, predicted, actual)

	sq := make([]float64, len(diff))
	floats.MulTo(sq, diff, diff)
	abs := make([]float64, len(diff))
	var pct []float64
	for i, d := range diff {
		abs[i] = math.Abs(d)
		if actual[i] != 0 {
			pct = append(pct, math.Abs(d/actual[i]))
		}
	}

	m := models.ErrorMetrics{
		RMSE: math.Sqrt(stat.Mean(sq, nil)),
		MAE:  stat.Mean(abs, nil),
	}
	if len(pct) > 0 {
		m.MAPE = 100 * stat.Mean(pct, nil)
	}
	return m
}
