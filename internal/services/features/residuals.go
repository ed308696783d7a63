// Package features turns a fitted trend and the price history into the inputs and
// diagnostics of the residual corrector.
package features

import (
	"time"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/util"
)

// ComputeResiduals returns actual minus trend point for every historical date, in
// series order. Every observation must have a trend value.
func ComputeResiduals(series *models.HistoricalSeries, trend []models.TrendForecast) ([]models.Residual, error) {
	byDate := make(map[time.Time]float64, len(trend))
	for _, f := range trend {
		byDate[util.Day(f.Date)] = f.Point
	}
	out := make([]models.Residual, 0, series.Len())
	for i, p := range series.Points {
		point, ok := byDate[util.Day(p.Date)]
		if !ok {
			return nil, &models.DataValidationError{
				Field:  "date",
				Row:    i + 1,
				Value:  p.Date.Format(util.ISODate),
				Reason: "no trend forecast for observation date",
			}
		}
		out = append(out, models.Residual{Date: p.Date, Value: p.Price - point})
	}
	return out, nil
}

// BuildLagRows slides a window of ResidualLags residuals over rs. Row j holds
// rs[j..j+6] with lag_1 = rs[j+6], and targets rs[j+7] when it exists, so n
// residuals yield n-6 rows and only the last one lacks a target.
func BuildLagRows(rs []models.Residual) ([]models.ResidualFeatureRow, error) {
	const k = models.ResidualLags
	if len(rs) < k {
		return nil, &models.InsufficientHistoryError{Stage: "lag features", Unit: "residuals", Need: k, Have: len(rs)}
	}
	rows := make([]models.ResidualFeatureRow, 0, len(rs)-k+1)
	for j := 0; j+k <= len(rs); j++ {
		var row models.ResidualFeatureRow
		for l := 0; l < k; l++ {
			row.Lags[l] = rs[j+k-1-l].Value
		}
		if j+k < len(rs) {
			row.Date = rs[j+k].Date
			row.Target = rs[j+k].Value
			row.HasTarget = true
		} else {
			row.Date = rs[j+k-1].Date.AddDate(0, 0, 1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// InferenceRow builds the single feature row from the most recent residuals.
func InferenceRow(rs []models.Residual) (models.ResidualFeatureRow, error) {
	const k = models.ResidualLags
	if len(rs) < k {
		return models.ResidualFeatureRow{}, &models.InsufficientHistoryError{Stage: "correction", Unit: "residuals", Need: k, Have: len(rs)}
	}
	rows, err := BuildLagRows(rs[len(rs)-k:])
	if err != nil {
		return models.ResidualFeatureRow{}, err
	}
	return rows[0], nil
}

// Targeted keeps only rows that carry a target.
func Targeted(rows []models.ResidualFeatureRow) []models.ResidualFeatureRow {
	out := make([]models.ResidualFeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.HasTarget {
			out = append(out, r)
		}
	}
	return out
}

// SplitChronological puts the first trainFrac of rows in train and the rest in test.
// Train always keeps at least one row.
func SplitChronological(rows []models.ResidualFeatureRow, trainFrac float64) (train, test []models.ResidualFeatureRow) {
	if len(rows) == 0 {
		return nil, nil
	}
	n := int(float64(len(rows)) * trainFrac)
	if n < 1 {
		n = 1
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n], rows[n:]
}

// Matrix converts rows into the design matrix and target vector expected by the booster.
func Matrix(rows []models.ResidualFeatureRow) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		lags := r.Lags
		x[i] = lags[:]
		y[i] = r.Target
	}
	return x, y
}
