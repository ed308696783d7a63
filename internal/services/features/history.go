package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/util"
)

// Analyze builds the summary, daily change, annual mean and histogram views of a series.
func Analyze(series *models.HistoricalSeries, bins int) (*models.HistoryAnalytics, error) {
	if series.Len() == 0 {
		return nil, &models.InsufficientHistoryError{Stage: "analytics", Need: 1, Have: 0}
	}
	if bins < 1 {
		bins = 1
	}
	prices := series.Prices()
	mean, std := stat.MeanStdDev(prices, nil)
	if math.IsNaN(std) {
		std = 0
	}
	first, last := prices[0], prices[len(prices)-1]

	out := &models.HistoryAnalytics{
		Summary: models.SeriesSummary{
			Count:     len(prices),
			FirstDate: series.First().Format(util.SlashDate),
			LastDate:  series.Last().Format(util.SlashDate),
			Min:       models.Price(floats.Min(prices)),
			Max:       models.Price(floats.Max(prices)),
			Mean:      models.Price(mean),
			StdDev:    models.Price(std),
			LastPrice: models.Price(last),
			TotalPct:  models.Round2(100 * (last - first) / first),
		},
		DailyChange: DailyChanges(series),
		AnnualMean:  AnnualMeans(series),
		Histogram:   PriceHistogram(prices, bins),
	}
	return out, nil
}

// DailyChanges returns the percentage change between consecutive observations.
func DailyChanges(series *models.HistoricalSeries) []models.DailyChange {
	if series.Len() < 2 {
		return []models.DailyChange{}
	}
	out := make([]models.DailyChange, 0, series.Len()-1)
	for i := 1; i < series.Len(); i++ {
		prev, cur := series.Points[i-1], series.Points[i]
		out = append(out, models.DailyChange{
			Date: cur.Date.Format(util.SlashDate),
			Pct:  models.Round2(100 * (cur.Price - prev.Price) / prev.Price),
		})
	}
	return out
}

// AnnualMeans averages prices per calendar year, ascending by year.
func AnnualMeans(series *models.HistoricalSeries) []models.AnnualMean {
	var out []models.AnnualMean
	var sum float64
	for _, p := range series.Points {
		y := p.Date.Year()
		if n := len(out); n == 0 || out[n-1].Year != y {
			if n > 0 {
				out[n-1].Mean = models.Price(sum / float64(out[n-1].Count))
			}
			out = append(out, models.AnnualMean{Year: y})
			sum = 0
		}
		out[len(out)-1].Count++
		sum += p.Price
	}
	if n := len(out); n > 0 {
		out[n-1].Mean = models.Price(sum / float64(out[n-1].Count))
	}
	return out
}

// PriceHistogram bins prices into equal-width buckets spanning [min, max].
func PriceHistogram(prices []float64, bins int) models.Histogram {
	lo, hi := floats.Min(prices), floats.Max(prices)
	if hi == lo {
		hi = lo + 1
	}
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	// stat.Histogram treats the upper edge as exclusive.
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), prices...)
	floats.Argsort(sorted, make([]int, len(sorted)))
	counts := stat.Histogram(nil, edges, sorted, nil)

	edges[bins] = hi
	for i := range edges {
		edges[i] = models.Round2(edges[i])
	}
	return models.Histogram{Edges: edges, Counts: counts}
}
