// Package trend fits an additive trend + seasonality model to a daily price series.
//
// The model is y(t) = g(t) + s_year(t) + s_week(t), where g is piecewise linear with
// changepoints over the early part of history and the seasonal terms are Fourier
// series. Coefficients are estimated jointly by ridge-regularized least squares;
// changepoint deltas and seasonal coefficients are shrunk according to their prior
// scales. Bounds use the in-sample residual spread plus a trend term that grows
// with the distance past the last training date.
package trend

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/pkg/util"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	yearPeriod = 365.25
	weekPeriod = 7.0
)

// Options controls model flexibility.
type Options struct {
	Changepoints          int
	ChangepointRange      float64
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	YearlyOrder           int
	WeeklyOrder           int
	IntervalWidth         float64
}

// DefaultOptions mirrors the usual additive-model defaults.
func DefaultOptions() Options {
	return Options{
		Changepoints:          25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		YearlyOrder:           10,
		WeeklyOrder:           3,
		IntervalWidth:         0.8,
	}
}

// Model is a fitted additive model. All fields are exported for serialization;
// time is scaled to [0, 1] over the training span and prices by YScale.
type Model struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	SpanDays        float64   `json:"span_days"`
	YScale          float64   `json:"y_scale"`
	Changepoints    []float64 `json:"changepoints"`
	YearlyOrder     int       `json:"yearly_order"`
	WeeklyOrder     int       `json:"weekly_order"`
	Beta            []float64 `json:"beta"`
	Sigma           float64   `json:"sigma"`
	MeanAbsDelta    float64   `json:"mean_abs_delta"`
	ChangepointRate float64   `json:"changepoint_rate"`
	Z               float64   `json:"z"`
}

var _ domsvc.TrendModel = (*Model)(nil)

// Fit estimates the model over the whole series.
func Fit(points []models.TimeSeriesPoint, opt Options) (*Model, error) {
	n := len(points)
	if n < 2 {
		return nil, &models.InsufficientHistoryError{Stage: "trend fit", Need: 2, Have: n}
	}
	if opt.IntervalWidth <= 0 || opt.IntervalWidth >= 1 {
		return nil, fmt.Errorf("trend: interval width must be in (0, 1), got %v", opt.IntervalWidth)
	}

	start := util.Day(points[0].Date)
	end := util.Day(points[n-1].Date)
	span := float64(util.DaysBetween(start, end))
	if span <= 0 {
		return nil, fmt.Errorf("trend: series spans no time")
	}

	ys := make([]float64, n)
	for i, p := range points {
		ys[i] = p.Price
	}
	yScale := floats.Max(absAll(ys))
	if yScale == 0 {
		yScale = 1
	}
	floats.Scale(1/yScale, ys)

	m := &Model{
		Start:       start,
		End:         end,
		SpanDays:    span,
		YScale:      yScale,
		YearlyOrder: opt.YearlyOrder,
		WeeklyOrder: opt.WeeklyOrder,
		Z:           distuv.UnitNormal.Quantile(0.5 + opt.IntervalWidth/2),
	}
	m.Changepoints = placeChangepoints(points, m, opt)
	if opt.ChangepointRange > 0 {
		m.ChangepointRate = float64(len(m.Changepoints)) / opt.ChangepointRange
	}

	p := m.width()
	design := mat.NewDense(n, p, nil)
	row := make([]float64, p)
	for i, pt := range points {
		m.features(pt.Date, row)
		design.SetRow(i, row)
	}

	// A lightly regularized pilot fit estimates the noise variance, which sets how
	// strongly the prior scales shrink the final coefficients.
	pilot, err := solveRidge(design, ys, m.penalties(opt, 0))
	if err != nil {
		return nil, fmt.Errorf("trend pilot: %w", err)
	}
	noiseVar := math.Max(variance(residuals(design, ys, pilot)), 1e-8)

	beta, err := solveRidge(design, ys, m.penalties(opt, noiseVar))
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	m.Beta = beta
	m.Sigma = stat.StdDev(residuals(design, ys, beta), nil)
	if nc := len(m.Changepoints); nc > 0 {
		m.MeanAbsDelta = stat.Mean(absAll(beta[2:2+nc]), nil)
	}
	return m, nil
}

// Decode restores a model produced by json.Marshal.
func Decode(b []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode trend model: %w", err)
	}
	if len(m.Beta) != m.width() || m.SpanDays <= 0 || m.YScale == 0 {
		return nil, fmt.Errorf("decode trend model: inconsistent state (%d coefficients, want %d)", len(m.Beta), m.width())
	}
	return &m, nil
}

// Predict returns one forecast per date, in the given order.
func (m *Model) Predict(dates []time.Time) []models.TrendForecast {
	out := make([]models.TrendForecast, len(dates))
	row := make([]float64, m.width())
	for i, d := range dates {
		out[i] = m.predictOne(util.Day(d), row)
	}
	return out
}

// Frame returns the contiguous daily calendar from Start through end.
func (m *Model) Frame(end time.Time) []models.TrendForecast {
	days := util.DaysBetween(m.Start, end) + 1
	if days <= 0 {
		return nil
	}
	return m.Predict(util.DayRange(m.Start, days))
}

func (m *Model) predictOne(d time.Time, row []float64) models.TrendForecast {
	m.features(d, row)
	point := floats.Dot(row, m.Beta)

	variance := m.Sigma * m.Sigma
	if h := m.scaledTime(d) - 1; h > 0 {
		// Slope shocks arrive at ChangepointRate with Laplace(MeanAbsDelta) size,
		// so level variance grows with the cube of the horizon.
		variance += m.ChangepointRate * 2 * m.MeanAbsDelta * m.MeanAbsDelta * h * h * h / 3
	}
	half := m.Z * math.Sqrt(variance)

	return models.TrendForecast{
		Date:  d,
		Point: point * m.YScale,
		Lower: (point - half) * m.YScale,
		Upper: (point + half) * m.YScale,
	}
}

func (m *Model) scaledTime(d time.Time) float64 {
	return float64(util.DaysBetween(m.Start, d)) / m.SpanDays
}

func (m *Model) width() int {
	return 2 + len(m.Changepoints) + 2*m.YearlyOrder + 2*m.WeeklyOrder
}

// features writes the design row for d into row.
func (m *Model) features(d time.Time, row []float64) {
	t := m.scaledTime(d)
	row[0] = 1
	row[1] = t
	i := 2
	for _, cp := range m.Changepoints {
		row[i] = math.Max(0, t-cp)
		i++
	}
	epoch := util.EpochDays(d)
	i = fourier(row, i, epoch, yearPeriod, m.YearlyOrder)
	fourier(row, i, epoch, weekPeriod, m.WeeklyOrder)
}

// penalties returns the ridge diagonal. noiseVar == 0 yields the pilot penalties.
func (m *Model) penalties(opt Options, noiseVar float64) []float64 {
	pen := make([]float64, m.width())
	// Intercept and base slope stay effectively unpenalized.
	pen[0], pen[1] = 1e-9, 1e-9
	cpPen, seasonPen := 1e-4, 1e-4
	if noiseVar > 0 {
		cpPen = noiseVar / (opt.ChangepointPriorScale * opt.ChangepointPriorScale)
		seasonPen = noiseVar / (opt.SeasonalityPriorScale * opt.SeasonalityPriorScale)
	}
	nc := len(m.Changepoints)
	for j := 2; j < 2+nc; j++ {
		pen[j] = cpPen
	}
	for j := 2 + nc; j < len(pen); j++ {
		pen[j] = seasonPen
	}
	return pen
}

func fourier(row []float64, i int, epochDays, period float64, order int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * epochDays / period
		row[i] = math.Sin(x)
		row[i+1] = math.Cos(x)
		i += 2
	}
	return i
}

// placeChangepoints spreads candidates evenly by observation index over the first
// ChangepointRange share of the history.
func placeChangepoints(points []models.TimeSeriesPoint, m *Model, opt Options) []float64 {
	histSize := int(math.Floor(float64(len(points)) * opt.ChangepointRange))
	count := opt.Changepoints
	if count > histSize-1 {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}
	cps := make([]float64, 0, count)
	for k := 1; k <= count; k++ {
		idx := int(math.Round(float64(k) * float64(histSize-1) / float64(count)))
		cps = append(cps, m.scaledTime(points[idx].Date))
	}
	return cps
}

// solveRidge solves (XᵀX + diag(pen)) β = Xᵀy.
func solveRidge(x *mat.Dense, y []float64, pen []float64) ([]float64, error) {
	_, p := x.Dims()

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := xtx.At(i, j)
			if i == j {
				v += pen[i]
			}
			sym.SetSym(i, j, v)
		}
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(len(y), y))

	var beta mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		if err := chol.SolveVecTo(&beta, &xty); err != nil {
			return nil, fmt.Errorf("cholesky solve: %w", err)
		}
	} else if err := beta.SolveVec(sym, &xty); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}

	out := make([]float64, p)
	copy(out, beta.RawVector().Data)
	return out, nil
}

func residuals(x *mat.Dense, y, beta []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] - floats.Dot(x.RawRowView(i), beta)
	}
	return out
}

func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}

func absAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Abs(v)
	}
	return out
}
