package models

import (
	"math"
	"sort"
	"time"
)

// TimeSeriesPoint is one daily observation.
type TimeSeriesPoint struct {
	Date  time.Time
	Price float64
}

// HistoricalSeries is an ascending, duplicate-free sequence of observations.
// Treat it as immutable once built.
type HistoricalSeries struct {
	Points []TimeSeriesPoint
	Source string
}

// NewHistoricalSeries normalizes dates to UTC midnight, sorts ascending and drops
// duplicate dates keeping the last value seen for each date.
func NewHistoricalSeries(points []TimeSeriesPoint, source string) *HistoricalSeries {
	norm := make([]TimeSeriesPoint, len(points))
	for i, p := range points {
		y, m, d := p.Date.Date()
		norm[i] = TimeSeriesPoint{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Price: p.Price}
	}
	sort.SliceStable(norm, func(i, j int) bool { return norm[i].Date.Before(norm[j].Date) })

	out := norm[:0]
	for _, p := range norm {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return &HistoricalSeries{Points: out, Source: source}
}

// Len returns the number of observations.
func (s *HistoricalSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// First returns the earliest date.
func (s *HistoricalSeries) First() time.Time { return s.Points[0].Date }

// Last returns the latest date.
func (s *HistoricalSeries) Last() time.Time { return s.Points[len(s.Points)-1].Date }

// Validate checks ordering and value sanity. It never repairs the series.
func (s *HistoricalSeries) Validate() error {
	if s.Len() == 0 {
		return &DataValidationError{Field: "series", Reason: "no observations"}
	}
	for i, p := range s.Points {
		if p.Date.IsZero() {
			return &DataValidationError{Field: "date", Row: i + 1, Reason: "missing date"}
		}
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return &DataValidationError{Field: "price", Row: i + 1, Value: formatFloat(p.Price), Reason: "price must be a positive finite number"}
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			err := invalidDate("date", p.Date, "dates must be unique and strictly increasing")
			err.Row = i + 1
			return err
		}
	}
	return nil
}

// Between returns the observations with from <= date <= to. Zero bounds are open.
func (s *HistoricalSeries) Between(from, to time.Time) []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, 0, s.Len())
	for _, p := range s.Points {
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Tail returns the last n observations, or all of them when fewer exist.
func (s *HistoricalSeries) Tail(n int) []TimeSeriesPoint {
	if n >= s.Len() {
		return s.Points
	}
	return s.Points[s.Len()-n:]
}

// Prices returns the price column.
func (s *HistoricalSeries) Prices() []float64 {
	out := make([]float64, s.Len())
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}
