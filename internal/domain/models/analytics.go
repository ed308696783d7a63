package models

// SeriesSummary holds descriptive statistics of the price history.
type SeriesSummary struct {
	Count     int     `json:"count"`
	FirstDate string  `json:"first_date"`
	LastDate  string  `json:"last_date"`
	Min       Price   `json:"min"`
	Max       Price   `json:"max"`
	Mean      Price   `json:"mean"`
	StdDev    Price   `json:"std_dev"`
	LastPrice Price   `json:"last_price"`
	TotalPct  float64 `json:"total_change_pct"`
}

// DailyChange is the percentage change from the previous observation.
type DailyChange struct {
	Date string  `json:"date"`
	Pct  float64 `json:"pct"`
}

// AnnualMean is the average price over one calendar year.
type AnnualMean struct {
	Year  int   `json:"year"`
	Mean  Price `json:"mean"`
	Count int   `json:"count"`
}

// Histogram bins prices; Counts[i] covers [Edges[i], Edges[i+1]).
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// HistoryAnalytics is the analytical view of the price history.
type HistoryAnalytics struct {
	Summary     SeriesSummary `json:"summary"`
	DailyChange []DailyChange `json:"daily_change"`
	AnnualMean  []AnnualMean  `json:"annual_mean"`
	Histogram   Histogram     `json:"histogram"`
}
