package usecase

import (
	"context"
	"sync"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/internal/services/features"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

// HistoryService owns the in-memory copy of the price series. It is loaded lazily
// and replaced by the trainer after each successful cycle, so forecasts always pair
// the persisted model with the series it was trained on or a newer one.
type HistoryService struct {
	source domrepo.PriceSource
	l      *applogger.Logger

	mu     sync.RWMutex
	series *models.HistoricalSeries
}

func NewHistoryService(source domrepo.PriceSource, l *applogger.Logger) *HistoryService {
	if l == nil {
		l = applogger.Nop()
	}
	return &HistoryService{source: source, l: l}
}

// Series returns the memoized series, loading it on first use.
func (h *HistoryService) Series(ctx context.Context) (*models.HistoricalSeries, error) {
	h.mu.RLock()
	s := h.series
	h.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.series != nil {
		return h.series, nil
	}
	s, err := h.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	h.series = s
	return s, nil
}

// Fetch loads and validates a fresh series without touching the memo.
func (h *HistoryService) Fetch(ctx context.Context) (*models.HistoricalSeries, error) {
	s, err := h.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps the memoized series.
func (h *HistoryService) Replace(s *models.HistoricalSeries) {
	h.mu.Lock()
	h.series = s
	h.mu.Unlock()
	h.l.Debug("history replaced", applogger.Int("points", s.Len()), applogger.String("source", s.Source))
}

// History returns observations in [from, to]; zero bounds are open.
func (h *HistoryService) History(ctx context.Context, from, to time.Time) ([]models.HistoryRow, error) {
	s, err := h.Series(ctx)
	if err != nil {
		return nil, err
	}
	pts := s.Between(from, to)
	out := make([]models.HistoryRow, len(pts))
	for i, p := range pts {
		out[i] = models.HistoryRow{Date: p.Date.Format(util.SlashDate), Price: models.Price(p.Price)}
	}
	return out, nil
}

// Analytics summarizes the memoized series.
func (h *HistoryService) Analytics(ctx context.Context, bins int) (*models.HistoryAnalytics, error) {
	s, err := h.Series(ctx)
	if err != nil {
		return nil, err
	}
	return features.Analyze(s, bins)
}
