package repository

import (
	"context"
	"errors"
	"strings"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	applogger "BrentCast/pkg/logger"
)

// FallbackSource tries each source in order and returns the first series that
// validates. A series from the primary source is written through to the store so
// later outages can be served from the copy.
type FallbackSource struct {
	sources []domrepo.PriceSource
	store   domrepo.PriceStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

var _ domrepo.PriceSource = (*FallbackSource)(nil)

// NewFallbackSource wires the chain. store may be nil; it is also expected to
// appear in sources when it should be read from.
func NewFallbackSource(sources []domrepo.PriceSource, store domrepo.PriceStore, m domrepo.Metrics, l *applogger.Logger) *FallbackSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &FallbackSource{sources: sources, store: store, metrics: m, l: l}
}

func (f *FallbackSource) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (f *FallbackSource) Load(ctx context.Context) (*models.HistoricalSeries, error) {
	var errs []error
	for i, src := range f.sources {
		series, err := src.Load(ctx)
		if err == nil {
			err = series.Validate()
		}
		if f.metrics != nil {
			f.metrics.RecordSourceLoad(src.Name(), err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.l.Warn("price source failed", applogger.String("source", src.Name()), applogger.Error(err))
			errs = append(errs, err)
			continue
		}

		if i == 0 && f.store != nil && src.Name() != f.store.Name() {
			if err := f.store.Save(ctx, series); err != nil {
				f.l.Warn("price copy write-through failed", applogger.String("store", f.store.Name()), applogger.Error(err))
			}
		}
		if i > 0 {
			f.l.Warn("serving price series from fallback", applogger.String("source", src.Name()), applogger.Int("rows", series.Len()))
		}
		return series, nil
	}
	if dv := allInvalid(errs); dv != nil {
		return nil, dv
	}
	return nil, &models.UpstreamUnavailableError{Source: f.Name(), Err: errors.Join(errs...)}
}

// allInvalid returns the last validation error when every source was reachable
// but served malformed data.
func allInvalid(errs []error) error {
	var last error
	for _, err := range errs {
		var dv *models.DataValidationError
		if !errors.As(err, &dv) {
			return nil
		}
		last = err
	}
	return last
}
