package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
)

type stubSource struct {
	name   string
	series *models.HistoricalSeries
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(context.Context) (*models.HistoricalSeries, error) {
	s.calls++
	return s.series, s.err
}

type stubStore struct {
	stubSource
	saved *models.HistoricalSeries
}

func (s *stubStore) Save(_ context.Context, series *models.HistoricalSeries) error {
	s.saved = series
	return nil
}

func (s *stubStore) RecordTrainingRun(context.Context, models.ModelManifest) error { return nil }
func (s *stubStore) Health(context.Context) error { return nil }

func sampleSeries(source string) *models.HistoricalSeries {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.NewHistoricalSeries([]models.TimeSeriesPoint{
		{Date: d, Price: 77.1}, {Date: d.AddDate(0, 0, 1), Price: 78.2},
	}, source)
}

func TestFallbackPrimaryWritesThrough(t *testing.T) {
	primary := &stubSource{name: "ipea", series: sampleSeries("ipea")}
	store := &stubStore{stubSource: stubSource{name: "clickhouse"}}
	f := NewFallbackSource([]domrepo.PriceSource{primary, store}, store, nil, nil)

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ipea", got.Source)
	assert.Same(t, got, store.saved)
	assert.Zero(t, store.calls)
}

func TestFallbackUsesNextSource(t *testing.T) {
	primary := &stubSource{name: "ipea", err: &models.UpstreamUnavailableError{Source: "ipea"}}
	store := &stubStore{stubSource: stubSource{name: "clickhouse", err: errors.New("down")}}
	csv := &stubSource{name: "csv", series: sampleSeries("csv")}
	f := NewFallbackSource([]domrepo.PriceSource{primary, store, csv}, store, nil, nil)

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "csv", got.Source)
	assert.Nil(t, store.saved, "fallback copies are not written back")
}

func TestFallbackAllFail(t *testing.T) {
	f := NewFallbackSource([]domrepo.PriceSource{
		&stubSource{name: "ipea", err: errors.New("timeout")},
		&stubSource{name: "csv", err: errors.New("missing")},
	}, nil, nil, nil)

	_, err := f.Load(context.Background())
	var ue *models.UpstreamUnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "ipea>csv", ue.Source)
	assert.Contains(t, err.Error(), "timeout")
}

func TestFallbackRejectsInvalidSeries(t *testing.T) {
	bad := models.NewHistoricalSeries([]models.TimeSeriesPoint{{Date: time.Now(), Price: -1}}, "csv")
	f := NewFallbackSource([]domrepo.PriceSource{&stubSource{name: "csv", series: bad}}, nil, nil, nil)

	_, err := f.Load(context.Background())
	var dv *models.DataValidationError
	require.True(t, errors.As(err, &dv))
	assert.Equal(t, "price", dv.Field)
}
