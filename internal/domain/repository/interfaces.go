package repository

import (
	"context"
	"time"

	"BrentCast/internal/domain/models"
)

// PriceSource yields the full historical Brent series.
type PriceSource interface {
	Name() string
	Load(ctx context.Context) (*models.HistoricalSeries, error)
}

// PriceStore keeps the last good copy of the series and the training log.
type PriceStore interface {
	PriceSource
	Save(ctx context.Context, series *models.HistoricalSeries) error
	RecordTrainingRun(ctx context.Context, m models.ModelManifest) error
	Health(ctx context.Context) error
}

// ModelStore persists the trained pair. Save is an idempotent overwrite; Load and
// Manifest return *models.ModelNotTrainedError when nothing was saved.
type ModelStore interface {
	Save(ctx context.Context, a *models.ModelArtifacts) error
	Load(ctx context.Context) (*models.ModelArtifacts, error)
	Manifest(ctx context.Context) (*models.ModelManifest, error)
}

// EventPublisher announces persisted models to downstream consumers.
type EventPublisher interface {
	PublishModelTrained(ctx context.Context, evt models.ModelTrainedEvent) error
	Close() error
}

// TrainingObserver receives training progress.
type TrainingObserver interface {
	OnTrainingEvent(evt models.TrainingEvent)
}

type Metrics interface {
	RecordTraining(d time.Duration, points int, err error)
	RecordModelQuality(e models.Evaluation)
	RecordForecast(days int, cached bool, d time.Duration)
	RecordCorrection(v float64)
	RecordSourceLoad(source string, err error)
	RecordError(kind string)
}
