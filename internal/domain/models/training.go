package models

import "time"

// ModelSchemaVersion is bumped whenever the artifact layout changes incompatibly.
const ModelSchemaVersion = 1

// ErrorMetrics are held-out errors in price units (MAPE in percent).
type ErrorMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// Evaluation compares trend-only and corrected predictions on the test split.
type Evaluation struct {
	TestRows  int          `json:"test_rows"`
	TrendOnly ErrorMetrics `json:"trend_only"`
	Hybrid    ErrorMetrics `json:"hybrid"`
}

// ModelManifest describes a persisted model pair. Both artifacts carry ModelID.
type ModelManifest struct {
	SchemaVersion int        `json:"schema_version"`
	ModelID       string     `json:"model_id"`
	TrainedAt     time.Time  `json:"trained_at"`
	SeriesHash    string     `json:"series_hash"`
	Source        string     `json:"source"`
	HistoryStart  time.Time  `json:"history_start"`
	HistoryEnd    time.Time  `json:"history_end"`
	HorizonEnd    time.Time  `json:"horizon_end"`
	Points        int        `json:"points"`
	ResidualRows  int        `json:"residual_rows"`
	TrainRows     int        `json:"train_rows"`
	Evaluation    Evaluation `json:"evaluation"`
}

// ModelArtifacts is a trained pair as stored: a manifest and two serialized models.
type ModelArtifacts struct {
	Manifest ModelManifest
	Trend    []byte
	Residual []byte
}

// TrainingReport is returned by a training cycle.
type TrainingReport struct {
	Manifest ModelManifest `json:"manifest"`
	Duration time.Duration `json:"-"`
	TookMS   int64         `json:"took_ms"`
	Skipped  bool          `json:"skipped"` // series unchanged since the persisted model
}

// Training stages, in execution order.
const (
	StageLoad     = "load"
	StageTrend    = "trend"
	StageResidual = "residual"
	StagePersist  = "persist"
	StageDone     = "done"
)

// TrainingEvent is a progress notification for status subscribers.
type TrainingEvent struct {
	Stage   string    `json:"stage"`
	Status  string    `json:"status"` // started, completed, failed, skipped
	ModelID string    `json:"model_id,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// ModelTrainedEvent is published after a pair is persisted.
type ModelTrainedEvent struct {
	ModelID    string     `json:"model_id"`
	TrainedAt  time.Time  `json:"trained_at"`
	SeriesHash string     `json:"series_hash"`
	Points     int        `json:"points"`
	HistoryEnd string     `json:"history_end"`
	Evaluation Evaluation `json:"evaluation"`
}

// TrainJobPayload is the queue payload for an asynchronous training request.
type TrainJobPayload struct {
	Force bool `json:"force"`
}
