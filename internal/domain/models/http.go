package models

// Requests for the HTTP API. Dates use YYYY-MM-DD.

// ForecastRequest.Start accepts YYYY-MM-DD, YYYY/MM/DD or DD/MM/YYYY. Days is a pointer
// so an explicit days=0 is rejected instead of defaulted.
type ForecastRequest struct {
	Start string `query:"start" json:"start" validate:"omitempty,max=10"`
	Days  *int   `query:"days" json:"days" default:"30" validate:"required,gte=1"`
}

type HistoryRequest struct {
	From string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type AnalyticsRequest struct {
	Bins int `query:"bins" json:"bins" default:"30" validate:"gte=2,lte=200"`
}

type TrainRequest struct {
	Force bool `query:"force" json:"force"`
}

// TrainAccepted is returned when training was queued rather than run inline.
type TrainAccepted struct {
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued"`
}

// Health is the liveness payload.
type Health struct {
	Status       string `json:"status"`
	ModelTrained bool   `json:"model_trained"`
	ModelID      string `json:"model_id,omitempty"`
}
