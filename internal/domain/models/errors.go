package models

import (
	"fmt"
	"time"
)

// DataValidationError reports a malformed source series. It aborts training.
type DataValidationError struct {
	Field  string
	Row    int // 1-based source row, 0 when not applicable
	Value  string
	Reason string
}

func (e *DataValidationError) Error() string {
	msg := "invalid " + e.Field
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s (%q)", msg, e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InsufficientHistoryError reports that fewer observations exist than a stage needs.
type InsufficientHistoryError struct {
	Stage string
	Unit  string // what is counted; "observations" when empty
	Need  int
	Have  int
}

func (e *InsufficientHistoryError) Error() string {
	unit := e.Unit
	if unit == "" {
		unit = "observations"
	}
	return fmt.Sprintf("insufficient history for %s: need %d %s, have %d", e.Stage, e.Need, unit, e.Have)
}

// ModelNotTrainedError means the store holds no model pair yet.
type ModelNotTrainedError struct {
	Location string
}

func (e *ModelNotTrainedError) Error() string {
	if e.Location == "" {
		return "model not trained: run training before forecasting"
	}
	return fmt.Sprintf("model not trained: no artifacts in %s, run training before forecasting", e.Location)
}

// UpstreamUnavailableError means no price source, cached copies included, could serve the series.
type UpstreamUnavailableError struct {
	Source string
	Err    error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream %s unavailable", e.Source)
	}
	return fmt.Sprintf("upstream %s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

func invalidDate(field string, t time.Time, reason string) *DataValidationError {
	return &DataValidationError{Field: field, Value: t.Format("2006-01-02"), Reason: reason}
}
