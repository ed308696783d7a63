package usecase

import (
	"context"
	"errors"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/queue"
)

// TrainJobType is the queue message type of a training request.
const TrainJobType = "model.train"

// TrainJob runs queued training requests on the single queue worker.
type TrainJob struct {
	trainer *Trainer
}

var _ queue.Job = (*TrainJob)(nil)

func NewTrainJob(t *Trainer) *TrainJob { return &TrainJob{trainer: t} }

func (j *TrainJob) Name() string { return "train-model" }

func (j *TrainJob) Type() string { return TrainJobType }

// Handle trains once. Bad data and short history are not retried.
func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.TrainJobPayload](payload)
	if err != nil {
		return queue.Permanent(err)
	}
	_, err = j.trainer.Train(ctx, TrainOptions{Force: p.Force})
	var dv *models.DataValidationError
	var ih *models.InsufficientHistoryError
	if errors.As(err, &dv) || errors.As(err, &ih) {
		return queue.Permanent(err)
	}
	return err
}

// TrainDispatcher routes training requests to the queue when one is configured and
// runs them inline otherwise.
type TrainDispatcher struct {
	trainer *Trainer
	queue   queue.Publisher
}

// NewTrainDispatcher wires a dispatcher; q may be nil.
func NewTrainDispatcher(t *Trainer, q queue.Publisher) *TrainDispatcher {
	return &TrainDispatcher{trainer: t, queue: q}
}

// Queued reports whether requests are handled asynchronously.
func (d *TrainDispatcher) Queued() bool { return d.queue != nil }

// Enqueue schedules a training cycle and returns the job id.
func (d *TrainDispatcher) Enqueue(ctx context.Context, force bool) (string, error) {
	if d.queue == nil {
		return "", errors.New("training queue disabled")
	}
	return d.queue.Enqueue(ctx, TrainJobType, models.TrainJobPayload{Force: force})
}

// Train runs a cycle inline.
func (d *TrainDispatcher) Train(ctx context.Context, force bool) (*models.TrainingReport, error) {
	return d.trainer.Train(ctx, TrainOptions{Force: force})
}
