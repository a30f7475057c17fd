package jobs

import (
	"context"

	"prediction-venue/internal/events"

	"go.uber.org/zap"
)

// DispatchJob drains the event outbox into the configured publishers
type DispatchJob struct {
	dispatcher *events.Dispatcher
	log        *zap.Logger
}

func NewDispatchJob(dispatcher *events.Dispatcher, log *zap.Logger) *DispatchJob {
	return &DispatchJob{dispatcher: dispatcher, log: log.Named("dispatch_job")}
}

func (j *DispatchJob) Name() string { return "dispatch" }

func (j *DispatchJob) Run(ctx context.Context) {
	sent, err := j.dispatcher.Dispatch(ctx)
	if err != nil {
		// Unsent events stay in the outbox for the next tick
		j.log.Warn("event dispatch stopped early", zap.Int("sent", sent), zap.Error(err))
		return
	}
	if sent > 0 {
		j.log.Debug("events dispatched", zap.Int("count", sent))
	}
}
