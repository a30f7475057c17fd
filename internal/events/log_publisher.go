package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes every event to the structured log
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.log.Info(ev.Kind,
		zap.Uint64("seq", ev.Seq),
		zap.String("market_id", ev.MarketID),
		zap.ByteString("payload", ev.Payload),
	)
	return nil
}
