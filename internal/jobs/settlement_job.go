package jobs

import (
	"context"

	"prediction-venue/internal/services"

	"go.uber.org/zap"
)

// SettlementJob settles markets past their settlement time once the oracle
// has an outcome. Unresolved markets are retried on the next tick.
type SettlementJob struct {
	settlement *services.SettlementService
	log        *zap.Logger
}

func NewSettlementJob(settlement *services.SettlementService, log *zap.Logger) *SettlementJob {
	return &SettlementJob{settlement: settlement, log: log.Named("settlement_job")}
}

func (j *SettlementJob) Name() string { return "settlement" }

func (j *SettlementJob) Run(ctx context.Context) {
	settled, err := j.settlement.SettleDue(ctx)
	if err != nil {
		j.log.Error("settlement sweep failed", zap.Error(err))
		return
	}
	if settled > 0 {
		j.log.Info("markets settled", zap.Int("count", settled))
	}
}
