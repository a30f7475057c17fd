package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/lock"
	"prediction-venue/internal/models"
	"prediction-venue/internal/repository"
	"prediction-venue/internal/token"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by the venue services. Services built
// from the same Deps serialize on the same market locks.
type Deps struct {
	DB     *gorm.DB
	Token  token.Token
	Locker lock.Locker
	Clock  func() time.Time
	Logger *zap.Logger
}

type inflightKey struct{}

// executor runs state-mutating operations: one market lock, one reentrancy
// marker and one database transaction per call.
type executor struct {
	db     *gorm.DB
	repo   *repository.Repository
	ledger *EscrowLedger
	locker lock.Locker
	now    func() time.Time
	log    *zap.Logger
}

func newExecutor(deps Deps, component string) *executor {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	log = log.Named(component)
	return &executor{
		db:     deps.DB,
		repo:   repository.NewRepository(deps.DB),
		ledger: NewEscrowLedger(deps.Token, log),
		locker: locker,
		now:    now,
		log:    log,
	}
}

func marketLockKey(marketID string) string {
	return "market:" + marketID
}

// enter takes the market lock and marks ctx as in flight. A call that
// arrives on a context that is already in flight is a reentrant call from a
// collaborator and is rejected instead of deadlocking on the lock.
func (e *executor) enter(ctx context.Context, marketID string) (context.Context, func(), error) {
	if ctx.Value(inflightKey{}) != nil {
		return nil, nil, ErrReentrantCall
	}
	unlock, err := e.locker.Acquire(ctx, marketLockKey(marketID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire market lock: %w", err)
	}
	return context.WithValue(ctx, inflightKey{}, marketID), unlock, nil
}

// atomic runs fn under the market lock inside a single transaction. On any
// error the transaction rolls back and compensations registered by
// non-transactional collaborators run.
func (e *executor) atomic(ctx context.Context, marketID string, fn func(ctx context.Context, repo *repository.Repository) error) error {
	ctx, unlock, err := e.enter(ctx, marketID)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, comp := withCompensation(ctx)
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(database.WithTx(ctx, tx), e.repo.WithTx(tx))
	})
	if err != nil {
		comp.run(e.log)
	}
	return err
}

// loadMarket maps a missing row to ErrMarketNotFound
func loadMarket(ctx context.Context, repo *repository.Repository, marketID string) (*models.Market, error) {
	market, err := repo.GetMarket(ctx, marketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load market: %w", err)
	}
	return market, nil
}
