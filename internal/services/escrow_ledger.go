package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"prediction-venue/internal/models"
	"prediction-venue/internal/repository"
	"prediction-venue/internal/token"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowLedger moves collateral between participants and venue custody and
// journals every movement. It is only called from inside executor.atomic.
type EscrowLedger struct {
	token token.Token
	log   *zap.Logger
}

func NewEscrowLedger(tok token.Token, log *zap.Logger) *EscrowLedger {
	return &EscrowLedger{token: tok, log: log}
}

// Lock pulls amount from owner into custody. A zero amount moves nothing.
func (l *EscrowLedger) Lock(ctx context.Context, repo *repository.Repository, marketID, owner string, kind models.EscrowKind, ref string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.token.TransferFrom(ctx, owner, l.token.Custodian(), amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if !token.IsTransactional(l.token) {
		if comp, ok := compensationFrom(ctx); ok {
			comp.add(fmt.Sprintf("refund %s %s to %s", amount, kind, owner), func(ctx context.Context) error {
				return l.token.Transfer(ctx, owner, amount)
			})
		}
	}
	return l.journal(ctx, repo, marketID, owner, kind, ref, amount)
}

// Pay transfers amount out of custody to recipient. The transfer is the last
// step so a failure leaves the journal and the caller's state untouched.
func (l *EscrowLedger) Pay(ctx context.Context, repo *repository.Repository, marketID, recipient, ref string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.journal(ctx, repo, marketID, recipient, models.EscrowKindPayout, ref, amount); err != nil {
		return err
	}
	if err := l.token.Transfer(ctx, recipient, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// Strand journals collateral that stays in custody with no claim path
func (l *EscrowLedger) Strand(ctx context.Context, repo *repository.Repository, marketID, owner, ref string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	return l.journal(ctx, repo, marketID, owner, models.EscrowKindStranded, ref, amount)
}

// Held is the collateral the journal says custody holds: everything pulled
// in minus everything paid out.
func (l *EscrowLedger) Held(ctx context.Context, repo *repository.Repository) (decimal.Decimal, error) {
	totals, err := repo.EscrowTotals(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total escrow journal: %w", err)
	}
	held := decimal.Zero
	for kind, amount := range totals {
		switch {
		case kind.Inbound():
			held = held.Add(amount)
		case kind == models.EscrowKindPayout:
			held = held.Sub(amount)
		}
	}
	return held, nil
}

func (l *EscrowLedger) journal(ctx context.Context, repo *repository.Repository, marketID, account string, kind models.EscrowKind, ref string, amount decimal.Decimal) error {
	entry := models.EscrowEntry{
		MarketID: marketID,
		Account:  account,
		Kind:     kind,
		Ref:      ref,
		Amount:   amount,
	}
	if err := repo.CreateEscrowEntry(ctx, &entry); err != nil {
		return fmt.Errorf("failed to journal %s: %w", kind, err)
	}
	return nil
}

func refID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

type compensationKey struct{}

// compensations undo external effects that cannot join the transaction
type compensations struct {
	mu    sync.Mutex
	steps []compensation
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

func withCompensation(ctx context.Context) (context.Context, *compensations) {
	c := &compensations{}
	return context.WithValue(ctx, compensationKey{}, c), c
}

func compensationFrom(ctx context.Context) (*compensations, bool) {
	c, ok := ctx.Value(compensationKey{}).(*compensations)
	return c, ok
}

func (c *compensations) add(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, compensation{name: name, fn: fn})
}

// run executes steps newest first on a fresh context
func (c *compensations) run(log *zap.Logger) {
	c.mu.Lock()
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := steps[i].fn(ctx); err != nil {
			log.Error("compensation failed", zap.String("step", steps[i].name), zap.Error(err))
		}
		cancel()
	}
}
