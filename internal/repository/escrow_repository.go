package repository

import (
	"context"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
)

// CreateEscrowEntry appends a journal line
func (r *Repository) CreateEscrowEntry(ctx context.Context, entry *models.EscrowEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListEscrowEntries lists an account's journal, newest first
func (r *Repository) ListEscrowEntries(ctx context.Context, account string, limit int) ([]models.EscrowEntry, error) {
	var entries []models.EscrowEntry
	err := r.db.WithContext(ctx).Where("account = ?", account).Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// EscrowTotals sums journal amounts per kind
func (r *Repository) EscrowTotals(ctx context.Context) (map[models.EscrowKind]decimal.Decimal, error) {
	var entries []models.EscrowEntry
	if err := r.db.WithContext(ctx).Select("kind", "amount").Find(&entries).Error; err != nil {
		return nil, err
	}
	totals := make(map[models.EscrowKind]decimal.Decimal)
	for _, e := range entries {
		totals[e.Kind] = totals[e.Kind].Add(e.Amount)
	}
	return totals, nil
}
