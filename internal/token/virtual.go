package token

import (
	"context"
	"fmt"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VirtualToken keeps balances and allowances in the database. Transfers run
// on the transaction carried by the context when there is one.
type VirtualToken struct {
	db        *gorm.DB
	custodian string
}

// NewVirtualToken creates a virtual token whose escrow account is custodian
func NewVirtualToken(db *gorm.DB, custodian string) *VirtualToken {
	return &VirtualToken{db: db, custodian: custodian}
}

func (t *VirtualToken) Custodian() string {
	return t.custodian
}

func (t *VirtualToken) JoinsTransaction() bool {
	return true
}

// Mint credits amount to owner out of thin air
func (t *VirtualToken) Mint(ctx context.Context, owner string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return credit(database.Conn(ctx, t.db), owner, amount)
}

// Approve sets the amount spender may pull from owner
func (t *VirtualToken) Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	allowance := models.TokenAllowance{
		Owner:     owner,
		Spender:   spender,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}
	return database.Conn(ctx, t.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&allowance).Error
}

// Allowance returns what spender may still pull from owner
func (t *VirtualToken) Allowance(ctx context.Context, owner, spender string) (decimal.Decimal, error) {
	var allowance models.TokenAllowance
	err := database.Conn(ctx, t.db).Where("owner = ? AND spender = ?", owner, spender).Limit(1).Find(&allowance).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load allowance: %w", err)
	}
	return allowance.Amount, nil
}

func (t *VirtualToken) BalanceOf(ctx context.Context, account string) (decimal.Decimal, error) {
	var balance models.TokenBalance
	err := database.Conn(ctx, t.db).Where("owner = ?", account).Limit(1).Find(&balance).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load balance: %w", err)
	}
	return balance.Balance, nil
}

func (t *VirtualToken) TransferFrom(ctx context.Context, owner, recipient string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return database.Conn(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TokenAllowance{}).
			Where("owner = ? AND spender = ? AND amount >= ?", owner, t.custodian, amount).
			Updates(map[string]interface{}{
				"amount":     gorm.Expr("amount - ?", amount),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to spend allowance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientAllowance
		}
		return move(tx, owner, recipient, amount)
	})
}

func (t *VirtualToken) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return database.Conn(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		return move(tx, t.custodian, recipient, amount)
	})
}

func move(tx *gorm.DB, from, to string, amount decimal.Decimal) error {
	res := tx.Model(&models.TokenBalance{}).
		Where("owner = ? AND balance >= ?", from, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to debit %s: %w", from, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return credit(tx, to, amount)
}

func credit(tx *gorm.DB, owner string, amount decimal.Decimal) error {
	balance := models.TokenBalance{
		Owner:     owner,
		Balance:   amount,
		UpdatedAt: time.Now().UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("token_balances.balance + ?", amount),
			"updated_at": balance.UpdatedAt,
		}),
	}).Create(&balance).Error
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", owner, err)
	}
	return nil
}
