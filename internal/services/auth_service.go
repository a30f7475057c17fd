package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prediction-venue/internal/models"
	"prediction-venue/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles wallet logins
type AuthService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(deps Deps) *AuthService {
	exec := newExecutor(deps, "auth")
	return &AuthService{repo: exec.repo, now: exec.now, log: exec.log}
}

// ProcessWalletLogin finds or creates a user by wallet address
func (s *AuthService) ProcessWalletLogin(ctx context.Context, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	user, err := s.repo.UpsertUser(ctx, walletAddress, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	s.log.Info("user logged in", zap.String("wallet", walletAddress), zap.Uint("user_id", user.ID))
	return user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (s *AuthService) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	user, err := s.repo.GetUserByWallet(ctx, walletAddress)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	return user, err
}
