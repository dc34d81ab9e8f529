package user

import (
	"context"

	"foodline-bot/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetOrCreate(ctx context.Context, id int64, username, firstName string) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	SavePhone(ctx context.Context, id int64, phone string) error
	// PurchasePremium activates the premium flag. The payment itself is
	// handled outside this core; re-purchase is rejected.
	PurchasePremium(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrCreate(ctx context.Context, id int64, username, firstName string) (*User, error) {
	return s.repo.GetOrCreate(ctx, id, username, firstName)
}

func (s *service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) SavePhone(ctx context.Context, id int64, phone string) error {
	return s.repo.SetPhone(ctx, id, phone)
}

func (s *service) PurchasePremium(ctx context.Context, id int64) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if u.Premium {
		return ErrAlreadyPremium
	}

	if err := s.repo.SetPremium(ctx, id, true); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("premium activated", zap.Int64("user_id", id))
	return nil
}
