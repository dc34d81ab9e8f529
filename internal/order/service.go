package order

import (
	"context"

	"go.uber.org/zap"

	"foodline-bot/internal/logger"
)

const defaultHistoryLimit = 10

type Service interface {
	Create(ctx context.Context, o *Order, items []Item) error
	History(ctx context.Context, userID int64) ([]Order, error)
	Detail(ctx context.Context, userID, orderID int64) (*Detail, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (*Detail, error)
	ActiveOrders(ctx context.Context) ([]Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, o *Order, items []Item) error {
	return s.repo.CreateTx(ctx, o, items)
}

func (s *service) History(ctx context.Context, userID int64) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, defaultHistoryLimit)
}

// Detail returns the order only to its owner. A foreign order id is
// indistinguishable from a missing one.
func (s *service) Detail(ctx context.Context, userID, orderID int64) (*Detail, error) {
	d, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return d, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, status string) (*Detail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
	)

	if !ValidStatus(status) {
		log.Warn("rejected unknown status", zap.String("status", status))
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

func (s *service) ActiveOrders(ctx context.Context) ([]Order, error) {
	return s.repo.ListActive(ctx)
}
