package user

import (
	"context"
	"database/sql"
	"errors"

	"foodline-bot/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetOrCreate(ctx context.Context, id int64, username, firstName string) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	SetPhone(ctx context.Context, id int64, phone string) error
	SetPremium(ctx context.Context, id int64, premium bool) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetOrCreate registers the user on first contact. The insert is a no-op
// for known users, so repeated calls are idempotent.
func (r *repository) GetOrCreate(ctx context.Context, id int64, username, firstName string) (*User, error) {
	log := logger.FromCtx(ctx)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, id, username, firstName)
	if err != nil {
		log.Error("db: failed to upsert user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return r.Get(ctx, id)
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, phone, is_premium, orders_count, total_spent, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.FirstName, &u.Phone, &u.Premium, &u.OrdersCount, &u.TotalSpent, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *repository) SetPhone(ctx context.Context, id int64, phone string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone = $1 WHERE id = $2`,
		phone, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to set phone", zap.Int64("id", id), zap.Error(err))
	}
	return err
}

func (r *repository) SetPremium(ctx context.Context, id int64, premium bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_premium = $1 WHERE id = $2`,
		premium, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to set premium", zap.Int64("id", id), zap.Error(err))
	}
	return err
}
