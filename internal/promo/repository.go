package promo

import (
	"context"
	"database/sql"
	"errors"

	"foodline-bot/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Promo, error)
	ListActive(ctx context.Context) ([]Promo, error)
}

// Lister is the read-only slice of Repository the storefront needs to
// advertise running promotions.
type Lister interface {
	ListActive(ctx context.Context) ([]Promo, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Promo, error) {
	var p Promo
	err := r.db.QueryRowContext(ctx, `
		SELECT code, discount_percent, discount_amount, min_order_amount,
		       usage_limit, used_count, expires_at, is_active
		FROM promo_codes
		WHERE code = $1 AND is_active = TRUE
	`, code).Scan(
		&p.Code,
		&p.DiscountPercent,
		&p.DiscountAmount,
		&p.MinOrderAmount,
		&p.UsageLimit,
		&p.UsedCount,
		&p.ExpiresAt,
		&p.Active,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get promo code", zap.Error(err))
		return nil, err
	}

	return &p, nil
}

// ListActive returns promotions still worth advertising: active, not
// expired, with uses left. Best discount first.
func (r *repository) ListActive(ctx context.Context) ([]Promo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, discount_percent, discount_amount, min_order_amount,
		       usage_limit, used_count, expires_at, is_active
		FROM promo_codes
		WHERE is_active = TRUE
		  AND (expires_at IS NULL OR expires_at > NOW())
		  AND (usage_limit = 0 OR used_count < usage_limit)
		ORDER BY discount_percent DESC
	`)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list promo codes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []Promo
	for rows.Next() {
		var p Promo
		if err := rows.Scan(
			&p.Code,
			&p.DiscountPercent,
			&p.DiscountAmount,
			&p.MinOrderAmount,
			&p.UsageLimit,
			&p.UsedCount,
			&p.ExpiresAt,
			&p.Active,
		); err != nil {
			logger.FromCtx(ctx).Error("db: failed to scan promo code", zap.Error(err))
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
