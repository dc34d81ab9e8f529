package review

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"foodline-bot/internal/logger"
)

type Repository interface {
	Add(ctx context.Context, userID int64, rating int, comment *string) (*Review, error)
	List(ctx context.Context, limit int) ([]Review, error)
	Summary(ctx context.Context) (*Summary, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Add(ctx context.Context, userID int64, rating int, comment *string) (*Review, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Add"),
	)

	var rev Review
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (user_id, rating, comment)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, rating, comment, created_at
	`, userID, rating, comment).Scan(&rev.ID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		log.Error("failed to insert review", zap.Error(err))
		return nil, err
	}

	log.Info("review added",
		zap.Int64("user_id", userID),
		zap.Int("rating", rating),
	)
	return &rev, nil
}

// List returns the newest reviews with the author's display name joined
// in.
func (r *repository) List(ctx context.Context, limit int) ([]Review, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, u.first_name, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		log.Error("failed to query reviews", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.UserName, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			log.Error("failed to scan review", zap.Error(err))
			return nil, err
		}
		result = append(result, rev)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return result, nil
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews
	`).Scan(&s.Average, &s.Count)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query review summary", zap.Error(err))
		return nil, err
	}
	return &s, nil
}
