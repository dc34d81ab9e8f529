package cart

import (
	"context"
	"database/sql"

	"foodline-bot/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Add(ctx context.Context, userID, productID int64, qty int) error
	SetQuantity(ctx context.Context, userID, productID int64, qty int) error
	Get(ctx context.Context, userID int64) ([]Entry, error)
	GetEntry(ctx context.Context, userID, productID int64) (*Entry, error)
	Clear(ctx context.Context, userID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Add upserts a cart line; an existing line accumulates the quantity.
func (r *repository) Add(ctx context.Context, userID, productID int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart.quantity + excluded.quantity
	`, userID, productID, qty)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to add to cart",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
	}
	return err
}

// SetQuantity overwrites a line's quantity; zero or below deletes the line
// so a stored entry always has quantity >= 1.
func (r *repository) SetQuantity(ctx context.Context, userID, productID int64, qty int) error {
	if qty <= 0 {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM cart WHERE user_id = $1 AND product_id = $2`,
			userID, productID,
		)
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE cart SET quantity = $1 WHERE user_id = $2 AND product_id = $3`,
		qty, userID, productID,
	)
	return err
}

func (r *repository) Get(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.product_id, p.name, p.description, p.price, c.quantity
		FROM cart c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
	`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get cart",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ProductID, &e.Name, &e.Description, &e.Price, &e.Quantity); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *repository) GetEntry(ctx context.Context, userID, productID int64) (*Entry, error) {
	var e Entry
	err := r.db.QueryRowContext(ctx, `
		SELECT c.product_id, p.name, p.description, p.price, c.quantity
		FROM cart c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND c.product_id = $2
	`, userID, productID).Scan(&e.ProductID, &e.Name, &e.Description, &e.Price, &e.Quantity)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *repository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	return err
}
