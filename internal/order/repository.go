package order

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"foodline-bot/internal/logger"
	"foodline-bot/internal/promo"
)

type Repository interface {
	CreateTx(ctx context.Context, o *Order, items []Item) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]Order, error)
	Get(ctx context.Context, orderID int64) (*Detail, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) error
	ListActive(ctx context.Context) ([]Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateTx persists the finalized order atomically: the promo
// redemption, the order header, its frozen lines, the buyer's lifetime
// counters, and the cart wipe either all land or none do. A failed
// order never consumes a promo use.
func (r *repository) CreateTx(ctx context.Context, o *Order, items []Item) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateTx"),
		zap.Int64("user_id", o.UserID),
	)

	if len(items) == 0 {
		return ErrNoItems
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	// 1. Redeem the promo, if any. The conditional UPDATE re-checks the
	// limit, so a code spent by a concurrent checkout aborts the whole
	// transaction before anything is written.
	if o.PromoCode != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE promo_codes
			SET used_count = used_count + 1
			WHERE code = $1
			  AND is_active = TRUE
			  AND (usage_limit = 0 OR used_count < usage_limit)
		`, *o.PromoCode)
		if err != nil {
			log.Error("failed to redeem promo code", zap.Error(err))
			return ErrCreateOrder
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return promo.ErrLimitReached
		}
	}

	// 2. Insert order header
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, amount, delivery_cost, address, delivery_time,
			phone, comments, payment_method, promo_code, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`,
		o.UserID, o.Amount, o.DeliveryCost, o.Address, o.DeliveryTime,
		o.Phone, o.Comments, o.Payment, o.PromoCode, StatusNew,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return ErrCreateOrder
	}
	o.Status = StatusNew

	// 3. Insert frozen lines
	for _, it := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity)
			VALUES ($1,$2,$3,$4,$5)
		`, o.ID, it.ProductID, it.Name, it.Price, it.Quantity)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int64("product_id", it.ProductID),
				zap.Error(err),
			)
			return ErrCreateOrder
		}
	}

	// 4. Bump the buyer's lifetime counters
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET orders_count = orders_count + 1,
		    total_spent = total_spent + $1
		WHERE id = $2
	`, o.Amount, o.UserID)
	if err != nil {
		log.Error("failed to update user stats", zap.Error(err))
		return ErrCreateOrder
	}

	// 5. Clear the cart
	_, err = tx.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, o.UserID)
	if err != nil {
		log.Error("failed to clear cart", zap.Error(err))
		return ErrCreateOrder
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return ErrCreateOrder
	}

	log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Float64("amount", o.Amount),
	)
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit int) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount, delivery_cost, address, delivery_time,
		       phone, comments, payment_method, promo_code, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *repository) Get(ctx context.Context, orderID int64) (*Detail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Get"),
	)

	var d Detail
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, delivery_cost, address, delivery_time,
		       phone, comments, payment_method, promo_code, status, created_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&d.ID, &d.UserID, &d.Amount, &d.DeliveryCost, &d.Address, &d.DeliveryTime,
		&d.Phone, &d.Comments, &d.Payment, &d.PromoCode, &d.Status, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to query order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, orderID)
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			log.Error("failed to scan order item", zap.Error(err))
			return nil, err
		}
		d.Items = append(d.Items, it)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return &d, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
	)

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2
	`, status, orderID)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	log.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", status),
	)
	return nil
}

// ListActive returns every order still in flight, oldest first, for the
// operator board.
func (r *repository) ListActive(ctx context.Context) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListActive"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount, delivery_cost, address, delivery_time,
		       phone, comments, payment_method, promo_code, status, created_at
		FROM orders
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at ASC
	`, StatusCompleted, StatusCancelled)
	if err != nil {
		log.Error("failed to query active orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]Order, error) {
	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Amount, &o.DeliveryCost, &o.Address, &o.DeliveryTime,
			&o.Phone, &o.Comments, &o.Payment, &o.PromoCode, &o.Status, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
