package catalog

import (
	"context"
	"database/sql"
	"errors"

	"foodline-bot/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Categories(ctx context.Context) ([]string, error)
	ByCategory(ctx context.Context, category string) ([]*Product, error)
	Popular(ctx context.Context, limit int) ([]*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, query string, limit int) ([]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM products
		WHERE is_available = TRUE
		ORDER BY category
	`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *repository) ByCategory(ctx context.Context, category string) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, is_available, is_popular
		FROM products
		WHERE category = $1 AND is_available = TRUE
		ORDER BY is_popular DESC, name
	`, category)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query products by category",
			zap.String("category", category),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *repository) Popular(ctx context.Context, limit int) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, is_available, is_popular
		FROM products
		WHERE is_popular = TRUE AND is_available = TRUE
		ORDER BY name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, category, image_url, is_available, is_popular
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Available, &p.Popular)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) Search(ctx context.Context, query string, limit int) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, is_available, is_popular
		FROM products
		WHERE (name ILIKE $1 OR description ILIKE $1) AND is_available = TRUE
		LIMIT $2
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]*Product, error) {
	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.ImageURL,
			&p.Available,
			&p.Popular,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
