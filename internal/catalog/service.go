package catalog

import (
	"context"
	"strings"
)

// Service is the read-only catalog surface the bot renders from.
type Service interface {
	Categories(ctx context.Context) ([]string, error)
	ProductsByCategory(ctx context.Context, category string) ([]*Product, error)
	PopularProducts(ctx context.Context, limit int) ([]*Product, error)
	Product(ctx context.Context, id int64) (*Product, error)
	SearchProducts(ctx context.Context, query string) ([]*Product, error)
}

const defaultSearchLimit = 10

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *service) ProductsByCategory(ctx context.Context, category string) ([]*Product, error) {
	return s.repo.ByCategory(ctx, category)
}

func (s *service) PopularProducts(ctx context.Context, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 6
	}
	return s.repo.Popular(ctx, limit)
}

func (s *service) Product(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.repo.Search(ctx, query, defaultSearchLimit)
}
