package cart

import (
	"context"

	"foodline-bot/internal/catalog"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, userID, productID int64, qty int) error
	Increment(ctx context.Context, userID, productID int64) error
	Decrement(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	GetCart(ctx context.Context, userID int64) ([]Entry, error)
	ClearCart(ctx context.Context, userID int64) error
}

type service struct {
	repo        Repository
	catalogRepo catalog.Repository
}

func NewService(repo Repository, catalogRepo catalog.Repository) Service {
	return &service{repo: repo, catalogRepo: catalogRepo}
}

func (s *service) AddToCart(ctx context.Context, userID, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	// Only available products can be added.
	product, err := s.catalogRepo.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Available {
		return ErrProductUnavailable
	}

	return s.repo.Add(ctx, userID, productID, qty)
}

func (s *service) Increment(ctx context.Context, userID, productID int64) error {
	return s.AddToCart(ctx, userID, productID, 1)
}

// Decrement lowers the quantity by one; reaching zero deletes the entry.
func (s *service) Decrement(ctx context.Context, userID, productID int64) error {
	entry, err := s.repo.GetEntry(ctx, userID, productID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}

	return s.repo.SetQuantity(ctx, userID, productID, entry.Quantity-1)
}

func (s *service) Remove(ctx context.Context, userID, productID int64) error {
	return s.repo.SetQuantity(ctx, userID, productID, 0)
}

func (s *service) GetCart(ctx context.Context, userID int64) ([]Entry, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID int64) error {
	return s.repo.Clear(ctx, userID)
}
