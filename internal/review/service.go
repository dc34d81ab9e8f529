package review

import "context"

const defaultListLimit = 10

type Service interface {
	AddReview(ctx context.Context, userID int64, rating int, comment string) (*Review, error)
	ListReviews(ctx context.Context) ([]Review, error)
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddReview stores a rating with an optional comment. Anything outside
// 1..5 never reaches the database.
func (s *service) AddReview(ctx context.Context, userID int64, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var c *string
	if comment != "" {
		c = &comment
	}
	return s.repo.Add(ctx, userID, rating, c)
}

func (s *service) ListReviews(ctx context.Context) ([]Review, error) {
	return s.repo.List(ctx, defaultListLimit)
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}
