package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Promo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Promo), args.Error(1)
}

func (m *MockRepository) ListActive(ctx context.Context) ([]Promo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Promo), args.Error(1)
}

func activePromo() *Promo {
	return &Promo{
		Code:            "WELCOME10",
		DiscountPercent: 10,
		MinOrderAmount:  500,
		UsageLimit:      100,
		UsedCount:       3,
		Active:          true,
	}
}

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		mockRepo.On("GetByCode", ctx, "WELCOME10").Return(activePromo(), nil).Once()

		p, err := v.Validate(ctx, "WELCOME10", 1020, now)

		assert.NoError(t, err)
		assert.Equal(t, 10, p.DiscountPercent)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Input is trimmed and uppercased", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		mockRepo.On("GetByCode", ctx, "WELCOME10").Return(activePromo(), nil).Once()

		_, err := v.Validate(ctx, "  welcome10 ", 1020, now)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		mockRepo.On("GetByCode", ctx, "NOPE").Return(nil, ErrNotFound).Once()

		_, err := v.Validate(ctx, "NOPE", 1020, now)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Error - Expired", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		expired := activePromo()
		past := now.Add(-time.Hour)
		expired.ExpiresAt = &past
		mockRepo.On("GetByCode", ctx, "WELCOME10").Return(expired, nil).Once()

		_, err := v.Validate(ctx, "WELCOME10", 1020, now)

		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("Error - Limit Reached", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		// usage_limit=1, used_count=1: rejected regardless of cart contents.
		used := &Promo{Code: "FIRSTORDER", DiscountPercent: 15, UsageLimit: 1, UsedCount: 1, Active: true}
		mockRepo.On("GetByCode", ctx, "FIRSTORDER").Return(used, nil).Once()

		_, err := v.Validate(ctx, "FIRSTORDER", 99999, now)

		assert.ErrorIs(t, err, ErrLimitReached)
	})

	t.Run("Zero usage limit means unlimited", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		unlimited := activePromo()
		unlimited.UsageLimit = 0
		unlimited.UsedCount = 100000
		mockRepo.On("GetByCode", ctx, "WELCOME10").Return(unlimited, nil).Once()

		_, err := v.Validate(ctx, "WELCOME10", 1020, now)

		assert.NoError(t, err)
	})

	t.Run("Error - Below Minimum", func(t *testing.T) {
		mockRepo := new(MockRepository)
		v := NewValidator(mockRepo)

		mockRepo.On("GetByCode", ctx, "WELCOME10").Return(activePromo(), nil).Once()

		_, err := v.Validate(ctx, "WELCOME10", 400, now)

		var belowMin *BelowMinimumError
		require.ErrorAs(t, err, &belowMin)
		assert.Equal(t, 500.0, belowMin.Required)
		assert.Equal(t, 400.0, belowMin.Actual)
	})
}
