package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
)

// FoodService manages the local food list for callers
type FoodService struct {
	store  domain.FoodStore
	logger *zap.Logger
}

// NewFoodService creates a new food service
func NewFoodService(store domain.FoodStore, logger *zap.Logger) *FoodService {
	return &FoodService{
		store:  store,
		logger: logger.Named("foods"),
	}
}

// AddFood stores a custom food. On ErrPersistence the returned record is still
// usable: the food is known in memory but was not written to disk.
func (s *FoodService) AddFood(ctx context.Context, name string, calories, protein *float64) (domain.FoodRecord, error) {
	rec, err := s.store.Add(ctx, name, calories, protein)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.logger.Warn("custom food kept in memory only", zap.String("food", rec.Name), zap.Error(err))
		}
		return rec, err
	}
	return rec, nil
}

// GetFood returns a food from the local list by name
func (s *FoodService) GetFood(ctx context.Context, name string) (domain.FoodRecord, error) {
	if domain.NormalizeName(name) == "" {
		return domain.FoodRecord{}, domain.ErrInvalidRequest
	}
	return s.store.Get(ctx, name)
}

// ListFoods returns the built-in and custom foods sorted by name
func (s *FoodService) ListFoods(ctx context.Context) []domain.FoodRecord {
	return s.store.List(ctx)
}
