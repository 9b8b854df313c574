package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
)

// failingStore persists nothing and reports a write failure after the in-memory update
type failingStore struct {
	*MockFoodStore
}

func (s *failingStore) Add(ctx context.Context, name string, calories, protein *float64) (domain.FoodRecord, error) {
	rec, err := s.MockFoodStore.Add(ctx, name, calories, protein)
	if err != nil {
		return rec, err
	}
	return rec, fmt.Errorf("%w: read-only file system", domain.ErrPersistence)
}

func TestFoodService_AddFood(t *testing.T) {
	ctx := context.Background()

	t.Run("adds and reads back", func(t *testing.T) {
		svc := NewFoodService(NewMockFoodStore(nil), zap.NewNop())

		rec, err := svc.AddFood(ctx, "Avocado", domain.Float(160), domain.Float(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Name != "avocado" {
			t.Errorf("Name = %q, want avocado", rec.Name)
		}

		got, err := svc.GetFood(ctx, "AVOCADO")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *got.Calories != 160 {
			t.Errorf("Calories = %v, want 160", *got.Calories)
		}
	})

	t.Run("validation error is returned", func(t *testing.T) {
		svc := NewFoodService(NewMockFoodStore(nil), zap.NewNop())

		_, err := svc.AddFood(ctx, " ", domain.Float(1), nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("persistence failure keeps the record", func(t *testing.T) {
		store := &failingStore{NewMockFoodStore(nil)}
		svc := NewFoodService(store, zap.NewNop())

		rec, err := svc.AddFood(ctx, "tempeh", domain.Float(192), domain.Float(20))
		if !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("error = %v, want ErrPersistence", err)
		}
		if rec.Name != "tempeh" {
			t.Errorf("Name = %q, want tempeh", rec.Name)
		}
		if _, err := svc.GetFood(ctx, "tempeh"); err != nil {
			t.Errorf("GetFood after failed write: %v", err)
		}
	})
}

func TestFoodService_GetFood(t *testing.T) {
	ctx := context.Background()
	svc := NewFoodService(NewMockFoodStore(nil), zap.NewNop())

	if _, err := svc.GetFood(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("GetFood(\"\") error = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.GetFood(ctx, "durian"); !errors.Is(err, domain.ErrFoodNotFound) {
		t.Errorf("GetFood(durian) error = %v, want ErrFoodNotFound", err)
	}
	if _, err := svc.GetFood(ctx, "Chicken"); err != nil {
		t.Errorf("GetFood(Chicken) error = %v", err)
	}
}

func TestFoodService_ListFoods(t *testing.T) {
	svc := NewFoodService(NewMockFoodStore(nil), zap.NewNop())

	if got := len(svc.ListFoods(context.Background())); got != 2 {
		t.Errorf("ListFoods() returned %d foods, want 2", got)
	}
}
