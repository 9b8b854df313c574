package localstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/metrics"
)

// Store is the local food store: built-in foods overlaid with user-added
// foods that are persisted to a JSON file.
type Store struct {
	mu     sync.RWMutex
	path   string
	foods  map[string]domain.FoodRecord
	logger *zap.Logger
}

// Load seeds the store with the built-in table and merges the custom-foods
// file at path. A missing or invalid file is logged and ignored.
func Load(path string, logger *zap.Logger) *Store {
	s := &Store{
		path:   path,
		foods:  seed(),
		logger: logger.Named("localstore"),
	}

	entries, err := readCustomFoods(path)
	switch {
	case err == nil:
		for name, e := range entries {
			key := domain.NormalizeName(name)
			s.foods[key] = domain.FoodRecord{Name: key, Calories: e.Calories, Protein: e.Protein}
		}
		s.logger.Info("custom foods loaded", zap.String("path", path), zap.Int("count", len(entries)))
	case isNotExist(err):
		s.logger.Debug("no custom foods file", zap.String("path", path))
	default:
		s.logger.Warn("ignoring custom foods file", zap.String("path", path), zap.Error(err))
	}

	return s
}

// Get returns the record stored under the normalized name. Matching is exact.
func (s *Store) Get(ctx context.Context, name string) (domain.FoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.foods[domain.NormalizeName(name)]
	if !ok {
		return domain.FoodRecord{}, domain.ErrFoodNotFound
	}
	return rec, nil
}

// Add upserts a food in memory and rewrites the custom-foods file with it.
// When the write fails the in-memory entry is kept and ErrPersistence is returned.
func (s *Store) Add(ctx context.Context, name string, calories, protein *float64) (domain.FoodRecord, error) {
	key := domain.NormalizeName(name)
	if key == "" {
		return domain.FoodRecord{}, fmt.Errorf("%w: food name is required", domain.ErrInvalidRequest)
	}
	if err := validateValue("calories", calories); err != nil {
		return domain.FoodRecord{}, err
	}
	if err := validateValue("protein", protein); err != nil {
		return domain.FoodRecord{}, err
	}

	rec := domain.FoodRecord{Name: key, Calories: copyFloat(calories), Protein: copyFloat(protein)}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.foods[key] = rec

	entries, err := readCustomFoods(s.path)
	if err != nil {
		if !isNotExist(err) {
			s.logger.Warn("custom foods file unreadable, rewriting from scratch", zap.String("path", s.path), zap.Error(err))
		}
		entries = make(map[string]fileEntry)
	}
	entries[key] = fileEntry{Calories: rec.Calories, Protein: rec.Protein}

	if err := writeCustomFoods(s.path, entries); err != nil {
		metrics.CustomFoodsWritten.WithLabelValues("error").Inc()
		s.logger.Error("failed to persist custom food", zap.String("food", key), zap.String("path", s.path), zap.Error(err))
		return rec, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	metrics.CustomFoodsWritten.WithLabelValues("ok").Inc()
	s.logger.Info("custom food saved", zap.String("food", key))
	return rec, nil
}

// List returns every known food sorted by name
func (s *Store) List(ctx context.Context) []domain.FoodRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.FoodRecord, 0, len(s.foods))
	for _, rec := range s.foods {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func validateValue(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidRequest, field)
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return domain.Float(*v)
}
