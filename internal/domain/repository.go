package domain

import "context"

// CacheRepository defines the interface for memoizing provider results
type CacheRepository[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FoodStore defines the interface for the local food store
type FoodStore interface {
	Get(ctx context.Context, name string) (FoodRecord, error)
	Add(ctx context.Context, name string, calories, protein *float64) (FoodRecord, error)
	List(ctx context.Context) []FoodRecord
}

// RemoteProvider looks up structured nutrition facts in a public food database.
// A nil result means the provider had no usable data or was unavailable.
type RemoteProvider interface {
	Search(ctx context.Context, food string) *NutritionFacts
}

// GenerativeProvider asks a hosted language model about a food and returns its raw answer
type GenerativeProvider interface {
	Ask(ctx context.Context, food string) (string, error)
}

// LookupJournal records lookup history and generative provider failures
type LookupJournal interface {
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	AppendError(ctx context.Context, entry ErrorLogEntry) error
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
}
