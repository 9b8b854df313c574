package openfoodfacts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/metrics"
)

// ProductSearcher is the outbound search call the provider memoizes
type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string) (*SearchResponse, error)
}

// Provider is the best-effort remote lookup: it never returns an error, only
// facts or nil. Results, including nil ones, are memoized per exact query string,
// except when the caller gave up or the outbound limiter refused the call.
type Provider struct {
	searcher ProductSearcher
	cache    domain.CacheRepository[*domain.NutritionFacts]
	logger   *zap.Logger
}

// NewProvider creates a memoizing remote provider
func NewProvider(searcher ProductSearcher, cache domain.CacheRepository[*domain.NutritionFacts], logger *zap.Logger) *Provider {
	return &Provider{
		searcher: searcher,
		cache:    cache,
		logger:   logger.Named("openfoodfacts"),
	}
}

// Search returns per-100g facts for food, or nil when nothing usable was found.
// The cache key is the raw input: "Apple" and "apple " are distinct entries.
func (p *Provider) Search(ctx context.Context, food string) *domain.NutritionFacts {
	if cached, err := p.cache.Get(ctx, food); err == nil {
		metrics.RemoteCacheLookups.WithLabelValues("hit").Inc()
		return cloneFacts(cached)
	}
	metrics.RemoteCacheLookups.WithLabelValues("miss").Inc()

	facts, err := p.search(ctx, food)

	// only answers the remote database actually gave are memoized
	if ctx.Err() != nil || errors.Is(err, ErrRateLimited) {
		return cloneFacts(facts)
	}
	if err := p.cache.Set(ctx, food, facts); err != nil {
		p.logger.Warn("failed to cache search result", zap.String("query", food), zap.Error(err))
	}
	return cloneFacts(facts)
}

func (p *Provider) search(ctx context.Context, food string) (*domain.NutritionFacts, error) {
	resp, err := p.searcher.SearchProducts(ctx, food)
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, ErrRateLimited) {
			reason = "rate_limited"
		}
		metrics.ProviderFailures.WithLabelValues("openfoodfacts", reason).Inc()
		p.logger.Warn("search failed, treating as no result", zap.String("query", food), zap.Error(err))
		return nil, err
	}

	facts := MapToNutritionFacts(resp.Products, food)
	if facts == nil {
		p.logger.Debug("no product with nutriments", zap.String("query", food), zap.Int("products", len(resp.Products)))
	}
	return facts, nil
}

func cloneFacts(f *domain.NutritionFacts) *domain.NutritionFacts {
	if f == nil {
		return nil
	}
	out := *f
	if f.Calories != nil {
		out.Calories = domain.Float(*f.Calories)
	}
	if f.Protein != nil {
		out.Protein = domain.Float(*f.Protein)
	}
	return &out
}
