package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/metrics"
)

// Messages shown to callers
const (
	QuotaFallbackNotice = "OpenAI quota exceeded, falling back to the food databases."
	ErrorFallbackNotice = "OpenAI request failed, falling back to the food databases."

	notFoundAfterRemote = "No data available from OpenFoodFacts or the local food list. Try a different item, add it as a custom food, or configure OpenAI for broader coverage."
	notFoundLocal       = "No data in the local food list for that food. Add it as a custom food or configure OpenAI for broader coverage."
)

var quotaPatterns = []string{"insufficient_quota", "quota", "429"}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	// FallbackOnAnyGenerativeError makes every generative failure fall back to
	// the food databases instead of only quota failures.
	FallbackOnAnyGenerativeError bool
	// Now is the journal clock; defaults to time.Now
	Now func() time.Time
}

// Resolver answers nutrition lookups by trying the generative provider, the
// remote food database and the local food store in order.
type Resolver struct {
	generative domain.GenerativeProvider
	remote     domain.RemoteProvider
	store      domain.FoodStore
	journal    domain.LookupJournal

	fallbackOnAnyError bool
	now                func() time.Time
	logger             *zap.Logger
}

// NewResolver creates a resolver. generative is nil when no model credential is configured.
func NewResolver(
	generative domain.GenerativeProvider,
	remote domain.RemoteProvider,
	store domain.FoodStore,
	journal domain.LookupJournal,
	config ResolverConfig,
	logger *zap.Logger,
) *Resolver {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Resolver{
		generative:         generative,
		remote:             remote,
		store:              store,
		journal:            journal,
		fallbackOnAnyError: config.FallbackOnAnyGenerativeError,
		now:                now,
		logger:             logger.Named("resolver"),
	}
}

// HasGenerative reports whether lookups go to the generative provider first
func (r *Resolver) HasGenerative() bool {
	return r.generative != nil
}

// Lookup resolves one food query.
// Flow: generative (when configured) -> remote food database -> local store.
// The preference only applies when no generative provider is configured.
// A generative failure that does not fall back is returned wrapped in ErrGenerativeFailure.
func (r *Resolver) Lookup(ctx context.Context, food string, pref domain.Preference) (*domain.LookupResult, error) {
	// providers and history see the input as typed; the store normalizes on its own
	if strings.TrimSpace(food) == "" {
		return nil, fmt.Errorf("%w: food is required", domain.ErrInvalidRequest)
	}

	if r.generative != nil {
		return r.lookupGenerative(ctx, food)
	}

	if pref == domain.PreferRemote {
		return r.lookupRemote(ctx, food, nil), nil
	}
	return r.lookupLocal(ctx, food, domain.SourceLocal, notFoundLocal, nil), nil
}

func (r *Resolver) lookupGenerative(ctx context.Context, food string) (*domain.LookupResult, error) {
	answer, err := r.generative.Ask(ctx, food)
	if err == nil {
		r.recordHistory(ctx, food, domain.SourceGenerative)
		return r.finish(&domain.LookupResult{
			Kind:    domain.KindFreeText,
			Query:   food,
			Content: answer,
			Source:  domain.SourceGenerative,
		}), nil
	}

	msg := err.Error()
	r.recordError(ctx, msg)

	if IsQuotaError(err) {
		metrics.ProviderFailures.WithLabelValues("openai", "quota").Inc()
		r.logger.Warn("generative quota exhausted, falling back", zap.String("food", food), zap.Error(err))
		return r.lookupRemote(ctx, food, []string{QuotaFallbackNotice}), nil
	}

	metrics.ProviderFailures.WithLabelValues("openai", "error").Inc()
	if r.fallbackOnAnyError {
		r.logger.Warn("generative request failed, falling back", zap.String("food", food), zap.Error(err))
		return r.lookupRemote(ctx, food, []string{ErrorFallbackNotice}), nil
	}

	r.logger.Error("generative request failed", zap.String("food", food), zap.Error(err))
	metrics.LookupsTotal.WithLabelValues("error", "openai").Inc()
	return nil, fmt.Errorf("%w: %s", domain.ErrGenerativeFailure, msg)
}

func (r *Resolver) lookupRemote(ctx context.Context, food string, notices []string) *domain.LookupResult {
	if facts := r.remote.Search(ctx, food); facts != nil {
		r.recordHistory(ctx, food, domain.SourceRemote)
		return r.finish(&domain.LookupResult{
			Kind:    domain.KindStructured,
			Query:   food,
			Facts:   facts,
			Source:  domain.SourceRemote,
			Notices: notices,
		})
	}
	return r.lookupLocal(ctx, food, domain.SourceLocalFallback, notFoundAfterRemote, notices)
}

func (r *Resolver) lookupLocal(ctx context.Context, food, source, notFoundMsg string, notices []string) *domain.LookupResult {
	rec, err := r.store.Get(ctx, food)
	if err != nil {
		if !errors.Is(err, domain.ErrFoodNotFound) {
			r.logger.Warn("local store lookup failed", zap.String("food", food), zap.Error(err))
		}
		return r.finish(&domain.LookupResult{
			Kind:    domain.KindNotFound,
			Query:   food,
			Message: notFoundMsg,
			Notices: notices,
		})
	}

	r.recordHistory(ctx, food, source)
	return r.finish(&domain.LookupResult{
		Kind:    domain.KindStructured,
		Query:   food,
		Facts:   rec.Facts(),
		Source:  source,
		Notices: notices,
	})
}

func (r *Resolver) finish(result *domain.LookupResult) *domain.LookupResult {
	source := result.Source
	if result.Kind == domain.KindFreeText {
		source = "openai"
	}
	metrics.LookupsTotal.WithLabelValues(string(result.Kind), source).Inc()
	return result
}

// Journal failures never change the lookup outcome.
func (r *Resolver) recordHistory(ctx context.Context, food, source string) {
	entry := domain.HistoryEntry{Timestamp: r.now(), Food: food, Source: source}
	if err := r.journal.AppendHistory(ctx, entry); err != nil {
		r.logger.Warn("failed to append history", zap.String("food", food), zap.Error(err))
	}
}

func (r *Resolver) recordError(ctx context.Context, msg string) {
	entry := domain.ErrorLogEntry{Timestamp: r.now(), Message: msg}
	if err := r.journal.AppendError(ctx, entry); err != nil {
		r.logger.Warn("failed to append error log", zap.Error(err))
	}
}

// IsQuotaError reports whether a generative failure looks like a quota or rate limit error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrQuotaExhausted) {
		return true
	}
	msg := err.Error()
	for _, p := range quotaPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
