package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/infrastructure/cache"
)

// countingServer serves a fixed body and counts requests
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestProvider(t *testing.T, baseURL string, size int) *Provider {
	t.Helper()
	memo, err := cache.NewMemoryCache[*domain.NutritionFacts](size)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	return NewProvider(newTestClient(t, baseURL), memo, log)
}

func TestProvider_Search_Memoizes(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK,
		`{"products":[{"product_name":"Greek Yogurt","nutriments":{"energy-kcal_100g":97,"proteins_100g":9}}]}`)
	provider := newTestProvider(t, server.URL, 256)
	ctx := context.Background()

	first := provider.Search(ctx, "greek yogurt")
	second := provider.Search(ctx, "greek yogurt")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second call should be served from cache")
}

func TestProvider_Search_CachesNilResult(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, `{"products":[]}`)
	provider := newTestProvider(t, server.URL, 256)
	ctx := context.Background()

	assert.Nil(t, provider.Search(ctx, "unobtainium"))
	assert.Nil(t, provider.Search(ctx, "unobtainium"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestProvider_Search_FailureIsNilAndCached(t *testing.T) {
	server, calls := countingServer(t, http.StatusInternalServerError, `oops`)
	provider := newTestProvider(t, server.URL, 256)
	ctx := context.Background()

	assert.Nil(t, provider.Search(ctx, "apple"))
	assert.Nil(t, provider.Search(ctx, "apple"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestProvider_Search_KeysOnRawInput(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, `{"products":[]}`)
	provider := newTestProvider(t, server.URL, 256)
	ctx := context.Background()

	provider.Search(ctx, "Apple")
	provider.Search(ctx, "apple")
	provider.Search(ctx, " apple ")
	provider.Search(ctx, "Apple")

	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestProvider_Search_EvictsBeyondCapacity(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, `{"products":[]}`)
	provider := newTestProvider(t, server.URL, 2)
	ctx := context.Background()

	provider.Search(ctx, "a")
	provider.Search(ctx, "b")
	provider.Search(ctx, "c") // evicts "a"
	provider.Search(ctx, "a")

	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
}

func TestProvider_Search_ReturnsCopies(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK,
		`{"products":[{"product_name":"Tofu","nutriments":{"energy-kcal_100g":76,"proteins_100g":8}}]}`)
	provider := newTestProvider(t, server.URL, 256)
	ctx := context.Background()

	first := provider.Search(ctx, "tofu")
	require.NotNil(t, first)
	*first.Calories = 0

	second := provider.Search(ctx, "tofu")
	require.NotNil(t, second)
	assert.Equal(t, 76.0, *second.Calories)
}

func TestProvider_Search_CanceledContextNotCached(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, `{"products":[]}`)
	provider := newTestProvider(t, server.URL, 256)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, provider.Search(ctx, "apple"))

	provider.Search(context.Background(), "apple")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "only the uncanceled call should reach the server")
}

func TestProvider_Search_RateLimitedNotCached(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK,
		`{"products":[{"product_name":"Rice","nutriments":{"energy-kcal_100g":130,"proteins_100g":2.7}}]}`)
	memo, err := cache.NewMemoryCache[*domain.NutritionFacts](256)
	require.NoError(t, err)
	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second, RequestsPerMinute: 1}, zaptest.NewLogger(t))
	provider := NewProvider(client, memo, zaptest.NewLogger(t))

	// the second token is a minute away, past this deadline, so the limiter refuses at once
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queries := []string{"rice", "brown rice"}
	results := make([]*domain.NutritionFacts, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results[i] = provider.Search(ctx, q)
		}(i, q)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	var refused string
	for i, r := range results {
		if r == nil {
			require.Empty(t, refused, "only one query should be refused")
			refused = queries[i]
		}
	}
	require.NotEmpty(t, refused, "one query should be refused by the limiter")

	_, err = memo.Get(context.Background(), refused)
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "a refused query must not be memoized")
}

func TestProvider_Search_CanceledMidFlightReturnsAnswerUncached(t *testing.T) {
	memo, err := cache.NewMemoryCache[*domain.NutritionFacts](8)
	require.NoError(t, err)
	searcher := &cancelingSearcher{}
	provider := NewProvider(searcher, memo, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	searcher.cancel = cancel

	got := provider.Search(ctx, "apple")
	require.NotNil(t, got)
	assert.Equal(t, 52.0, *got.Calories)

	_, err = memo.Get(context.Background(), "apple")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

// cancelingSearcher answers but cancels the caller before returning
type cancelingSearcher struct {
	cancel context.CancelFunc
}

func (s *cancelingSearcher) SearchProducts(ctx context.Context, query string) (*SearchResponse, error) {
	s.cancel()
	return &SearchResponse{Products: []Product{{
		ProductName: "Apple",
		Nutriments:  []byte(`{"energy-kcal_100g":52,"proteins_100g":0.3}`),
	}}}, nil
}
