package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrihelper/backend/config"
	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/infrastructure/journal"
	"github.com/nutrihelper/backend/internal/infrastructure/localstore"
	"github.com/nutrihelper/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubRemote returns fixed facts for known queries
type stubRemote struct {
	facts map[string]*domain.NutritionFacts
}

func (s *stubRemote) Search(ctx context.Context, food string) *domain.NutritionFacts {
	return s.facts[food]
}

// stubGenerative answers or fails every question the same way
type stubGenerative struct {
	answer string
	err    error
}

func (s *stubGenerative) Ask(ctx context.Context, food string) (string, error) {
	return s.answer, s.err
}

type testServer struct {
	router      *gin.Engine
	historyPath string
	errorPath   string
	foodsPath   string
}

// newTestServer wires the real store, journal and use cases behind the router
func newTestServer(t *testing.T, generative domain.GenerativeProvider) *testServer {
	t.Helper()
	dir := t.TempDir()
	ts := &testServer{
		historyPath: filepath.Join(dir, "food_history.txt"),
		errorPath:   filepath.Join(dir, "openai_errors.log"),
		foodsPath:   filepath.Join(dir, "custom_foods.json"),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		RateLimit: config.RateLimitConfig{PerIP: 1000},
	}

	log := zap.NewNop()
	store := localstore.Load(ts.foodsPath, log)
	j := journal.NewFileJournal(ts.historyPath, ts.errorPath, log)
	remote := &stubRemote{facts: map[string]*domain.NutritionFacts{
		"greek yogurt": {Calories: domain.Float(97), Protein: domain.Float(9), Note: "Greek Yogurt - per 100g"},
	}}

	resolver := usecase.NewResolver(generative, remote, store, j, usecase.ResolverConfig{}, log)
	foods := usecase.NewFoodService(store, log)

	handler := NewHandler(resolver, foods, j, domain.PreferRemote, log)
	ts.router = SetupRouter(cfg, handler, log)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		body := decode[map[string]interface{}](t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "nutrihelper-backend", body["service"])
		assert.Equal(t, false, body["generative"])
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("reports a configured generative provider", func(t *testing.T) {
		ts := newTestServer(t, &stubGenerative{answer: "ok"})

		body := decode[map[string]interface{}](t, ts.do("GET", "/health", ""))
		assert.Equal(t, true, body["generative"])
	})
}

func TestLookupEndpoint(t *testing.T) {
	t.Run("local preference returns seeded values", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"Chicken","provider":"local"}`)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[LookupResponse](t, w)
		assert.Equal(t, domain.KindStructured, resp.Kind)
		assert.Equal(t, "local", resp.Source)
		assert.Equal(t, "Chicken: 165 kcal, 31.0 g protein", resp.Display)
		require.NotNil(t, resp.Calories)
		assert.Equal(t, 165.0, *resp.Calories)

		data, err := os.ReadFile(ts.historyPath)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(string(data)), " - Chicken (local)"), string(data))
	})

	t.Run("default provider is the remote database", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := decode[LookupResponse](t, ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"greek yogurt"}`))
		assert.Equal(t, "remote", resp.Source)
		assert.Equal(t, "Greek Yogurt - per 100g", resp.Note)
	})

	t.Run("remote miss falls back to local", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := decode[LookupResponse](t, ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"rice","provider":"openfoodfacts"}`))
		assert.Equal(t, "local-fallback", resp.Source)
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"unobtainium"}`)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[LookupResponse](t, w)
		assert.Equal(t, domain.KindNotFound, resp.Kind)
		assert.NotEmpty(t, resp.Message)
		assert.Equal(t, resp.Message, resp.Display)

		_, err := os.Stat(ts.historyPath)
		assert.True(t, os.IsNotExist(err), "not found must not write history")
	})

	t.Run("generative answer", func(t *testing.T) {
		ts := newTestServer(t, &stubGenerative{answer: "About 155 kcal and 13 g protein."})

		resp := decode[LookupResponse](t, ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"2 eggs"}`))
		assert.Equal(t, domain.KindFreeText, resp.Kind)
		assert.Equal(t, "About 155 kcal and 13 g protein.", resp.Content)
		assert.Empty(t, resp.Source)
	})

	t.Run("quota error falls back with a notice", func(t *testing.T) {
		ts := newTestServer(t, &stubGenerative{err: errors.New("error, status code: 429, message: insufficient_quota")})

		w := ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"banana"}`)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[LookupResponse](t, w)
		assert.Equal(t, "local-fallback", resp.Source)
		assert.Equal(t, []string{usecase.QuotaFallbackNotice}, resp.Notices)

		data, err := os.ReadFile(ts.errorPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "OpenAI error: error, status code: 429")
	})

	t.Run("other generative errors are 502", func(t *testing.T) {
		ts := newTestServer(t, &stubGenerative{err: errors.New("Incorrect API key provided")})

		w := ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"banana"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)

		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "generative_failure", resp.Error)
		assert.Contains(t, resp.Message, "Incorrect API key provided")
	})

	t.Run("validation errors are 400", func(t *testing.T) {
		ts := newTestServer(t, nil)

		for _, body := range []string{`{"food":"   "}`, `{}`, `not json`, `{"food":"apple","provider":"bing"}`} {
			w := ts.do("POST", "/api/v1/nutrition/lookup", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, "invalid_request", decode[ErrorResponse](t, w).Error)
		}
	})
}

func TestFoodsEndpoints(t *testing.T) {
	t.Run("add then get and lookup", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("POST", "/api/v1/foods", `{"name":"Avocado","calories":160,"protein":2}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "avocado", decode[FoodResponse](t, w).Name)

		w = ts.do("GET", "/api/v1/foods/AVOCADO", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 160.0, *decode[FoodResponse](t, w).Calories)

		resp := decode[LookupResponse](t, ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"avocado","provider":"local"}`))
		assert.Equal(t, "Avocado: 160 kcal, 2.0 g protein", resp.Display)

		_, err := os.Stat(ts.foodsPath)
		assert.NoError(t, err)
	})

	t.Run("list includes builtins", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := decode[FoodListResponse](t, ts.do("GET", "/api/v1/foods", ""))
		assert.Equal(t, 12, resp.Count)
		assert.Equal(t, "apple", resp.Foods[0].Name)
	})

	t.Run("missing food is 404", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("GET", "/api/v1/foods/durian", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid food is 400", func(t *testing.T) {
		ts := newTestServer(t, nil)

		for _, body := range []string{`{"name":"","calories":1}`, `{"name":"x","calories":-1}`, `[]`} {
			w := ts.do("POST", "/api/v1/foods", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, food := range []string{"apple", "rice", "chicken"} {
		w := ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"`+food+`","provider":"local"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("limit returns the most recent", func(t *testing.T) {
		resp := decode[HistoryResponse](t, ts.do("GET", "/api/v1/history?limit=2", ""))
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "rice", resp.Entries[0].Food)
		assert.Equal(t, "chicken", resp.Entries[1].Food)
		assert.Equal(t, "local", resp.Entries[1].Source)
	})

	t.Run("default limit", func(t *testing.T) {
		resp := decode[HistoryResponse](t, ts.do("GET", "/api/v1/history", ""))
		assert.Equal(t, 3, resp.Count)
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, q := range []string{"0", "-1", "abc", "5000"} {
			w := ts.do("GET", "/api/v1/history?limit="+q, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do("POST", "/api/v1/nutrition/lookup", `{"food":"apple","provider":"local"}`)

	w := ts.do("GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nutrition_lookups_total")
}

func TestCORSIntegration(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := ts.do("GET", "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAPIVersioning(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do("POST", "/nutrition/lookup", `{"food":"apple"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
