package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

// NutritionResolver resolves food queries through the provider chain
type NutritionResolver interface {
	Lookup(ctx context.Context, food string, pref domain.Preference) (*domain.LookupResult, error)
	HasGenerative() bool
}

// FoodCatalog manages the local food list
type FoodCatalog interface {
	AddFood(ctx context.Context, name string, calories, protein *float64) (domain.FoodRecord, error)
	GetFood(ctx context.Context, name string) (domain.FoodRecord, error)
	ListFoods(ctx context.Context) []domain.FoodRecord
}

// HistoryReader reads back the lookup history
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver    NutritionResolver
	foods       FoodCatalog
	history     HistoryReader
	defaultPref domain.Preference
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver NutritionResolver, foods FoodCatalog, history HistoryReader, defaultPref domain.Preference, logger *zap.Logger) *Handler {
	if defaultPref == "" {
		defaultPref = domain.PreferRemote
	}
	return &Handler{
		resolver:    resolver,
		foods:       foods,
		history:     history,
		defaultPref: defaultPref,
		logger:      logger.Named("http"),
	}
}

// LookupRequest is the body of POST /api/v1/nutrition/lookup
type LookupRequest struct {
	Food     string `json:"food"`
	Provider string `json:"provider"`
}

// LookupResponse is a LookupResult flattened for JSON clients
type LookupResponse struct {
	Kind     domain.ResultKind `json:"kind"`
	Query    string            `json:"query"`
	Calories *float64          `json:"calories,omitempty"`
	Protein  *float64          `json:"protein,omitempty"`
	Note     string            `json:"note,omitempty"`
	Content  string            `json:"content,omitempty"`
	Source   string            `json:"source,omitempty"`
	Message  string            `json:"message,omitempty"`
	Notices  []string          `json:"notices,omitempty"`
	Display  string            `json:"display"`
}

// AddFoodRequest is the body of POST /api/v1/foods
type AddFoodRequest struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
}

// FoodResponse is one local food
type FoodResponse struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
}

// FoodListResponse is the body of GET /api/v1/foods
type FoodListResponse struct {
	Foods []FoodResponse `json:"foods"`
	Count int            `json:"count"`
}

// HistoryEntryResponse is one history line
type HistoryEntryResponse struct {
	Timestamp string `json:"timestamp"`
	Food      string `json:"food"`
	Source    string `json:"source,omitempty"`
}

// HistoryResponse is the body of GET /api/v1/history
type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Count   int                    `json:"count"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Food    *FoodResponse `json:"food,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "nutrihelper-backend",
		"version":    "1.0.0",
		"generative": h.resolver != nil && h.resolver.HasGenerative(),
	})
}

// Lookup handles nutrition lookup requests
func (h *Handler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON with a food field",
		})
		return
	}

	pref := h.defaultPref
	if req.Provider != "" {
		p, err := domain.ParsePreference(req.Provider)
		if err != nil {
			h.handleError(c, err)
			return
		}
		pref = p
	}

	result, err := h.resolver.Lookup(c.Request.Context(), req.Food, pref)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLookupResponse(result))
}

// AddFood handles custom food creation
func (h *Handler) AddFood(c *gin.Context) {
	var req AddFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON with name, calories and protein",
		})
		return
	}

	rec, err := h.foods.AddFood(c.Request.Context(), req.Name, req.Calories, req.Protein)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			food := toFoodResponse(rec)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "persistence_failed",
				Message: "Food is available until restart but could not be saved to disk",
				Food:    &food,
			})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFoodResponse(rec))
}

// GetFood returns one local food by name
func (h *Handler) GetFood(c *gin.Context) {
	rec, err := h.foods.GetFood(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFoodResponse(rec))
}

// ListFoods returns all local foods
func (h *Handler) ListFoods(c *gin.Context) {
	records := h.foods.ListFoods(c.Request.Context())
	foods := make([]FoodResponse, len(records))
	for i, rec := range records {
		foods[i] = toFoodResponse(rec)
	}
	c.JSON(http.StatusOK, FoodListResponse{Foods: foods, Count: len(foods)})
}

// History returns the most recent lookups
func (h *Handler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "limit must be an integer between 1 and 1000",
			})
			return
		}
		limit = n
	}

	entries, err := h.history.History(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Food:      e.Food,
			Source:    e.Source,
		}
	}
	c.JSON(http.StatusOK, HistoryResponse{Entries: out, Count: len(out)})
}

// handleError maps domain errors to HTTP responses
func (h *Handler) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrFoodNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Food is not in the local food list",
		})
	case errors.Is(err, domain.ErrGenerativeFailure):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "generative_failure",
			Message: err.Error(),
		})
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}

func toLookupResponse(r *domain.LookupResult) LookupResponse {
	resp := LookupResponse{
		Kind:    r.Kind,
		Query:   r.Query,
		Content: r.Content,
		Source:  r.Source,
		Message: r.Message,
		Notices: r.Notices,
		Display: r.Display(),
	}
	if r.Facts != nil {
		resp.Calories = r.Facts.Calories
		resp.Protein = r.Facts.Protein
		resp.Note = r.Facts.Note
	}
	return resp
}

func toFoodResponse(rec domain.FoodRecord) FoodResponse {
	return FoodResponse{Name: rec.Name, Calories: rec.Calories, Protein: rec.Protein}
}
