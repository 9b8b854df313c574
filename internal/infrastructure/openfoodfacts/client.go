package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/metrics"
)

const (
	DefaultBaseURL           = "https://world.openfoodfacts.org"
	DefaultTimeout           = 10 * time.Second
	DefaultPageSize          = 3
	DefaultUserAgent         = "NutriHelper/1.0"
	DefaultRequestsPerMinute = 10

	searchPath   = "/cgi/search.pl"
	maxBodyBytes = 4 << 20
)

// ClientConfig holds the OpenFoodFacts client settings
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	PageSize          int
	UserAgent         string
	RequestsPerMinute int
}

// Client handles communication with the OpenFoodFacts search API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	pageSize    int
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new OpenFoodFacts API client. Zero config values fall back to defaults.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	// OpenFoodFacts asks search clients to stay under 10 requests per minute
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		pageSize:    cfg.PageSize,
		timeout:     cfg.Timeout,
		rateLimiter: limiter,
		logger:      logger.Named("openfoodfacts"),
	}
}

// ErrRateLimited is returned when the outbound limiter refused the call before
// any request was sent.
var ErrRateLimited = errors.New("openfoodfacts: rate limited")

// SearchProducts runs a simple full-text product search. Every failure wraps
// domain.ErrProviderUnavailable; there are no retries. A call the limiter
// refuses also wraps ErrRateLimited.
func (c *Client) SearchProducts(ctx context.Context, query string) (*SearchResponse, error) {
	// the request timeout starts once the limiter lets the call through
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrProviderUnavailable, ErrRateLimited, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ProviderDuration.WithLabelValues("openfoodfacts").Observe(time.Since(start).Seconds())
	}()

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(c.pageSize))

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, searchPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("searching products", zap.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderUnavailable, err)
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("products", len(searchResp.Products)))

	return &searchResp, nil
}
