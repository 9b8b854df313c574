package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nutrihelper/backend/internal/metrics"
)

const (
	DefaultModel   = goopenai.GPT3Dot5Turbo
	DefaultTimeout = 30 * time.Second
)

// ErrEmptyResponse is returned when the model answers without any choice
var ErrEmptyResponse = errors.New("chat completion returned no choices")

// Config holds the hosted model settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// ConsiderQuantities adds an instruction to take stated quantities into account
	ConsiderQuantities bool
}

// Client asks a hosted chat model about a food and returns the answer verbatim
type Client struct {
	api                *goopenai.Client
	model              string
	timeout            time.Duration
	considerQuantities bool
	logger             *zap.Logger
}

// NewClient creates a chat completion client. The caller decides whether a key is configured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:                goopenai.NewClientWithConfig(apiCfg),
		model:              cfg.Model,
		timeout:            cfg.Timeout,
		considerQuantities: cfg.ConsiderQuantities,
		logger:             logger.Named("openai"),
	}
}

// Ask sends a single-turn prompt about food. Errors carry the raw API message.
func (c *Client) Ask(ctx context.Context, food string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: BuildPrompt(food, c.considerQuantities),
			},
		},
	})
	metrics.ProviderDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("chat completion received",
		zap.String("model", c.model),
		zap.Int("totalTokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt returns the user message sent to the model
func BuildPrompt(food string, considerQuantities bool) string {
	prompt := fmt.Sprintf("Give calories and protein for %s in very simple words.", food)
	if considerQuantities {
		prompt += " If a quantity is stated, take it into account carefully."
	}
	return prompt
}
