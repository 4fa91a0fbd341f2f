package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultModel             = "gpt-4o-mini"
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerMinute = 60
	maxAttempts              = 3
	maxBodyBytes             = 1 << 20
	errorBodyBytes           = 512
)

// Config holds configuration for the chat-completions client
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client extracts food items through an OpenAI-compatible chat-completions API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new chat-completions client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaultRequestsPerMinute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	perSecond := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
	burst := config.RequestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		model:       config.Model,
		rateLimiter: rate.NewLimiter(perSecond, burst),
		backoff:     exponentialBackoff,
		logger:      logger.Named("llm"),
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// doRequest executes an HTTP POST to the chat-completions endpoint
func (c *Client) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MealTrack/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, err)
	}

	return resp, nil
}

// ExtractItems asks the model for the food items in message, naming
// foodNames as the catalog it should map onto.
func (c *Client) ExtractItems(ctx context.Context, message string, foodNames []string) ([]domain.ParsedItem, error) {
	payload, err := json.Marshal(newCompletionRequest(c.model, message, foodNames))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, payload)
		if err != nil {
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			if !c.wait(ctx, attempt) {
				return nil, lastErr
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrLLMAPIFailure, readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			snippet := string(body)
			if len(snippet) > errorBodyBytes {
				snippet = snippet[:errorBodyBytes]
			}
			c.logger.Warn("API error",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.String("body", snippet))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrLLMAPIFailure, resp.StatusCode)

			// only rate limiting and server errors are worth retrying
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return nil, lastErr
			}
			if !c.wait(ctx, attempt) {
				return nil, lastErr
			}
			continue
		}

		var completion completionResponse
		if err := json.Unmarshal(body, &completion); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(completion.Choices) == 0 {
			return nil, fmt.Errorf("%w: response has no choices", domain.ErrLLMAPIFailure)
		}

		items, err := parseItems(completion.Choices[0].Message.Content)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("items extracted", zap.String("message", message), zap.Int("items", len(items)))
		return items, nil
	}

	c.logger.Warn("all retries failed", zap.String("message", message))
	return nil, lastErr
}

// wait sleeps for the attempt's backoff unless ctx ends first
func (c *Client) wait(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return true
	}
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
