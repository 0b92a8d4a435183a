// Package positionsapi implements the PositionIndex interface against the
// concentrated-liquidity protocol's public REST API. It serves current state
// only and filters positions to the tracked pair client-side, unlike the
// subgraph adapter which filters server-side and honours historical bounds.
package positionsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/stakescope/holdings/internal/pkg/retry"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.PositionIndex.
var _ outbound.PositionIndex = (*Client)(nil)

// ClientConfig holds configuration for the positions API client.
type ClientConfig struct {
	// BaseURL is the REST API base URL.
	BaseURL string

	// Token0 and Token1 are the pool pair to keep when filtering the
	// account's positions.
	Token0 common.Address
	Token1 common.Address

	// Timeout is the maximum time to wait for a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int

	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each retry.
	BackoffFactor float64

	// RateLimitPerMin is the rate limit in requests per minute.
	RateLimitPerMin int

	// Logger is the structured logger for the client.
	Logger *slog.Logger

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      10 * time.Second,
		BackoffFactor:   2.0,
		RateLimitPerMin: 120,
		Logger:          slog.Default(),
	}
}

// Client implements PositionIndex using the protocol's public REST API.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	retryConfig retry.Config
}

// NewClient creates a new positions API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}

	defaults := ClientConfigDefaults()
	applyDefaults(&config, defaults)

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	rps := float64(config.RateLimitPerMin) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "positionsapi-client"),
		limiter:    limiter,
		retryConfig: retry.Config{
			MaxRetries:     config.MaxRetries,
			InitialBackoff: config.InitialBackoff,
			MaxBackoff:     config.MaxBackoff,
			BackoffFactor:  config.BackoffFactor,
			Jitter:         false,
		},
	}, nil
}

func applyDefaults(config *ClientConfig, defaults ClientConfig) {
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.RateLimitPerMin == 0 {
		config.RateLimitPerMin = defaults.RateLimitPerMin
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
}

// Positions returns the account's position descriptors for the configured
// pair. The API has no pair or timestamp filter, so the AsOf bound is
// ignored and filtering happens here. The closed filter is passed through.
func (c *Client) Positions(ctx context.Context, query outbound.PositionQuery) ([]outbound.PositionDescriptor, error) {
	if query.AsOf > 0 {
		c.logger.Debug("positions API serves current state only, ignoring asOf bound",
			"owner", query.Owner, "asOf", query.AsOf)
	}

	endpoint := fmt.Sprintf("%s/positions/%s", strings.TrimRight(c.config.BaseURL, "/"), strings.ToLower(query.Owner))
	params := url.Values{}
	if query.IncludeClosed {
		params.Set("showClosed", "true")
	}

	var response positionsResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, fmt.Errorf("fetching positions for %s: %w", query.Owner, err)
	}

	descriptors := make([]outbound.PositionDescriptor, 0, len(response.Positions))
	for _, p := range response.Positions {
		token0 := common.HexToAddress(p.Token0)
		token1 := common.HexToAddress(p.Token1)
		if !c.matchesPair(token0, token1) {
			continue
		}
		id, ok := new(big.Int).SetString(p.PositionID, 10)
		if !ok {
			return nil, fmt.Errorf("invalid position id %q", p.PositionID)
		}
		descriptors = append(descriptors, outbound.PositionDescriptor{
			ID:          id,
			Token0:      token0,
			Token1:      token1,
			FeeTier:     p.FeeTier,
			TickSpacing: p.TickSpacing,
			Extension:   common.HexToAddress(p.Extension),
			LowerTick:   p.LowerTick,
			UpperTick:   p.UpperTick,
		})
	}

	return descriptors, nil
}

// matchesPair keeps positions in the tracked pool pair in either token order.
func (c *Client) matchesPair(token0, token1 common.Address) bool {
	if token0 == c.config.Token0 && token1 == c.config.Token1 {
		return true
	}
	return token0 == c.config.Token1 && token1 == c.config.Token0
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	isRetryable := func(err error) bool {
		var nonRetryable *nonRetryableError
		return !errors.As(err, &nonRetryable)
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"maxRetries", c.retryConfig.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	return retry.DoVoid(ctx, c.retryConfig, isRetryable, onRetry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &nonRetryableError{err: fmt.Errorf("rate limiter: %w", err)}
		}
		return c.doSingleRequest(ctx, fullURL, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, fullURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (HTTP 429)")
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &nonRetryableError{err: fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(body))}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing response: %w", err)}
	}

	return nil
}

// nonRetryableError wraps errors that should not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string {
	return e.err.Error()
}

func (e *nonRetryableError) Unwrap() error {
	return e.err
}
