// Package subgraph implements the PositionIndex interface against the
// concentrated-liquidity protocol's GraphQL indexer. It provides position
// discovery with:
//   - Automatic retry logic with exponential backoff for transient failures
//   - Configurable timeouts and backoff parameters
//   - Rate limiting to stay within indexer limits
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/stakescope/holdings/internal/pkg/retry"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.PositionIndex.
var _ outbound.PositionIndex = (*Client)(nil)

// positionsQuery selects a user's positions for the tracked token pair.
// Pair filtering happens server-side so the response only carries positions
// that can contribute to holdings.
const positionsQuery = `
query Positions($owner: String!, $token0: String!, $token1: String!, $includeClosed: Boolean!, $asOf: BigInt) {
  positions(
    where: {
      owner: $owner
      token0: $token0
      token1: $token1
      includeClosed: $includeClosed
      createdAt_lte: $asOf
    }
  ) {
    positionId
    token0
    token1
    feeTier
    tickSpacing
    extension
    lowerTick
    upperTick
  }
}`

// ClientConfig holds configuration for the subgraph client.
type ClientConfig struct {
	// URL is the GraphQL endpoint of the position indexer.
	URL string

	// Token0 and Token1 are the pool pair the index is queried for,
	// normally the staked and underlying token addresses.
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
		RateLimitPerMin: 300,
		Logger:          slog.Default(),
	}
}

// Client implements PositionIndex using the protocol's GraphQL indexer.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	retryConfig retry.Config
}

// NewClient creates a new subgraph position index client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("URL is required")
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
		logger:     config.Logger.With("component", "subgraph-client"),
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
// pair. The owner address is lowercased before querying since the indexer
// stores checksummed addresses normalized.
func (c *Client) Positions(ctx context.Context, query outbound.PositionQuery) ([]outbound.PositionDescriptor, error) {
	variables := map[string]any{
		"owner":         strings.ToLower(query.Owner),
		"token0":        strings.ToLower(c.config.Token0.Hex()),
		"token1":        strings.ToLower(c.config.Token1.Hex()),
		"includeClosed": query.IncludeClosed,
	}
	if query.AsOf > 0 {
		variables["asOf"] = fmt.Sprintf("%d", query.AsOf)
	}

	var response positionsResponse
	if err := c.doRequest(ctx, positionsQuery, variables, &response); err != nil {
		return nil, fmt.Errorf("querying positions for %s: %w", query.Owner, err)
	}

	descriptors := make([]outbound.PositionDescriptor, 0, len(response.Positions))
	for _, p := range response.Positions {
		id, ok := new(big.Int).SetString(p.PositionID, 10)
		if !ok {
			return nil, fmt.Errorf("invalid position id %q", p.PositionID)
		}
		descriptors = append(descriptors, outbound.PositionDescriptor{
			ID:          id,
			Token0:      common.HexToAddress(p.Token0),
			Token1:      common.HexToAddress(p.Token1),
			FeeTier:     p.FeeTier,
			TickSpacing: p.TickSpacing,
			Extension:   common.HexToAddress(p.Extension),
			LowerTick:   p.LowerTick,
			UpperTick:   p.UpperTick,
		})
	}

	return descriptors, nil
}

func (c *Client) doRequest(ctx context.Context, query string, variables map[string]any, result any) error {
	payload, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
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
		return c.doSingleRequest(ctx, payload, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, payload []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

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

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(envelope.Errors) > 0 {
		return &nonRetryableError{err: fmt.Errorf("GraphQL error: %s", envelope.Errors[0].Message)}
	}

	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing response data: %w", err)}
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
