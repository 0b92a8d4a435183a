package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/inbound"
	"github.com/stakescope/holdings/internal/pkg/retry"
)

const (
	// tracerName is the instrumentation name for this service.
	tracerName = "github.com/stakescope/holdings/internal/services/portfolio"
)

// Compile-time check that Coordinator implements the aggregator contract.
var _ inbound.Aggregator = (*Coordinator)(nil)

// CoordinatorConfig holds configuration for the aggregation coordinator.
type CoordinatorConfig struct {
	// RetryBackoff is the fixed delay before the single retry attempted
	// when a valuator fails unexpectedly (panics). A normal unsuccessful
	// response is never retried.
	RetryBackoff time.Duration

	// Logger is the structured logger.
	Logger *slog.Logger
}

// CoordinatorConfigDefaults returns default configuration.
func CoordinatorConfigDefaults() CoordinatorConfig {
	return CoordinatorConfig{
		RetryBackoff: 250 * time.Millisecond,
		Logger:       slog.Default(),
	}
}

// Coordinator fans a holdings request out to the registered valuators and
// folds the results into a portfolio total. Partial failure isolation is a
// first-class guarantee: one protocol's failure or slowness never blocks or
// fails the others, and a failed protocol always contributes exactly zero.
type Coordinator struct {
	registry *Registry
	config   CoordinatorConfig
	logger   *slog.Logger
}

// NewCoordinator creates a new aggregation coordinator.
func NewCoordinator(registry *Registry, config CoordinatorConfig) (*Coordinator, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	defaults := CoordinatorConfigDefaults()
	if config.RetryBackoff == 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Coordinator{
		registry: registry,
		config:   config,
		logger:   config.Logger.With("component", "holdings-coordinator"),
	}, nil
}

// GetHoldings runs a single protocol's valuator. The error return is only
// for an unknown or unavailable protocol id.
func (c *Coordinator) GetHoldings(ctx context.Context, id entity.ProtocolID, req entity.HoldingsRequest) (entity.HoldingsResponse, error) {
	v, ok := c.registry.Valuator(id)
	if !ok {
		return entity.HoldingsResponse{}, fmt.Errorf("protocol %q is not available on network %q", id, c.registry.Network().Name)
	}
	return c.fetch(ctx, v, req), nil
}

// GetMultiProtocolHoldings aggregates across the requested subset (all
// registered protocols when empty). All fetches run concurrently; results
// are folded only after every fetch has finished, so no shared accumulator
// is mutated from multiple goroutines.
func (c *Coordinator) GetMultiProtocolHoldings(ctx context.Context, req entity.HoldingsRequest, protocols ...entity.ProtocolID) (entity.MultiProtocolHoldings, error) {
	subset := protocols
	if len(subset) == 0 {
		subset = c.registry.ProtocolIDs()
	}

	valuators := make([]inbound.Valuator, len(subset))
	for i, id := range subset {
		v, ok := c.registry.Valuator(id)
		if !ok {
			return entity.MultiProtocolHoldings{}, fmt.Errorf("protocol %q is not available on network %q", id, c.registry.Network().Name)
		}
		valuators[i] = v
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "portfolio.getMultiProtocolHoldings",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("holdings.account", req.Account),
			attribute.String("holdings.block", req.Block.String()),
			attribute.Int("holdings.protocol_count", len(subset)),
		),
	)
	defer span.End()

	// Fire all fetches, then join; wall-clock latency is bounded by the
	// slowest protocol, not the sum.
	responses := make([]entity.HoldingsResponse, len(subset))
	var wg sync.WaitGroup
	for i, v := range valuators {
		wg.Add(1)
		go func(i int, v inbound.Valuator) {
			defer wg.Done()
			responses[i] = c.fetch(ctx, v, req)
		}(i, v)
	}
	wg.Wait()

	result := entity.MultiProtocolHoldings{
		Total:      entity.ZeroHoldings(),
		ByProtocol: make(map[entity.ProtocolID]entity.Holdings, len(subset)),
		Requested:  append([]entity.ProtocolID(nil), subset...),
	}
	// Seed every requested protocol with zero holdings so the map is
	// complete no matter how many fetches failed.
	for _, id := range subset {
		result.ByProtocol[id] = entity.ZeroHoldings()
	}

	failed := 0
	for _, resp := range responses {
		if !resp.Ok {
			failed++
			continue
		}
		result.ByProtocol[resp.Protocol] = resp.Holdings
		result.Total = result.Total.Add(resp.Holdings)
	}

	span.SetAttributes(attribute.Int("holdings.failed_count", failed))
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d protocols failed", failed, len(subset)))
	}

	return result, nil
}

// Protocols lists the catalog for the active network.
func (c *Coordinator) Protocols() []entity.ProtocolInfo {
	return c.registry.Protocols()
}

// fetch invokes one valuator with a panic guard and a single bounded retry.
// Only an unexpected failure is retried; an ordinary unsuccessful response
// is final. The returned response is always well-formed.
func (c *Coordinator) fetch(ctx context.Context, v inbound.Valuator, req entity.HoldingsRequest) entity.HoldingsResponse {
	retryCfg := retry.Config{
		MaxRetries:     1,
		InitialBackoff: c.config.RetryBackoff,
		MaxBackoff:     c.config.RetryBackoff,
		BackoffFactor:  1.0,
	}
	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("valuator failed unexpectedly, retrying once",
			"protocol", string(v.ProtocolID()),
			"backoff", backoff,
			"error", err)
	}

	resp, err := retry.Do(ctx, retryCfg, func(error) bool { return true }, onRetry, func() (entity.HoldingsResponse, error) {
		return c.invoke(ctx, v, req)
	})
	if err != nil {
		c.logger.Error("valuator failed after retry, contributing zero",
			"protocol", string(v.ProtocolID()),
			"error", err)
		return entity.HoldingsResponse{
			Protocol:   v.ProtocolID(),
			Ok:         false,
			Holdings:   entity.ZeroHoldings(),
			Err:        err.Error(),
			ObservedAt: time.Now().Unix(),
		}
	}
	return resp
}

// invoke shields the coordinator from a misbehaving valuator: the uniform
// contract says GetHoldings never fails, but a panic here must stay
// protocol-local.
func (c *Coordinator) invoke(ctx context.Context, v inbound.Valuator, req entity.HoldingsRequest) (resp entity.HoldingsResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("valuator %s panicked: %v", v.ProtocolID(), r)
		}
	}()
	return v.GetHoldings(ctx, req), nil
}
