// Package holdings aggregates an account's staked-token and
// underlying-token holdings across the DeFi protocols the token pair is
// deployed to. The package is a thin facade over the internal services: it
// wires the chain reader, the position index and the protocol registry
// together and exposes the aggregation contract plus per-protocol access.
package holdings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/stakescope/holdings/internal/adapters/outbound/ethrpc"
	"github.com/stakescope/holdings/internal/adapters/outbound/positionsapi"
	"github.com/stakescope/holdings/internal/adapters/outbound/subgraph"
	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/pkg/env"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/services/lstvault"
	"github.com/stakescope/holdings/internal/services/portfolio"
	"github.com/stakescope/holdings/internal/services/troves"
)

// Domain types re-exported for callers.
type (
	Holdings              = entity.Holdings
	BlockRef              = entity.BlockRef
	Deployment            = entity.Deployment
	Network               = entity.Network
	ProtocolID            = entity.ProtocolID
	ProtocolInfo          = entity.ProtocolInfo
	HoldingsRequest       = entity.HoldingsRequest
	HoldingsResponse      = entity.HoldingsResponse
	MultiProtocolHoldings = entity.MultiProtocolHoldings

	ChainReader   = outbound.ChainReader
	PositionIndex = outbound.PositionIndex
)

// Protocol identifiers.
const (
	ProtocolLSTVault       = entity.ProtocolLSTVault
	ProtocolCLPositions    = entity.ProtocolCLPositions
	ProtocolLendingMarkets = entity.ProtocolLendingMarkets
	ProtocolSwapPool       = entity.ProtocolSwapPool
	ProtocolTroves         = entity.ProtocolTroves
	ProtocolStrategyVault  = entity.ProtocolStrategyVault
	ProtocolCDPVaults      = entity.ProtocolCDPVaults
)

// Block reference constructors.
var (
	FinalizedBlock = entity.FinalizedBlock
	PendingBlock   = entity.PendingBlock
	BlockNumber    = entity.BlockNumber
)

// Built-in networks.
var (
	Mainnet = entity.Mainnet
	Sepolia = entity.Sepolia
)

// Config holds configuration for the holdings client.
type Config struct {
	// Network selects the contract tables. Defaults to Mainnet.
	Network Network

	// RPCURL is the JSON-RPC endpoint used to build the default chain
	// reader. Falls back to the HOLDINGS_RPC_URL environment variable.
	// Ignored when ChainReader is set.
	RPCURL string

	// ChainReader overrides the default JSON-RPC chain reader.
	ChainReader ChainReader

	// PositionIndex overrides the default position index. When nil, the
	// network's subgraph endpoint is used, falling back to the public
	// positions API.
	PositionIndex PositionIndex

	// Logger is the structured logger. Defaults to a text handler on
	// stderr at the level HOLDINGS_LOG_LEVEL selects.
	Logger *slog.Logger
}

// Client is the composition root: one instance per (network, endpoint)
// pair, safe for concurrent use.
type Client struct {
	registry    *portfolio.Registry
	coordinator *portfolio.Coordinator
	logger      *slog.Logger

	// ownedReader is the ethrpc client the facade built itself, kept so
	// Close can release it. Nil when the caller supplied the reader.
	ownedReader *ethrpc.Client
}

// New creates a holdings client.
func New(config Config) (*Client, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: env.ParseLogLevel(slog.LevelInfo),
		}))
	}

	network := config.Network
	if network.Name == "" {
		network = Mainnet()
	}

	reader := config.ChainReader
	var owned *ethrpc.Client
	if reader == nil {
		rpcURL := config.RPCURL
		if rpcURL == "" {
			rpcURL = env.Get("HOLDINGS_RPC_URL", "")
		}
		if rpcURL == "" {
			return nil, errors.New("either ChainReader or RPCURL is required")
		}
		c, err := ethrpc.NewClient(ethrpc.ClientConfig{RPCURL: rpcURL, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("building chain reader: %w", err)
		}
		reader = c
		owned = c
	}

	factory := indexFactory(config.PositionIndex, logger)

	registry, err := portfolio.NewRegistry(portfolio.RegistryConfig{
		Network:      network,
		ChainReader:  reader,
		IndexFactory: factory,
		Logger:       logger,
	})
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("building registry: %w", err)
	}

	coordinator, err := portfolio.NewCoordinator(registry, portfolio.CoordinatorConfig{Logger: logger})
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("building coordinator: %w", err)
	}

	return &Client{
		registry:    registry,
		coordinator: coordinator,
		logger:      logger.With("component", "holdings-client"),
		ownedReader: owned,
	}, nil
}

// indexFactory returns the position index wiring: a fixed override when the
// caller supplied one, otherwise the network's subgraph endpoint with the
// public REST API as fallback.
func indexFactory(override PositionIndex, logger *slog.Logger) portfolio.IndexFactory {
	return func(network entity.Network) (outbound.PositionIndex, error) {
		if override != nil {
			return override, nil
		}
		if network.SubgraphURL != "" {
			return subgraph.NewClient(subgraph.ClientConfig{
				URL:    network.SubgraphURL,
				Token0: network.StakedToken,
				Token1: network.UnderlyingToken,
				Logger: logger,
			})
		}
		if network.PositionsAPIURL != "" {
			return positionsapi.NewClient(positionsapi.ClientConfig{
				BaseURL: network.PositionsAPIURL,
				Token0:  network.StakedToken,
				Token1:  network.UnderlyingToken,
				Logger:  logger,
			})
		}
		return nil, fmt.Errorf("network %q has no position index endpoint", network.Name)
	}
}

// Close releases the chain reader when the client owns it.
func (c *Client) Close() {
	if c.ownedReader != nil {
		c.ownedReader.Close()
	}
}

// GetHoldings values the account's position in a single protocol.
func (c *Client) GetHoldings(ctx context.Context, protocol ProtocolID, req HoldingsRequest) (HoldingsResponse, error) {
	return c.coordinator.GetHoldings(ctx, protocol, req)
}

// GetMultiProtocolHoldings aggregates holdings across the requested
// protocols, or every protocol the network supports when none are named.
func (c *Client) GetMultiProtocolHoldings(ctx context.Context, req HoldingsRequest, protocols ...ProtocolID) (MultiProtocolHoldings, error) {
	return c.coordinator.GetMultiProtocolHoldings(ctx, req, protocols...)
}

// Protocols lists the full protocol catalog with per-network availability.
func (c *Client) Protocols() []ProtocolInfo {
	return c.coordinator.Protocols()
}

// Network returns the active network configuration.
func (c *Client) Network() Network {
	return c.registry.Network()
}

// SetChainReader swaps the chain reader on every valuator, e.g. to rotate
// to a custom transport. The previously owned reader, if any, is closed.
func (c *Client) SetChainReader(reader ChainReader) {
	c.registry.SetChainReader(reader)
	if c.ownedReader != nil {
		c.ownedReader.Close()
		c.ownedReader = nil
	}
}

// SetRPCURL points the client at a different JSON-RPC endpoint.
func (c *Client) SetRPCURL(rpcURL string) error {
	reader, err := ethrpc.NewClient(ethrpc.ClientConfig{RPCURL: rpcURL, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("building chain reader: %w", err)
	}
	c.registry.SetChainReader(reader)
	if c.ownedReader != nil {
		c.ownedReader.Close()
	}
	c.ownedReader = reader
	return nil
}

// UpdateNetwork rebuilds every valuator against the new network's contract
// tables while keeping the current chain reader.
func (c *Client) UpdateNetwork(network Network) error {
	return c.registry.UpdateNetwork(network)
}

// LSTVault returns the staking-vault service for auxiliary reads such as
// the exchange rate, when the network supports it.
func (c *Client) LSTVault() (*lstvault.Service, bool) {
	v, ok := c.registry.Valuator(ProtocolLSTVault)
	if !ok {
		return nil, false
	}
	s, ok := v.(*lstvault.Service)
	return s, ok
}

// Troves returns the trove service for per-trove reads, when the network
// supports it.
func (c *Client) Troves() (*troves.Service, bool) {
	v, ok := c.registry.Valuator(ProtocolTroves)
	if !ok {
		return nil, false
	}
	s, ok := v.(*troves.Service)
	return s, ok
}
