// Package valuation carries the plumbing shared by every protocol valuator:
// request validation, the failure boundary, and observed-at resolution.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

var (
	// ErrNoChainReader means the valuator was asked to read the chain
	// before a reader was configured. A configuration failure, never a
	// zero result.
	ErrNoChainReader = errors.New("chain reader not configured")

	// ErrInvalidAddress means the account address failed format
	// validation. Surfaced as a failure, never silently treated as zero.
	ErrInvalidAddress = errors.New("invalid account address")
)

// ValuateFunc is a protocol's valuation logic, run inside the shared
// boundary with a validated request and a non-nil reader.
type ValuateFunc func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error)

// Base implements the pieces of the valuator contract that are identical
// across protocols. Protocol services embed it and supply their valuation
// logic through Evaluate.
type Base struct {
	protocol entity.ProtocolID
	network  entity.Network
	logger   *slog.Logger

	mu     sync.RWMutex
	reader outbound.ChainReader
}

// NewBase creates the shared valuator state. Logger may be nil.
func NewBase(protocol entity.ProtocolID, network entity.Network, reader outbound.ChainReader, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}
	return Base{
		protocol: protocol,
		network:  network,
		reader:   reader,
		logger:   logger.With("component", "valuator", "protocol", string(protocol)),
	}
}

// ProtocolID identifies the protocol this valuator serves.
func (b *Base) ProtocolID() entity.ProtocolID {
	return b.protocol
}

// Network returns the injected network configuration.
func (b *Base) Network() entity.Network {
	return b.network
}

// Info returns the catalog entry for the active network.
func (b *Base) Info() entity.ProtocolInfo {
	return entity.ProtocolInfoFor(b.protocol, b.network)
}

// Logger returns the component logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// SetChainReader swaps the chain read capability.
func (b *Base) SetChainReader(reader outbound.ChainReader) {
	b.mu.Lock()
	b.reader = reader
	b.mu.Unlock()
}

// ChainReader returns the currently configured reader, which may be nil.
func (b *Base) ChainReader() outbound.ChainReader {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reader
}

// Evaluate runs fn inside the uniform valuator boundary: the reader must be
// configured and the address well-formed before any chain call, and every
// failure is converted into an unsuccessful response carrying the protocol
// id and an observed-at timestamp.
func (b *Base) Evaluate(ctx context.Context, req entity.HoldingsRequest, fn ValuateFunc) entity.HoldingsResponse {
	reader := b.ChainReader()
	if reader == nil {
		return b.failure(time.Now().Unix(), ErrNoChainReader)
	}
	if !common.IsHexAddress(req.Account) {
		return b.failure(time.Now().Unix(), fmt.Errorf("%w: %q", ErrInvalidAddress, req.Account))
	}

	observedAt := b.observedAt(ctx, reader, req.Block)

	holdings, err := fn(ctx, reader, req)
	if err != nil {
		b.logger.Warn("valuation failed",
			"account", req.Account,
			"block", req.Block.String(),
			"error", err)
		return b.failure(observedAt, err)
	}

	return entity.HoldingsResponse{
		Protocol:   b.protocol,
		Ok:         true,
		Holdings:   holdings,
		ObservedAt: observedAt,
	}
}

// ReadReader is like ChainReader but fails when unset, for auxiliary reads
// that bypass Evaluate.
func (b *Base) ReadReader() (outbound.ChainReader, error) {
	reader := b.ChainReader()
	if reader == nil {
		return nil, ErrNoChainReader
	}
	return reader, nil
}

func (b *Base) failure(observedAt int64, err error) entity.HoldingsResponse {
	return entity.HoldingsResponse{
		Protocol:   b.protocol,
		Ok:         false,
		Holdings:   entity.ZeroHoldings(),
		Err:        err.Error(),
		ObservedAt: observedAt,
	}
}

// observedAt resolves the timestamp of the queried block. When the header
// cannot be read the wall clock stands in, so the field is never absent.
func (b *Base) observedAt(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef) int64 {
	header, err := reader.HeaderByRef(ctx, ref)
	if err != nil {
		b.logger.Debug("block header lookup failed, using wall clock", "block", ref.String(), "error", err)
		return time.Now().Unix()
	}
	return header.Timestamp
}
