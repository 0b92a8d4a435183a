// Package inbound defines the contracts this module exposes to callers.
package inbound

import (
	"context"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

// Valuator is the uniform per-protocol holdings contract. GetHoldings never
// fails across this boundary: validation and chain-call failures are
// converted into an unsuccessful HoldingsResponse so one protocol's trouble
// stays attributable and protocol-local.
type Valuator interface {
	// ProtocolID identifies the protocol this valuator serves.
	ProtocolID() entity.ProtocolID

	// Info returns the catalog entry for the active network.
	Info() entity.ProtocolInfo

	// GetHoldings values the account's position at the requested point in
	// history, normalized into the two-token holdings representation.
	GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse

	// SetChainReader swaps the chain read capability, used when the caller
	// rotates RPC endpoints.
	SetChainReader(reader outbound.ChainReader)
}

// Aggregator fans a holdings request out across protocols with
// partial-failure isolation.
type Aggregator interface {
	// GetHoldings runs a single protocol's valuator. The error return is
	// only for an unknown protocol id; valuation failures surface inside
	// the response.
	GetHoldings(ctx context.Context, id entity.ProtocolID, req entity.HoldingsRequest) (entity.HoldingsResponse, error)

	// GetMultiProtocolHoldings aggregates across the given subset (all
	// protocols when empty). A failed protocol contributes zero holdings;
	// the result map always covers the full requested set.
	GetMultiProtocolHoldings(ctx context.Context, req entity.HoldingsRequest, protocols ...entity.ProtocolID) (entity.MultiProtocolHoldings, error)

	// Protocols lists the catalog for the active network.
	Protocols() []entity.ProtocolInfo
}
