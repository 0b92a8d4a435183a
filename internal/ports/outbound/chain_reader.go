// Package outbound defines the capability interfaces this module consumes.
// Adapters implement them; services depend only on these contracts.
package outbound

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
)

// Known chain-call failure conditions. Adapters classify transport-level
// revert payloads into these sentinels so valuators can branch with
// errors.Is instead of matching message substrings.
var (
	// ErrPositionNotInitialized is returned for a concentrated-liquidity
	// position that exists in the index but has not been initialized
	// on-chain yet. Valuators skip the position and continue.
	ErrPositionNotInitialized = errors.New("position not initialized")

	// ErrUnknownPool is returned when the CDP singleton does not track the
	// queried (pool, collateral, debt) market yet.
	ErrUnknownPool = errors.New("unknown pool")
)

// CallRequest describes one read-only contract call pinned to a point in
// chain history.
type CallRequest struct {
	Contract common.Address
	Method   string
	Args     []any
	Block    entity.BlockRef
}

// BlockHeader is the minimal header shape the valuators need.
type BlockHeader struct {
	Number    uint64
	Timestamp int64
	Hash      string
}

// ChainReader is the opaque blockchain read capability. Errors carry the
// sentinel classifications above where the condition is recognisable.
type ChainReader interface {
	// Call executes a read-only contract call and returns the decoded
	// output values in declaration order.
	Call(ctx context.Context, req CallRequest) ([]any, error)

	// HeaderByRef resolves the block header at the given point in history.
	HeaderByRef(ctx context.Context, ref entity.BlockRef) (BlockHeader, error)
}
