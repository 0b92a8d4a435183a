package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PositionQuery selects an account's concentrated-liquidity positions from
// an off-chain index.
type PositionQuery struct {
	// Owner is the account address; adapters lowercase it before querying.
	Owner string

	// IncludeClosed includes positions whose liquidity has been withdrawn.
	IncludeClosed bool

	// AsOf is an upper-bound unix timestamp derived from the target block.
	// Zero means "no bound" (current state). Only the indexed variant
	// honours it; the REST variant serves current state only.
	AsOf int64
}

// PositionDescriptor identifies one concentrated-liquidity position and the
// pool it sits in. Lifecycle of the identifier is owned by the protocol;
// this module never persists it.
type PositionDescriptor struct {
	ID          *big.Int
	Token0      common.Address
	Token1      common.Address
	FeeTier     uint32
	TickSpacing int32
	Extension   common.Address
	LowerTick   int32
	UpperTick   int32
}

// PositionIndex discovers an account's position identifiers. Two adapters
// implement it: the GraphQL indexer (pair-filtered server-side, as-of a
// timestamp) and the public REST endpoint (filtered client-side).
type PositionIndex interface {
	Positions(ctx context.Context, query PositionQuery) ([]PositionDescriptor, error)
}
