// Package clpositions values concentrated-liquidity positions on the
// staked/underlying pools, including accrued but uncollected fees.
package clpositions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/inbound"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/services/valuation"
)

var _ inbound.Valuator = (*Service)(nil)

// Service is the concentrated-liquidity valuator. Position discovery goes
// through an off-chain index (GraphQL indexer or public REST endpoint,
// whichever PositionIndex was injected); valuation of each discovered
// position is an on-chain read.
type Service struct {
	valuation.Base
	index outbound.PositionIndex
}

// NewService creates the concentrated-liquidity valuator. index must not be
// nil.
func NewService(network entity.Network, reader outbound.ChainReader, index outbound.PositionIndex, logger *slog.Logger) (*Service, error) {
	if index == nil {
		return nil, errors.New("position index is required")
	}
	return &Service{
		Base:  valuation.NewBase(entity.ProtocolCLPositions, network, reader, logger),
		index: index,
	}, nil
}

// GetHoldings discovers the account's positions as of the queried block and
// accumulates each position's current amounts plus uncollected fees into
// the holdings pair, mapping the pool's token0/token1 axes onto
// staked/underlying by which side the staked token occupies.
//
// A position the chain reports as not yet initialized is skipped; any other
// chain error aborts the position loop and surfaces as this protocol's
// failure without touching sibling protocols.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		network := s.Network()
		posReader := network.CLPositionReader
		if !posReader.IsQueryable(req.Block) {
			return entity.ZeroHoldings(), nil
		}

		query := outbound.PositionQuery{
			Owner:         req.Account,
			IncludeClosed: true,
		}
		// Historical queries bound discovery to the target block's
		// timestamp so the index does not return positions opened later.
		if _, ok := req.Block.Number(); ok {
			header, err := reader.HeaderByRef(ctx, req.Block)
			if err != nil {
				return entity.Holdings{}, fmt.Errorf("resolving target block timestamp: %w", err)
			}
			query.AsOf = header.Timestamp
		}

		positions, err := s.index.Positions(ctx, query)
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("discovering positions: %w", err)
		}

		total := entity.ZeroHoldings()
		for _, pos := range positions {
			stakedIsToken0 := pos.Token0 == network.StakedToken
			if !stakedIsToken0 && pos.Token1 != network.StakedToken {
				// Index filter should exclude foreign pairs; double-check.
				continue
			}

			out, err := reader.Call(ctx, outbound.CallRequest{
				Contract: posReader.Address,
				Method:   "getPositionAmounts",
				Args:     []any{pos.ID},
				Block:    req.Block,
			})
			if errors.Is(err, outbound.ErrPositionNotInitialized) {
				s.Logger().Debug("skipping uninitialized position", "position", pos.ID)
				continue
			}
			if err != nil {
				return entity.Holdings{}, fmt.Errorf("reading position %s: %w", pos.ID, err)
			}

			amounts, err := decodeAmounts(out)
			if err != nil {
				return entity.Holdings{}, fmt.Errorf("decoding position %s: %w", pos.ID, err)
			}

			token0Total := new(big.Int).Add(amounts.amount0, amounts.fees0)
			token1Total := new(big.Int).Add(amounts.amount1, amounts.fees1)
			if stakedIsToken0 {
				total = total.Add(entity.NewHoldings(token0Total, token1Total))
			} else {
				total = total.Add(entity.NewHoldings(token1Total, token0Total))
			}
		}
		return total, nil
	})
}

type positionAmounts struct {
	amount0, amount1 *big.Int
	fees0, fees1     *big.Int
}

func decodeAmounts(out []any) (positionAmounts, error) {
	var amounts positionAmounts
	var err error
	if amounts.amount0, err = valuation.Uint256(out, 0); err != nil {
		return amounts, err
	}
	if amounts.amount1, err = valuation.Uint256(out, 1); err != nil {
		return amounts, err
	}
	if amounts.fees0, err = valuation.Uint256(out, 2); err != nil {
		return amounts, err
	}
	if amounts.fees1, err = valuation.Uint256(out, 3); err != nil {
		return amounts, err
	}
	return amounts, nil
}
