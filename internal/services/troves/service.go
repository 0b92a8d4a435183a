// Package troves aggregates staked-token collateral locked in the CDP
// protocol's troves.
package troves

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/inbound"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/services/valuation"
)

var _ inbound.Valuator = (*Service)(nil)

// Service is the trove CDP valuator.
type Service struct {
	valuation.Base
}

// NewService creates the trove valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolTroves, network, reader, logger),
	}
}

// GetHoldings lists the account's troves and sums the staked-token
// collateral locked in each. An account with no troves short-circuits to
// zero without issuing per-trove calls. The underlying component is always
// zero for this protocol.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		manager := s.Network().TroveManager
		if !manager.IsQueryable(req.Block) {
			return entity.ZeroHoldings(), nil
		}

		ids, err := s.listTroves(ctx, reader, req.Block, common.HexToAddress(req.Account))
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("listing troves: %w", err)
		}
		if len(ids) == 0 {
			return entity.ZeroHoldings(), nil
		}

		total := new(big.Int)
		for _, id := range ids {
			collateral, err := s.troveCollateral(ctx, reader, req.Block, id)
			if err != nil {
				return entity.Holdings{}, fmt.Errorf("reading trove %s collateral: %w", id, err)
			}
			total.Add(total, collateral)
		}
		return entity.StakedOnly(total), nil
	})
}

// ListTroves returns the ids of all troves owned by the account at ref.
func (s *Service) ListTroves(ctx context.Context, ref entity.BlockRef, account string) ([]*big.Int, error) {
	reader, err := s.ReadReader()
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", valuation.ErrInvalidAddress, account)
	}
	return s.listTroves(ctx, reader, ref, common.HexToAddress(account))
}

// TroveCollateral returns the staked-token collateral locked in one trove.
func (s *Service) TroveCollateral(ctx context.Context, ref entity.BlockRef, troveID *big.Int) (*big.Int, error) {
	reader, err := s.ReadReader()
	if err != nil {
		return nil, err
	}
	return s.troveCollateral(ctx, reader, ref, troveID)
}

func (s *Service) listTroves(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, account common.Address) ([]*big.Int, error) {
	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: s.Network().TroveManager.Address,
		Method:   "getTroveIdsOf",
		Args:     []any{account},
		Block:    ref,
	})
	if err != nil {
		return nil, err
	}
	return valuation.Uint256Slice(out, 0)
}

func (s *Service) troveCollateral(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, troveID *big.Int) (*big.Int, error) {
	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: s.Network().TroveManager.Address,
		Method:   "getTroveColl",
		Args:     []any{troveID},
		Block:    ref,
	})
	if err != nil {
		return nil, err
	}
	return valuation.Uint256(out, 0)
}
