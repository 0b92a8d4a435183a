// Package swappool values the account's pro-rata share of the
// staked/underlying constant-product pool.
package swappool

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

// Service is the constant-product LP share valuator. The pair contract
// doubles as the LP token, so balance, supply and reserves all come from
// the same deployment.
type Service struct {
	valuation.Base
}

// NewService creates the swap-pool valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolSwapPool, network, reader, logger),
	}
}

// GetHoldings computes the caller's share of each reserve as
// balance * reserve / totalSupply with exact integer floor division.
// A pool with zero LP supply yields zero holdings rather than a division
// error.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		pool := s.Network().SwapPool
		if !pool.IsQueryable(req.Block) {
			return entity.ZeroHoldings(), nil
		}

		balance, err := s.poolUint(ctx, reader, req.Block, "balanceOf", common.HexToAddress(req.Account))
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("reading LP balance: %w", err)
		}
		totalSupply, err := s.poolUint(ctx, reader, req.Block, "totalSupply")
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("reading LP total supply: %w", err)
		}
		if totalSupply.Sign() == 0 || balance.Sign() == 0 {
			return entity.ZeroHoldings(), nil
		}

		out, err := reader.Call(ctx, outbound.CallRequest{
			Contract: pool.Address,
			Method:   "getReserves",
			Block:    req.Block,
		})
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("reading reserves: %w", err)
		}
		reserve0, err := valuation.Uint256(out, 0)
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("decoding reserve0: %w", err)
		}
		reserve1, err := valuation.Uint256(out, 1)
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("decoding reserve1: %w", err)
		}

		share0 := proRata(balance, reserve0, totalSupply)
		share1 := proRata(balance, reserve1, totalSupply)

		if s.Network().SwapPoolStakedIsToken0 {
			return entity.NewHoldings(share0, share1), nil
		}
		return entity.NewHoldings(share1, share0), nil
	})
}

// proRata computes floor(balance * reserve / totalSupply) exactly.
func proRata(balance, reserve, totalSupply *big.Int) *big.Int {
	share := new(big.Int).Mul(balance, reserve)
	return share.Quo(share, totalSupply)
}

func (s *Service) poolUint(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, method string, args ...any) (*big.Int, error) {
	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: s.Network().SwapPool.Address,
		Method:   method,
		Args:     args,
		Block:    ref,
	})
	if err != nil {
		return nil, err
	}
	return valuation.Uint256(out, 0)
}
