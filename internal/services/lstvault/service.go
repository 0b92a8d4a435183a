// Package lstvault values direct staked-token balances held in the
// liquid-staking vault, and exposes the vault's rate and conversion reads.
package lstvault

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

// Compile-time check that Service implements the valuator contract.
var _ inbound.Valuator = (*Service)(nil)

// rateScale is the fixed-point scale of the exchange rate (1e18).
var rateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Service is the LST vault valuator.
type Service struct {
	valuation.Base
}

// NewService creates the LST vault valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolLSTVault, network, reader, logger),
	}
}

// GetHoldings returns the account's staked-token balance in the vault.
// The underlying component is always zero for this protocol.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		vault := s.Network().LSTVault
		if !vault.IsQueryable(req.Block) {
			return entity.ZeroHoldings(), nil
		}

		out, err := reader.Call(ctx, outbound.CallRequest{
			Contract: vault.Address,
			Method:   "balanceOf",
			Args:     []any{common.HexToAddress(req.Account)},
			Block:    req.Block,
		})
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("reading vault balance: %w", err)
		}
		balance, err := valuation.Uint256(out, 0)
		if err != nil {
			return entity.Holdings{}, fmt.Errorf("decoding vault balance: %w", err)
		}
		return entity.StakedOnly(balance), nil
	})
}

// ExchangeRate returns the vault's staked-to-underlying exchange rate scaled
// by 1e18, computed as totalAssets * 1e18 / totalSupply with integer
// division. A zero total supply yields exactly zero rather than an error.
func (s *Service) ExchangeRate(ctx context.Context, ref entity.BlockRef) (*big.Int, error) {
	totalAssets, err := s.TotalAssets(ctx, ref)
	if err != nil {
		return nil, err
	}
	totalSupply, err := s.TotalSupply(ctx, ref)
	if err != nil {
		return nil, err
	}
	if totalSupply.Sign() == 0 {
		return new(big.Int), nil
	}
	rate := new(big.Int).Mul(totalAssets, rateScale)
	return rate.Quo(rate, totalSupply), nil
}

// ConvertToUnderlying converts a staked-token amount to the underlying
// asset via the vault's own conversion entrypoint.
func (s *Service) ConvertToUnderlying(ctx context.Context, ref entity.BlockRef, staked *big.Int) (*big.Int, error) {
	reader, err := s.ReadReader()
	if err != nil {
		return nil, err
	}
	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: s.Network().LSTVault.Address,
		Method:   "convertToAssets",
		Args:     []any{staked},
		Block:    ref,
	})
	if err != nil {
		return nil, fmt.Errorf("converting staked amount: %w", err)
	}
	return valuation.Uint256(out, 0)
}

// TotalAssets reads the vault's total underlying assets.
func (s *Service) TotalAssets(ctx context.Context, ref entity.BlockRef) (*big.Int, error) {
	return s.vaultRead(ctx, ref, "totalAssets")
}

// TotalSupply reads the vault token's total supply.
func (s *Service) TotalSupply(ctx context.Context, ref entity.BlockRef) (*big.Int, error) {
	return s.vaultRead(ctx, ref, "totalSupply")
}

func (s *Service) vaultRead(ctx context.Context, ref entity.BlockRef, method string) (*big.Int, error) {
	reader, err := s.ReadReader()
	if err != nil {
		return nil, err
	}
	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: s.Network().LSTVault.Address,
		Method:   method,
		Block:    ref,
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", method, err)
	}
	return valuation.Uint256(out, 0)
}
