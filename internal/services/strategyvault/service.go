// Package strategyvault values staked-token deposits held through the
// yield vault and the AMM-strategy vault.
package strategyvault

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/inbound"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/services/valuation"
)

var _ inbound.Valuator = (*Service)(nil)

// Service is the strategy-vault valuator. The two vaults are read
// independently and each failure is downgraded to a zero contribution for
// that vault alone.
type Service struct {
	valuation.Base
}

// NewService creates the strategy-vault valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolStrategyVault, network, reader, logger),
	}
}

// GetHoldings sums the staked-token deposit components of both vaults. The
// underlying component is always zero for this protocol.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		account := common.HexToAddress(req.Account)

		var yieldDeposit, strategyDeposit *big.Int
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			amount, err := s.yieldVaultDeposit(ctx, reader, req.Block, account)
			if err != nil {
				s.Logger().Warn("yield vault read failed, contributing zero",
					"block", req.Block.String(), "error", err)
				return
			}
			yieldDeposit = amount
		}()
		go func() {
			defer wg.Done()
			amount, err := s.strategyVaultDeposit(ctx, reader, req.Block, account)
			if err != nil {
				s.Logger().Warn("strategy vault read failed, contributing zero",
					"block", req.Block.String(), "error", err)
				return
			}
			strategyDeposit = amount
		}()
		wg.Wait()

		total := new(big.Int)
		if yieldDeposit != nil {
			total.Add(total, yieldDeposit)
		}
		if strategyDeposit != nil {
			total.Add(total, strategyDeposit)
		}
		return entity.StakedOnly(total), nil
	})
}

// yieldVaultDeposit reads the account's share balance and converts it to
// the staked-asset amount through the vault's conversion entrypoint. The
// conversion depends on the balance, so the two calls are sequential.
func (s *Service) yieldVaultDeposit(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, account common.Address) (*big.Int, error) {
	vault := s.Network().YieldVault
	if !vault.IsQueryable(ref) {
		return new(big.Int), nil
	}

	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: vault.Address,
		Method:   "balanceOf",
		Args:     []any{account},
		Block:    ref,
	})
	if err != nil {
		return nil, fmt.Errorf("reading yield vault shares: %w", err)
	}
	shares, err := valuation.Uint256(out, 0)
	if err != nil {
		return nil, fmt.Errorf("decoding yield vault shares: %w", err)
	}
	if shares.Sign() == 0 {
		return new(big.Int), nil
	}

	out, err = reader.Call(ctx, outbound.CallRequest{
		Contract: vault.Address,
		Method:   "convertToAssets",
		Args:     []any{shares},
		Block:    ref,
	})
	if err != nil {
		return nil, fmt.Errorf("converting yield vault shares: %w", err)
	}
	return valuation.Uint256(out, 0)
}

// strategyVaultDeposit reads the vault's position description for the
// account and extracts the staked-token deposit component.
func (s *Service) strategyVaultDeposit(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, account common.Address) (*big.Int, error) {
	vault := s.Network().StrategyVault
	if !vault.IsQueryable(ref) {
		return new(big.Int), nil
	}

	out, err := reader.Call(ctx, outbound.CallRequest{
		Contract: vault.Address,
		Method:   "describePosition",
		Args:     []any{account},
		Block:    ref,
	})
	if err != nil {
		return nil, fmt.Errorf("reading strategy vault position: %w", err)
	}
	deposit, err := valuation.Uint256(out, 0)
	if err != nil {
		return nil, fmt.Errorf("decoding strategy vault position: %w", err)
	}
	return deposit, nil
}
