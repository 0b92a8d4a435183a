// Package lendingmarkets aggregates staked-token balances across the paired
// lending markets' receipt tokens.
package lendingmarkets

import (
	"context"
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

// Service is the dual lending-market valuator. Each of the five receipt
// tokens (supply, supply-collateral, two interest-bearing debt variants and
// the plain debt token) contributes its balance 1:1 to the staked component.
type Service struct {
	valuation.Base
}

// NewService creates the lending-markets valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolLendingMarkets, network, reader, logger),
	}
}

// GetHoldings sums the account's balances across all receipt tokens. The
// balance reads are independent and issued concurrently; a receipt token
// that is not yet deployed at the queried block, or whose read fails,
// contributes zero without aborting the others.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		tokens := s.Network().LendingReceiptTokens
		account := common.HexToAddress(req.Account)

		balances := make([]*big.Int, len(tokens))
		var wg sync.WaitGroup
		for i, token := range tokens {
			if !token.IsQueryable(req.Block) {
				continue
			}
			wg.Add(1)
			go func(i int, token entity.Deployment) {
				defer wg.Done()
				out, err := reader.Call(ctx, outbound.CallRequest{
					Contract: token.Address,
					Method:   "balanceOf",
					Args:     []any{account},
					Block:    req.Block,
				})
				if err != nil {
					s.Logger().Warn("receipt token balance read failed, contributing zero",
						"token", token.Address.Hex(),
						"block", req.Block.String(),
						"error", err)
					return
				}
				balance, err := valuation.Uint256(out, 0)
				if err != nil {
					s.Logger().Warn("receipt token balance decode failed, contributing zero",
						"token", token.Address.Hex(),
						"error", err)
					return
				}
				balances[i] = balance
			}(i, token)
		}
		wg.Wait()

		total := new(big.Int)
		for _, balance := range balances {
			if balance != nil {
				total.Add(total, balance)
			}
		}
		return entity.StakedOnly(total), nil
	})
}
