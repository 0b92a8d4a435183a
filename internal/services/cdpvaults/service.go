// Package cdpvaults values the CDP protocol's vault shares and
// singleton-held collateral across its lending pools.
package cdpvaults

import (
	"context"
	"errors"
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

// Service is the CDP-with-vaults valuator. Each logical vault slot is
// backed by a v1/v2 contract pair under independent deployment windows; the
// protocol singleton went through the same v1-to-v2 succession.
type Service struct {
	valuation.Base
}

// NewService creates the CDP-vaults valuator for the given network.
func NewService(network entity.Network, reader outbound.ChainReader, logger *slog.Logger) *Service {
	return &Service{
		Base: valuation.NewBase(entity.ProtocolCDPVaults, network, reader, logger),
	}
}

// GetHoldings sums the staked-asset value of the account's vault shares and
// the collateral the singleton holds for it across the fixed market list.
// The two halves have no data dependency and run concurrently. The
// underlying component is always zero for this protocol.
func (s *Service) GetHoldings(ctx context.Context, req entity.HoldingsRequest) entity.HoldingsResponse {
	return s.Evaluate(ctx, req, func(ctx context.Context, reader outbound.ChainReader, req entity.HoldingsRequest) (entity.Holdings, error) {
		account := common.HexToAddress(req.Account)

		var vaultTotal, collateralTotal *big.Int
		var vaultErr, collateralErr error
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			vaultTotal, vaultErr = s.vaultShareValue(ctx, reader, req.Block, account)
		}()
		go func() {
			defer wg.Done()
			collateralTotal, collateralErr = s.singletonCollateral(ctx, reader, req.Block, account)
		}()
		wg.Wait()

		if vaultErr != nil {
			return entity.Holdings{}, fmt.Errorf("valuing vault shares: %w", vaultErr)
		}
		if collateralErr != nil {
			return entity.Holdings{}, fmt.Errorf("reading singleton collateral: %w", collateralErr)
		}

		return entity.StakedOnly(new(big.Int).Add(vaultTotal, collateralTotal)), nil
	})
}

// vaultShareValue walks the three vault slots. For each slot it reads the
// share balance from every version live at ref and converts shares to the
// underlying asset amount. When both versions are live the newer contract
// performs the conversion: post-migration the conversion semantics only
// live on v2.
func (s *Service) vaultShareValue(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, account common.Address) (*big.Int, error) {
	total := new(big.Int)
	for slot, versions := range s.Network().CDPVaultSlots {
		live := liveVersions(ref, versions)
		if len(live) == 0 {
			continue
		}
		converter := live[len(live)-1].Address

		for _, vault := range live {
			out, err := reader.Call(ctx, outbound.CallRequest{
				Contract: vault.Address,
				Method:   "balanceOf",
				Args:     []any{account},
				Block:    ref,
			})
			if err != nil {
				return nil, fmt.Errorf("slot %d vault %s shares: %w", slot, vault.Address.Hex(), err)
			}
			shares, err := valuation.Uint256(out, 0)
			if err != nil {
				return nil, fmt.Errorf("slot %d vault %s shares: %w", slot, vault.Address.Hex(), err)
			}
			if shares.Sign() == 0 {
				continue
			}

			out, err = reader.Call(ctx, outbound.CallRequest{
				Contract: converter,
				Method:   "convertToAssets",
				Args:     []any{shares},
				Block:    ref,
			})
			if err != nil {
				return nil, fmt.Errorf("slot %d converting shares: %w", slot, err)
			}
			assets, err := valuation.Uint256(out, 0)
			if err != nil {
				return nil, fmt.Errorf("slot %d converting shares: %w", slot, err)
			}
			total.Add(total, assets)
		}
	}
	return total, nil
}

// singletonCollateral resolves the live singleton (v1/v2 succession, same
// policy as the deployment gate) and looks the account up in each tracked
// (pool, debt-token) market. An unknown-pool response means that market
// does not track the account yet and is skipped; any other error aborts.
func (s *Service) singletonCollateral(ctx context.Context, reader outbound.ChainReader, ref entity.BlockRef, account common.Address) (*big.Int, error) {
	network := s.Network()
	singleton, ok := entity.PickDeployment(ref, singletonVersions(network)...)
	if !ok {
		return new(big.Int), nil
	}

	total := new(big.Int)
	for _, market := range network.CDPMarkets {
		out, err := reader.Call(ctx, outbound.CallRequest{
			Contract: singleton.Address,
			Method:   "getPosition",
			Args:     []any{market.PoolID, network.StakedToken, market.DebtToken, account},
			Block:    ref,
		})
		if errors.Is(err, outbound.ErrUnknownPool) {
			s.Logger().Debug("pool does not track account yet, skipping",
				"pool", market.PoolID, "debtToken", market.DebtToken.Hex())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pool %s position: %w", market.PoolID, err)
		}
		collateral, err := valuation.Uint256(out, 0)
		if err != nil {
			return nil, fmt.Errorf("pool %s position: %w", market.PoolID, err)
		}
		total.Add(total, collateral)
	}
	return total, nil
}

// liveVersions returns the slot's versions queryable at ref, oldest first.
func liveVersions(ref entity.BlockRef, versions entity.VaultVersions) []entity.Deployment {
	live := make([]entity.Deployment, 0, 2)
	for _, v := range versions.Versions() {
		if v.IsQueryable(ref) {
			live = append(live, v)
		}
	}
	return live
}

func singletonVersions(network entity.Network) []entity.Deployment {
	versions := make([]entity.Deployment, 0, 2)
	if network.CDPSingletonV1 != nil {
		versions = append(versions, *network.CDPSingletonV1)
	}
	if network.CDPSingletonV2 != nil {
		versions = append(versions, *network.CDPSingletonV2)
	}
	return versions
}
