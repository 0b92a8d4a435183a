package cdpvaults

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/testutil"
)

const testAccount = "0x1111111111111111111111111111111111111111"

// cdpReader answers vault share, conversion and singleton position reads
// from fixed tables keyed by contract address.
func cdpReader(shares map[common.Address]int64, collateral map[int64]int64) *testutil.MockChainReader {
	return &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			switch req.Method {
			case "balanceOf":
				return []any{big.NewInt(shares[req.Contract])}, nil
			case "convertToAssets":
				in := req.Args[0].(*big.Int)
				return []any{new(big.Int).Mul(in, big.NewInt(3))}, nil
			case "getPosition":
				poolID := req.Args[0].(*big.Int).Int64()
				amount, ok := collateral[poolID]
				if !ok {
					return nil, fmt.Errorf("%w: pool %d", outbound.ErrUnknownPool, poolID)
				}
				return []any{big.NewInt(amount), big.NewInt(0)}, nil
			default:
				return nil, errors.New("unexpected method " + req.Method)
			}
		},
	}
}

func TestGetHoldingsCurrentReadsOnlyLiveVersions(t *testing.T) {
	network := entity.Mainnet()
	shares := map[common.Address]int64{
		network.CDPVaultSlots[0].V2.Address: 10,
		network.CDPVaultSlots[1].V2.Address: 0,
		network.CDPVaultSlots[2].V2.Address: 5,
	}
	reader := cdpReader(shares, map[int64]int64{1: 100, 2: 200, 3: 0})
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	// Vault shares (10 + 5) at 3:1 plus collateral 300.
	if resp.Holdings.Staked.Cmp(big.NewInt(345)) != 0 {
		t.Errorf("staked = %s, want 345", resp.Holdings.Staked)
	}
	if resp.Holdings.Underlying.Sign() != 0 {
		t.Errorf("underlying = %s, want 0", resp.Holdings.Underlying)
	}

	// Retired v1 contracts must not be touched by a current query.
	for _, call := range reader.Calls {
		if call.Contract == network.CDPVaultSlots[0].V1.Address ||
			call.Contract == network.CDPSingletonV1.Address {
			t.Errorf("current query read retired contract %s", call.Contract.Hex())
		}
	}
}

func TestGetHoldingsHistoricalReadsV1Window(t *testing.T) {
	network := entity.Mainnet()
	block := entity.BlockNumber(network.CDPVaultSlots[0].V2.DeployedAt - 1)
	shares := map[common.Address]int64{
		network.CDPVaultSlots[0].V1.Address: 4,
		network.CDPVaultSlots[1].V1.Address: 0,
	}
	reader := cdpReader(shares, map[int64]int64{1: 50})
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount, Block: block})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	// 4 v1 shares at 3:1 plus pool 1 collateral; pools 2 and 3 are unknown
	// and skipped.
	if resp.Holdings.Staked.Cmp(big.NewInt(62)) != 0 {
		t.Errorf("staked = %s, want 62", resp.Holdings.Staked)
	}

	// Inside the v1 window nothing may touch the v2 deployments.
	for _, call := range reader.Calls {
		if call.Contract == network.CDPVaultSlots[0].V2.Address ||
			call.Contract == network.CDPSingletonV2.Address {
			t.Errorf("historical query read v2 contract %s", call.Contract.Hex())
		}
	}
	// The singleton lookup must have gone through v1.
	if got := len(reader.CallsFor("getPosition")); got != len(network.CDPMarkets) {
		t.Errorf("getPosition calls = %d, want %d", got, len(network.CDPMarkets))
	}
}

func TestGetHoldingsMigrationBlockConvertsThroughNewest(t *testing.T) {
	network := entity.Mainnet()
	// At the migration block both versions of slot 0 are live.
	block := entity.BlockNumber(network.CDPVaultSlots[0].V2.DeployedAt)
	shares := map[common.Address]int64{
		network.CDPVaultSlots[0].V1.Address: 2,
		network.CDPVaultSlots[0].V2.Address: 3,
	}
	reader := cdpReader(shares, map[int64]int64{})
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount, Block: block})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	// Both versions' shares convert at 3:1.
	if resp.Holdings.Staked.Cmp(big.NewInt(15)) != 0 {
		t.Errorf("staked = %s, want 15", resp.Holdings.Staked)
	}

	// Conversion always goes through the newest live version.
	for _, call := range reader.CallsFor("convertToAssets") {
		if call.Contract != network.CDPVaultSlots[0].V2.Address {
			t.Errorf("conversion used %s, want the v2 contract", call.Contract.Hex())
		}
	}
}

func TestGetHoldingsUnknownPoolIsSkipped(t *testing.T) {
	network := entity.Mainnet()
	reader := cdpReader(map[common.Address]int64{}, map[int64]int64{2: 70})
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if !resp.Ok {
		t.Fatalf("unknown pools must be skipped, not fatal: %s", resp.Err)
	}
	if resp.Holdings.Staked.Cmp(big.NewInt(70)) != 0 {
		t.Errorf("staked = %s, want 70", resp.Holdings.Staked)
	}
}

func TestGetHoldingsOtherSingletonErrorFailsProtocol(t *testing.T) {
	network := entity.Mainnet()
	reader := &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			if req.Method == "getPosition" {
				return nil, errors.New("singleton read failed")
			}
			return []any{big.NewInt(0)}, nil
		},
	}
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if resp.Ok {
		t.Fatal("expected failure response")
	}
}

func TestGetHoldingsBeforeProtocolExists(t *testing.T) {
	network := entity.Mainnet()
	reader := &testutil.MockChainReader{}
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{
		Account: testAccount,
		Block:   entity.BlockNumber(network.CDPSingletonV1.DeployedAt - 1),
	})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	if !resp.Holdings.IsZero() || reader.CallCount() != 0 {
		t.Errorf("expected zero holdings and no calls, got %s after %d calls", resp.Holdings, reader.CallCount())
	}
}
