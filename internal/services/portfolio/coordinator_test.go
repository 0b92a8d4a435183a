package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/testutil"
)

// quietReader answers every valuator's reads with empty state, except for
// balanceOf reads against contracts listed in balances. It lets coordinator
// tests drive the full registry without per-protocol stubs.
func quietReader(balances map[common.Address]int64, faults map[common.Address]error) *testutil.MockChainReader {
	return &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			if err, ok := faults[req.Contract]; ok {
				if err == nil {
					panic("injected panic for " + req.Contract.Hex())
				}
				return nil, err
			}
			switch req.Method {
			case "balanceOf":
				return []any{big.NewInt(balances[req.Contract])}, nil
			case "totalSupply", "totalAssets":
				return []any{big.NewInt(0)}, nil
			case "convertToAssets":
				return []any{req.Args[0].(*big.Int)}, nil
			case "getReserves":
				return []any{big.NewInt(0), big.NewInt(0), uint32(0)}, nil
			case "getTroveIdsOf":
				return []any{[]*big.Int{}}, nil
			case "describePosition":
				return []any{big.NewInt(0), big.NewInt(0)}, nil
			case "getPosition":
				return nil, fmt.Errorf("%w", outbound.ErrUnknownPool)
			default:
				return nil, errors.New("unexpected method " + req.Method)
			}
		},
	}
}

func newCoordinator(t *testing.T, reader outbound.ChainReader) *Coordinator {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{
		Network:      entity.Mainnet(),
		ChainReader:  reader,
		IndexFactory: mockIndexFactory,
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	c, err := NewCoordinator(registry, CoordinatorConfig{RetryBackoff: time.Millisecond})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func TestGetMultiProtocolHoldingsCoversEveryProtocol(t *testing.T) {
	network := entity.Mainnet()
	reader := quietReader(map[common.Address]int64{
		network.LSTVault.Address:                1000,
		network.LendingReceiptTokens[0].Address: 200,
	}, nil)
	c := newCoordinator(t, reader)

	result, err := c.GetMultiProtocolHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if err != nil {
		t.Fatalf("GetMultiProtocolHoldings: %v", err)
	}

	if !slices.Equal(result.Requested, entity.AllProtocols()) {
		t.Errorf("Requested = %v, want all protocols", result.Requested)
	}
	if len(result.ByProtocol) != len(entity.AllProtocols()) {
		t.Errorf("ByProtocol has %d entries, want %d", len(result.ByProtocol), len(entity.AllProtocols()))
	}
	if result.Total.Staked.Cmp(big.NewInt(1200)) != 0 {
		t.Errorf("total staked = %s, want 1200", result.Total.Staked)
	}
	if got := result.ByProtocol[entity.ProtocolLSTVault]; got.Staked.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("lst-vault staked = %s, want 1000", got.Staked)
	}
	if got := result.ByProtocol[entity.ProtocolSwapPool]; !got.IsZero() {
		t.Errorf("swap-pool = %s, want zero", got)
	}
}

func TestGetMultiProtocolHoldingsSubset(t *testing.T) {
	network := entity.Mainnet()
	reader := quietReader(map[common.Address]int64{
		network.LSTVault.Address: 500,
	}, nil)
	c := newCoordinator(t, reader)

	result, err := c.GetMultiProtocolHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount},
		entity.ProtocolLSTVault, entity.ProtocolTroves)
	if err != nil {
		t.Fatalf("GetMultiProtocolHoldings: %v", err)
	}

	want := []entity.ProtocolID{entity.ProtocolLSTVault, entity.ProtocolTroves}
	if !slices.Equal(result.Requested, want) {
		t.Errorf("Requested = %v, want %v", result.Requested, want)
	}
	if len(result.ByProtocol) != 2 {
		t.Errorf("ByProtocol has %d entries, want 2", len(result.ByProtocol))
	}
	if result.Total.Staked.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("total staked = %s, want 500", result.Total.Staked)
	}
}

func TestGetMultiProtocolHoldingsRejectsUnknownProtocol(t *testing.T) {
	c := newCoordinator(t, quietReader(nil, nil))

	_, err := c.GetMultiProtocolHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount},
		entity.ProtocolLSTVault, entity.ProtocolID("no-such-protocol"))
	if err == nil {
		t.Fatal("expected error for unknown protocol id")
	}
}

func TestGetMultiProtocolHoldingsIsolatesFailures(t *testing.T) {
	network := entity.Mainnet()
	reader := quietReader(
		map[common.Address]int64{network.LSTVault.Address: 1000},
		map[common.Address]error{network.TroveManager.Address: errors.New("trove manager down")},
	)
	c := newCoordinator(t, reader)

	result, err := c.GetMultiProtocolHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if err != nil {
		t.Fatalf("GetMultiProtocolHoldings: %v", err)
	}

	// The failed protocol is present, contributes zero, and does not taint
	// the rest.
	if got := result.ByProtocol[entity.ProtocolTroves]; !got.IsZero() {
		t.Errorf("troves = %s, want zero", got)
	}
	if result.Total.Staked.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("total staked = %s, want 1000", result.Total.Staked)
	}
}

func TestGetMultiProtocolHoldingsSurvivesPanickingValuator(t *testing.T) {
	network := entity.Mainnet()
	reader := quietReader(
		map[common.Address]int64{network.LSTVault.Address: 77},
		map[common.Address]error{network.TroveManager.Address: nil},
	)
	c := newCoordinator(t, reader)

	result, err := c.GetMultiProtocolHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if err != nil {
		t.Fatalf("GetMultiProtocolHoldings: %v", err)
	}

	if got := result.ByProtocol[entity.ProtocolTroves]; !got.IsZero() {
		t.Errorf("panicking protocol = %s, want zero", got)
	}
	if result.Total.Staked.Cmp(big.NewInt(77)) != 0 {
		t.Errorf("total staked = %s, want 77", result.Total.Staked)
	}

	// The unexpected failure earns exactly one retry.
	if got := len(reader.CallsFor("getTroveIdsOf")); got != 2 {
		t.Errorf("trove list calls = %d, want 2 (initial + one retry)", got)
	}
}

func TestGetHoldingsSingleProtocol(t *testing.T) {
	network := entity.Mainnet()
	reader := quietReader(map[common.Address]int64{network.LSTVault.Address: 9}, nil)
	c := newCoordinator(t, reader)

	resp, err := c.GetHoldings(context.Background(), entity.ProtocolLSTVault, entity.HoldingsRequest{Account: testAccount})
	if err != nil {
		t.Fatalf("GetHoldings: %v", err)
	}
	if !resp.Ok || resp.Holdings.Staked.Cmp(big.NewInt(9)) != 0 {
		t.Errorf("response = %+v, want ok with staked 9", resp)
	}

	if _, err := c.GetHoldings(context.Background(), entity.ProtocolID("bogus"), entity.HoldingsRequest{Account: testAccount}); err == nil {
		t.Error("expected error for unknown protocol id")
	}
}

func TestProtocolsDelegatesToRegistry(t *testing.T) {
	c := newCoordinator(t, quietReader(nil, nil))
	if got := len(c.Protocols()); got != len(entity.AllProtocols()) {
		t.Errorf("Protocols() has %d entries, want %d", got, len(entity.AllProtocols()))
	}
}
