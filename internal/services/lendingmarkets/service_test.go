package lendingmarkets

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/testutil"
)

const testAccount = "0x1111111111111111111111111111111111111111"

func TestGetHoldingsSumsAllReceiptTokens(t *testing.T) {
	network := entity.Mainnet()
	perToken := map[common.Address]*big.Int{
		network.LendingReceiptTokens[0].Address: big.NewInt(100),
		network.LendingReceiptTokens[1].Address: big.NewInt(200),
		network.LendingReceiptTokens[2].Address: big.NewInt(0),
		network.LendingReceiptTokens[3].Address: big.NewInt(50),
		network.LendingReceiptTokens[4].Address: big.NewInt(7),
	}
	reader := &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			balance, ok := perToken[req.Contract]
			if !ok {
				return nil, errors.New("unexpected contract " + req.Contract.Hex())
			}
			return []any{balance}, nil
		},
	}
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	if resp.Holdings.Staked.Cmp(big.NewInt(357)) != 0 {
		t.Errorf("staked = %s, want 357", resp.Holdings.Staked)
	}
	if resp.Holdings.Underlying.Sign() != 0 {
		t.Errorf("underlying = %s, want 0", resp.Holdings.Underlying)
	}
	if reader.CallCount() != len(network.LendingReceiptTokens) {
		t.Errorf("calls = %d, want %d", reader.CallCount(), len(network.LendingReceiptTokens))
	}
}

func TestGetHoldingsSkipsUndeployedTokens(t *testing.T) {
	network := entity.Mainnet()
	// A block at which the first three receipt tokens exist but the two
	// later-deployed ones do not.
	block := entity.BlockNumber(network.LendingReceiptTokens[3].DeployedAt - 1)

	reader := &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			return []any{big.NewInt(10)}, nil
		},
	}
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount, Block: block})
	if !resp.Ok {
		t.Fatalf("unexpected failure: %s", resp.Err)
	}
	if resp.Holdings.Staked.Cmp(big.NewInt(30)) != 0 {
		t.Errorf("staked = %s, want 30", resp.Holdings.Staked)
	}
	if got := len(reader.CallsFor("balanceOf")); got != 3 {
		t.Errorf("balance reads = %d, want 3", got)
	}
}

func TestGetHoldingsFailedTokenContributesZero(t *testing.T) {
	network := entity.Mainnet()
	broken := network.LendingReceiptTokens[1].Address
	reader := &testutil.MockChainReader{
		CallFn: func(ctx context.Context, req outbound.CallRequest) ([]any, error) {
			if req.Contract == broken {
				return nil, errors.New("token read failed")
			}
			return []any{big.NewInt(5)}, nil
		},
	}
	s := NewService(network, reader, nil)

	resp := s.GetHoldings(context.Background(), entity.HoldingsRequest{Account: testAccount})
	if !resp.Ok {
		t.Fatalf("a single token failure must not fail the protocol: %s", resp.Err)
	}
	if resp.Holdings.Staked.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("staked = %s, want 20", resp.Holdings.Staked)
	}
}
