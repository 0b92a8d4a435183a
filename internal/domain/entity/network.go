package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VaultVersions is a v1/v2 contract pair backing one logical vault slot.
// Either version may be nil when that slot never had it on the network.
type VaultVersions struct {
	V1 *Deployment
	V2 *Deployment
}

// Versions returns the succession ordered oldest first, skipping absent
// entries, in the shape PickDeployment expects.
func (v VaultVersions) Versions() []Deployment {
	out := make([]Deployment, 0, 2)
	if v.V1 != nil {
		out = append(out, *v.V1)
	}
	if v.V2 != nil {
		out = append(out, *v.V2)
	}
	return out
}

// CDPMarket is one (pool, debt-token) pair tracked against the CDP
// protocol's singleton contract.
type CDPMarket struct {
	PoolID    *big.Int
	DebtToken common.Address
}

// Network is the immutable per-network configuration: the tracked token
// pair and every protocol's contract table. Values are constructed once at
// startup and injected into valuators; nothing reads ambient globals.
type Network struct {
	Name    string
	ChainID int64

	// The tracked token pair.
	StakedToken     common.Address
	UnderlyingToken common.Address

	// Staking vault (LST).
	LSTVault Deployment

	// Lending markets: the five receipt tokens (supply, supply-collateral,
	// two interest-bearing debt variants, plain debt), each under its own
	// deployment window.
	LendingReceiptTokens []Deployment

	// Constant-product swap pool (pair contract doubles as the LP token).
	SwapPool               Deployment
	SwapPoolStakedIsToken0 bool

	// CDP trove manager.
	TroveManager Deployment

	// Concentrated-liquidity position reader and off-chain index endpoints.
	CLPositionReader Deployment
	SubgraphURL      string
	PositionsAPIURL  string

	// Strategy vaults.
	YieldVault    Deployment
	StrategyVault Deployment

	// CDP-with-vaults protocol: three logical vault slots plus the
	// singleton succession and the fixed market list.
	CDPVaultSlots  []VaultVersions
	CDPSingletonV1 *Deployment
	CDPSingletonV2 *Deployment
	CDPMarkets     []CDPMarket
}

// Supports reports whether this network carries the contract table for the
// given protocol.
func (n Network) Supports(p ProtocolID) bool {
	switch p {
	case ProtocolLSTVault:
		return n.LSTVault.Address != (common.Address{})
	case ProtocolCLPositions:
		return n.CLPositionReader.Address != (common.Address{})
	case ProtocolLendingMarkets:
		return len(n.LendingReceiptTokens) > 0
	case ProtocolSwapPool:
		return n.SwapPool.Address != (common.Address{})
	case ProtocolTroves:
		return n.TroveManager.Address != (common.Address{})
	case ProtocolStrategyVault:
		return n.YieldVault.Address != (common.Address{}) || n.StrategyVault.Address != (common.Address{})
	case ProtocolCDPVaults:
		return len(n.CDPVaultSlots) > 0 || n.CDPSingletonV1 != nil
	default:
		return false
	}
}

// SupportedProtocols returns the protocols this network carries, in
// canonical order.
func (n Network) SupportedProtocols() []ProtocolID {
	out := make([]ProtocolID, 0, len(AllProtocols()))
	for _, p := range AllProtocols() {
		if n.Supports(p) {
			out = append(out, p)
		}
	}
	return out
}

func deploymentPtr(d Deployment) *Deployment { return &d }

// Mainnet returns the mainnet contract tables.
func Mainnet() Network {
	return Network{
		Name:    "mainnet",
		ChainID: 1,

		StakedToken:     common.HexToAddress("0x4619e9ce41095902195263787050726be6338214"),
		UnderlyingToken: common.HexToAddress("0x049d36570d4e46f48e99674bd3fcc84644ddd6b9"),

		LSTVault: NewDeployment("0x28d709c875c0ceac3dce7065bec5328186dc89fe", 19120188),

		LendingReceiptTokens: []Deployment{
			NewDeployment("0x0a7c87b8e1e1f0c1e9cdb5c9ffbde9e9a3f0b27c", 19410021), // supply receipt
			NewDeployment("0x1b7b21b6798a4b0f4f6e7a8f3f0a9e28a1d3c4e5", 19410021), // supply receipt, collateral-flagged
			NewDeployment("0x2c8d32c78a5b1f5a506f8b904101b039b2e4d5f6", 19410021), // interest-bearing debt
			NewDeployment("0x3d9e43d89b6c206b617f9ca15212c14ac3f5e607", 19523710), // interest-bearing debt, migrated market
			NewDeployment("0x4eaf54e9ac7d317c728fadb26323d25bd406f718", 19523710), // plain debt
		},

		SwapPool:               NewDeployment("0x59c064fab9b8cbecbc8f6f0c49fde3a40f7d8829", 19264402),
		SwapPoolStakedIsToken0: true,

		TroveManager: NewDeployment("0x6ad175fbc9e0d55171b7a8601d54ae0a28e8f93a", 19688044),

		CLPositionReader: NewDeployment("0x7be286dcbadfabd9f0cbe9125f9cfb52b49f0a4b", 19333617),
		SubgraphURL:      "https://indexer.stakescope.xyz/graphql",
		PositionsAPIURL:  "https://positions.stakescope.xyz/api/v1",

		YieldVault:    NewDeployment("0x8cf397edccb0bcea03dea236610ad063caa10b5c", 19901230),
		StrategyVault: NewDeployment("0x9d0aa8fedd1cdcfb14efb3477211be174db21c6d", 20014551),

		CDPVaultSlots: []VaultVersions{
			{
				V1: deploymentPtr(NewRetiredDeployment("0xa1bb91ffee2dedfc25f0c4588322cf285ec32d7e", 19750000, 20215000)),
				V2: deploymentPtr(NewDeployment("0xb2cca200ff3eff0d36f1d5699433d0396fd43e8f", 20215000)),
			},
			{
				V1: deploymentPtr(NewRetiredDeployment("0xc3ddb311004f001e4702e67aa544e14a80e54f90", 19750000, 20215000)),
				V2: deploymentPtr(NewDeployment("0xd4eec42211500f2f58135788b655f25b91f660a1", 20215000)),
			},
			{
				// Third slot only ever existed as v2.
				V2: deploymentPtr(NewDeployment("0xe5ffd5332261104069246899c766036ca20771b2", 20215000)),
			},
		},
		CDPSingletonV1: deploymentPtr(NewRetiredDeployment("0xf600e64433720215713578aad877147db318882c", 19750000, 20215000)),
		CDPSingletonV2: deploymentPtr(NewDeployment("0x0711f75544832132682468abb988258ec42999d3", 20215000)),
		CDPMarkets: []CDPMarket{
			{PoolID: big.NewInt(1), DebtToken: common.HexToAddress("0x1822086655943243793579bcc999369fd53aaae4")},
			{PoolID: big.NewInt(2), DebtToken: common.HexToAddress("0x2933197766054354804680cdd000470ee64bbbf5")},
			{PoolID: big.NewInt(3), DebtToken: common.HexToAddress("0x3a44208877165465815791de111581ff75ccc006")},
		},
	}
}

// Sepolia returns the testnet contract tables. Only the staking vault, the
// lending markets and the swap pool are deployed there.
func Sepolia() Network {
	return Network{
		Name:    "sepolia",
		ChainID: 11155111,

		StakedToken:     common.HexToAddress("0x11aa22bb33cc44dd55ee66ff778899aabbccdde1"),
		UnderlyingToken: common.HexToAddress("0x22bb33cc44dd55ee66ff778899aabbccddeeff12"),

		LSTVault: NewDeployment("0x33cc44dd55ee66ff778899aabbccddeeff001123", 5113204),

		LendingReceiptTokens: []Deployment{
			NewDeployment("0x44dd55ee66ff778899aabbccddeeff0011223344", 5414220),
			NewDeployment("0x55ee66ff778899aabbccddeeff00112233445566", 5414220),
			NewDeployment("0x66ff778899aabbccddeeff001122334455667788", 5414220),
			NewDeployment("0x778899aabbccddeeff00112233445566778899aa", 5520110),
			NewDeployment("0x8899aabbccddeeff00112233445566778899aabb", 5520110),
		},

		SwapPool:               NewDeployment("0x99aabbccddeeff00112233445566778899aabbcc", 5230871),
		SwapPoolStakedIsToken0: false,
	}
}
