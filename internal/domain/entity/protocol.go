package entity

// ProtocolID identifies one of the supported DeFi protocols.
type ProtocolID string

const (
	ProtocolLSTVault       ProtocolID = "lst-vault"
	ProtocolCLPositions    ProtocolID = "cl-amm"
	ProtocolLendingMarkets ProtocolID = "lending-markets"
	ProtocolSwapPool       ProtocolID = "swap-pool"
	ProtocolTroves         ProtocolID = "troves"
	ProtocolStrategyVault  ProtocolID = "strategy-vault"
	ProtocolCDPVaults      ProtocolID = "cdp-vaults"
)

// AllProtocols returns the full protocol set in canonical order. This is the
// default subset for multi-protocol aggregation.
func AllProtocols() []ProtocolID {
	return []ProtocolID{
		ProtocolLSTVault,
		ProtocolCLPositions,
		ProtocolLendingMarkets,
		ProtocolSwapPool,
		ProtocolTroves,
		ProtocolStrategyVault,
		ProtocolCDPVaults,
	}
}

// ProtocolInfo is the catalog entry exposed to callers listing available
// protocols.
type ProtocolInfo struct {
	ID                ProtocolID `json:"id"`
	DisplayName       string     `json:"displayName"`
	Description       string     `json:"description"`
	Active            bool       `json:"isActive"`
	SupportedNetworks []string   `json:"supportedNetworks"`
}

type catalogEntry struct {
	displayName string
	description string
	networks    []string
}

var protocolCatalog = map[ProtocolID]catalogEntry{
	ProtocolLSTVault: {
		displayName: "Staking Vault",
		description: "Direct staked-token balance held in the liquid-staking vault",
		networks:    []string{"mainnet", "sepolia"},
	},
	ProtocolCLPositions: {
		displayName: "Concentrated Liquidity AMM",
		description: "Staked/underlying concentrated-liquidity positions including uncollected fees",
		networks:    []string{"mainnet"},
	},
	ProtocolLendingMarkets: {
		displayName: "Lending Markets",
		description: "Receipt-token balances across the paired lending markets",
		networks:    []string{"mainnet", "sepolia"},
	},
	ProtocolSwapPool: {
		displayName: "Swap Pool",
		description: "Pro-rata share of the staked/underlying constant-product pool",
		networks:    []string{"mainnet", "sepolia"},
	},
	ProtocolTroves: {
		displayName: "Trove CDP",
		description: "Staked-token collateral locked in collateralized-debt troves",
		networks:    []string{"mainnet"},
	},
	ProtocolStrategyVault: {
		displayName: "Strategy Vaults",
		description: "Staked-token deposits in the yield and AMM-strategy vaults",
		networks:    []string{"mainnet"},
	},
	ProtocolCDPVaults: {
		displayName: "CDP Vaults",
		description: "Vault shares and singleton-held collateral across the CDP lending pools",
		networks:    []string{"mainnet"},
	},
}

// ProtocolInfoFor builds the catalog entry for a protocol on the given
// network. Active reflects whether the network carries that protocol's
// contract table.
func ProtocolInfoFor(id ProtocolID, network Network) ProtocolInfo {
	entry := protocolCatalog[id]
	networks := make([]string, len(entry.networks))
	copy(networks, entry.networks)
	return ProtocolInfo{
		ID:                id,
		DisplayName:       entry.displayName,
		Description:       entry.description,
		Active:            network.Supports(id),
		SupportedNetworks: networks,
	}
}
