package entity

import (
	"slices"
	"testing"
)

func TestMainnetSupportsEveryProtocol(t *testing.T) {
	network := Mainnet()
	for _, p := range AllProtocols() {
		if !network.Supports(p) {
			t.Errorf("mainnet should support %s", p)
		}
	}
	if got := network.SupportedProtocols(); !slices.Equal(got, AllProtocols()) {
		t.Errorf("SupportedProtocols() = %v, want canonical order %v", got, AllProtocols())
	}
}

func TestSepoliaSupportsPartialSet(t *testing.T) {
	network := Sepolia()
	want := []ProtocolID{ProtocolLSTVault, ProtocolLendingMarkets, ProtocolSwapPool}
	if got := network.SupportedProtocols(); !slices.Equal(got, want) {
		t.Errorf("SupportedProtocols() = %v, want %v", got, want)
	}
	for _, p := range []ProtocolID{ProtocolCLPositions, ProtocolTroves, ProtocolStrategyVault, ProtocolCDPVaults} {
		if network.Supports(p) {
			t.Errorf("sepolia should not support %s", p)
		}
	}
}

func TestVaultVersionsSkipsAbsentEntries(t *testing.T) {
	v2 := NewDeployment("0x0000000000000000000000000000000000000002", 200)
	slot := VaultVersions{V2: &v2}

	versions := slot.Versions()
	if len(versions) != 1 || versions[0].Address != v2.Address {
		t.Errorf("Versions() = %v, want just v2", versions)
	}

	if got := (VaultVersions{}).Versions(); len(got) != 0 {
		t.Errorf("empty slot Versions() = %v, want none", got)
	}
}

func TestProtocolInfoForReflectsNetworkSupport(t *testing.T) {
	info := ProtocolInfoFor(ProtocolTroves, Sepolia())
	if info.Active {
		t.Error("troves should be inactive on sepolia")
	}
	info = ProtocolInfoFor(ProtocolTroves, Mainnet())
	if !info.Active {
		t.Error("troves should be active on mainnet")
	}
	if info.ID != ProtocolTroves || info.DisplayName == "" {
		t.Errorf("unexpected catalog entry: %+v", info)
	}
}
