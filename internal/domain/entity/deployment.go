package entity

import "github.com/ethereum/go-ethereum/common"

// Deployment describes one contract deployment: the address and the block
// window in which that address is the authoritative source for its logical
// position. RetiredAt is nil for contracts that are still live.
type Deployment struct {
	Address    common.Address
	DeployedAt uint64
	RetiredAt  *uint64
}

// NewDeployment creates a live (non-retired) deployment descriptor.
func NewDeployment(address string, deployedAt uint64) Deployment {
	return Deployment{
		Address:    common.HexToAddress(address),
		DeployedAt: deployedAt,
	}
}

// NewRetiredDeployment creates a deployment retired at the given block in
// favour of a successor contract.
func NewRetiredDeployment(address string, deployedAt, retiredAt uint64) Deployment {
	return Deployment{
		Address:    common.HexToAddress(address),
		DeployedAt: deployedAt,
		RetiredAt:  &retiredAt,
	}
}

// IsQueryable decides whether this deployment should be read at the given
// point in history.
//
// A concrete block before DeployedAt is never queryable (the contract did
// not exist). A retired contract answers concrete historical queries inside
// its window but never answers "current" queries: current reads must always
// resolve to the latest successor, while historical replay stays exact.
func (d Deployment) IsQueryable(ref BlockRef) bool {
	if n, ok := ref.Number(); ok {
		if n < d.DeployedAt {
			return false
		}
		if d.RetiredAt != nil && n > *d.RetiredAt {
			return false
		}
		return true
	}
	// Current sentinels: only a non-retired deployment may answer.
	return d.RetiredAt == nil
}

// PickDeployment selects the deployment that is authoritative at ref from a
// succession of versions ordered oldest first. When several are nominally
// valid the newest wins. Returns false when no version is queryable.
func PickDeployment(ref BlockRef, versions ...Deployment) (Deployment, bool) {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsQueryable(ref) {
			return versions[i], true
		}
	}
	return Deployment{}, false
}
