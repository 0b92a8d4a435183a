package ethrpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// readerABI declares every read entrypoint the valuators issue, keyed by
// method name. Keeping one flat ABI lets the adapter resolve a CallRequest
// by method name alone; the contract address comes from the request.
const readerABI = `[
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalAssets","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"shares","type":"uint256"}],"name":"convertToAssets","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"owner","type":"address"}],"name":"getTroveIdsOf","outputs":[{"name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"troveId","type":"uint256"}],"name":"getTroveColl","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"positionId","type":"uint256"}],"name":"getPositionAmounts","outputs":[{"name":"amount0","type":"uint256"},{"name":"amount1","type":"uint256"},{"name":"fees0","type":"uint256"},{"name":"fees1","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"account","type":"address"}],"name":"describePosition","outputs":[{"name":"deposited","type":"uint256"},{"name":"shares","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"poolId","type":"uint256"},{"name":"collateralAsset","type":"address"},{"name":"debtAsset","type":"address"},{"name":"user","type":"address"}],"name":"getPosition","outputs":[{"name":"collateral","type":"uint256"},{"name":"debt","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

func parseReaderABI() (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(readerABI))
	if err != nil {
		return nil, fmt.Errorf("parsing reader ABI: %w", err)
	}
	return &parsed, nil
}
