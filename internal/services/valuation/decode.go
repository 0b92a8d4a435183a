package valuation

import (
	"fmt"
	"math/big"
)

// Uint256 extracts the idx-th decoded output as a big integer.
func Uint256(out []any, idx int) (*big.Int, error) {
	if idx >= len(out) {
		return nil, fmt.Errorf("call returned %d values, want at least %d", len(out), idx+1)
	}
	v, ok := out[idx].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, want *big.Int", idx, out[idx])
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// Uint256Slice extracts the idx-th decoded output as a slice of big
// integers.
func Uint256Slice(out []any, idx int) ([]*big.Int, error) {
	if idx >= len(out) {
		return nil, fmt.Errorf("call returned %d values, want at least %d", len(out), idx+1)
	}
	v, ok := out[idx].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, want []*big.Int", idx, out[idx])
	}
	return v, nil
}
