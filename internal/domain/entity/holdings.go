// Package entity contains the core domain value types for the holdings SDK.
// These types represent the fundamental business objects and have no external
// dependencies beyond go-ethereum's address type.
package entity

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Holdings is an ordered pair of non-negative token amounts: the staked
// (liquid-staking receipt) token and its underlying asset, each in the
// token's smallest indivisible unit. All arithmetic is integer arithmetic;
// amounts are never represented as floats.
type Holdings struct {
	Staked     *big.Int
	Underlying *big.Int
}

// ZeroHoldings returns the additive identity: both components zero.
func ZeroHoldings() Holdings {
	return Holdings{
		Staked:     new(big.Int),
		Underlying: new(big.Int),
	}
}

// NewHoldings creates Holdings from the given amounts. The inputs are copied;
// nil is treated as zero so both components are always present.
func NewHoldings(staked, underlying *big.Int) Holdings {
	h := ZeroHoldings()
	if staked != nil {
		h.Staked.Set(staked)
	}
	if underlying != nil {
		h.Underlying.Set(underlying)
	}
	return h
}

// StakedOnly creates Holdings with only a staked-token component.
func StakedOnly(staked *big.Int) Holdings {
	return NewHoldings(staked, nil)
}

// Add returns the component-wise sum of h and other. Addition is commutative
// and associative, so positions and protocol totals can be folded in any
// order. Neither operand is mutated.
func (h Holdings) Add(other Holdings) Holdings {
	sum := ZeroHoldings()
	if h.Staked != nil {
		sum.Staked.Add(sum.Staked, h.Staked)
	}
	if other.Staked != nil {
		sum.Staked.Add(sum.Staked, other.Staked)
	}
	if h.Underlying != nil {
		sum.Underlying.Add(sum.Underlying, h.Underlying)
	}
	if other.Underlying != nil {
		sum.Underlying.Add(sum.Underlying, other.Underlying)
	}
	return sum
}

// IsZero reports whether both components are zero (or unset).
func (h Holdings) IsZero() bool {
	return (h.Staked == nil || h.Staked.Sign() == 0) &&
		(h.Underlying == nil || h.Underlying.Sign() == 0)
}

// Equal reports component-wise equality, treating nil as zero.
func (h Holdings) Equal(other Holdings) bool {
	return amountOrZero(h.Staked).Cmp(amountOrZero(other.Staked)) == 0 &&
		amountOrZero(h.Underlying).Cmp(amountOrZero(other.Underlying)) == 0
}

func (h Holdings) String() string {
	return fmt.Sprintf("Holdings{staked=%s underlying=%s}",
		amountOrZero(h.Staked).String(), amountOrZero(h.Underlying).String())
}

type holdingsJSON struct {
	Staked     string `json:"stakedAmount"`
	Underlying string `json:"underlyingAmount"`
}

// MarshalJSON encodes both amounts as decimal strings so arbitrary-precision
// values survive transport through JSON number-agnostic consumers.
func (h Holdings) MarshalJSON() ([]byte, error) {
	return json.Marshal(holdingsJSON{
		Staked:     amountOrZero(h.Staked).String(),
		Underlying: amountOrZero(h.Underlying).String(),
	})
}

// UnmarshalJSON decodes decimal-string amounts. Missing fields default to
// zero; a component is never left nil.
func (h *Holdings) UnmarshalJSON(data []byte) error {
	var raw holdingsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	staked, err := parseAmount(raw.Staked)
	if err != nil {
		return fmt.Errorf("invalid stakedAmount: %w", err)
	}
	underlying, err := parseAmount(raw.Underlying)
	if err != nil {
		return fmt.Errorf("invalid underlyingAmount: %w", err)
	}
	h.Staked = staked
	h.Underlying = underlying
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %q", s)
	}
	return v, nil
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
