package entity

import "fmt"

// blockTag discriminates the point-in-history selector.
type blockTag int

const (
	tagFinalized blockTag = iota // latest finalized block
	tagPending                   // latest block including unconfirmed state
	tagNumber                    // a concrete historical block number
)

// BlockRef pins a read to a specific point in chain history: either a
// concrete block number or one of the two "current" sentinels. The zero
// value is the finalized sentinel.
type BlockRef struct {
	tag    blockTag
	number uint64
}

// FinalizedBlock returns the "latest finalized" sentinel.
func FinalizedBlock() BlockRef {
	return BlockRef{tag: tagFinalized}
}

// PendingBlock returns the "latest including unconfirmed" sentinel.
func PendingBlock() BlockRef {
	return BlockRef{tag: tagPending}
}

// BlockNumber returns a reference to a concrete historical block.
func BlockNumber(n uint64) BlockRef {
	return BlockRef{tag: tagNumber, number: n}
}

// Number returns the concrete block number and true, or false when the
// reference is one of the current sentinels.
func (r BlockRef) Number() (uint64, bool) {
	if r.tag == tagNumber {
		return r.number, true
	}
	return 0, false
}

// IsCurrent reports whether the reference is a "current" sentinel rather
// than a concrete historical block.
func (r BlockRef) IsCurrent() bool {
	return r.tag != tagNumber
}

// IsPending reports whether the reference includes unconfirmed state.
func (r BlockRef) IsPending() bool {
	return r.tag == tagPending
}

func (r BlockRef) String() string {
	switch r.tag {
	case tagPending:
		return "pending"
	case tagNumber:
		return fmt.Sprintf("%d", r.number)
	default:
		return "finalized"
	}
}
