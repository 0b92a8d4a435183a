package entity

import "testing"

func TestBlockRefZeroValueIsFinalized(t *testing.T) {
	var ref BlockRef
	if !ref.IsCurrent() {
		t.Error("zero value should be a current sentinel")
	}
	if ref.IsPending() {
		t.Error("zero value should not be pending")
	}
	if ref.String() != "finalized" {
		t.Errorf("String() = %q, want %q", ref.String(), "finalized")
	}
}

func TestBlockRefVariants(t *testing.T) {
	tests := []struct {
		name      string
		ref       BlockRef
		wantNum   uint64
		hasNum    bool
		isCurrent bool
		isPending bool
		str       string
	}{
		{"finalized", FinalizedBlock(), 0, false, true, false, "finalized"},
		{"pending", PendingBlock(), 0, false, true, true, "pending"},
		{"number", BlockNumber(19_500_000), 19_500_000, true, false, false, "19500000"},
		{"genesis", BlockNumber(0), 0, true, false, false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := tt.ref.Number()
			if ok != tt.hasNum || n != tt.wantNum {
				t.Errorf("Number() = (%d, %v), want (%d, %v)", n, ok, tt.wantNum, tt.hasNum)
			}
			if got := tt.ref.IsCurrent(); got != tt.isCurrent {
				t.Errorf("IsCurrent() = %v, want %v", got, tt.isCurrent)
			}
			if got := tt.ref.IsPending(); got != tt.isPending {
				t.Errorf("IsPending() = %v, want %v", got, tt.isPending)
			}
			if got := tt.ref.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}
