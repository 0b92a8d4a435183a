package positionsapi

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakescope/holdings/internal/ports/outbound"
)

var (
	stakedToken     = common.HexToAddress("0x4619e9ce41095902195263787050726be6338214")
	underlyingToken = common.HexToAddress("0x049d36570d4e46f48e99674bd3fcc84644ddd6b9")
	foreignToken    = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

const accountPath = "/positions/0xaaaa567890123456789012345678901234567890"

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL:         url,
		Token0:          stakedToken,
		Token1:          underlyingToken,
		MaxRetries:      1,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      time.Millisecond,
		RateLimitPerMin: 600_000,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("expected error for missing BaseURL")
	}
}

func TestPositionsFiltersToTrackedPair(t *testing.T) {
	var seenPath, seenQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		seenQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"positions":[
			{"positionId":"1","token0":"0x4619e9ce41095902195263787050726be6338214","token1":"0x049d36570d4e46f48e99674bd3fcc84644ddd6b9","feeTier":3000,"tickSpacing":60,"extension":"0x0000000000000000000000000000000000000000","lowerTick":-100,"upperTick":100},
			{"positionId":"2","token0":"0x049d36570d4e46f48e99674bd3fcc84644ddd6b9","token1":"0x4619e9ce41095902195263787050726be6338214","feeTier":500,"tickSpacing":10,"extension":"0x0000000000000000000000000000000000000000","lowerTick":0,"upperTick":50},
			{"positionId":"3","token0":"0x9999999999999999999999999999999999999999","token1":"0x049d36570d4e46f48e99674bd3fcc84644ddd6b9","feeTier":3000,"tickSpacing":60,"extension":"0x0000000000000000000000000000000000000000","lowerTick":0,"upperTick":10}
		]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	positions, err := c.Positions(context.Background(), outbound.PositionQuery{
		Owner:         "0xAAAA567890123456789012345678901234567890",
		IncludeClosed: true,
	})
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}

	if seenPath != accountPath {
		t.Errorf("path = %q, want %q", seenPath, accountPath)
	}
	if seenQuery != "showClosed=true" {
		t.Errorf("query = %q, want showClosed=true", seenQuery)
	}

	// The pair filter keeps both token orders and drops the foreign pool.
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}
	if positions[0].ID.Cmp(big.NewInt(1)) != 0 || positions[1].ID.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("ids = %s, %s, want 1, 2", positions[0].ID, positions[1].ID)
	}
	for _, p := range positions {
		if p.Token0 == foreignToken || p.Token1 == foreignToken {
			t.Errorf("foreign pair leaked through the filter: %+v", p)
		}
	}
}

func TestPositionsOmitsClosedFlagByDefault(t *testing.T) {
	var seenQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"positions":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	if _, err := c.Positions(context.Background(), outbound.PositionQuery{Owner: "0xaaaa567890123456789012345678901234567890"}); err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if seenQuery != "" {
		t.Errorf("query = %q, want empty", seenQuery)
	}
}

func TestPositionsRetriesServerErrors(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"positions":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	if _, err := c.Positions(context.Background(), outbound.PositionQuery{Owner: "0xaaaa567890123456789012345678901234567890"}); err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestPositionsClientErrorIsNotRetried(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	if _, err := c.Positions(context.Background(), outbound.PositionQuery{Owner: "0xaaaa567890123456789012345678901234567890"}); err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no retry)", requests)
	}
}
