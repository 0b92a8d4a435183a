// Package testutil provides shared mock implementations of the outbound
// ports for service and coordinator tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

// MockChainReader implements outbound.ChainReader with configurable
// function fields. Calls are counted and recorded so tests can assert on
// exactly which contract reads a valuator issued.
type MockChainReader struct {
	mu sync.Mutex

	// CallFn handles contract calls. Defaults to an error when nil.
	CallFn func(ctx context.Context, req outbound.CallRequest) ([]any, error)

	// HeaderFn handles block header lookups. Defaults to a fixed header
	// when nil.
	HeaderFn func(ctx context.Context, ref entity.BlockRef) (outbound.BlockHeader, error)

	// Calls records every contract call in order.
	Calls []outbound.CallRequest
}

// Call dispatches to CallFn and records the request.
func (m *MockChainReader) Call(ctx context.Context, req outbound.CallRequest) ([]any, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.CallFn == nil {
		return nil, errors.New("mock: CallFn not set")
	}
	return m.CallFn(ctx, req)
}

// HeaderByRef dispatches to HeaderFn.
func (m *MockChainReader) HeaderByRef(ctx context.Context, ref entity.BlockRef) (outbound.BlockHeader, error) {
	if m.HeaderFn == nil {
		return outbound.BlockHeader{Number: 1_000_000, Timestamp: 1_700_000_000, Hash: "0xabc"}, nil
	}
	return m.HeaderFn(ctx, ref)
}

// CallCount returns the number of contract calls made so far.
func (m *MockChainReader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsFor returns the recorded calls for one contract method.
func (m *MockChainReader) CallsFor(method string) []outbound.CallRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbound.CallRequest
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// MockPositionIndex implements outbound.PositionIndex with a configurable
// function field.
type MockPositionIndex struct {
	// PositionsFn handles position queries. Defaults to an empty result
	// when nil.
	PositionsFn func(ctx context.Context, query outbound.PositionQuery) ([]outbound.PositionDescriptor, error)
}

// Positions dispatches to PositionsFn.
func (m *MockPositionIndex) Positions(ctx context.Context, query outbound.PositionQuery) ([]outbound.PositionDescriptor, error) {
	if m.PositionsFn == nil {
		return nil, nil
	}
	return m.PositionsFn(ctx, query)
}
