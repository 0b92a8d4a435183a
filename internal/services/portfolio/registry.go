// Package portfolio holds the protocol registry and the multi-protocol
// aggregation coordinator.
package portfolio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/inbound"
	"github.com/stakescope/holdings/internal/ports/outbound"
	"github.com/stakescope/holdings/internal/services/cdpvaults"
	"github.com/stakescope/holdings/internal/services/clpositions"
	"github.com/stakescope/holdings/internal/services/lendingmarkets"
	"github.com/stakescope/holdings/internal/services/lstvault"
	"github.com/stakescope/holdings/internal/services/strategyvault"
	"github.com/stakescope/holdings/internal/services/swappool"
	"github.com/stakescope/holdings/internal/services/troves"
)

// IndexFactory builds the position index for a network. The composition
// root supplies one so the registry can rebuild index-backed valuators when
// the active network changes.
type IndexFactory func(network entity.Network) (outbound.PositionIndex, error)

// RegistryConfig holds configuration for the protocol registry.
type RegistryConfig struct {
	// Network is the active network's contract tables.
	Network entity.Network

	// ChainReader is the blockchain read capability shared by all
	// valuators.
	ChainReader outbound.ChainReader

	// IndexFactory builds the concentrated-liquidity position index.
	// Required when the network supports that protocol.
	IndexFactory IndexFactory

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Registry maps protocol identifiers to their long-lived valuator
// instances. Reconfiguration (reader swap, network change) is guarded so
// in-flight lookups always observe a consistent instance set.
type Registry struct {
	logger       *slog.Logger
	indexFactory IndexFactory

	mu        sync.RWMutex
	network   entity.Network
	reader    outbound.ChainReader
	instances map[entity.ProtocolID]inbound.Valuator
	order     []entity.ProtocolID
}

// NewRegistry constructs one valuator per protocol the network supports.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.Network.Name == "" {
		return nil, errors.New("network is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		logger:       logger.With("component", "protocol-registry"),
		indexFactory: config.IndexFactory,
	}
	if err := r.rebuild(config.Network, config.ChainReader); err != nil {
		return nil, err
	}
	return r, nil
}

// Valuator looks up a single protocol's valuator, e.g. for auxiliary reads
// not exposed through the uniform holdings contract.
func (r *Registry) Valuator(id entity.ProtocolID) (inbound.Valuator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.instances[id]
	return v, ok
}

// ProtocolIDs returns the constructed protocols in canonical order.
func (r *Registry) ProtocolIDs() []entity.ProtocolID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.ProtocolID, len(r.order))
	copy(out, r.order)
	return out
}

// Protocols returns the full catalog, including protocols the active
// network does not carry (flagged inactive).
func (r *Registry) Protocols() []entity.ProtocolInfo {
	r.mu.RLock()
	network := r.network
	r.mu.RUnlock()

	infos := make([]entity.ProtocolInfo, 0, len(entity.AllProtocols()))
	for _, id := range entity.AllProtocols() {
		infos = append(infos, entity.ProtocolInfoFor(id, network))
	}
	return infos
}

// Network returns the active network configuration.
func (r *Registry) Network() entity.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.network
}

// SetChainReader swaps the chain reader on all valuator instances
// atomically, used when the caller rotates RPC endpoints.
func (r *Registry) SetChainReader(reader outbound.ChainReader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reader = reader
	for _, v := range r.instances {
		v.SetChainReader(reader)
	}
	r.logger.Info("chain reader swapped", "valuators", len(r.instances))
}

// UpdateNetwork discards all valuator instances and constructs fresh ones
// bound to the new network's contract tables.
func (r *Registry) UpdateNetwork(network entity.Network) error {
	r.mu.Lock()
	reader := r.reader
	r.mu.Unlock()

	if err := r.rebuild(network, reader); err != nil {
		return err
	}
	r.logger.Info("network updated", "network", network.Name)
	return nil
}

func (r *Registry) rebuild(network entity.Network, reader outbound.ChainReader) error {
	instances := make(map[entity.ProtocolID]inbound.Valuator)
	order := make([]entity.ProtocolID, 0, len(entity.AllProtocols()))

	for _, id := range network.SupportedProtocols() {
		v, err := r.construct(id, network, reader)
		if err != nil {
			return fmt.Errorf("constructing %s valuator: %w", id, err)
		}
		instances[id] = v
		order = append(order, id)
	}

	r.mu.Lock()
	r.network = network
	r.reader = reader
	r.instances = instances
	r.order = order
	r.mu.Unlock()
	return nil
}

func (r *Registry) construct(id entity.ProtocolID, network entity.Network, reader outbound.ChainReader) (inbound.Valuator, error) {
	switch id {
	case entity.ProtocolLSTVault:
		return lstvault.NewService(network, reader, r.logger), nil
	case entity.ProtocolCLPositions:
		if r.indexFactory == nil {
			return nil, errors.New("position index factory is required")
		}
		index, err := r.indexFactory(network)
		if err != nil {
			return nil, fmt.Errorf("building position index: %w", err)
		}
		return clpositions.NewService(network, reader, index, r.logger)
	case entity.ProtocolLendingMarkets:
		return lendingmarkets.NewService(network, reader, r.logger), nil
	case entity.ProtocolSwapPool:
		return swappool.NewService(network, reader, r.logger), nil
	case entity.ProtocolTroves:
		return troves.NewService(network, reader, r.logger), nil
	case entity.ProtocolStrategyVault:
		return strategyvault.NewService(network, reader, r.logger), nil
	case entity.ProtocolCDPVaults:
		return cdpvaults.NewService(network, reader, r.logger), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", id)
	}
}
