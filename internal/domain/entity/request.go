package entity

// HoldingsRequest is the caller's query: whose holdings, and at which point
// in chain history. Account must be a 0x-prefixed 20-byte hex address; it is
// validated by each valuator before any chain call is issued.
type HoldingsRequest struct {
	Account string
	Block   BlockRef
}

// HoldingsResponse is the discriminated per-protocol result. Protocol and
// ObservedAt are always populated regardless of outcome so callers can
// attribute and log failures per protocol.
type HoldingsResponse struct {
	Protocol   ProtocolID `json:"protocolId"`
	Ok         bool       `json:"ok"`
	Holdings   Holdings   `json:"holdings"`
	Err        string     `json:"errorMessage,omitempty"`
	ObservedAt int64      `json:"observedAtTimestamp"`
}

// MultiProtocolHoldings is the aggregated portfolio view. ByProtocol always
// contains every requested protocol; a protocol whose fetch failed maps to
// zero holdings and contributes nothing to Total.
type MultiProtocolHoldings struct {
	Total      Holdings                `json:"total"`
	ByProtocol map[ProtocolID]Holdings `json:"byProtocol"`
	Requested  []ProtocolID            `json:"requestedProtocols"`
}
