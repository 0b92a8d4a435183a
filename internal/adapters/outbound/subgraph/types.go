package subgraph

import "encoding/json"

// graphQLRequest is the standard GraphQL POST body.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the standard GraphQL response envelope.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// positionsResponse is the data payload of the positions query.
type positionsResponse struct {
	Positions []positionRecord `json:"positions"`
}

// positionRecord mirrors one indexed position. Numeric identifiers come back
// as decimal strings from the indexer's BigInt scalar.
type positionRecord struct {
	PositionID  string `json:"positionId"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	FeeTier     uint32 `json:"feeTier"`
	TickSpacing int32  `json:"tickSpacing"`
	Extension   string `json:"extension"`
	LowerTick   int32  `json:"lowerTick"`
	UpperTick   int32  `json:"upperTick"`
}
