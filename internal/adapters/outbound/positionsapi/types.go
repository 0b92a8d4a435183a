package positionsapi

// positionsResponse is the REST endpoint's payload for an account.
type positionsResponse struct {
	Positions []positionRecord `json:"positions"`
}

// positionRecord mirrors one position as the public API serves it. Position
// identifiers are decimal strings.
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
