package domain

import "fmt"

// PositionKey identifies one user's position in one tier.
type PositionKey struct {
	User      string
	RiskLevel RiskLevel
}

// String returns a human-readable representation.
func (k PositionKey) String() string {
	return fmt.Sprintf("%s@%s", k.User, k.RiskLevel)
}

// UserPosition tracks a user's share balance in a single tier. Positions are
// created lazily on first deposit and only ever grow in this core.
type UserPosition struct {
	Shares uint64 `json:"shares"`
	// AccumulatedYield is reserved for future accrual and stays zero.
	AccumulatedYield uint64 `json:"accumulated_yield"`
}
