// Package domain defines the core data structures of the vault accounting
// engine: risk tiers, yield strategies, vaults and user positions.
package domain

import "github.com/pkg/errors"

// RiskLevel identifies one of the fixed vault tiers.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

const (
	riskStringLow    = "low"
	riskStringMedium = "medium"
	riskStringHigh   = "high"
)

// RiskLevels returns all tiers in display order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return riskStringLow
	case RiskMedium:
		return riskStringMedium
	case RiskHigh:
		return riskStringHigh
	default:
		return "unknown"
	}
}

// MarshalJSON renders the risk level as its string form.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// ParseRiskLevel parses a risk level from its string form.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case riskStringLow:
		return RiskLow, nil
	case riskStringMedium:
		return RiskMedium, nil
	case riskStringHigh:
		return RiskHigh, nil
	}
	return 0, errors.Errorf("unknown risk level %q", s)
}
