package domain

import "github.com/pkg/errors"

// StrategyKind identifies the yield venue a strategy routes funds to.
// The set is closed: venues are fixed per tier at construction time.
type StrategyKind int

const (
	StrategyAquaLiquidityPool StrategyKind = iota
	StrategyYieldBloxLending
	StrategyMoneyMarket
)

const (
	strategyStringAquaLP    = "aqua_liquidity_pool"
	strategyStringYieldBlox = "yieldblox_lending"
	strategyStringMoneyMkt  = "money_market"
)

// String returns the string representation of the strategy kind.
func (k StrategyKind) String() string {
	switch k {
	case StrategyAquaLiquidityPool:
		return strategyStringAquaLP
	case StrategyYieldBloxLending:
		return strategyStringYieldBlox
	case StrategyMoneyMarket:
		return strategyStringMoneyMkt
	default:
		return "unknown"
	}
}

// MarshalJSON renders the strategy kind as its string form.
func (k StrategyKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// ParseStrategyKind parses a strategy kind from its string form.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch s {
	case strategyStringAquaLP:
		return StrategyAquaLiquidityPool, nil
	case strategyStringYieldBlox:
		return StrategyYieldBloxLending, nil
	case strategyStringMoneyMkt:
		return StrategyMoneyMarket, nil
	}
	return 0, errors.Errorf("unknown strategy kind %q", s)
}

// Strategy is a yield venue owned by exactly one vault. AllocationPercent
// values across a vault's strategies must sum to exactly 100.
type Strategy struct {
	Kind StrategyKind
	// AllocationPercent is the fixed share of net deposits routed here, 0-100.
	AllocationPercent uint8
	// APYBasisPoints is informational only; no time-based accrual is computed.
	APYBasisPoints uint16
	// TotalAllocated is the cumulative stroops routed to this venue.
	// Monotonically non-decreasing across deposits.
	TotalAllocated uint64
	// CurrentYield is reserved for future accrual and stays zero.
	CurrentYield uint64
}
