package domain

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
)

// ErrInvalidConfiguration is returned when a vault tier is misconfigured.
// It is fatal at startup: no vault with a broken strategy mix may exist.
var ErrInvalidConfiguration = errors.New("invalid vault configuration")

// Vault is a single risk tier: its strategies, running totals and fee rate.
// Callers must serialize mutating access per vault; the registry owns the lock.
type Vault struct {
	RiskLevel   RiskLevel
	TotalValue  uint64
	TotalShares uint64
	// InsuranceFeeBps is the per-deposit insurance fee in basis points,
	// fixed at construction. Always below 10000.
	InsuranceFeeBps uint16
	Strategies      []Strategy
}

// NewVault validates the tier configuration and returns a fresh vault.
func NewVault(risk RiskLevel, insuranceFeeBps uint16, strategies []Strategy) (*Vault, error) {
	if insuranceFeeBps >= 10_000 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "risk level %s: insurance fee %d bps must be below 10000", risk, insuranceFeeBps)
	}
	if len(strategies) == 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "risk level %s: at least one strategy required", risk)
	}
	var sum int
	for _, s := range strategies {
		sum += int(s.AllocationPercent)
	}
	if sum != 100 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "risk level %s: strategy allocations sum to %d, want 100", risk, sum)
	}

	owned := make([]Strategy, len(strategies))
	copy(owned, strategies)

	return &Vault{
		RiskLevel:       risk,
		InsuranceFeeBps: insuranceFeeBps,
		Strategies:      owned,
	}, nil
}

// SharePrice returns the stroop price of one share,
// total_value * Unit / total_shares. An empty vault prices at exactly Unit:
// the bootstrap price for the first depositor.
func (v *Vault) SharePrice() uint64 {
	if v.TotalShares == 0 {
		return fixedpoint.Unit
	}
	price, err := fixedpoint.MulDiv(v.TotalValue, fixedpoint.Unit, v.TotalShares)
	if err != nil {
		// value per share beyond 2^64 stroops; unreachable with real
		// deposits, saturate rather than price shares at garbage
		return math.MaxUint64
	}
	return price
}

// AllocateDeposit applies a net (post-fee) deposit to the vault: mints shares
// at the pre-deposit price, grows the totals and routes the net amount across
// strategies by their fixed percentages.
//
// Per-strategy allocations floor independently, so their sum may fall short of
// net by a few stroops per deposit. The remainder stays in TotalValue and is
// not routed to any strategy; Unallocated reports the drift.
func (v *Vault) AllocateDeposit(net uint64) (uint64, error) {
	if net == 0 {
		return 0, errors.New("net deposit amount must be greater than zero")
	}

	price := v.SharePrice()
	shares, err := fixedpoint.MulDiv(net, fixedpoint.Unit, price)
	if err != nil {
		return 0, errors.Wrapf(err, "mint shares for %d stroops at price %d", net, price)
	}

	v.TotalValue += net
	v.TotalShares += shares

	for i := range v.Strategies {
		alloc, err := fixedpoint.MulDiv(net, uint64(v.Strategies[i].AllocationPercent), 100)
		if err != nil {
			return 0, errors.Wrapf(err, "allocate %d stroops to %s", net, v.Strategies[i].Kind)
		}
		v.Strategies[i].TotalAllocated += alloc
	}

	return shares, nil
}

// Unallocated returns the rounding drift: stroops held in TotalValue but not
// attributed to any strategy.
func (v *Vault) Unallocated() uint64 {
	var allocated uint64
	for _, s := range v.Strategies {
		allocated += s.TotalAllocated
	}
	return v.TotalValue - allocated
}

// StrategySnapshot is a read-only copy of one strategy's state.
type StrategySnapshot struct {
	Kind              StrategyKind `json:"kind"`
	AllocationPercent uint8        `json:"allocation_percent"`
	APYBasisPoints    uint16       `json:"apy_bps"`
	TotalAllocated    uint64       `json:"total_allocated"`
	CurrentYield      uint64       `json:"current_yield"`
}

// VaultSnapshot is a read-only copy of a vault's state.
type VaultSnapshot struct {
	RiskLevel       RiskLevel          `json:"risk_level"`
	TotalValue      uint64             `json:"total_value"`
	TotalShares     uint64             `json:"total_shares"`
	SharePrice      uint64             `json:"share_price"`
	InsuranceFeeBps uint16             `json:"insurance_fee_bps"`
	Unallocated     uint64             `json:"unallocated"`
	Strategies      []StrategySnapshot `json:"strategies"`
}

// Snapshot copies the vault state for read-only consumers.
func (v *Vault) Snapshot() VaultSnapshot {
	strategies := make([]StrategySnapshot, len(v.Strategies))
	for i, s := range v.Strategies {
		strategies[i] = StrategySnapshot{
			Kind:              s.Kind,
			AllocationPercent: s.AllocationPercent,
			APYBasisPoints:    s.APYBasisPoints,
			TotalAllocated:    s.TotalAllocated,
			CurrentYield:      s.CurrentYield,
		}
	}
	return VaultSnapshot{
		RiskLevel:       v.RiskLevel,
		TotalValue:      v.TotalValue,
		TotalShares:     v.TotalShares,
		SharePrice:      v.SharePrice(),
		InsuranceFeeBps: v.InsuranceFeeBps,
		Unallocated:     v.Unallocated(),
		Strategies:      strategies,
	}
}
