package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
)

func lowTierStrategies() []Strategy {
	return []Strategy{
		{Kind: StrategyYieldBloxLending, AllocationPercent: 100, APYBasisPoints: 350},
	}
}

func mediumTierStrategies() []Strategy {
	return []Strategy{
		{Kind: StrategyAquaLiquidityPool, AllocationPercent: 60, APYBasisPoints: 850},
		{Kind: StrategyYieldBloxLending, AllocationPercent: 40, APYBasisPoints: 400},
	}
}

func TestNewVaultRejectsBadAllocations(t *testing.T) {
	_, err := NewVault(RiskLow, 50, []Strategy{
		{Kind: StrategyYieldBloxLending, AllocationPercent: 90},
	})
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewVault(RiskLow, 50, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewVault(RiskLow, 10_000, lowTierStrategies())
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSharePriceBootstrap(t *testing.T) {
	v, err := NewVault(RiskLow, 50, lowTierStrategies())
	require.NoError(t, err)

	// empty vault prices at exactly one unit
	require.Equal(t, fixedpoint.Unit, v.SharePrice())
	// pricing is idempotent without intervening deposits
	require.Equal(t, v.SharePrice(), v.SharePrice())
}

func TestAllocateDepositFirstDeposit(t *testing.T) {
	v, err := NewVault(RiskLow, 50, lowTierStrategies())
	require.NoError(t, err)

	shares, err := v.AllocateDeposit(995_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(995_000_000), shares)
	require.Equal(t, uint64(995_000_000), v.TotalValue)
	require.Equal(t, uint64(995_000_000), v.TotalShares)
	require.Equal(t, uint64(995_000_000), v.Strategies[0].TotalAllocated)
	require.Equal(t, uint64(0), v.Unallocated())
}

func TestAllocateDepositSplitsStrategies(t *testing.T) {
	v, err := NewVault(RiskMedium, 100, mediumTierStrategies())
	require.NoError(t, err)
	v.TotalValue = 2_000_000_000
	v.TotalShares = 2_000_000_000

	require.Equal(t, fixedpoint.Unit, v.SharePrice())

	shares, err := v.AllocateDeposit(99_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(99_000_000), shares)
	require.Equal(t, uint64(59_400_000), v.Strategies[0].TotalAllocated)
	require.Equal(t, uint64(39_600_000), v.Strategies[1].TotalAllocated)
	require.Equal(t, uint64(0), v.Unallocated())
}

func TestAllocateDepositRoundingDrift(t *testing.T) {
	v, err := NewVault(RiskHigh, 200, []Strategy{
		{Kind: StrategyMoneyMarket, AllocationPercent: 33},
		{Kind: StrategyAquaLiquidityPool, AllocationPercent: 33},
		{Kind: StrategyYieldBloxLending, AllocationPercent: 34},
	})
	require.NoError(t, err)

	_, err = v.AllocateDeposit(101)
	require.NoError(t, err)

	// each strategy floors independently; the stroop left over stays in
	// TotalValue without being routed anywhere
	require.Equal(t, uint64(33), v.Strategies[0].TotalAllocated)
	require.Equal(t, uint64(33), v.Strategies[1].TotalAllocated)
	require.Equal(t, uint64(34), v.Strategies[2].TotalAllocated)
	require.Equal(t, uint64(101), v.TotalValue)
	require.Equal(t, uint64(1), v.Unallocated())
}

func TestAllocateDepositFloorsSharesAboveUnitPrice(t *testing.T) {
	v, err := NewVault(RiskLow, 50, lowTierStrategies())
	require.NoError(t, err)
	// simulate accrued value: price = 1.5 units per share
	v.TotalValue = 3_000_000_000
	v.TotalShares = 2_000_000_000

	require.Equal(t, uint64(15_000_000), v.SharePrice())

	shares, err := v.AllocateDeposit(99_500_000)
	require.NoError(t, err)
	// exact entitlement is 66,333,333.33...; minted shares are the floor
	require.Equal(t, uint64(66_333_333), shares)
}

func TestAllocateDepositRejectsZero(t *testing.T) {
	v, err := NewVault(RiskLow, 50, lowTierStrategies())
	require.NoError(t, err)

	_, err = v.AllocateDeposit(0)
	require.Error(t, err)
}

func TestTotalsNonDecreasing(t *testing.T) {
	v, err := NewVault(RiskLow, 50, lowTierStrategies())
	require.NoError(t, err)

	var prevValue, prevShares uint64
	for _, amount := range []uint64{1, 999, 10_000_000, 123_456_789} {
		_, err := v.AllocateDeposit(amount)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v.TotalValue, prevValue)
		require.GreaterOrEqual(t, v.TotalShares, prevShares)
		prevValue = v.TotalValue
		prevShares = v.TotalShares
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	v, err := NewVault(RiskMedium, 100, mediumTierStrategies())
	require.NoError(t, err)
	_, err = v.AllocateDeposit(99_000_000)
	require.NoError(t, err)

	snapshot := v.Snapshot()
	require.Equal(t, RiskMedium, snapshot.RiskLevel)
	require.Equal(t, v.TotalValue, snapshot.TotalValue)
	require.Equal(t, v.TotalShares, snapshot.TotalShares)
	require.Equal(t, v.SharePrice(), snapshot.SharePrice)
	require.Len(t, snapshot.Strategies, 2)

	// mutating the snapshot must not touch the vault
	snapshot.Strategies[0].TotalAllocated = 0
	require.Equal(t, uint64(59_400_000), v.Strategies[0].TotalAllocated)
}
