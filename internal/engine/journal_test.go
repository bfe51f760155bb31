package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stellarvault/internal/domain"
	"github.com/vadiminshakov/stellarvault/internal/registry"
	"github.com/vadiminshakov/stellarvault/internal/services/ledger"
)

func TestJournalReplayAcrossRestart(t *testing.T) {
	walDir := tempWALDir(t)
	led := ledger.NewSimulatedLedger(testUser, testVault, 2_000_000_000)

	reg, err := registry.New(testTiers())
	require.NoError(t, err)
	eng, err := New(reg, led, walDir, nil, zap.NewNop())
	require.NoError(t, err)

	const intentID = "8a1f0a52-14b7-4c5e-a7b9-6a7d2c90e001"
	shares, err := eng.ProcessDeposit(context.Background(), testUser, domain.RiskLow, 1_000_000_000, intentID)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	balanceBefore, err := led.GetBalance(context.Background(), testUser)
	require.NoError(t, err)

	// a fresh engine over the same journal must recognize the completed
	// intent and answer the retry from the WAL
	reg2, err := registry.New(testTiers())
	require.NoError(t, err)
	eng2, err := New(reg2, led, walDir, nil, zap.NewNop())
	require.NoError(t, err)
	defer eng2.Close()

	retried, err := eng2.ProcessDeposit(context.Background(), testUser, domain.RiskLow, 1_000_000_000, intentID)
	require.NoError(t, err)
	require.Equal(t, shares, retried)

	balanceAfter, err := led.GetBalance(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, balanceBefore, balanceAfter)

	// the replayed intent minted nothing into the fresh registry
	snapshot, err := reg2.Snapshot(domain.RiskLow)
	require.NoError(t, err)
	require.Equal(t, uint64(0), snapshot.TotalShares)
}

func TestJournalFailedIntentIsRetryable(t *testing.T) {
	walDir := tempWALDir(t)
	reg, err := registry.New(testTiers())
	require.NoError(t, err)
	eng, err := New(reg, &failingLedger{balance: 2_000_000_000}, walDir, nil, zap.NewNop())
	require.NoError(t, err)

	const intentID = "2c9e7d14-3b6a-45f8-9d01-b4c5d6e7f002"
	_, err = eng.ProcessDeposit(context.Background(), testUser, domain.RiskLow, 1_000_000_000, intentID)
	require.ErrorIs(t, err, ErrTransferFailed)
	require.NoError(t, eng.Close())

	// failed intents do not block a retry with a now-working ledger
	led := ledger.NewSimulatedLedger(testUser, testVault, 2_000_000_000)
	reg2, err := registry.New(testTiers())
	require.NoError(t, err)
	eng2, err := New(reg2, led, walDir, nil, zap.NewNop())
	require.NoError(t, err)
	defer eng2.Close()

	shares, err := eng2.ProcessDeposit(context.Background(), testUser, domain.RiskLow, 1_000_000_000, intentID)
	require.NoError(t, err)
	require.Equal(t, uint64(995_000_000), shares)
}
