package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatedLedgerTransfer(t *testing.T) {
	led := NewSimulatedLedger("user", "vault", 1_000)
	ctx := context.Background()

	conf, err := led.Transfer(ctx, 400, "memo")
	require.NoError(t, err)
	require.NotEmpty(t, conf.TxHash)

	userBalance, err := led.GetBalance(ctx, "user")
	require.NoError(t, err)
	require.Equal(t, uint64(600), userBalance)

	vaultBalance, err := led.GetBalance(ctx, "vault")
	require.NoError(t, err)
	require.Equal(t, uint64(400), vaultBalance)
}

func TestSimulatedLedgerInsufficientBalance(t *testing.T) {
	led := NewSimulatedLedger("user", "vault", 100)

	_, err := led.Transfer(context.Background(), 400, "memo")
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// nothing moved
	balance, err := led.GetBalance(context.Background(), "user")
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
}

func TestSimulatedLedgerCredit(t *testing.T) {
	led := NewSimulatedLedger("user", "vault", 0)
	led.Credit("user", 250)

	balance, err := led.GetBalance(context.Background(), "user")
	require.NoError(t, err)
	require.Equal(t, uint64(250), balance)
}
