package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ErrInsufficientBalance is returned when the simulated source account cannot
// cover a transfer.
var ErrInsufficientBalance = errors.New("insufficient balance")

// SimulatedLedger is an in-memory ledger for dry runs and tests. Transfers
// move stroops between accounts instantly; confirmations carry a synthetic
// transaction hash.
type SimulatedLedger struct {
	mu          sync.Mutex
	balances    map[string]uint64
	source      string
	destination string
	seq         int32
}

// NewSimulatedLedger builds a simulated ledger with the source account funded
// at initialBalance stroops.
func NewSimulatedLedger(source, destination string, initialBalance uint64) *SimulatedLedger {
	return &SimulatedLedger{
		balances:    map[string]uint64{source: initialBalance},
		source:      source,
		destination: destination,
	}
}

// GetBalance returns the account balance in stroops.
func (l *SimulatedLedger) GetBalance(_ context.Context, account string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

// Credit adds stroops to an account.
func (l *SimulatedLedger) Credit(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Transfer moves amount from the source to the destination account.
func (l *SimulatedLedger) Transfer(_ context.Context, amount uint64, _ string) (Confirmation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[l.source] < amount {
		return Confirmation{}, errors.Wrapf(ErrInsufficientBalance, "account %s holds %d stroops, need %d", l.source, l.balances[l.source], amount)
	}

	l.balances[l.source] -= amount
	l.balances[l.destination] += amount
	l.seq++

	return Confirmation{
		TxHash: fmt.Sprintf("sim-%08d", l.seq),
		Ledger: l.seq,
	}, nil
}
