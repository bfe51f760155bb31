// Package ledger abstracts the external payment network the vault custody
// account lives on. The core treats it as an opaque, fallible, possibly slow
// capability: check a balance, move the asset, nothing more.
package ledger

import "context"

// Confirmation identifies a confirmed transfer on the network.
type Confirmation struct {
	TxHash string
	Ledger int32
}

// Ledger moves the underlying asset between the depositor and the vault
// custody address. Amounts are stroops.
type Ledger interface {
	// GetBalance returns the spendable balance of an account.
	GetBalance(ctx context.Context, account string) (uint64, error)
	// Transfer moves amount from the configured source to the vault custody
	// address. It returns only after the transfer is confirmed; callers must
	// not mutate ledger-dependent state before it succeeds.
	Transfer(ctx context.Context, amount uint64, memo string) (Confirmation, error)
}
