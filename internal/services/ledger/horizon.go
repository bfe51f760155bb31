package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"

	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
	"github.com/vadiminshakov/stellarvault/pkg/retrier"
)

// Stellar text memos carry at most 28 bytes.
const memoTextLimit = 28

const transferTimeoutSec = 300

// HorizonLedger submits native-asset payments through a Stellar Horizon
// server, signing with the depositor's key.
type HorizonLedger struct {
	client            *horizonclient.Client
	source            *keypair.Full
	destination       string
	networkPassphrase string
	// retry covers account reads only; payment submission is not idempotent
	// and is never retried here.
	retry *retrier.Retrier
}

// NewHorizonLedger validates the keys and builds a Horizon-backed ledger.
func NewHorizonLedger(horizonURL, sourceSeed, destination, networkPassphrase string) (*HorizonLedger, error) {
	kp, err := keypair.ParseFull(sourceSeed)
	if err != nil {
		return nil, errors.Wrap(err, "parse source secret seed")
	}
	if _, err := keypair.ParseAddress(destination); err != nil {
		return nil, errors.Wrapf(err, "parse vault custody address %q", destination)
	}

	return &HorizonLedger{
		client:            &horizonclient.Client{HorizonURL: horizonURL},
		source:            kp,
		destination:       destination,
		networkPassphrase: networkPassphrase,
		retry:             retrier.New(retrier.WithMaxRetries(3), retrier.WithInitialInterval(500*time.Millisecond)),
	}, nil
}

func (l *HorizonLedger) accountDetail(ctx context.Context, account string) (horizon.Account, error) {
	return retrier.DoWithData(l.retry, ctx, func(context.Context) (horizon.Account, error) {
		return l.client.AccountDetail(horizonclient.AccountRequest{AccountID: account})
	})
}

// SourceAddress returns the public key of the signing account.
func (l *HorizonLedger) SourceAddress() string {
	return l.source.Address()
}

// GetBalance returns the native balance of the account in stroops.
func (l *HorizonLedger) GetBalance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	detail, err := l.accountDetail(ctx, account)
	if err != nil {
		return 0, errors.Wrapf(err, "fetch account %s", account)
	}

	native, err := detail.GetNativeBalance()
	if err != nil {
		return 0, errors.Wrapf(err, "native balance of %s", account)
	}
	return fixedpoint.ParseAmount(native)
}

// Transfer submits a payment of amount stroops to the vault custody address
// and waits for Horizon to confirm it.
func (l *HorizonLedger) Transfer(ctx context.Context, amount uint64, memo string) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}

	sourceAccount, err := l.accountDetail(ctx, l.source.Address())
	if err != nil {
		return Confirmation{}, errors.Wrap(err, "fetch source account")
	}

	if len(memo) > memoTextLimit {
		memo = memo[:memoTextLimit]
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &sourceAccount,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: l.destination,
				Amount:      fixedpoint.FormatAmount(amount),
				Asset:       txnbuild.NativeAsset{},
			},
		},
		BaseFee:       txnbuild.MinBaseFee,
		Memo:          txnbuild.MemoText(memo),
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(transferTimeoutSec)},
	})
	if err != nil {
		return Confirmation{}, errors.Wrap(err, "build payment transaction")
	}

	signed, err := tx.Sign(l.networkPassphrase, l.source)
	if err != nil {
		return Confirmation{}, errors.Wrap(err, "sign payment transaction")
	}

	resp, err := l.client.SubmitTransaction(signed)
	if err != nil {
		return Confirmation{}, errors.Wrapf(err, "submit payment of %d stroops to %s", amount, l.destination)
	}

	return Confirmation{TxHash: resp.Hash, Ledger: resp.Ledger}, nil
}
