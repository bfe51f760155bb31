// Package engine orchestrates deposits: pre-flight checks, the external
// transfer, and the atomic accounting step that mints shares.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stellarvault/internal/domain"
	"github.com/vadiminshakov/stellarvault/internal/metrics"
	"github.com/vadiminshakov/stellarvault/internal/registry"
	"github.com/vadiminshakov/stellarvault/internal/services/ledger"
	"github.com/vadiminshakov/stellarvault/internal/storage/deposits"
	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
)

var (
	// ErrInvalidAmount is returned for a zero gross deposit.
	ErrInvalidAmount = errors.New("deposit amount must be greater than zero")
	// ErrInsufficientFunds is returned when the pre-flight balance check
	// fails, before any transfer is attempted.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransferFailed is returned when the external transfer did not
	// confirm. No ledger mutation has happened; the whole deposit is safe
	// to retry.
	ErrTransferFailed = errors.New("transfer failed")
)

// balanceReserve is kept untouched on the source account so the deposit never
// drains the fees and minimum balance the network requires.
const balanceReserve = fixedpoint.Unit

// DepositEngine runs the deposit sequence against one registry and one
// external ledger. Deposits into the same tier are serialized by the
// registry's per-vault lock; different tiers proceed in parallel.
type DepositEngine struct {
	registry *registry.VaultRegistry
	ledger   ledger.Ledger
	journal  *depositJournal
	events   *deposits.WALStore
	logger   *zap.Logger
}

// New builds a deposit engine. The journal WAL lives under walDir; events may
// be nil when no audit stream is wanted.
func New(reg *registry.VaultRegistry, led ledger.Ledger, walDir string, events *deposits.WALStore, logger *zap.Logger) (*DepositEngine, error) {
	journal, err := newDepositJournal(walDir)
	if err != nil {
		return nil, errors.Wrap(err, "open deposit journal")
	}

	return &DepositEngine{
		registry: reg,
		ledger:   led,
		journal:  journal,
		events:   events,
		logger:   logger,
	}, nil
}

// Close releases the journal WAL.
func (e *DepositEngine) Close() error {
	return e.journal.Close()
}

// ProcessDeposit moves gross stroops from the user to the vault custody
// address, skims the tier's insurance fee into the shared pool, allocates the
// net amount across the tier's strategies and credits the minted shares to
// the user's position. It returns the minted shares.
//
// intentID makes retries idempotent: replaying an id whose deposit already
// completed returns the recorded shares without touching the ledger again.
// Pass an empty id to mint a fresh one.
func (e *DepositEngine) ProcessDeposit(ctx context.Context, user string, risk domain.RiskLevel, gross uint64, intentID string) (uint64, error) {
	if gross == 0 {
		return 0, errors.Wrapf(ErrInvalidAmount, "risk level %s", risk)
	}
	if !e.registry.Has(risk) {
		return 0, errors.Wrapf(registry.ErrVaultNotFound, "risk level %s", risk)
	}

	if intentID == "" {
		intentID = uuid.New().String()
	} else if done, ok := e.journal.Completed(intentID); ok {
		e.logger.Info("deposit intent already completed, returning recorded shares",
			zap.String("intent_id", intentID),
			zap.Uint64("shares", done.Shares))
		return done.Shares, nil
	}

	intent, err := e.journal.Prepare(intentID, user, risk.String(), gross)
	if err != nil {
		return 0, errors.Wrap(err, "journal deposit intent")
	}

	// pre-flight: refuse before transferring if the balance cannot cover the
	// deposit plus reserve. A failed balance fetch is not fatal; the transfer
	// itself is the authority.
	balance, err := e.ledger.GetBalance(ctx, user)
	if err != nil {
		e.logger.Warn("balance pre-flight check unavailable",
			zap.String("user", user),
			zap.Error(err))
	} else if balance < gross+balanceReserve {
		failErr := errors.Wrapf(ErrInsufficientFunds, "balance %d stroops, need %d plus %d reserve", balance, gross, balanceReserve)
		if jerr := e.journal.MarkFailed(intent, failErr); jerr != nil {
			e.logger.Error("failed to journal deposit failure", zap.Error(jerr))
		}
		return 0, failErr
	}

	conf, err := e.ledger.Transfer(ctx, gross, intentID)
	if err != nil {
		failErr := errors.Wrapf(ErrTransferFailed, "risk level %s, amount %d stroops: %v", risk, gross, err)
		if jerr := e.journal.MarkFailed(intent, failErr); jerr != nil {
			e.logger.Error("failed to journal deposit failure", zap.Error(jerr))
		}
		return 0, failErr
	}

	// transfer confirmed: from here on the accounting must complete. The
	// whole price-read and mutation sequence holds the tier's lock.
	var (
		shares     uint64
		fee        uint64
		net        uint64
		price      uint64
		totalValue uint64
		totalShare uint64
	)
	err = e.registry.Update(risk, func(v *domain.Vault) error {
		f, err := fixedpoint.MulDiv(gross, uint64(v.InsuranceFeeBps), 10_000)
		if err != nil {
			return errors.Wrap(err, "compute insurance cut")
		}
		fee = f
		net = gross - fee

		price = v.SharePrice()
		s, err := v.AllocateDeposit(net)
		if err != nil {
			return err
		}
		shares = s
		totalValue = v.TotalValue
		totalShare = v.TotalShares
		return nil
	})
	if err != nil {
		// transfer confirmed but accounting refused; keep the intent pending
		// so the mismatch is visible in the journal
		return 0, errors.Wrapf(err, "allocate confirmed deposit %s", intentID)
	}

	pool := e.registry.AddToInsurancePool(fee)
	e.registry.AddShares(user, risk, shares)

	if err := e.journal.MarkDone(intent, shares, conf.TxHash); err != nil {
		e.logger.Error("failed to journal deposit completion", zap.Error(err))
	}

	if e.events != nil {
		event := deposits.Event{
			User:       user,
			RiskLevel:  risk.String(),
			Gross:      gross,
			Fee:        fee,
			Net:        net,
			Shares:     shares,
			SharePrice: price,
			TxHash:     conf.TxHash,
			Time:       time.Now().UTC(),
		}
		if err := e.events.Save(event); err != nil {
			e.logger.Error("failed to persist deposit event", zap.Error(err))
		}
	}

	metrics.ObserveDeposit(risk.String(), gross, fee)
	metrics.SetVaultState(risk.String(), price, totalValue, totalShare)
	metrics.SetInsurancePool(pool)

	e.logger.Info("deposit processed",
		zap.String("user", user),
		zap.String("risk_level", risk.String()),
		zap.Uint64("gross", gross),
		zap.Uint64("fee", fee),
		zap.Uint64("net", net),
		zap.Uint64("shares", shares),
		zap.Uint64("share_price", price),
		zap.String("tx_hash", conf.TxHash))

	return shares, nil
}
