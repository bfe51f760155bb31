package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	depositIntentKeyPrefix     = "deposit_intent_"
	depositIntentStatusPending = "pending"
	depositIntentStatusDone    = "done"
	depositIntentStatusFailed  = "failed"

	journalSegmentLimit = 1000
	journalMaxSegments  = 100
)

// depositIntentRecord journals one deposit attempt. An intent is written as
// pending before the transfer is submitted and marked done only after the
// ledger mutation completes, so a retried confirmation can be answered from
// the journal instead of minting twice.
type depositIntentRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	User      string    `json:"user"`
	RiskLevel string    `json:"risk_level"`
	Gross     uint64    `json:"gross"`
	Shares    uint64    `json:"shares,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Time      time.Time `json:"time"`
	Error     string    `json:"error,omitempty"`
}

type depositJournal struct {
	mu    sync.Mutex
	wal   *gowal.Wal
	index map[string]*depositIntentRecord
}

// newDepositJournal opens the journal WAL and replays it, keeping the last
// written state of every intent id.
func newDepositJournal(dir string) (*depositJournal, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "intent_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init deposit journal WAL")
	}

	j := &depositJournal{
		wal:   wal,
		index: make(map[string]*depositIntentRecord),
	}

	for idx := uint64(1); idx <= wal.CurrentIndex(); idx++ {
		key, payload, err := wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, depositIntentKeyPrefix) {
			continue
		}
		var rec depositIntentRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decode deposit intent")
		}
		j.index[rec.ID] = &rec
	}

	return j, nil
}

// Prepare journals a pending intent before any external call is made.
func (j *depositJournal) Prepare(id, user, riskLevel string, gross uint64) (*depositIntentRecord, error) {
	intent := &depositIntentRecord{
		ID:        id,
		Status:    depositIntentStatusPending,
		User:      user,
		RiskLevel: riskLevel,
		Gross:     gross,
		Time:      time.Now().UTC(),
	}

	if err := j.persist(intent); err != nil {
		return nil, err
	}

	j.mu.Lock()
	j.index[intent.ID] = intent
	j.mu.Unlock()
	return intent, nil
}

// Completed returns the record for an intent that already minted shares.
func (j *depositJournal) Completed(id string) (*depositIntentRecord, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, ok := j.index[id]
	if !ok || rec.Status != depositIntentStatusDone {
		return nil, false
	}
	return rec, true
}

// MarkDone records the mint outcome for a confirmed deposit.
func (j *depositJournal) MarkDone(intent *depositIntentRecord, shares uint64, txHash string) error {
	if intent == nil {
		return nil
	}
	intent.Status = depositIntentStatusDone
	intent.Shares = shares
	intent.TxHash = txHash
	intent.Error = ""
	return j.persist(intent)
}

// MarkFailed records a deposit attempt that stopped before ledger mutation.
func (j *depositJournal) MarkFailed(intent *depositIntentRecord, err error) error {
	if intent == nil {
		return nil
	}
	intent.Status = depositIntentStatusFailed
	if err != nil {
		intent.Error = err.Error()
	} else {
		intent.Error = ""
	}
	return j.persist(intent)
}

func (j *depositJournal) persist(intent *depositIntentRecord) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "marshal deposit intent")
	}
	key := fmt.Sprintf("%s%s", depositIntentKeyPrefix, intent.ID)

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, data)
}

func (j *depositJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.Close()
}
