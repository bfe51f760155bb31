// Package deposits persists confirmed deposit events in a WAL for audit and
// streaming purposes.
package deposits

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
	defaultDepositDir   = "./wal/deposits"
	depositSegmentLimit = 1000
	depositMaxSegments  = 100
	depositKeyPrefix    = "deposit_event_"
)

// Event is one confirmed deposit: the full fee split and mint outcome.
type Event struct {
	User       string    `json:"user"`
	RiskLevel  string    `json:"risk_level"`
	Gross      uint64    `json:"gross"`
	Fee        uint64    `json:"fee"`
	Net        uint64    `json:"net"`
	Shares     uint64    `json:"shares"`
	SharePrice uint64    `json:"share_price"`
	TxHash     string    `json:"tx_hash"`
	Time       time.Time `json:"time"`
}

// EventRecord pairs an event with its WAL index.
type EventRecord struct {
	Index uint64
	Event Event
}

// WALStore persists deposit events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed deposit event store under the provided
// directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultDepositDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "deposit_",
		SegmentThreshold: depositSegmentLimit,
		MaxSegments:      depositMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init deposit event WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes the deposit event to WAL. Callers must ensure event.User is set.
func (s *WALStore) Save(event Event) error {
	if s == nil || s.wal == nil {
		return errors.New("deposit event store is not initialized")
	}
	if event.User == "" {
		return fmt.Errorf("deposit event user is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal deposit event")
	}

	key := fmt.Sprintf("%s%s", depositKeyPrefix, event.RiskLevel)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all deposit events written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]EventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("deposit event store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]EventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, depositKeyPrefix) {
			continue
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode deposit event")
		}
		records = append(records, EventRecord{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("deposit event store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
