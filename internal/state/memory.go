package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/types"
)

// MemoryJournal keeps the journal in process memory.
type MemoryJournal struct {
	mu       sync.RWMutex
	events   []ledger.Event
	receipts []types.ZapReceipt
	byID     map[string]int
	now      func() time.Time
}

var _ Journal = (*MemoryJournal)(nil)

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{byID: make(map[string]int), now: time.Now}
}

// HandleEvents implements ledger.EventSink.
func (m *MemoryJournal) HandleEvents(_ context.Context, events []ledger.Event) error {
	receipts := receiptsFromEvents(events, m.now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	for _, r := range receipts {
		if _, dup := m.byID[r.InvocationID]; dup {
			continue
		}
		m.byID[r.InvocationID] = len(m.receipts)
		m.receipts = append(m.receipts, r)
	}
	return nil
}

// Events returns every journaled notification in commit order.
func (m *MemoryJournal) Events() []ledger.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Event, len(m.events))
	copy(out, m.events)
	return out
}

// RecentReceipts returns the newest receipts first.
func (m *MemoryJournal) RecentReceipts(_ context.Context, limit int) ([]types.ZapReceipt, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ZapReceipt, 0, limit)
	for i := len(m.receipts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.receipts[i])
	}
	return out, nil
}

func (m *MemoryJournal) ReceiptByID(_ context.Context, invocationID string) (types.ZapReceipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[invocationID]
	if !ok {
		return types.ZapReceipt{}, fmt.Errorf("%w: %s", ErrReceiptNotFound, invocationID)
	}
	return m.receipts[i], nil
}

func (m *MemoryJournal) VaultStats(_ context.Context) ([]types.VaultStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return statsFromReceipts(m.receipts), nil
}
