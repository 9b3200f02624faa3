package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemLedger is a race-safe in-memory Ledger, for tests.
type MemLedger struct {
	lk     sync.Mutex
	Counts map[string]int64
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{Counts: make(map[string]int64)}
}

func memKey(communityID uint, author string) string {
	return fmt.Sprintf("%d/%s", communityID, author)
}

func (l *MemLedger) RecordDecision(ctx context.Context, communityID uint, author string, removed bool) error {
	if !removed {
		return nil
	}
	l.lk.Lock()
	defer l.lk.Unlock()
	l.Counts[memKey(communityID, author)]++
	return nil
}

func (l *MemLedger) GetViolationCount(ctx context.Context, communityID uint, author string) (int64, error) {
	l.lk.Lock()
	defer l.lk.Unlock()
	return l.Counts[memKey(communityID, author)], nil
}
