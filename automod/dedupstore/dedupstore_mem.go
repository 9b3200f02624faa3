package dedupstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemDedupStore struct {
	Data *expirable.LRU[string, bool]
}

var _ DedupStore = (*MemDedupStore)(nil)

func NewMemDedupStore(capacity int, ttl time.Duration) *MemDedupStore {
	return &MemDedupStore{
		Data: expirable.NewLRU[string, bool](capacity, nil, ttl),
	}
}

func (s *MemDedupStore) Seen(ctx context.Context, itemID string) (bool, error) {
	_, ok := s.Data.Get(itemID)
	return ok, nil
}

func (s *MemDedupStore) MarkSeen(ctx context.Context, itemID string) error {
	s.Data.Add(itemID, true)
	return nil
}
