package dedupstore

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type RedisDedupStore struct {
	Data *cache.Cache
	TTL  time.Duration
}

var _ DedupStore = (*RedisDedupStore)(nil)

func NewRedisDedupStore(redisURL string, ttl time.Duration) (*RedisDedupStore, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisDedupStore{
		Data: data,
		TTL:  ttl,
	}, nil
}

func redisDedupKey(itemID string) string {
	return "seen/" + itemID
}

func (s *RedisDedupStore) Seen(ctx context.Context, itemID string) (bool, error) {
	var val bool
	err := s.Data.Get(ctx, redisDedupKey(itemID), &val)
	if err == cache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val, nil
}

func (s *RedisDedupStore) MarkSeen(ctx context.Context, itemID string) error {
	return s.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisDedupKey(itemID),
		Value: true,
		TTL:   s.TTL,
	})
}
