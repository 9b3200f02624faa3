package dedupstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemDedupStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemDedupStore(10, time.Hour)

	seen, err := s.Seen(ctx, "t3_abc")
	assert.NoError(err)
	assert.False(seen)

	assert.NoError(s.MarkSeen(ctx, "t3_abc"))
	seen, err = s.Seen(ctx, "t3_abc")
	assert.NoError(err)
	assert.True(seen)

	seen, err = s.Seen(ctx, "t3_other")
	assert.NoError(err)
	assert.False(seen)
}

func TestMemDedupStoreBounded(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemDedupStore(2, time.Hour)
	assert.NoError(s.MarkSeen(ctx, "a"))
	assert.NoError(s.MarkSeen(ctx, "b"))
	assert.NoError(s.MarkSeen(ctx, "c"))

	// oldest entry evicted, never an error
	seen, err := s.Seen(ctx, "a")
	assert.NoError(err)
	assert.False(seen)
	seen, err = s.Seen(ctx, "c")
	assert.NoError(err)
	assert.True(seen)
}
