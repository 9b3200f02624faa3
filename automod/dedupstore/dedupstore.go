// The dedupstore package tracks which item IDs have already been fed through
// the pipeline, so re-delivered items (pagination overlap, watermark
// re-delivery after a slow batch) are evaluated exactly once. Entries carry a
// retention TTL: the store is bounded, not an ever-growing set.
package dedupstore

import (
	"context"
)

type DedupStore interface {
	Seen(ctx context.Context, itemID string) (bool, error)
	MarkSeen(ctx context.Context, itemID string) error
}
