package ledger

import (
	"context"
)

// Ledger tracks repeat violators per (community, author). Counts only ever
// increase; a non-removal decision is a no-op.
type Ledger interface {
	// RecordDecision notes the terminal decision for one item. When removed
	// is true, the (community, author) violation count is incremented, or
	// created at 1. Increment-or-insert must be atomic per key: two items by
	// the same author in one cycle must not lose an update.
	RecordDecision(ctx context.Context, communityID uint, author string, removed bool) error
	GetViolationCount(ctx context.Context, communityID uint, author string) (int64, error)
}
