package engine

import (
	"context"
	"time"

	"github.com/safefeed-org/safefeed/automod/policy"
)

// DeletedAuthor is the sentinel all removed/deleted author names collapse to.
const DeletedAuthor = "[deleted]"

type ItemKind string

const (
	KindSubmission ItemKind = "submission"
	KindComment    ItemKind = "comment"
)

// ContentItem is one submission or comment under review, normalized from the
// content source.
type ContentItem struct {
	Kind        ItemKind
	ID          string
	CommunityID uint
	Community   string
	// submission the item belongs to; empty for submissions themselves
	ParentID  string
	Author    string
	CreatedAt time.Time
	// submissions only
	Title string
	Body  string
	URL   string
	// direct image link, when the item carries one
	ImageRef string
	// comment nesting depth: 0 for top-level comments, +1 per reply level
	Level int
	// author the comment replies to; submission author for top-level comments
	RepliedTo string
}

// Post is a submission as delivered by the content source.
type Post struct {
	ID        string
	Title     string
	Body      string
	URL       string
	Author    string
	CreatedAt time.Time
}

// CommentNode is one node of a source-delivered comment tree.
type CommentNode struct {
	ID        string
	Author    string
	Body      string
	CreatedAt time.Time
	Replies   []*CommentNode
}

// ContentSource yields new content from the monitored platform. Both methods
// may fail transiently; the ingestion loop abandons the community's batch and
// retries on the next cycle.
type ContentSource interface {
	// FetchNew returns submissions created after since, oldest first.
	FetchNew(ctx context.Context, community string, since time.Time) ([]Post, error)
	// FetchComments returns the comment tree of a submission, in source
	// order.
	FetchComments(ctx context.Context, submissionID string) ([]*CommentNode, error)
}

// Enforcer performs platform-side moderation actions. Calls are best-effort:
// a failure is logged by the caller and never rolls back the recorded
// decision.
type Enforcer interface {
	Remove(ctx context.Context, itemID, reason string, notifyAuthor bool) error
	PostNotice(ctx context.Context, itemID, message string, pinned bool) error
}

// PolicyChecker judges item content against the community's policy document.
// Implementations never fail: degraded checks return a neutral verdict.
type PolicyChecker interface {
	Check(ctx context.Context, communityName, title, body, imageTags string) policy.Verdict
}
