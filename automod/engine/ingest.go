package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/models"

	"golang.org/x/sync/errgroup"
)

// ProcessAll runs one complete ingestion cycle over every monitored
// community. Communities run in parallel (bounded by Parallelism); items
// within one community are strictly sequential, preserving source order for
// comment trees and watermark correctness. One community's failure never
// blocks the others; only an unreachable database fails the run.
func (eng *Engine) ProcessAll(ctx context.Context) error {
	var communities []models.Community
	if err := eng.DB.WithContext(ctx).Find(&communities).Error; err != nil {
		return fmt.Errorf("loading monitored communities: %w", err)
	}

	limit := eng.Parallelism
	if limit <= 0 {
		limit = 4
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, comm := range communities {
		comm := comm
		g.Go(func() error {
			if err := eng.ProcessCommunity(ctx, &comm); err != nil {
				batchErrorCount.Inc()
				eng.Logger.Error("community batch failed, will retry next cycle", "community", comm.Name, "err", err)
			}
			return nil
		})
	}
	g.Wait()
	return nil
}

// ProcessCommunity ingests one community's batch: everything created after
// the stored watermark. The watermark only advances after the whole batch has
// been processed, and it advances to the batch's wall-clock start time rather
// than the newest item timestamp: items that became visible mid-run are
// re-delivered next cycle instead of being skipped forever, and the dedup
// store absorbs the re-delivery.
func (eng *Engine) ProcessCommunity(ctx context.Context, comm *models.Community) error {
	logger := eng.Logger.With("community", comm.Name)
	batchStart := time.Now()
	watermark := comm.LastPolledAt

	posts, err := eng.Source.FetchNew(ctx, comm.Name, watermark)
	if err != nil {
		return fmt.Errorf("fetching new submissions: %w", err)
	}
	logger.Info("processing community batch", "newSubmissions", len(posts), "watermark", watermark)

	for _, post := range posts {
		item := eng.submissionItem(comm, post)
		if err := eng.handleItem(ctx, item); err != nil {
			itemErrorCount.WithLabelValues(string(KindSubmission)).Inc()
			logger.Error("submission did not reach a decision", "id", post.ID, "err", err)
		}
	}

	// comment pass: trees of this batch's submissions, plus recently tracked
	// ones so late replies are still caught. Ordered slice, not a map, so
	// trees are fetched in source-delivery order.
	type commentTarget struct {
		subID  string
		author string
	}
	targets := make([]commentTarget, 0, len(posts))
	covered := make(map[string]bool, len(posts))
	for _, post := range posts {
		targets = append(targets, commentTarget{subID: post.ID, author: post.Author})
		covered[post.ID] = true
	}
	if eng.CommentWindow > 0 {
		var tracked []models.Submission
		cutoff := time.Now().Add(-eng.CommentWindow)
		if err := eng.DB.WithContext(ctx).
			Select("id", "author").
			Where("community_id = ? AND posted_at > ?", comm.ID, cutoff).
			Order("posted_at").
			Find(&tracked).Error; err != nil {
			return fmt.Errorf("loading tracked submissions: %w", err)
		}
		for _, sub := range tracked {
			if !covered[sub.ID] {
				targets = append(targets, commentTarget{subID: sub.ID, author: sub.Author})
			}
		}
	}

	for _, tgt := range targets {
		nodes, err := eng.Source.FetchComments(ctx, tgt.subID)
		if err != nil {
			return fmt.Errorf("fetching comments for %s: %w", tgt.subID, err)
		}
		for _, item := range FlattenComments(comm, tgt.subID, tgt.author, nodes) {
			if !item.CreatedAt.After(watermark) {
				continue
			}
			if err := eng.handleItem(ctx, item); err != nil {
				itemErrorCount.WithLabelValues(string(KindComment)).Inc()
				logger.Error("comment did not reach a decision", "id", item.ID, "err", err)
			}
		}
	}

	if err := eng.advanceWatermark(ctx, comm.ID, batchStart); err != nil {
		return fmt.Errorf("advancing watermark: %w", err)
	}
	logger.Info("community batch complete", "duration", time.Since(batchStart))
	return nil
}

// advanceWatermark is a guarded single-row update; two overlapping runs of
// the same community cannot interleave a read-then-blind-write.
func (eng *Engine) advanceWatermark(ctx context.Context, communityID uint, to time.Time) error {
	return eng.DB.WithContext(ctx).
		Model(&models.Community{}).
		Where("id = ? AND last_polled_at < ?", communityID, to).
		Update("last_polled_at", to).Error
}

func (eng *Engine) submissionItem(comm *models.Community, post Post) ContentItem {
	author := post.Author
	if author == "" {
		author = DeletedAuthor
	}
	return ContentItem{
		Kind:        KindSubmission,
		ID:          post.ID,
		CommunityID: comm.ID,
		Community:   comm.Name,
		Author:      author,
		CreatedAt:   post.CreatedAt,
		Title:       post.Title,
		Body:        post.Body,
		URL:         post.URL,
		ImageRef:    extractSubmissionImage(post),
	}
}

func extractSubmissionImage(post Post) string {
	// prefer an image link embedded in the body text, then the submission
	// URL itself
	if ref := signals.ExtractImageURL(post.Body); ref != "" {
		return ref
	}
	if signals.IsImageURL(post.URL) {
		return post.URL
	}
	return ""
}

type commentFrame struct {
	node      *CommentNode
	level     int
	repliedTo string
}

// FlattenComments turns a source comment tree into a flat depth-first slice,
// assigning Level and RepliedTo from traversal position. Top-level comments
// reference the submission author as RepliedTo. The traversal is an explicit
// stack (no recursion), so arbitrarily deep reply chains cannot overflow.
func FlattenComments(comm *models.Community, subID, subAuthor string, nodes []*CommentNode) []ContentItem {
	if subAuthor == "" {
		subAuthor = DeletedAuthor
	}

	var out []ContentItem
	stack := make([]commentFrame, 0, len(nodes))
	// push in reverse so pops preserve source order
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, commentFrame{node: nodes[i], level: 0, repliedTo: subAuthor})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := frame.node

		author := node.Author
		if author == "" {
			author = DeletedAuthor
		}
		out = append(out, ContentItem{
			Kind:        KindComment,
			ID:          node.ID,
			CommunityID: comm.ID,
			Community:   comm.Name,
			ParentID:    subID,
			Author:      author,
			CreatedAt:   node.CreatedAt,
			Body:        node.Body,
			Level:       frame.level,
			RepliedTo:   frame.repliedTo,
		})

		for i := len(node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, commentFrame{node: node.Replies[i], level: frame.level + 1, repliedTo: author})
		}
	}
	return out
}
