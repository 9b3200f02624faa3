package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safefeed-org/safefeed/automod/dedupstore"
	"github.com/safefeed-org/safefeed/automod/ledger"
	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Default score above which an informational AI-generated-image notice is
// posted. This path is independent of the removal decision and runs on any
// image-bearing item.
const DefaultAIGeneratedThreshold = 0.8

const aiGeneratedNotice = "The image associated with this submission has been detected as AI-generated by SafeFeed."

// Engine is the moderation pipeline runtime. All collaborators are injected;
// tests substitute fakes for the source, checker, and enforcer.
//
// TODO: careful when initializing: several fields should not be null, even
// though they are pointer or interface type.
type Engine struct {
	Logger    *slog.Logger
	DB        *gorm.DB
	Source    ContentSource
	Enforcer  Enforcer
	Checker   PolicyChecker
	Extractor *signals.Extractor
	Ledger    ledger.Ledger
	Dedup     dedupstore.DedupStore
	Notifier  *WebhookNotifier

	// max communities processed concurrently within one run
	Parallelism int
	// how far back comment trees of already-tracked submissions are
	// re-polled for late replies
	CommentWindow time.Duration
	// overrides DefaultAIGeneratedThreshold when > 0
	AIGeneratedThreshold float64
}

func (eng *Engine) aiThreshold() float64 {
	if eng.AIGeneratedThreshold > 0 {
		return eng.AIGeneratedThreshold
	}
	return DefaultAIGeneratedThreshold
}

// handleItem runs the full pipeline for one item: dedup, signal extraction,
// policy check, decision fusion, persistence, enforcement, and ledger
// accounting. Item-local failures are absorbed here; an error return means
// the item could not reach a decision at all.
func (eng *Engine) handleItem(ctx context.Context, item ContentItem) error {
	// similar to an HTTP server, recover any panics from item processing
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("item processing exception", "err", r, "id", item.ID, "community", item.Community)
		}
	}()

	logger := eng.Logger.With("id", item.ID, "kind", item.Kind, "community", item.Community)

	seen, err := eng.Dedup.Seen(ctx, item.ID)
	if err != nil {
		logger.Warn("dedup lookup failed, treating item as new", "err", err)
	}
	if seen {
		itemSkipCount.WithLabelValues(string(item.Kind)).Inc()
		return nil
	}

	start := time.Now()
	defer func() {
		itemProcessDuration.WithLabelValues(string(item.Kind)).Observe(time.Since(start).Seconds())
	}()

	if item.Author == "" {
		item.Author = DeletedAuthor
	}

	text := item.Body
	if item.Title != "" {
		text = item.Title + " " + item.Body
	}
	sig := eng.Extractor.Collect(ctx, text, item.ImageRef)

	// informational notice path: independent of the removal decision below
	if item.ImageRef != "" && sig.AIGeneratedScore > eng.aiThreshold() {
		logger.Info("image detected as AI-generated", "score", sig.AIGeneratedScore)
		if err := eng.Enforcer.PostNotice(ctx, item.ID, aiGeneratedNotice, true); err != nil {
			enforcementErrorCount.WithLabelValues("notice").Inc()
			logger.Error("posting AI-generated notice failed", "err", err)
		}
	}

	verdict := eng.Checker.Check(ctx, item.Community, item.Title, item.Body, sig.ImageTags)
	decision := FuseDecision(sig, verdict)

	if err := eng.persistItem(ctx, item, sig, decision); err != nil {
		return fmt.Errorf("persisting item %s: %w", item.ID, err)
	}

	if decision.Removed {
		eng.executeRemoval(ctx, logger, item, decision)
	}

	if err := eng.Dedup.MarkSeen(ctx, item.ID); err != nil {
		logger.Warn("marking item as processed failed", "err", err)
	}

	itemProcessCount.WithLabelValues(string(item.Kind)).Inc()
	eng.canonicalLogLine(logger, item, decision)
	return nil
}

// executeRemoval dispatches enforcement and ledger accounting for a removal
// decision. Enforcement is best-effort; the ledger update is not, since
// losing increments breaks repeat-offender detection.
func (eng *Engine) executeRemoval(ctx context.Context, logger *slog.Logger, item ContentItem, decision Decision) {
	logger.Warn("removing item", "reason", decision.Reason, "author", item.Author)
	removalCount.WithLabelValues(string(item.Kind)).Inc()

	if err := eng.Enforcer.Remove(ctx, item.ID, decision.Reason, true); err != nil {
		enforcementErrorCount.WithLabelValues("remove").Inc()
		logger.Error("removal action failed", "err", err)
	}

	if err := eng.Ledger.RecordDecision(ctx, item.CommunityID, item.Author, true); err != nil {
		logger.Error("recording violation failed", "err", err, "author", item.Author)
	}

	if eng.Notifier != nil {
		msg := fmt.Sprintf("SafeFeed removed a %s in `%s`\nAuthor: `%s`\nReason: %s\n", item.Kind, item.Community, item.Author, decision.Reason)
		if decision.Questionable {
			msg += "(checker was not certain about this decision)\n"
		}
		if err := eng.Notifier.Send(ctx, msg); err != nil {
			logger.Error("sending removal notification failed", "err", err)
		}
	}
}

func (eng *Engine) persistItem(ctx context.Context, item ContentItem, sig signals.SignalSet, decision Decision) error {
	sigCols := models.SignalColumns{
		Flagged:       sig.Flagged,
		Sentiment:     sig.Sentiment,
		HateSpeech:    decision.HateSpeech,
		Harassment:    decision.Harassment,
		SelfHarm:      decision.SelfHarm,
		SexualContent: decision.SexualContent,
		Violence:      decision.Violence,
		ImageTags:     sig.ImageTags,
	}
	decCols := models.DecisionColumns{
		Removed:        decision.Removed,
		Questionable:   decision.Questionable,
		Reason:         decision.Reason,
		ImageGeneral:   decision.ImageGeneral,
		ImageSensitive: decision.ImageSensitive,
		ImageExplicit:  decision.ImageExplicit,
	}

	// DoNothing keeps the first recorded decision if the same item slips
	// past the dedup store twice
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}

	switch item.Kind {
	case KindSubmission:
		return eng.DB.WithContext(ctx).Clauses(onConflict).Create(&models.Submission{
			ID:              item.ID,
			CommunityID:     item.CommunityID,
			Author:          item.Author,
			Title:           item.Title,
			Body:            item.Body,
			URL:             item.URL,
			ImageURL:        item.ImageRef,
			PostedAt:        item.CreatedAt,
			IngestedAt:      time.Now(),
			SignalColumns:   sigCols,
			DecisionColumns: decCols,
		}).Error
	case KindComment:
		return eng.DB.WithContext(ctx).Clauses(onConflict).Create(&models.Comment{
			ID:              item.ID,
			SubmissionID:    item.ParentID,
			CommunityID:     item.CommunityID,
			Author:          item.Author,
			Body:            item.Body,
			RepliedTo:       item.RepliedTo,
			Level:           item.Level,
			PostedAt:        item.CreatedAt,
			IngestedAt:      time.Now(),
			SignalColumns:   sigCols,
			DecisionColumns: decCols,
		}).Error
	default:
		return fmt.Errorf("unknown item kind: %s", item.Kind)
	}
}

func (eng *Engine) canonicalLogLine(logger *slog.Logger, item ContentItem, decision Decision) {
	logger.Info("canonical-event-line",
		"author", item.Author,
		"flagged", decision.HateSpeech || decision.Harassment || decision.SelfHarm || decision.SexualContent || decision.Violence,
		"removed", decision.Removed,
		"questionable", decision.Questionable,
		"reason", decision.Reason,
	)
}
