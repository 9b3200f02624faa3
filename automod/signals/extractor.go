package signals

import (
	"context"
	"log/slog"
)

// Extractor fans an item out to the configured classifier clients and merges
// the fragments into one SignalSet. Individual classifiers are independent:
// one failing contributes defaults for its fields and a log line, never an
// error to the caller. Clients left nil are skipped.
type Extractor struct {
	Logger      *slog.Logger
	Moderation  *ModerationClient
	Sentiment   *SentimentAnalyzer
	Tagger      *TaggerClient
	ImageCheck  *SightengineClient
}

// Collect computes the SignalSet for one item. imageRef may be empty; the
// image path only runs when it is set.
func (e *Extractor) Collect(ctx context.Context, text, imageRef string) SignalSet {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sig := NewSignalSet()

	if e.Moderation != nil {
		res, err := e.Moderation.Moderate(ctx, text)
		if err != nil {
			extractorErrorCount.WithLabelValues("moderation").Inc()
			logger.Warn("text moderation classifier failed", "err", err)
		} else {
			sig.Flagged = res.Flagged
			for k, v := range res.Categories {
				sig.Categories[k] = v
			}
			for k, v := range res.CategoryScores {
				sig.Scores[k] = v
			}
		}
	}

	if e.Sentiment != nil {
		sig.Sentiment = e.Sentiment.Label(text)
	}

	if imageRef == "" {
		return sig
	}

	if e.Tagger != nil {
		tags, err := e.Tagger.Tags(ctx, imageRef)
		if err != nil {
			extractorErrorCount.WithLabelValues("tagger").Inc()
			logger.Warn("image tagger failed", "err", err, "imageRef", imageRef)
		} else {
			sig.ImageTags = tags
		}
	}

	if e.ImageCheck != nil {
		score, err := e.ImageCheck.AIGeneratedScore(ctx, imageRef)
		if err != nil {
			extractorErrorCount.WithLabelValues("imagecheck").Inc()
			logger.Warn("AI-generation image check failed", "err", err, "imageRef", imageRef)
		} else {
			sig.AIGeneratedScore = score
		}
	}

	return sig
}
