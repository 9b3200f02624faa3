package automod

import (
	"github.com/safefeed-org/safefeed/automod/engine"
	"github.com/safefeed-org/safefeed/automod/signals"
)

type Engine = engine.Engine
type ContentItem = engine.ContentItem
type ContentSource = engine.ContentSource
type Enforcer = engine.Enforcer
type PolicyChecker = engine.PolicyChecker
type Decision = engine.Decision
type WebhookNotifier = engine.WebhookNotifier

var (
	KindSubmission = engine.KindSubmission
	KindComment    = engine.KindComment

	DeletedAuthor = engine.DeletedAuthor

	SentimentPositive = signals.SentimentPositive
	SentimentNegative = signals.SentimentNegative
	SentimentNeutral  = signals.SentimentNeutral
)
