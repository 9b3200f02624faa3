package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/safefeed-org/safefeed/automod"
	"github.com/safefeed-org/safefeed/automod/dedupstore"
	"github.com/safefeed-org/safefeed/automod/ledger"
	"github.com/safefeed-org/safefeed/automod/policy"
	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/reddit"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Server struct {
	logger       *slog.Logger
	engine       *automod.Engine
	pollInterval time.Duration
}

type Config struct {
	Logger               *slog.Logger
	RedisURL             string
	PollInterval         time.Duration
	Parallelism          int
	CommentWindow        time.Duration
	CheckerTimeout       time.Duration
	AIGeneratedThreshold float64

	ModerationHost   string
	ModerationAPIKey string

	AssistantHost   string
	AssistantAPIKey string
	AssistantID     string

	SightengineHost      string
	SightengineAPIUser   string
	SightengineAPISecret string

	TaggerHost string

	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string

	SlackWebhookURL string
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if config.RedditClientID == "" || config.RedditClientSecret == "" {
		return nil, fmt.Errorf("reddit API credentials are required")
	}
	rc := reddit.NewClient(config.RedditClientID, config.RedditClientSecret, config.RedditUsername, config.RedditPassword)

	extractor := &signals.Extractor{
		Logger:    logger,
		Sentiment: signals.NewSentimentAnalyzer(),
	}
	if config.ModerationAPIKey != "" {
		logger.Info("configuring text moderation classifier")
		mc := signals.NewModerationClient(config.ModerationHost, config.ModerationAPIKey)
		extractor.Moderation = &mc
	}
	if config.TaggerHost != "" {
		logger.Info("configuring image tagger")
		tc := signals.NewTaggerClient(config.TaggerHost)
		extractor.Tagger = &tc
	}
	if config.SightengineAPIUser != "" && config.SightengineAPISecret != "" {
		logger.Info("configuring AI-generated image detection")
		sc := signals.NewSightengineClient(config.SightengineHost, config.SightengineAPIUser, config.SightengineAPISecret)
		extractor.ImageCheck = &sc
	}

	var reasoner policy.Reasoner
	if config.AssistantAPIKey != "" && config.AssistantID != "" {
		ac := policy.NewAssistantClient(config.AssistantHost, config.AssistantAPIKey, config.AssistantID)
		reasoner = &ac
	} else {
		logger.Warn("no assistant configured, all policy checks will return neutral verdicts")
	}
	checker := policy.NewChecker(logger, policy.NewGormStore(db), reasoner)
	if config.CheckerTimeout > 0 {
		checker.Timeout = config.CheckerTimeout
	}

	var dedup dedupstore.DedupStore
	if config.RedisURL != "" {
		d, err := dedupstore.NewRedisDedupStore(config.RedisURL, 7*24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("initializing redis dedup store: %w", err)
		}
		dedup = d
	} else {
		dedup = dedupstore.NewMemDedupStore(50_000, 7*24*time.Hour)
	}

	var notifier *automod.WebhookNotifier
	if config.SlackWebhookURL != "" {
		notifier = &automod.WebhookNotifier{WebhookURL: config.SlackWebhookURL}
	}

	eng := automod.Engine{
		Logger:               logger,
		DB:                   db,
		Source:               reddit.NewSource(rc),
		Enforcer:             reddit.NewEnforcer(rc),
		Checker:              checker,
		Extractor:            extractor,
		Ledger:               ledger.NewGormLedger(db),
		Dedup:                dedup,
		Notifier:             notifier,
		Parallelism:          config.Parallelism,
		CommentWindow:        config.CommentWindow,
		AIGeneratedThreshold: config.AIGeneratedThreshold,
	}

	s := &Server{
		logger:       logger,
		engine:       &eng,
		pollInterval: config.PollInterval,
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 5 * time.Minute
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// RunOnce executes a single ingestion cycle.
func (s *Server) RunOnce(ctx context.Context) error {
	return s.engine.ProcessAll(ctx)
}

// Run executes ingestion cycles until ctx is cancelled. A failed cycle is
// logged and retried on the next tick.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting moderation loop", "pollInterval", s.pollInterval)

	if err := s.engine.ProcessAll(ctx); err != nil {
		s.logger.Error("ingestion cycle failed", "err", err)
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.engine.ProcessAll(ctx); err != nil {
				s.logger.Error("ingestion cycle failed", "err", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
