package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/safefeed-org/safefeed/automod/ledger"
	"github.com/safefeed-org/safefeed/automod/policy"
	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/models"
	"github.com/safefeed-org/safefeed/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"gorm.io/gorm"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "safefeed",
		Usage:   "content moderation daemon (keeps the feed safe)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/safefeed/safefeed.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-metadb-connections",
			EnvVars: []string{"MAX_METADB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
		addCommunityCmd,
		setPolicyCmd,
		listViolatorsCmd,
	}

	return app.Run(args)
}

func configLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

func setupDB(cctx *cli.Context) (*gorm.DB, error) {
	db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-metadb-connections"))
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(models.AllTables()...); err != nil {
		return nil, fmt.Errorf("database migration: %w", err)
	}
	return db, nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for the shared dedup store; in-process store when empty",
			EnvVars: []string{"SAFEFEED_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"SAFEFEED_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "time between ingestion cycles",
			Value:   5 * time.Minute,
			EnvVars: []string{"SAFEFEED_POLL_INTERVAL"},
		},
		&cli.BoolFlag{
			Name:    "once",
			Usage:   "run a single ingestion cycle and exit",
			EnvVars: []string{"SAFEFEED_ONCE"},
		},
		&cli.IntFlag{
			Name:    "parallelism",
			Usage:   "max communities processed concurrently",
			Value:   4,
			EnvVars: []string{"SAFEFEED_PARALLELISM"},
		},
		&cli.DurationFlag{
			Name:    "comment-window",
			Usage:   "how long comment trees of tracked submissions are re-polled for late replies",
			Value:   24 * time.Hour,
			EnvVars: []string{"SAFEFEED_COMMENT_WINDOW"},
		},
		&cli.DurationFlag{
			Name:    "checker-timeout",
			Usage:   "upper bound on a single policy check",
			Value:   60 * time.Second,
			EnvVars: []string{"SAFEFEED_CHECKER_TIMEOUT"},
		},
		&cli.Float64Flag{
			Name:    "ai-image-threshold",
			Usage:   "AI-generation score above which an informational notice is pinned",
			Value:   0.8,
			EnvVars: []string{"SAFEFEED_AI_IMAGE_THRESHOLD"},
		},
		&cli.StringFlag{
			Name:    "moderation-host",
			Value:   "https://api.openai.com",
			EnvVars: []string{"SAFEFEED_MODERATION_HOST"},
		},
		&cli.StringFlag{
			Name:    "moderation-api-key",
			EnvVars: []string{"SAFEFEED_MODERATION_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "assistant-host",
			Value:   "https://api.openai.com",
			EnvVars: []string{"SAFEFEED_ASSISTANT_HOST"},
		},
		&cli.StringFlag{
			Name:    "assistant-api-key",
			EnvVars: []string{"SAFEFEED_ASSISTANT_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "assistant-id",
			EnvVars: []string{"SAFEFEED_ASSISTANT_ID"},
		},
		&cli.StringFlag{
			Name:    "sightengine-host",
			Value:   "https://api.sightengine.com",
			EnvVars: []string{"SAFEFEED_SIGHTENGINE_HOST"},
		},
		&cli.StringFlag{
			Name:    "sightengine-api-user",
			EnvVars: []string{"SAFEFEED_SIGHTENGINE_API_USER"},
		},
		&cli.StringFlag{
			Name:    "sightengine-api-secret",
			EnvVars: []string{"SAFEFEED_SIGHTENGINE_API_SECRET"},
		},
		&cli.StringFlag{
			Name:    "tagger-host",
			Usage:   "base URL of the image tagging service; tagging disabled when empty",
			EnvVars: []string{"SAFEFEED_TAGGER_HOST"},
		},
		&cli.StringFlag{
			Name:    "reddit-client-id",
			EnvVars: []string{"SAFEFEED_REDDIT_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "reddit-client-secret",
			EnvVars: []string{"SAFEFEED_REDDIT_CLIENT_SECRET"},
		},
		&cli.StringFlag{
			Name:    "reddit-username",
			EnvVars: []string{"SAFEFEED_REDDIT_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "reddit-password",
			EnvVars: []string{"SAFEFEED_REDDIT_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "webhook to notify on executed removals; disabled when empty",
			EnvVars: []string{"SAFEFEED_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := configLogger()

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("safefeed"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		db, err := setupDB(cctx)
		if err != nil {
			return err
		}

		srv, err := NewServer(
			db,
			Config{
				Logger:               logger,
				RedisURL:             cctx.String("redis-url"),
				PollInterval:         cctx.Duration("poll-interval"),
				Parallelism:          cctx.Int("parallelism"),
				CommentWindow:        cctx.Duration("comment-window"),
				CheckerTimeout:       cctx.Duration("checker-timeout"),
				AIGeneratedThreshold: cctx.Float64("ai-image-threshold"),
				ModerationHost:       cctx.String("moderation-host"),
				ModerationAPIKey:     cctx.String("moderation-api-key"),
				AssistantHost:        cctx.String("assistant-host"),
				AssistantAPIKey:      cctx.String("assistant-api-key"),
				AssistantID:          cctx.String("assistant-id"),
				SightengineHost:      cctx.String("sightengine-host"),
				SightengineAPIUser:   cctx.String("sightengine-api-user"),
				SightengineAPISecret: cctx.String("sightengine-api-secret"),
				TaggerHost:           cctx.String("tagger-host"),
				RedditClientID:       cctx.String("reddit-client-id"),
				RedditClientSecret:   cctx.String("reddit-client-secret"),
				RedditUsername:       cctx.String("reddit-username"),
				RedditPassword:       cctx.String("reddit-password"),
				SlackWebhookURL:      cctx.String("slack-webhook-url"),
			},
		)
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if cctx.Bool("once") {
			return srv.RunOnce(ctx)
		}
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}

var addCommunityCmd = &cli.Command{
	Name:      "add-community",
	Usage:     "start monitoring a community",
	ArgsUsage: "<name>",
	Action: func(cctx *cli.Context) error {
		configLogger()
		name := cctx.Args().First()
		if name == "" {
			return fmt.Errorf("community name is required")
		}
		db, err := setupDB(cctx)
		if err != nil {
			return err
		}
		comm := models.Community{Name: name, LastPolledAt: time.Now()}
		if err := db.Create(&comm).Error; err != nil {
			return fmt.Errorf("registering community %s: %w", name, err)
		}
		fmt.Printf("monitoring community %s (id=%d)\n", comm.Name, comm.ID)
		return nil
	},
}

var setPolicyCmd = &cli.Command{
	Name:      "set-policy",
	Usage:     "set the policy document for a community (or the default document)",
	ArgsUsage: "<policy-file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "community",
			Usage: "community the document applies to; the default document when empty",
		},
	},
	Action: func(cctx *cli.Context) error {
		configLogger()
		path := cctx.Args().First()
		if path == "" {
			return fmt.Errorf("policy file path is required")
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading policy file: %w", err)
		}
		db, err := setupDB(cctx)
		if err != nil {
			return err
		}
		store := policy.NewGormStore(db)
		name := cctx.String("community")
		if err := store.SetPolicy(context.Background(), name, string(doc)); err != nil {
			return fmt.Errorf("storing policy document: %w", err)
		}
		if name == "" {
			fmt.Println("default policy document updated")
		} else {
			fmt.Printf("policy document for %s updated\n", name)
		}
		return nil
	},
}

var listViolatorsCmd = &cli.Command{
	Name:      "list-violators",
	Usage:     "list accounts with the most recorded violations in a community",
	ArgsUsage: "<community>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Value: 20,
		},
	},
	Action: func(cctx *cli.Context) error {
		configLogger()
		name := cctx.Args().First()
		if name == "" {
			return fmt.Errorf("community name is required")
		}
		db, err := setupDB(cctx)
		if err != nil {
			return err
		}
		var comm models.Community
		if err := db.First(&comm, "name = ?", name).Error; err != nil {
			return fmt.Errorf("community %s is not monitored: %w", name, err)
		}
		led := ledger.NewGormLedger(db)
		violators, err := led.TopViolators(context.Background(), comm.ID, cctx.Int("limit"))
		if err != nil {
			return err
		}
		for _, v := range violators {
			fmt.Printf("%s\t%d\n", v.AuthorName, v.ViolationCount)
		}
		return nil
	},
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "run the signal extractors and policy check against ad-hoc content, and print the outcome",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name: "community",
		},
		&cli.StringFlag{
			Name: "title",
		},
		&cli.StringFlag{
			Name: "body",
		},
		&cli.StringFlag{
			Name: "image-url",
		},
		&cli.StringFlag{
			Name:    "moderation-host",
			Value:   "https://api.openai.com",
			EnvVars: []string{"SAFEFEED_MODERATION_HOST"},
		},
		&cli.StringFlag{
			Name:    "moderation-api-key",
			EnvVars: []string{"SAFEFEED_MODERATION_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "assistant-host",
			Value:   "https://api.openai.com",
			EnvVars: []string{"SAFEFEED_ASSISTANT_HOST"},
		},
		&cli.StringFlag{
			Name:    "assistant-api-key",
			EnvVars: []string{"SAFEFEED_ASSISTANT_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "assistant-id",
			EnvVars: []string{"SAFEFEED_ASSISTANT_ID"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger()
		ctx := context.Background()

		db, err := setupDB(cctx)
		if err != nil {
			return err
		}

		extractor := &signals.Extractor{
			Logger:    logger,
			Sentiment: signals.NewSentimentAnalyzer(),
		}
		if key := cctx.String("moderation-api-key"); key != "" {
			mc := signals.NewModerationClient(cctx.String("moderation-host"), key)
			extractor.Moderation = &mc
		}

		text := cctx.String("title") + " " + cctx.String("body")
		sig := extractor.Collect(ctx, text, cctx.String("image-url"))

		out := map[string]any{
			"flagged":        sig.Flagged,
			"sentiment":      sig.Sentiment,
			"hate_speech":    sig.HateSpeech(),
			"harassment":     sig.Harassment(),
			"self_harm":      sig.SelfHarm(),
			"sexual_content": sig.SexualContent(),
			"violence":       sig.Violence(),
		}

		if cctx.String("assistant-api-key") != "" && cctx.String("assistant-id") != "" {
			ac := policy.NewAssistantClient(cctx.String("assistant-host"), cctx.String("assistant-api-key"), cctx.String("assistant-id"))
			checker := policy.NewChecker(logger, policy.NewGormStore(db), &ac)
			verdict := checker.Check(ctx, cctx.String("community"), cctx.String("title"), cctx.String("body"), sig.ImageTags)
			out["removed"] = verdict.ViolatesPolicy || verdict.ShouldRemove
			out["questionable"] = !verdict.IsCertain
			out["reason"] = verdict.Reason
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
