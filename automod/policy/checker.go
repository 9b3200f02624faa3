package policy

import (
	"context"
	"log/slog"
	"time"
)

// Reasoner is the LLM call behind the checker. AssistantClient is the real
// implementation; tests substitute a fake.
type Reasoner interface {
	Analyze(ctx context.Context, instructions, input string) (string, error)
}

// Checker judges item content against the applicable policy document.
//
// Each check is logically independent. Failures (document lookup, LLM call,
// timeout, unparsable output) degrade to a neutral verdict; the pipeline
// never sees an error from a check.
type Checker struct {
	Logger   *slog.Logger
	Store    Store
	Reasoner Reasoner
	// upper bound on one check, including run polling. An unbounded wait is
	// never allowed.
	Timeout time.Duration
}

func NewChecker(logger *slog.Logger, store Store, reasoner Reasoner) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		Logger:   logger,
		Store:    store,
		Reasoner: reasoner,
		Timeout:  60 * time.Second,
	}
}

// Check returns the verdict for one item. imageTags empty selects the
// text-only schema variant.
func (c *Checker) Check(ctx context.Context, communityName, title, body, imageTags string) Verdict {
	start := time.Now()
	defer func() {
		checkDuration.Observe(time.Since(start).Seconds())
	}()

	doc, err := c.policyFor(ctx, communityName)
	if err != nil {
		checkFailureCount.WithLabelValues("policy_lookup").Inc()
		c.Logger.Warn("policy document lookup failed, using neutral verdict", "community", communityName, "err", err)
		return NeutralVerdict()
	}

	if c.Reasoner == nil {
		return NeutralVerdict()
	}

	instructions := BuildInstructions(doc, imageTags != "")
	input := BuildInput(title, body, imageTags)

	checkCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	raw, err := c.Reasoner.Analyze(checkCtx, instructions, input)
	if err != nil {
		checkFailureCount.WithLabelValues("reasoner").Inc()
		c.Logger.Warn("policy check failed, using neutral verdict", "community", communityName, "err", err)
		return NeutralVerdict()
	}

	return ParseVerdict(raw)
}

// policyFor returns the community-specific document when one exists,
// otherwise the default document. A missing default is not an error: checks
// then run against an empty policy.
func (c *Checker) policyFor(ctx context.Context, communityName string) (string, error) {
	doc, err := c.Store.GetPolicy(ctx, communityName)
	if err != nil {
		return "", err
	}
	if doc != "" {
		return doc, nil
	}
	c.Logger.Debug("no community policy document, falling back to default", "community", communityName)
	return c.Store.GetPolicy(ctx, "")
}
