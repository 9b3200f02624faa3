// Automated content moderation pipeline for community platforms.
//
// This package (`github.com/safefeed-org/safefeed/automod`) contains a decision pipeline that augments human moderators of discussion communities. Each ingestion cycle pulls new submissions and comment trees from the monitored communities, runs them through classifier clients (text moderation categories, sentiment, image tags, AI-generation detection) and an LLM-backed policy check, fuses the results into a terminal removal decision, and executes platform-side enforcement. Repeat offenders are tracked per community in a violation ledger, and a bounded dedup store keeps re-delivered items from being judged twice.
//
// See `cmd/safefeed` for the daemon built on this package.
package automod
