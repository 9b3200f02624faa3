package engine

import (
	"github.com/safefeed-org/safefeed/automod/policy"
	"github.com/safefeed-org/safefeed/automod/signals"
)

// Decision is the terminal record for one content item. Never mutated after
// creation: corrections require a new Decision, not an edit.
type Decision struct {
	// derived violation categories, each the OR of its classifier
	// sub-categories
	HateSpeech    bool
	Harassment    bool
	SelfHarm      bool
	SexualContent bool
	Violence      bool

	Removed      bool
	Questionable bool
	Reason       string

	ImageGeneral   bool
	ImageSensitive bool
	ImageExplicit  bool
}

// FuseDecision merges extractor signals and the checker verdict into the
// terminal decision. Pure function, no external calls.
//
// The removal rule is deliberately permissive: either the violation flag or
// the severity judgment alone is sufficient (OR, not AND), because a missed
// violation is costlier than a false removal in this domain.
func FuseDecision(sig signals.SignalSet, verdict policy.Verdict) Decision {
	reason := verdict.Reason
	if reason == "" {
		reason = "No violations"
	}
	return Decision{
		HateSpeech:    sig.HateSpeech(),
		Harassment:    sig.Harassment(),
		SelfHarm:      sig.SelfHarm(),
		SexualContent: sig.SexualContent(),
		Violence:      sig.Violence(),

		Removed:      verdict.ViolatesPolicy || verdict.ShouldRemove,
		Questionable: !verdict.IsCertain,
		Reason:       reason,

		ImageGeneral:   verdict.ImageGeneral,
		ImageSensitive: verdict.ImageSensitive,
		ImageExplicit:  verdict.ImageExplicit,
	}
}
