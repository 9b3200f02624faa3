package policy

import (
	"encoding/json"
	"strings"
)

// Verdict is the checker's structured judgment of one item against a policy
// document. Every field carries a safe default so that malformed model output
// degrades to a no-op verdict instead of an error.
type Verdict struct {
	ViolatesPolicy bool
	Reason         string
	ShouldRemove   bool
	IsCertain      bool
	// image content booleans, only meaningful when the check included image
	// tags
	ImageGeneral   bool
	ImageSensitive bool
	ImageExplicit  bool
}

const defaultReason = "No violations"

// NeutralVerdict is substituted whenever the checker fails or returns
// unparsable output: no violation, certain, nothing removed.
func NeutralVerdict() Verdict {
	return Verdict{
		ViolatesPolicy: false,
		Reason:         defaultReason,
		ShouldRemove:   false,
		IsCertain:      true,
	}
}

// verdictSchema is the wire schema the model is instructed to produce.
// Pointer fields distinguish "absent" from "false" so each field can fall
// back to its own default.
type verdictSchema struct {
	PolicyViolation    *bool   `json:"policy_violation"`
	ReasonForViolation *string `json:"reason_for_violation"`
	ShouldBeRemoved    *bool   `json:"should_be_removed"`
	AreYouSure         *bool   `json:"are_you_sure"`
	IsImageGeneral     *bool   `json:"is_image_general"`
	IsImageSensitive   *bool   `json:"is_image_sensitive"`
	IsImageExplicit    *bool   `json:"is_image_explicit"`
}

// ParseVerdict extracts a Verdict from raw model output. The model is asked
// for a bare JSON object but may wrap it in prose or code fences; the parser
// locates the outermost object and fills absent or unparsable fields with
// defaults. It never fails: garbage in, neutral verdict out.
func ParseVerdict(raw string) Verdict {
	v := NeutralVerdict()

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		verdictParseFailures.Inc()
		return v
	}

	var schema verdictSchema
	if err := json.Unmarshal([]byte(raw[start:end+1]), &schema); err != nil {
		verdictParseFailures.Inc()
		return v
	}

	if schema.PolicyViolation != nil {
		v.ViolatesPolicy = *schema.PolicyViolation
	}
	if schema.ReasonForViolation != nil && strings.TrimSpace(*schema.ReasonForViolation) != "" {
		v.Reason = strings.TrimSpace(*schema.ReasonForViolation)
	}
	if schema.ShouldBeRemoved != nil {
		v.ShouldRemove = *schema.ShouldBeRemoved
	}
	if schema.AreYouSure != nil {
		v.IsCertain = *schema.AreYouSure
	}
	if schema.IsImageGeneral != nil {
		v.ImageGeneral = *schema.IsImageGeneral
	}
	if schema.IsImageSensitive != nil {
		v.ImageSensitive = *schema.IsImageSensitive
	}
	if schema.IsImageExplicit != nil {
		v.ImageExplicit = *schema.IsImageExplicit
	}

	// a violation always carries a reason
	if v.ViolatesPolicy && v.Reason == defaultReason {
		v.Reason = "Policy violation"
	}
	return v
}
