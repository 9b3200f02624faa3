package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdictBasic(t *testing.T) {
	assert := assert.New(t)

	v := ParseVerdict(`{"policy_violation": true, "reason_for_violation": "threats of violence", "should_be_removed": true, "are_you_sure": true}`)
	assert.True(v.ViolatesPolicy)
	assert.True(v.ShouldRemove)
	assert.True(v.IsCertain)
	assert.Equal("threats of violence", v.Reason)
}

func TestParseVerdictWrappedInProse(t *testing.T) {
	assert := assert.New(t)

	raw := "Sure! Here is my analysis:\n```json\n{\"policy_violation\": false, \"should_be_removed\": false, \"are_you_sure\": false}\n```\nLet me know if you need anything else."
	v := ParseVerdict(raw)
	assert.False(v.ViolatesPolicy)
	assert.False(v.ShouldRemove)
	assert.False(v.IsCertain)
	assert.Equal("No violations", v.Reason)
}

func TestParseVerdictGarbage(t *testing.T) {
	assert := assert.New(t)

	for _, raw := range []string{
		"",
		"I can't help with that.",
		"{not json at all]",
		"{\"policy_violation\": \"maybe\"}",
	} {
		v := ParseVerdict(raw)
		assert.Equal(NeutralVerdict(), v, "raw=%q", raw)
	}
}

func TestParseVerdictFieldDefaults(t *testing.T) {
	assert := assert.New(t)

	// absent fields fall back individually, present ones are honored
	v := ParseVerdict(`{"policy_violation": true}`)
	assert.True(v.ViolatesPolicy)
	assert.False(v.ShouldRemove)
	assert.True(v.IsCertain)

	// a violation never carries the no-violation reason: absent or blank
	// reasons are backfilled with a generic one
	assert.Equal("Policy violation", v.Reason)
	v = ParseVerdict(`{"policy_violation": true, "reason_for_violation": "  "}`)
	assert.Equal("Policy violation", v.Reason)

	// without a violation the default reason stands
	v = ParseVerdict(`{"policy_violation": false, "reason_for_violation": ""}`)
	assert.Equal("No violations", v.Reason)
}

func TestParseVerdictImageFields(t *testing.T) {
	assert := assert.New(t)

	v := ParseVerdict(`{"policy_violation": false, "should_be_removed": false, "are_you_sure": true, "is_image_general": true, "is_image_sensitive": false, "is_image_explicit": true}`)
	assert.True(v.ImageGeneral)
	assert.False(v.ImageSensitive)
	assert.True(v.ImageExplicit)

	// text-only output leaves them false
	v = ParseVerdict(`{"policy_violation": false}`)
	assert.False(v.ImageGeneral)
	assert.False(v.ImageSensitive)
	assert.False(v.ImageExplicit)
}

func TestBuildInstructions(t *testing.T) {
	assert := assert.New(t)

	text := BuildInstructions("no spam allowed", false)
	assert.Contains(text, "no spam allowed")
	assert.NotContains(text, "is_image_general")

	img := BuildInstructions("no spam allowed", true)
	assert.Contains(img, "no spam allowed")
	assert.Contains(img, "is_image_general")
	assert.Contains(img, "is_image_explicit")
}

func TestBuildInput(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Title: hi. Text: body here. Image Tags: cat, outdoor", BuildInput("hi", "body here", "cat, outdoor"))
	assert.Equal("Title: hi. Text: body here", BuildInput("hi", "body here", ""))
}
