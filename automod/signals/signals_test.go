package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryDerivations(t *testing.T) {
	assert := assert.New(t)

	sig := NewSignalSet()
	assert.False(sig.HateSpeech())
	assert.False(sig.Harassment())
	assert.False(sig.SelfHarm())
	assert.False(sig.SexualContent())
	assert.False(sig.Violence())

	// each sub-category alone is sufficient
	sig = NewSignalSet()
	sig.Categories[CategoryHateThreatening] = true
	assert.True(sig.HateSpeech())
	assert.False(sig.Harassment())

	sig = NewSignalSet()
	sig.Categories[CategoryHarassment] = true
	assert.True(sig.Harassment())

	sig = NewSignalSet()
	sig.Categories[CategorySelfHarmInstructions] = true
	assert.True(sig.SelfHarm())

	sig = NewSignalSet()
	sig.Categories[CategorySexualMinors] = true
	assert.True(sig.SexualContent())

	sig = NewSignalSet()
	sig.Categories[CategoryViolenceGraphic] = true
	assert.True(sig.Violence())
	assert.False(sig.SelfHarm())
}

func TestFlaggedIndependentOfCategories(t *testing.T) {
	assert := assert.New(t)

	// Flagged comes from the classifier verbatim; a category boolean being
	// set does not imply it
	sig := NewSignalSet()
	sig.Categories[CategoryViolence] = true
	assert.False(sig.Flagged)

	sig = NewSignalSet()
	sig.Flagged = true
	assert.False(sig.Violence())
}
