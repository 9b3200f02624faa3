package policy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReasoner struct {
	response     string
	err          error
	instructions string
	input        string
}

func (r *fakeReasoner) Analyze(ctx context.Context, instructions, input string) (string, error) {
	r.instructions = instructions
	r.input = input
	return r.response, r.err
}

func TestCheckerPolicySelection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := NewMemStore()
	require.NoError(t, store.SetPolicy(ctx, "", "default: be nice"))
	require.NoError(t, store.SetPolicy(ctx, "gaming", "gaming: no spoilers"))

	reasoner := &fakeReasoner{response: `{"policy_violation": false}`}
	checker := NewChecker(nil, store, reasoner)

	checker.Check(ctx, "gaming", "t", "b", "")
	assert.Contains(reasoner.instructions, "gaming: no spoilers")
	assert.NotContains(reasoner.instructions, "default: be nice")

	// unknown community falls back to the default document
	checker.Check(ctx, "news", "t", "b", "")
	assert.Contains(reasoner.instructions, "default: be nice")
}

func TestCheckerVerdict(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	reasoner := &fakeReasoner{response: `{"policy_violation": true, "reason_for_violation": "harassment of another user", "should_be_removed": true, "are_you_sure": true}`}
	checker := NewChecker(nil, NewMemStore(), reasoner)

	v := checker.Check(ctx, "gaming", "title", "body", "")
	assert.True(v.ViolatesPolicy)
	assert.True(v.ShouldRemove)
	assert.Equal("harassment of another user", v.Reason)
	assert.Equal("Text: body", reasoner.input[len(reasoner.input)-10:])
}

func TestCheckerDegradesToNeutral(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// reasoner failure
	reasoner := &fakeReasoner{err: fmt.Errorf("upstream refused")}
	checker := NewChecker(nil, NewMemStore(), reasoner)
	assert.Equal(NeutralVerdict(), checker.Check(ctx, "gaming", "t", "b", ""))

	// no reasoner configured at all
	checker = NewChecker(nil, NewMemStore(), nil)
	assert.Equal(NeutralVerdict(), checker.Check(ctx, "gaming", "t", "b", ""))
}

func TestCheckerImageVariant(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	reasoner := &fakeReasoner{response: `{"policy_violation": false, "is_image_explicit": true}`}
	checker := NewChecker(nil, NewMemStore(), reasoner)

	v := checker.Check(ctx, "pics", "t", "b", "weapon, street")
	assert.Contains(reasoner.instructions, "is_image_explicit")
	assert.Contains(reasoner.input, "Image Tags: weapon, street")
	assert.True(v.ImageExplicit)
}
