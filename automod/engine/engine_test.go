package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safefeed-org/safefeed/automod/policy"
	"github.com/safefeed-org/safefeed/automod/signals"
	"github.com/safefeed-org/safefeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRemovalFlow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, src, checker, enforcer := EngineTestFixture()
	comm := models.Community{Name: "gaming", LastPolledAt: time.Now().Add(-time.Hour)}
	require.NoError(t, eng.DB.Create(&comm).Error)

	checker.ByBody = map[string]policy.Verdict{
		"I will hurt you": {ViolatesPolicy: true, Reason: "threats of violence", ShouldRemove: true, IsCertain: true},
	}
	src.Posts["gaming"] = []Post{
		{ID: "t3_bad", Title: "watch out", Body: "I will hurt you", Author: "troublemaker", CreatedAt: time.Now().Add(-time.Minute)},
		{ID: "t3_ok", Title: "hello", Body: "lovely day", Author: "alice", CreatedAt: time.Now().Add(-time.Minute)},
	}

	require.NoError(t, eng.ProcessCommunity(ctx, &comm))

	// exactly the violating item was removed, with its reason
	require.Len(t, enforcer.Removals, 1)
	assert.Equal("t3_bad", enforcer.Removals[0].ItemID)
	assert.Equal("threats of violence", enforcer.Removals[0].Reason)
	assert.True(enforcer.Removals[0].NotifyAuthor)

	// decision rows for both items
	var bad, ok models.Submission
	require.NoError(t, eng.DB.First(&bad, "id = ?", "t3_bad").Error)
	require.NoError(t, eng.DB.First(&ok, "id = ?", "t3_ok").Error)
	assert.True(bad.Removed)
	assert.Equal("threats of violence", bad.Reason)
	assert.False(ok.Removed)
	assert.Equal("No violations", ok.Reason)

	// violation recorded against the author, only once
	c, err := eng.Ledger.GetViolationCount(ctx, comm.ID, "troublemaker")
	require.NoError(t, err)
	assert.Equal(int64(1), c)
	c, err = eng.Ledger.GetViolationCount(ctx, comm.ID, "alice")
	require.NoError(t, err)
	assert.Equal(int64(0), c)
}

func TestEngineRepeatViolator(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, src, checker, _ := EngineTestFixture()
	comm := models.Community{Name: "gaming", LastPolledAt: time.Now().Add(-time.Hour)}
	require.NoError(t, eng.DB.Create(&comm).Error)

	checker.Verdict = policy.Verdict{ViolatesPolicy: true, Reason: "harassment", IsCertain: true}
	src.Posts["gaming"] = []Post{
		{ID: "t3_1", Title: "a", Body: "insult one", Author: "troublemaker", CreatedAt: time.Now().Add(-3 * time.Minute)},
		{ID: "t3_2", Title: "b", Body: "insult two", Author: "troublemaker", CreatedAt: time.Now().Add(-2 * time.Minute)},
		{ID: "t3_3", Title: "c", Body: "insult three", Author: "troublemaker", CreatedAt: time.Now().Add(-time.Minute)},
	}

	require.NoError(t, eng.ProcessCommunity(ctx, &comm))

	c, err := eng.Ledger.GetViolationCount(ctx, comm.ID, "troublemaker")
	require.NoError(t, err)
	assert.Equal(int64(3), c)
}

func TestEngineEnforcementFailureDoesNotAbort(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, src, checker, enforcer := EngineTestFixture()
	comm := models.Community{Name: "gaming", LastPolledAt: time.Now().Add(-time.Hour)}
	require.NoError(t, eng.DB.Create(&comm).Error)

	checker.Verdict = policy.Verdict{ViolatesPolicy: true, Reason: "spam", IsCertain: true}
	enforcer.Err = fmt.Errorf("api unavailable")
	src.Posts["gaming"] = []Post{
		{ID: "t3_1", Title: "a", Body: "buy now", Author: "spammer", CreatedAt: time.Now().Add(-time.Minute)},
	}

	// enforcement is best-effort; the decision and ledger still land
	require.NoError(t, eng.ProcessCommunity(ctx, &comm))

	var sub models.Submission
	require.NoError(t, eng.DB.First(&sub, "id = ?", "t3_1").Error)
	assert.True(sub.Removed)

	c, err := eng.Ledger.GetViolationCount(ctx, comm.ID, "spammer")
	require.NoError(t, err)
	assert.Equal(int64(1), c)
}

func TestEngineAIGeneratedNotice(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "type": {"ai_generated": 0.93}}`)
	}))
	defer srv.Close()

	eng, src, _, enforcer := EngineTestFixture()
	sc := signals.NewSightengineClient(srv.URL, "user", "secret")
	eng.Extractor.ImageCheck = &sc

	comm := models.Community{Name: "pics", LastPolledAt: time.Now().Add(-time.Hour)}
	require.NoError(t, eng.DB.Create(&comm).Error)

	src.Posts["pics"] = []Post{
		{ID: "t3_img", Title: "my art", Body: "", URL: "https://example.com/art.png", Author: "alice", CreatedAt: time.Now().Add(-time.Minute)},
		{ID: "t3_txt", Title: "no image", Body: "just words", Author: "bob", CreatedAt: time.Now().Add(-time.Minute)},
	}

	require.NoError(t, eng.ProcessCommunity(ctx, &comm))

	// pinned notice on the image submission only, and no removal
	require.Len(t, enforcer.Notices, 1)
	assert.Equal("t3_img", enforcer.Notices[0].ItemID)
	assert.True(enforcer.Notices[0].Pinned)
	assert.Contains(enforcer.Notices[0].Message, "AI-generated")
	assert.Empty(enforcer.Removals)
}

func TestEngineDeletedAuthor(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, src, checker, _ := EngineTestFixture()
	comm := models.Community{Name: "gaming", LastPolledAt: time.Now().Add(-time.Hour)}
	require.NoError(t, eng.DB.Create(&comm).Error)

	checker.Verdict = policy.Verdict{ViolatesPolicy: true, Reason: "spam", IsCertain: true}
	src.Posts["gaming"] = []Post{
		{ID: "t3_1", Title: "a", Body: "spam spam", Author: "", CreatedAt: time.Now().Add(-time.Minute)},
	}

	require.NoError(t, eng.ProcessCommunity(ctx, &comm))

	var sub models.Submission
	require.NoError(t, eng.DB.First(&sub, "id = ?", "t3_1").Error)
	assert.Equal(DeletedAuthor, sub.Author)

	// the sentinel still accumulates ledger rows; it is a real author name
	// as far as accounting is concerned
	c, err := eng.Ledger.GetViolationCount(ctx, comm.ID, DeletedAuthor)
	require.NoError(t, err)
	assert.Equal(int64(1), c)
}
