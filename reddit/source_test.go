package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/safefeed-org/safefeed/automod/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testClient(srvURL string) *Client {
	c := NewClient("id", "secret", "moduser", "hunter2")
	c.Host = srvURL
	c.AuthHost = srvURL
	c.Limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func tokenHandler(tokenRequests *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokenRequests != nil {
			tokenRequests.Add(1)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(401)
			return
		}
		fmt.Fprint(w, `{"access_token": "tok-1", "token_type": "bearer", "expires_in": 3600, "scope": "*"}`)
	}
}

func TestSourceFetchNew(t *testing.T) {
	assert := assert.New(t)

	var tokenRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", tokenHandler(&tokenRequests))
	mux.HandleFunc("/r/gaming/new", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("Bearer tok-1", r.Header.Get("Authorization"))
		// newest first, as reddit delivers
		fmt.Fprint(w, `{"kind": "Listing", "data": {"children": [
			{"kind": "t3", "data": {"name": "t3_new", "title": "newest", "selftext": "b", "url": "https://example.com/x.png", "author": "alice", "created_utc": 2000}},
			{"kind": "t3", "data": {"name": "t3_mid", "title": "middle", "selftext": "", "url": "", "author": "", "created_utc": 1500}},
			{"kind": "t3", "data": {"name": "t3_old", "title": "too old", "selftext": "", "url": "", "author": "bob", "created_utc": 500}}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSource(testClient(srv.URL))
	posts, err := src.FetchNew(context.Background(), "gaming", time.Unix(1000, 0))
	require.NoError(t, err)

	// watermark filter applied, oldest first
	require.Len(t, posts, 2)
	assert.Equal("t3_mid", posts[0].ID)
	assert.Equal(engine.DeletedAuthor, posts[0].Author)
	assert.Equal("t3_new", posts[1].ID)
	assert.Equal("alice", posts[1].Author)
	assert.Equal("https://example.com/x.png", posts[1].URL)
	assert.Equal(time.Unix(2000, 0), posts[1].CreatedAt)

	// second call reuses the cached token
	_, err = src.FetchNew(context.Background(), "gaming", time.Unix(1000, 0))
	require.NoError(t, err)
	assert.Equal(int32(1), tokenRequests.Load())
}

func TestSourceFetchComments(t *testing.T) {
	assert := assert.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", tokenHandler(nil))
	mux.HandleFunc("/comments/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"name": "t3_abc"}}]}},
			{"kind": "Listing", "data": {"children": [
				{"kind": "t1", "data": {"name": "t1_a", "author": "alice", "body": "top", "created_utc": 100,
					"replies": {"kind": "Listing", "data": {"children": [
						{"kind": "t1", "data": {"name": "t1_b", "author": "bob", "body": "nested", "created_utc": 200, "replies": ""}}
					]}}}},
				{"kind": "more", "data": {"count": 12, "children": ["t1_x"]}},
				{"kind": "t1", "data": {"name": "t1_c", "author": "carol", "body": "second top", "created_utc": 300, "replies": ""}}
			]}}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSource(testClient(srv.URL))
	nodes, err := src.FetchComments(context.Background(), "t3_abc")
	require.NoError(t, err)

	// "more" placeholders dropped, tree structure intact
	require.Len(t, nodes, 2)
	assert.Equal("t1_a", nodes[0].ID)
	assert.Equal("alice", nodes[0].Author)
	require.Len(t, nodes[0].Replies, 1)
	assert.Equal("t1_b", nodes[0].Replies[0].ID)
	assert.Empty(nodes[0].Replies[0].Replies)
	assert.Equal("t1_c", nodes[1].ID)
	assert.Equal(time.Unix(300, 0), nodes[1].CreatedAt)
}

func TestEnforcerRemove(t *testing.T) {
	assert := assert.New(t)

	var removed, composed atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", tokenHandler(nil))
	mux.HandleFunc("/api/remove", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal("t3_bad", r.Form.Get("id"))
		assert.Equal("false", r.Form.Get("spam"))
		removed.Add(1)
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"name": "t3_bad", "author": "troublemaker"}}]}}`)
	})
	mux.HandleFunc("/api/compose", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal("troublemaker", r.Form.Get("to"))
		assert.Equal("Your post has been taken down!", r.Form.Get("subject"))
		assert.Contains(r.Form.Get("text"), "Dear troublemaker,")
		assert.Contains(r.Form.Get("text"), "Reason for violation: threats of violence")
		composed.Add(1)
		fmt.Fprint(w, `{"json": {"errors": []}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	enf := NewEnforcer(testClient(srv.URL))
	require.NoError(t, enf.Remove(context.Background(), "t3_bad", "threats of violence", true))
	assert.Equal(int32(1), removed.Load())
	assert.Equal(int32(1), composed.Load())
}

func TestEnforcerPostNotice(t *testing.T) {
	assert := assert.New(t)

	var distinguished atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", tokenHandler(nil))
	mux.HandleFunc("/api/comment", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal("t3_img", r.Form.Get("thing_id"))
		fmt.Fprint(w, `{"json": {"errors": [], "data": {"things": [{"kind": "t1", "data": {"name": "t1_notice"}}]}}}`)
	})
	mux.HandleFunc("/api/distinguish", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal("t1_notice", r.Form.Get("id"))
		assert.Equal("yes", r.Form.Get("how"))
		assert.Equal("true", r.Form.Get("sticky"))
		distinguished.Add(1)
		fmt.Fprint(w, `{"json": {"errors": []}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	enf := NewEnforcer(testClient(srv.URL))
	require.NoError(t, enf.PostNotice(context.Background(), "t3_img", "detected as AI-generated", true))
	assert.Equal(int32(1), distinguished.Load())
}

func TestRemovalMessageWording(t *testing.T) {
	assert := assert.New(t)

	subject, body := removalMessage("t3_abc", "alice", "spam")
	assert.Equal("Your post has been taken down!", subject)
	assert.Contains(body, "Your submission has been removed by SafeFeed")
	assert.Contains(body, "Reason for violation: spam")

	subject, body = removalMessage("t1_def", "bob", "spam")
	assert.Equal("Your comment has been removed", subject)
	assert.Contains(body, "Your comment with ID def has been removed by SafeFeed")
}
