package signals

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationClient(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/v1/moderations", r.URL.Path)
		assert.Equal("Bearer dummy-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"id": "modr-001",
			"results": [{
				"flagged": true,
				"categories": {"violence": true, "hate/threatening": true, "sexual": false},
				"category_scores": {"violence": 0.97, "hate/threatening": 0.81, "sexual": 0.001}
			}]
		}`)
	}))
	defer srv.Close()

	mc := NewModerationClient(srv.URL, "dummy-key")
	res, err := mc.Moderate(context.Background(), "I will hurt you")
	require.NoError(t, err)

	assert.True(res.Flagged)
	assert.True(res.Categories["violence"])
	assert.True(res.Categories["hate/threatening"])
	assert.False(res.Categories["sexual"])
	assert.InDelta(0.97, res.CategoryScores["violence"], 0.001)
}

func TestModerationClientErrors(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
	}))
	defer srv.Close()

	mc := NewModerationClient(srv.URL, "dummy-key")
	_, err := mc.Moderate(context.Background(), "text")
	assert.Error(err)
}

func TestExtractorDegradesOnFailure(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
	}))
	defer srv.Close()

	mc := NewModerationClient(srv.URL, "dummy-key")
	ex := &Extractor{
		Moderation: &mc,
		Sentiment:  NewSentimentAnalyzer(),
	}

	// classifier failure contributes defaults, never an error
	sig := ex.Collect(context.Background(), "I love this great community", "")
	assert.False(sig.Flagged)
	assert.False(sig.Violence())
	assert.Equal(SentimentPositive, sig.Sentiment)
}
