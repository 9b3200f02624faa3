package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safefeed-org/safefeed/util"

	"github.com/carlmjohnson/versioninfo"
)

// ModerationClient calls an OpenAI-compatible text moderation endpoint
// (POST {host}/v1/moderations) and returns per-category booleans and scores.
type ModerationClient struct {
	Client http.Client
	Host   string
	APIKey string
}

func NewModerationClient(host, apiKey string) ModerationClient {
	return ModerationClient{
		Client: *util.RobustHTTPClient(),
		Host:   host,
		APIKey: apiKey,
	}
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []ModerationResult `json:"results"`
}

type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

func (mc *ModerationClient) Moderate(ctx context.Context, text string) (*ModerationResult, error) {
	reqBytes, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", mc.Host+"/v1/moderations", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+mc.APIKey)
	req.Header.Set("User-Agent", "safefeed/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		moderationAPIDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := mc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}
	defer res.Body.Close()

	moderationAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("moderation request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read moderation resp body: %w", err)
	}

	var respObj moderationResponse
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return nil, fmt.Errorf("failed to parse moderation resp JSON: %w", err)
	}
	if len(respObj.Results) == 0 {
		return nil, fmt.Errorf("moderation response contained no results")
	}
	return &respObj.Results[0], nil
}
