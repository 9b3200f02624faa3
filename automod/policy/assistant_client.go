package policy

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

// AssistantClient talks to an OpenAI-compatible assistants API: one thread
// per check, a run started with per-request instructions, run status polled
// on a short fixed interval, and the thread deleted afterward regardless of
// outcome. The caller bounds total wait time through the context.
type AssistantClient struct {
	Client       http.Client
	Host         string
	APIKey       string
	AssistantID  string
	PollInterval time.Duration
}

func NewAssistantClient(host, apiKey, assistantID string) AssistantClient {
	return AssistantClient{
		Client:       *util.RobustHTTPClient(),
		Host:         host,
		APIKey:       apiKey,
		AssistantID:  assistantID,
		PollInterval: 500 * time.Millisecond,
	}
}

// Analyze runs one complete single-turn reasoning request and returns the
// assistant's text response.
func (ac *AssistantClient) Analyze(ctx context.Context, instructions, input string) (string, error) {
	start := time.Now()
	defer func() {
		assistantAPIDuration.Observe(time.Since(start).Seconds())
	}()

	threadID, err := ac.createThread(ctx)
	if err != nil {
		return "", fmt.Errorf("creating assistant thread: %w", err)
	}
	// scoped acquisition: the thread is removed even when the check fails.
	// deletion uses a fresh short deadline since ctx may already be expired.
	defer func() {
		delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ac.deleteThread(delCtx, threadID); err != nil {
			assistantThreadLeaks.Inc()
		}
	}()

	if err := ac.addMessage(ctx, threadID, input); err != nil {
		return "", fmt.Errorf("adding thread message: %w", err)
	}

	runID, err := ac.startRun(ctx, threadID, instructions)
	if err != nil {
		return "", fmt.Errorf("starting assistant run: %w", err)
	}

	if err := ac.waitForRun(ctx, threadID, runID); err != nil {
		return "", err
	}

	return ac.firstResponse(ctx, threadID)
}

func (ac *AssistantClient) waitForRun(ctx context.Context, threadID, runID string) error {
	interval := ac.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("assistant run did not complete: %w", ctx.Err())
		case <-ticker.C:
			status, err := ac.runStatus(ctx, threadID, runID)
			if err != nil {
				return err
			}
			switch status {
			case "queued", "in_progress":
				continue
			case "completed":
				return nil
			default:
				return fmt.Errorf("assistant run ended with status %q", status)
			}
		}
	}
}

type threadResp struct {
	ID string `json:"id"`
}

func (ac *AssistantClient) createThread(ctx context.Context) (string, error) {
	var out threadResp
	if err := ac.doJSON(ctx, "POST", "/v1/threads", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (ac *AssistantClient) deleteThread(ctx context.Context, threadID string) error {
	return ac.doJSON(ctx, "DELETE", "/v1/threads/"+threadID, nil, nil)
}

func (ac *AssistantClient) addMessage(ctx context.Context, threadID, content string) error {
	body := map[string]any{
		"role":    "user",
		"content": content,
	}
	return ac.doJSON(ctx, "POST", "/v1/threads/"+threadID+"/messages", body, nil)
}

type runResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (ac *AssistantClient) startRun(ctx context.Context, threadID, instructions string) (string, error) {
	body := map[string]any{
		"assistant_id": ac.AssistantID,
		"instructions": instructions,
	}
	var out runResp
	if err := ac.doJSON(ctx, "POST", "/v1/threads/"+threadID+"/runs", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (ac *AssistantClient) runStatus(ctx context.Context, threadID, runID string) (string, error) {
	var out runResp
	if err := ac.doJSON(ctx, "GET", "/v1/threads/"+threadID+"/runs/"+runID, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

type messageListResp struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

func (ac *AssistantClient) firstResponse(ctx context.Context, threadID string) (string, error) {
	var out messageListResp
	if err := ac.doJSON(ctx, "GET", "/v1/threads/"+threadID+"/messages", nil, &out); err != nil {
		return "", err
	}
	for _, msg := range out.Data {
		if msg.Role != "assistant" {
			continue
		}
		if len(msg.Content) > 0 {
			return msg.Content[0].Text.Value, nil
		}
	}
	return "", fmt.Errorf("no assistant response in thread")
}

func (ac *AssistantClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, ac.Host+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+ac.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "safefeed/"+versioninfo.Short())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ac.Client.Do(req)
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}
	defer res.Body.Close()

	assistantAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return fmt.Errorf("assistant request failed statusCode=%d", res.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read assistant resp body: %w", err)
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("failed to parse assistant resp JSON: %w", err)
	}
	return nil
}
