package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/safefeed-org/safefeed/util"

	"github.com/carlmjohnson/versioninfo"
)

// TaggerClient fetches descriptive free-text tags for an image URL from a
// tagger service (a wd-tagger style model behind a small HTTP API).
type TaggerClient struct {
	Client http.Client
	Host   string
}

func NewTaggerClient(host string) TaggerClient {
	return TaggerClient{
		Client: *util.RobustHTTPClient(),
		Host:   host,
	}
}

type taggerResp struct {
	Tags []string `json:"tags"`
}

// Tags returns a comma-joined tag string for the image, suitable for
// embedding in a policy check prompt.
func (tc *TaggerClient) Tags(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", tc.Host+"/tags", nil)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Add("url", imageURL)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "safefeed/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		taggerAPIDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := tc.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tagger request failed: %w", err)
	}
	defer res.Body.Close()

	taggerAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return "", fmt.Errorf("tagger request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read tagger resp body: %w", err)
	}

	var respObj taggerResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return "", fmt.Errorf("failed to parse tagger resp JSON: %w", err)
	}
	return strings.Join(respObj.Tags, ", "), nil
}
