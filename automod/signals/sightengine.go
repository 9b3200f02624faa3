package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safefeed-org/safefeed/util"

	"github.com/carlmjohnson/versioninfo"
)

// SightengineClient fetches an AI-generation likelihood for an image URL,
// using the sightengine check.json API with the "genai" model.
//
// schema: https://sightengine.com/docs/ai-generated-image-detection
type SightengineClient struct {
	Client    http.Client
	Host      string
	APIUser   string
	APISecret string
}

func NewSightengineClient(host, apiUser, apiSecret string) SightengineClient {
	return SightengineClient{
		Client:    *util.RobustHTTPClient(),
		Host:      host,
		APIUser:   apiUser,
		APISecret: apiSecret,
	}
}

type sightengineResp struct {
	Status string              `json:"status"`
	Type   sightengineRespType `json:"type"`
}

type sightengineRespType struct {
	AIGenerated float64 `json:"ai_generated"`
}

// AIGeneratedScore returns a probability in [0,1] that the image at imageURL
// is AI-generated.
func (sc *SightengineClient) AIGeneratedScore(ctx context.Context, imageURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sc.Host+"/1.0/check.json", nil)
	if err != nil {
		return 0, err
	}

	q := req.URL.Query()
	q.Add("url", imageURL)
	q.Add("models", "genai")
	q.Add("api_user", sc.APIUser)
	q.Add("api_secret", sc.APISecret)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "safefeed/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		imageCheckAPIDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := sc.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sightengine request failed: %w", err)
	}
	defer res.Body.Close()

	imageCheckAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return 0, fmt.Errorf("sightengine request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read sightengine resp body: %w", err)
	}

	var respObj sightengineResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return 0, fmt.Errorf("failed to parse sightengine resp JSON: %w", err)
	}
	if respObj.Status != "" && respObj.Status != "success" {
		return 0, fmt.Errorf("sightengine check failed status=%s", respObj.Status)
	}
	return respObj.Type.AIGenerated, nil
}
