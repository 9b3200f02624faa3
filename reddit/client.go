package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/safefeed-org/safefeed/util"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

// Client talks to the reddit OAuth API as a "script" application, using the
// password grant. Access tokens are cached and refreshed transparently.
type Client struct {
	C        *http.Client
	Limiter  *rate.Limiter
	Host     string
	AuthHost string

	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string

	tokenLk     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(clientID, clientSecret, username, password string) *Client {
	return &Client{
		C: util.RobustHTTPClient(),
		// reddit allows 60 req/min for script apps; stay under it
		Limiter:      rate.NewLimiter(rate.Limit(1), 5),
		Host:         "https://oauth.reddit.com",
		AuthHost:     "https://www.reddit.com",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     username,
		Password:     password,
		UserAgent:    "safefeed/" + versioninfo.Short(),
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenLk.Lock()
	defer c.tokenLk.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.Username)
	form.Set("password", c.Password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.AuthHost+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("constructing token request: %w", err)
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	res, err := c.C.Do(req)
	if err != nil {
		tokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reddit token request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		tokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reddit token request failed, status=%d", res.StatusCode)
	}

	var tok tokenResp
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		tokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to decode reddit token response: %w", err)
	}
	if tok.AccessToken == "" {
		tokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reddit token response contained no access token")
	}

	c.token = tok.AccessToken
	// refresh a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	tokenRefreshCount.WithLabelValues("ok").Inc()
	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	u := c.Host + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("constructing reddit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	apiCount.WithLabelValues(method, path).Inc()
	start := time.Now()
	res, err := c.C.Do(req)
	apiDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("reddit request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 401 {
		// token revoked out-of-band; force a refresh on the next call
		c.tokenLk.Lock()
		c.token = ""
		c.tokenLk.Unlock()
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("reddit request failed (%s %s), status=%d", method, path, res.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode reddit response: %w", err)
		}
	}
	return nil
}

// Get performs an authenticated GET against the OAuth API host.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")
	return c.do(ctx, "GET", path, params, nil, out)
}

// PostForm performs an authenticated form POST against the OAuth API host.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, "POST", path, nil, strings.NewReader(form.Encode()), out)
}
