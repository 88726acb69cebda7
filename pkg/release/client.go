// Package release resolves GitHub releases and their assets for a
// target repo: latest or a specific tag, with retry/backoff on
// transient GitHub errors and a rate-limit-aware fallback path.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-appimage/aimctl/pkg/errors"
	depshttp "github.com/go-appimage/aimctl/pkg/http"
	"github.com/go-appimage/aimctl/pkg/ratelimit"
	"github.com/go-appimage/aimctl/pkg/types"
	"golang.org/x/oauth2"
)

// Client is a thin GitHub REST client: token resolution from the
// environment, retrying on 502/503/504, and rate-limit tracking shared
// via pkg/ratelimit.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	tokenSource string
	limiter     *ratelimit.Tracker
	mu          sync.RWMutex
}

// NewClient resolves a token from GITHUB_TOKEN/GH_TOKEN/GITHUB_ACCESS_TOKEN
// (in that order) and wires an oauth2-authenticated http.Client when
// one is found.
func NewClient(limiter *ratelimit.Tracker) *Client {
	c := &Client{limiter: limiter, baseURL: "https://api.github.com"}
	for _, env := range []string{"GITHUB_TOKEN", "GH_TOKEN", "GITHUB_ACCESS_TOKEN"} {
		if v := os.Getenv(env); v != "" {
			c.token = v
			c.tokenSource = env
			break
		}
	}
	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		c.httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		c.httpClient = depshttp.GetHttpClient()
	}
	return c
}

// SetToken overrides the resolved token, e.g. from a CLI flag.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.tokenSource = "flag"
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c.httpClient = oauth2.NewClient(context.Background(), ts)
}

// TokenSource names where the active token came from (the environment
// variable or "flag"), empty when unauthenticated.
func (c *Client) TokenSource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenSource
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "504 Gateway Timeout") ||
		strings.Contains(s, "502 Bad Gateway") ||
		strings.Contains(s, "503 Service Unavailable")
}

// IsRateLimitError reports whether err looks like a GitHub rate-limit
// response, used by the resolver to decide whether to fall back.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "API rate limit exceeded") ||
		strings.Contains(s, "403 Forbidden") ||
		strings.Contains(s, "rate limit")
}

// Get performs a GitHub REST GET with up to 3 attempts using exponential
// backoff with jitter, decoding the JSON response into result.
func (c *Client) Get(ctx context.Context, endpoint string, result interface{}) error {
	const maxRetries = 3
	baseDelay := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := c.doGet(ctx, endpoint, result)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		lastErr = err
		if attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<attempt)
			jitter := time.Duration(rand.Int63n(int64(delay / 2)))
			time.Sleep(delay + jitter)
		}
	}
	return lastErr
}

func (c *Client) doGet(ctx context.Context, endpoint string, result interface{}) error {
	url := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errors.NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if c.limiter != nil {
		c.limiter.UpdateFromHeaders(resp.Header)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &errors.ProtocolError{What: fmt.Sprintf("not found: %s", endpoint)}
	case resp.StatusCode == http.StatusForbidden:
		return &errors.ProtocolError{What: fmt.Sprintf("rate limit exceeded or forbidden: %s", endpoint)}
	case resp.StatusCode != http.StatusOK:
		return &errors.ProtocolError{What: fmt.Sprintf("HTTP %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), endpoint)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &errors.ProtocolError{What: "decoding GitHub response", Err: err}
		}
	}
	return nil
}

// restUser mirrors the GET /user response fields whoami displays.
type restUser struct {
	Login     string     `json:"login"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Company   string     `json:"company"`
	CreatedAt *time.Time `json:"created_at"`
}

// restRateLimit mirrors the GET /rate_limit response's core window.
type restRateLimit struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// WhoAmI reports authentication status, the authenticated user when a
// token is present, and the current core rate-limit window. The
// rate-limit probe also feeds the shared tracker, so a whoami before a
// batch install primes the remaining/reset figures.
func (c *Client) WhoAmI(ctx context.Context) *types.AuthStatus {
	status := &types.AuthStatus{
		Service:     "GitHub",
		TokenSource: c.TokenSource(),
	}

	var rl restRateLimit
	if err := c.Get(ctx, "/rate_limit", &rl); err == nil && rl.Resources.Core.Limit > 0 {
		reset := time.Unix(rl.Resources.Core.Reset, 0)
		status.RateLimit = &types.RateLimit{
			Remaining: rl.Resources.Core.Remaining,
			Total:     rl.Resources.Core.Limit,
			ResetTime: &reset,
		}
	}

	c.mu.RLock()
	hasToken := c.token != ""
	c.mu.RUnlock()
	if !hasToken {
		status.Error = "no token configured (checked GITHUB_TOKEN, GH_TOKEN, GITHUB_ACCESS_TOKEN)"
		return status
	}

	var user restUser
	if err := c.Get(ctx, "/user", &user); err != nil {
		status.Error = fmt.Sprintf("failed to get user info: %v", err)
		return status
	}

	status.Authenticated = true
	status.HasPermissions = true
	status.User = &types.UserInfo{
		Username:  user.Login,
		Name:      user.Name,
		Email:     user.Email,
		Company:   user.Company,
		CreatedAt: user.CreatedAt,
	}
	return status
}
