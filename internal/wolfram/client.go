// Package wolfram resolves free-form queries against the Wolfram|Alpha v2
// query API and extracts the first plain-text answer of its Result pod.
package wolfram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "http://api.wolframalpha.com/v2/query"
	DefaultAppID   = "DEMO"
	DefaultTimeout = 10 * time.Second
)

// TransportError is returned when the service cannot be reached or answers
// with a non-2xx status.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wolfram request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("wolfram request %s: status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client queries a Wolfram|Alpha compatible endpoint.
type Client struct {
	BaseURL string
	AppID   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// New returns a client with its own http.Client bounded by timeout.
// A zero timeout selects DefaultTimeout.
func New(baseURL, appID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: baseURL,
		AppID:   appID,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  slog.Default(),
	}
}

// QueryURL builds the request URL for input. Surrounding whitespace is
// trimmed and inner whitespace is percent-encoded as %20.
func (c *Client) QueryURL(input string) string {
	enc := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(input)), "+", "%20")
	sep := "?"
	if strings.Contains(c.BaseURL, "?") {
		sep = "&"
	}
	return c.BaseURL + sep + "input=" + enc + "&appid=" + url.QueryEscape(c.AppID)
}

// Resolve submits input and returns the first plain-text answer. found is
// false, with a nil error, when the response has no usable Result pod.
func (c *Client) Resolve(ctx context.Context, input string) (string, bool, error) {
	u := c.QueryURL(input)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, fmt.Errorf("build wolfram request: %w", err)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", false, &TransportError{URL: c.redacted(u), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", false, &TransportError{URL: c.redacted(u), Status: resp.StatusCode}
	}

	answer, found, err := ExtractResult(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("parse wolfram response: %w", err)
	}
	if c.Logger != nil {
		c.Logger.Debug("wolfram query", "found", found, "elapsed", time.Since(start))
	}
	return answer, found, nil
}

// redacted hides the application id in URLs that end up in errors and logs.
func (c *Client) redacted(u string) string {
	if c.AppID == "" {
		return u
	}
	return strings.ReplaceAll(u, "appid="+url.QueryEscape(c.AppID), "appid=REDACTED")
}
