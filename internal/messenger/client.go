// Package messenger talks to the external messaging provider: it resolves a
// user's contact handle from the caller's friend list and delivers payment
// request messages.
package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/metrics"
)

const (
	friendsPath = "/v1/api/talk/friends"
	sendPath    = "/v1/api/talk/friends/message/default/send"

	// DefaultMaxPages bounds friend list pagination.
	DefaultMaxPages = 1000

	maxResponseSize = 1 << 20
)

// Config configures the provider client.
type Config struct {
	// BaseURL is the provider API root, e.g. https://kapi.kakao.com.
	BaseURL string

	// MaxPages caps how many friend list pages a single lookup may fetch.
	MaxPages int

	// PagesPerSecond paces friend list fetches. Zero disables pacing.
	PagesPerSecond float64

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// Client is an HTTP client for the messaging provider.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	maxPages int
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

// NewClient creates a provider client. A nil httpClient uses a client with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid messenger base url %q", cfg.BaseURL)
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	limit := rate.Inf
	if cfg.PagesPerSecond > 0 {
		limit = rate.Limit(cfg.PagesPerSecond)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "messenger",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:  base,
		http:     httpClient,
		maxPages: maxPages,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  breaker,
		metrics:  metrics.New(),
	}, nil
}

// FriendID is the provider's user identifier. The provider may encode it as a
// JSON number or a string.
type FriendID string

// UnmarshalJSON accepts both numeric and string IDs.
func (id *FriendID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FriendID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	*id = FriendID(data)
	return nil
}

// Friend is one entry of the friend list.
type Friend struct {
	ID       FriendID `json:"id"`
	UUID     string   `json:"uuid"`
	Nickname string   `json:"profile_nickname,omitempty"`
}

// FriendsPage is one page of the friend list.
type FriendsPage struct {
	Elements   []Friend `json:"elements"`
	TotalCount int      `json:"total_count"`
	AfterURL   string   `json:"after_url,omitempty"`
}

// handleFor returns the messaging handle of targetID on this page, or "".
func (p *FriendsPage) handleFor(targetID string) string {
	for _, f := range p.Elements {
		if string(f.ID) == targetID && f.UUID != "" {
			return f.UUID
		}
	}
	return ""
}

// StatusError is a non-2xx provider answer.
type StatusError struct {
	Call       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s returned status %d", errs.ErrExternalService, e.Call, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return errs.ErrExternalService }

// providerFault reports whether the status points at the provider rather
// than at the caller's token or request.
func (e *StatusError) providerFault() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// breakerSuccess keeps per-caller 4xx answers out of the shared breaker.
// Transport errors, 429 and 5xx count as failures.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.providerFault()
	}
	return false
}

type sendResponse struct {
	SuccessfulReceiverUUIDs []string `json:"successful_receiver_uuids"`
}

func (c *Client) fetchFriends(ctx context.Context, token, pageURL string) (*FriendsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build friends request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var page FriendsPage
	if err := c.do(req, "friends", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Send delivers message to handle on behalf of the token owner. Delivery
// counts as successful only if the provider lists handle among the
// successful receivers.
func (c *Client) Send(ctx context.Context, token, handle string, message *Message) error {
	if token == "" || handle == "" || message == nil {
		return fmt.Errorf("%w: token, handle and message are required", errs.ErrInvalidInput)
	}

	receivers, err := json.Marshal([]string{handle})
	if err != nil {
		return fmt.Errorf("failed to encode receivers: %w", err)
	}
	template, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message template: %w", err)
	}

	form := url.Values{}
	form.Set("receiver_uuids", string(receivers))
	form.Set("template_object", string(template))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath(sendPath).String(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	var resp sendResponse
	if err := c.do(req, "send", &resp); err != nil {
		return err
	}

	for _, h := range resp.SuccessfulReceiverUUIDs {
		if h == handle {
			slog.Info("Payment request delivered", "handle", handle)
			return nil
		}
	}
	slog.Error("Provider did not confirm delivery", "handle", handle, "successful", resp.SuccessfulReceiverUUIDs)
	return fmt.Errorf("%w: delivery to %s not confirmed", errs.ErrExternalService, handle)
}

// do executes req through the circuit breaker and decodes a JSON body into out.
func (c *Client) do(req *http.Request, call string, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s request failed: %v", errs.ErrExternalService, call, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s response: %v", errs.ErrExternalService, call, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("Messenger API call failed", "call", call, "status", resp.StatusCode)
			return nil, &StatusError{Call: call, StatusCode: resp.StatusCode}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s response: %v", errs.ErrExternalService, call, err)
		}
		return nil, nil
	})
	c.metrics.ObserveProviderCall(call, err, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", errs.ErrExternalService, call, err)
	}
	return err
}

// sameOrigin reports whether next points at the provider host.
func (c *Client) sameOrigin(next string) bool {
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == c.baseURL.Scheme && u.Host == c.baseURL.Host
}
