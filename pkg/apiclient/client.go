// Package apiclient is the authenticated HTTP access layer: it attaches
// bearer tokens to outgoing requests, detects authorization failures,
// performs a single-flight token refresh, retries the original request
// once, and falls back to clearing the session when refresh is
// impossible.
package apiclient

import (
	"bytes"
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

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ndiyarov/hrmkit/pkg/credstore"
)

const refreshPath = "/refresh"

// ErrSessionExpired is returned when a request could not be authorized
// and the refresh fallback failed or was impossible. By the time the
// caller sees it, the stored credentials have been cleared and the
// OnSessionExpired hook (if any) has fired.
var ErrSessionExpired = errors.New("session expired")

type Options struct {
	// BaseURL is the tenant-scoped API root, e.g. https://api.example.com/v1/cmp.
	BaseURL string
	// Credentials is the shared token slot read on every request.
	Credentials credstore.Store
	Logger      *slog.Logger
	// Timeout applies per request; zero means 15s.
	Timeout time.Duration
	// OnSessionExpired is invoked after credentials are cleared on an
	// unrecoverable authorization failure. It is the SDK equivalent of
	// a browser redirect to /login.
	OnSessionExpired func()
}

type Client struct {
	baseURL          string
	http             *http.Client
	bare             *http.Client
	creds            credstore.Store
	log              *slog.Logger
	onSessionExpired func()
	refresh          singleflight.Group
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		// The refresh call goes through a bare client with no
		// bearer-attach or retry stages, so an expired refresh token
		// can never trigger a recursive refresh.
		bare: &http.Client{
			Timeout: timeout,
		},
		creds:            opts.Credentials,
		log:              log,
		onSessionExpired: opts.OnSessionExpired,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do issues one JSON request. On a 401 it refreshes the access token
// (shared across concurrent callers) and re-issues the request exactly
// once; the retried call's outcome is final, whatever it is.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	token := ""
	hasPair := false
	if pair, ok := c.creds.Get(); ok {
		token = pair.AccessToken
		hasPair = true
	}

	res, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}
	// Refresh only applies when stored credentials were presented: a 401
	// on an unauthenticated call (login, say) is a plain failure, and the
	// refresh call itself must never trigger another refresh.
	if res.StatusCode != http.StatusUnauthorized || !hasPair || path == refreshPath {
		return finish(res, out)
	}

	drain(res)

	newToken, refreshErr := c.refreshAccessToken(ctx)
	if refreshErr != nil {
		return fmt.Errorf("%w: %w", ErrSessionExpired, refreshErr)
	}

	c.log.Debug("access token refreshed, retrying request", "method", method, "path", path)

	// Retried at most once, structurally: there is no loop here, so a
	// second 401 is surfaced like any other failure, never refreshed.
	res, err = c.send(ctx, method, path, query, payload, newToken)
	if err != nil {
		return err
	}
	return finish(res, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return res, nil
}

// refreshAccessToken exchanges the stored refresh token for a new
// access token. Concurrent 401s coalesce into one refresh call and all
// observe the same outcome. On any failure the credentials are cleared
// and the session-expired hook fires, once, inside the shared flight.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		pair, ok := c.creds.Get()
		if !ok || pair.RefreshToken == "" {
			c.expireSession("no refresh token stored")
			return nil, errors.New("no refresh token stored")
		}

		token, err := c.callRefresh(ctx, pair.RefreshToken)
		if err != nil {
			c.expireSession(err.Error())
			return nil, err
		}

		if err := c.creds.SetAccessToken(token); err != nil {
			c.expireSession(err.Error())
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) callRefresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	res, err := c.bare.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", newAPIError(res)
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("refresh response has no access token")
	}
	return result.AccessToken, nil
}

func (c *Client) expireSession(reason string) {
	c.log.Warn("session expired, clearing credentials", "reason", reason)
	if err := c.creds.Clear(); err != nil {
		c.log.Error("clear credentials", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func finish(res *http.Response, out any) error {
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newAPIError(res)
	}
	defer res.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
