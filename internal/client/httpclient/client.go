// Package httpclient is the single egress point for backend calls. It attaches
// the bearer token and, on a 401, performs at most one refresh-and-retry per
// logical request.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const (
	// RefreshPath is the backend endpoint exchanging a refresh token.
	RefreshPath = "/auth/token/refresh"

	DefaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20
)

// TokenStore is the part of the session the client reads and writes.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(access string) error
	SetTokens(access, refresh string) error
	Clear() error
}

// Refresher exchanges a refresh token for a new access token.
type Refresher func(ctx context.Context, refresh string) (models.RefreshResponse, error)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l logr.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthFailureHandler registers fn to run after the session has been
// cleared because it could not be recovered. Callers use it to send the user
// back to the login entry point.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// WithRefresher overrides the refresh call.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenStore
	refresher     Refresher
	onAuthFailure func()
	log           logr.Logger
	refreshes     singleflight.Group
	expireMu      sync.Mutex
}

func New(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url required")
	}
	if tokens == nil {
		return nil, errors.New("token store required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refresher == nil {
		c.refresher = c.refresh
	}
	return c, nil
}

// SetAuthFailureHandler replaces the handler registered with
// WithAuthFailureHandler. It is meant for wiring at start-up, before requests
// are issued.
func (c *Client) SetAuthFailureHandler(fn func()) { c.onAuthFailure = fn }

// Do sends an authenticated JSON request and decodes a 2xx body into out.
// A 401 triggers at most one refresh and one retry; the retry counter lives
// in this call frame only.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	body, err := encode(in)
	if err != nil {
		return err
	}
	token := c.tokens.AccessToken()
	res, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	if res.status == http.StatusUnauthorized {
		original := statusError(method, path, res.status, res.body)
		fresh, rerr := c.recoverToken(ctx, token)
		if errors.Is(rerr, ErrSessionExpired) {
			original.Err = rerr
			return original
		}
		if rerr != nil {
			return rerr
		}
		c.log.V(1).Info("retrying request with refreshed token", "method", method, "path", path)
		res, err = c.send(ctx, method, path, body, fresh)
		if err != nil {
			return err
		}
	}
	return decode(method, path, res, out)
}

// DoAnonymous sends a request without a bearer token and without 401
// recovery. Login, register and refresh go through here so a bad password is
// reported as such instead of touching the stored session.
func (c *Client) DoAnonymous(ctx context.Context, method, path string, in, out any) error {
	body, err := encode(in)
	if err != nil {
		return err
	}
	res, err := c.send(ctx, method, path, body, "")
	if err != nil {
		return err
	}
	return decode(method, path, res, out)
}

type response struct {
	status int
	body   []byte
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, token string) (response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, &Error{Kind: KindNetwork, Method: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}
	c.log.V(1).Info("request finished", "method", method, "path", path, "status", resp.StatusCode)
	return response{status: resp.StatusCode, body: b}, nil
}

// recoverToken returns the token to retry with. If another request already
// replaced the token that got rejected, that one is used without a refresh.
// Concurrent refreshes for the same refresh token share one backend call,
// which runs detached from any single caller so that one cancelled request
// cannot fail the others. A caller whose own ctx ends stops waiting and gets
// ctx.Err(); the session is left alone in that case.
func (c *Client) recoverToken(ctx context.Context, rejected string) (string, error) {
	if current := c.tokens.AccessToken(); current != "" && current != rejected {
		return current, nil
	}
	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		return "", c.expire(errNoRefreshToken, func() bool {
			return c.tokens.RefreshToken() == "" && c.tokens.AccessToken() == rejected
		})
	}
	flightCtx := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan(refresh, func() (any, error) {
		return c.runRefresh(flightCtx, refresh)
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for token refresh: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		if r.Shared {
			c.log.V(1).Info("joined in-flight token refresh")
		}
		return r.Val.(string), nil
	}
}

func (c *Client) runRefresh(ctx context.Context, refresh string) (string, error) {
	timeout := c.http.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.refresher(ctx, refresh)
	if err == nil && res.Access == "" {
		err = errEmptyAccess
	}
	if err != nil {
		return "", c.expire(err, func() bool { return c.tokens.RefreshToken() == refresh })
	}
	if res.Refresh != "" {
		err = c.tokens.SetTokens(res.Access, res.Refresh)
	} else {
		err = c.tokens.SetAccessToken(res.Access)
	}
	if err != nil {
		c.log.Error(err, "persisting refreshed token failed")
	}
	c.log.Info("access token refreshed", "rotated", res.Refresh != "")
	return res.Access, nil
}

func (c *Client) refresh(ctx context.Context, refresh string) (models.RefreshResponse, error) {
	var out models.RefreshResponse
	err := c.DoAnonymous(ctx, http.MethodPost, RefreshPath, models.RefreshRequest{Refresh: refresh}, &out)
	return out, err
}

// expire clears the session and fires the auth-failure hook, but only while
// the session still holds the credentials that failed. Requests that lose the
// race against an earlier expiry get the error without a second clear.
func (c *Client) expire(cause error, stillHeld func() bool) error {
	c.expireMu.Lock()
	held := stillHeld()
	if held {
		c.log.Info("session could not be recovered, clearing it", "reason", cause.Error())
		if err := c.tokens.Clear(); err != nil {
			c.log.Error(err, "clearing session failed")
		}
	}
	c.expireMu.Unlock()
	if held && c.onAuthFailure != nil {
		c.onAuthFailure()
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

func encode(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

func decode(method, path string, res response, out any) error {
	if res.status < 200 || res.status >= 300 {
		return statusError(method, path, res.status, res.body)
	}
	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
