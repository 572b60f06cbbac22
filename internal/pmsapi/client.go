// Package pmsapi is the typed client for the PMS REST API.  Every business
// rule lives behind these endpoints; the console only reads lists with
// explicit limits and posts the operator's requests.
package pmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrTimeout is returned when a call exceeded its deadline.  It is reported
// to operators as its own category of failure.
var ErrTimeout = errors.New("request timed out")

// APIError is a non-2xx response from the PMS.  Message holds the server's
// own explanation when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pms: status %d", e.Status)
	}
	return fmt.Sprintf("pms: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsForbidden reports a 403 from the PMS.
func IsForbidden(err error) bool { return IsStatus(err, http.StatusForbidden) }

// Message turns an error into the text shown to an operator: the server's
// message when it sent one, the timeout text for timeouts, else fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTimeout) {
		return ErrTimeout.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

// Options configures a Client.
type Options struct {
	BaseURL         string
	ServiceToken    string        // used when the request context carries no operator token
	Timeout         time.Duration // default per-call timeout for reads
	MutationTimeout time.Duration // explicit timeout for POST/PUT calls
	Transport       http.RoundTripper
	Logger          *zap.Logger
}

// Client talks to one PMS deployment.  It is safe for concurrent use.
type Client struct {
	base            *url.URL
	hc              *http.Client
	serviceToken    string
	timeout         time.Duration
	mutationTimeout time.Duration
	log             *zap.Logger
}

// New validates the base URL and builds a client whose transport is traced
// with otelhttp.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("pmsapi: invalid base url %q", opts.BaseURL)
	}
	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MutationTimeout <= 0 {
		opts.MutationTimeout = 15 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:            base,
		hc:              &http.Client{Transport: otelhttp.NewTransport(rt)},
		serviceToken:    opts.ServiceToken,
		timeout:         opts.Timeout,
		mutationTimeout: opts.MutationTimeout,
		log:             log.Named("pmsapi"),
	}, nil
}

type bearerKey struct{}

// WithBearer attaches the operator's access token to ctx so upstream calls
// are made on their behalf.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// HasBearer reports whether ctx already carries an operator token.
func HasBearer(ctx context.Context) bool {
	t, ok := ctx.Value(bearerKey{}).(string)
	return ok && t != ""
}

func (c *Client) token(ctx context.Context) string {
	if t, ok := ctx.Value(bearerKey{}).(string); ok && t != "" {
		return t
	}
	return c.serviceToken
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// get issues a read with the default timeout and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	body, _, err := c.roundTrip(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// send issues a mutation with the explicit mutation timeout.  in is encoded
// as JSON when non-nil; out may be nil when the response is not needed.
func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.mutationTimeout)
	defer cancel()
	var payload io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pmsapi: encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(b)
	}
	body, _, err := c.roundTrip(ctx, method, c.endpoint(path, nil), payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decode(body, out)
}

// getRaw fetches a binary resource such as an Excel export.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.roundTrip(ctx, http.MethodGet, c.endpoint(path, nil), nil)
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload io.Reader) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			c.log.Warn("upstream timeout", zap.String("method", method), zap.String("url", target), zap.Duration("elapsed", time.Since(start)))
			return nil, "", fmt.Errorf("%s %s: %w", method, req.URL.Path, ErrTimeout)
		}
		return nil, "", fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, "", fmt.Errorf("%s %s: %w", method, req.URL.Path, ErrTimeout)
		}
		return nil, "", fmt.Errorf("%s %s: read body: %w", method, req.URL.Path, err)
	}
	c.log.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// errorMessage pulls a human message out of an error body.  The PMS is not
// consistent about the key it uses.
func errorMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		s := strings.TrimSpace(string(body))
		if len(s) > 200 || strings.HasPrefix(s, "<") {
			return ""
		}
		return s
	}
	for _, k := range []string{"message", "error", "detail"} {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if s, ok := v["message"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// decode accepts either a bare JSON value or one wrapped in a
// {"data": ...} envelope.
func decode(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if raw, ok := env["data"]; ok && len(env) <= 3 {
				if err := json.Unmarshal(raw, out); err != nil {
					return fmt.Errorf("pmsapi: decode data: %w", err)
				}
				return nil
			}
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("pmsapi: decode: %w", err)
	}
	return nil
}

// decodeList reads a list that may be a bare array or an object keyed by the
// resource name, e.g. {"bookings": [...]}.
func decodeList[T any](body []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("pmsapi: decode %s: %w", key, err)
		}
		return out, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("pmsapi: decode %s: %w", key, err)
	}
	for _, k := range []string{key, "data", "items", "results"} {
		raw, ok := env[k]
		if !ok {
			continue
		}
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("pmsapi: decode %s: %w", key, err)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	// Fall back to the only array in the object, if there is exactly one.
	var only json.RawMessage
	for _, raw := range env {
		if r := bytes.TrimSpace(raw); len(r) > 0 && r[0] == '[' {
			if only != nil {
				return []T{}, nil
			}
			only = r
		}
	}
	if only == nil {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(only, &out); err != nil {
		return nil, fmt.Errorf("pmsapi: decode %s: %w", key, err)
	}
	return out, nil
}

// list is get + decodeList.
func list[T any](ctx context.Context, c *Client, path string, q url.Values, key string) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	body, _, err := c.roundTrip(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](body, key)
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
