// Package client is the Go client for the rehabilitation tracking API:
// session management, resource fetchers and exercise list filtering.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 10 * time.Second

// API issues requests against one configured base URL and an optional fallback.
// It is safe for concurrent use.
type API struct {
	baseURL     string
	fallbackURL string
	timeout     time.Duration
	lenient     bool
	rest        *resty.Client
	logger      *log.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*API)

// WithFallbackURL sets the base URL tried once when the primary cannot be reached.
func WithFallbackURL(u string) Option {
	return func(a *API) { a.fallbackURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.rest = resty.NewWithClient(c) }
}

func WithLogger(l *log.Logger) Option {
	return func(a *API) { a.logger = l }
}

// Lenient makes list fetchers return an empty slice instead of
// ErrMalformedResponse when the body is not a list or {data: [...]}.
// Callers that rely on the legacy contract, where a malformed list reads as
// an empty one, need Lenient(true); the default is strict.
func Lenient(on bool) Option {
	return func(a *API) { a.lenient = on }
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		rest:    resty.New(),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.rest.SetHeader("Accept", "application/json")
	return a
}

func (a *API) BaseURL() string { return a.baseURL }

// SetToken sets the bearer token sent with every request. Empty clears it.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

type request struct {
	method string
	path   string
	query  url.Values
	body   []byte
	upload *upload
	token  string
}

// upload is a multipart body: plain fields plus one file part. The file is
// held in memory so a fallback attempt can send it again.
type upload struct {
	fields      map[string]string
	field       string
	filename    string
	contentType string
	data        []byte
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return req, err
		}
		req.body = data
	}
	return req, nil
}

// do runs the request under the configured timeout. Connection-level failures
// are retried once against the fallback URL; HTTP error statuses are not.
func (a *API) do(ctx context.Context, r request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if r.token == "" {
		r.token = a.Token()
	}

	body, err := a.attempt(ctx, a.baseURL, r)
	var netErr *NetworkError
	if errors.As(err, &netErr) && a.fallbackURL != "" && a.fallbackURL != a.baseURL {
		a.logger.Printf("%s %s: primary unreachable (%v), trying fallback %s", r.method, r.path, netErr.Err, a.fallbackURL)
		body, err = a.attempt(ctx, a.fallbackURL, r)
	}
	return body, err
}

func (a *API) attempt(ctx context.Context, base string, r request) ([]byte, error) {
	target := base + r.path

	req := a.rest.R().SetContext(ctx)
	if len(r.query) > 0 {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(r.body)
	}
	if r.upload != nil {
		req.SetMultipartFormData(r.upload.fields).
			SetMultipartField(r.upload.field, r.upload.filename, r.upload.contentType, bytes.NewReader(r.upload.data))
	}
	if r.token != "" {
		req.SetAuthToken(r.token)
	}

	resp, err := req.Execute(r.method, target)
	if err != nil {
		return nil, a.transportError(ctx, r, target, err)
	}
	a.logger.Printf("%s %s -> %d (%s)", r.method, target, resp.StatusCode(), resp.Time().Round(time.Millisecond))

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &HTTPError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
	}
	return resp.Body(), nil
}

func (a *API) transportError(ctx context.Context, r request, target string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s %s after %s: %w", r.method, r.path, a.timeout, ErrTimeout)
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return &NetworkError{URL: target, Err: err}
}

// errorMessage pulls a human-readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch {
	case body.Error != "":
		return body.Error
	case body.Message != "":
		return body.Message
	case len(body.Detail) > 0:
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil {
			return detail
		}
		return string(body.Detail)
	}
	return ""
}

// tokenPreview is safe to log.
func tokenPreview(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "..."
}
