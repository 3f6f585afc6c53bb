// Package gateway issues single-attempt JSON calls against the task API and
// tracks whether any call is in flight.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"taskdesk/internal/utils"
)

// Method is an HTTP verb accepted by the gateway.
type Method string

const (
	GET    Method = http.MethodGet
	POST   Method = http.MethodPost
	PUT    Method = http.MethodPut
	PATCH  Method = http.MethodPatch
	DELETE Method = http.MethodDelete
)

// DefaultMethod is used when a Request leaves Method empty.
const DefaultMethod = POST

// DefaultTimeout bounds a single call.
const DefaultTimeout = 10 * time.Second

// GenericErrorMessage is reported when the server gave no usable error payload.
const GenericErrorMessage = "Request failed"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Request describes one remote call.
type Request struct {
	Command string // path relative to the base URL, e.g. "/todo"
	Method  Method
	Args    any // sent as the JSON body when non-nil
}

// Result is the outcome of Call. Error is empty on success.
type Result[T any] struct {
	Data    T
	Loading bool
	Error   string
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Error == ""
}

// APIError is returned by Do for any failed call.
type APIError struct {
	Status  int    // HTTP status, 0 for transport failures
	Message string // server payload or GenericErrorMessage
	Err     error  // transport cause, if any
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Config holds gateway settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client // optional, mostly for tests
}

// Gateway performs remote calls against a base URL.
type Gateway struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	inflight atomic.Int32
	group    singleflight.Group
}

// New creates a Gateway.
func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, utils.ErrBackendNotConfigured("rest")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		timeout: timeout,
	}, nil
}

// BaseURL returns the normalized base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Loading reports whether any call is in flight.
func (g *Gateway) Loading() bool {
	return g.inflight.Load() > 0
}

// Close releases idle connections.
func (g *Gateway) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// Call runs req and decodes the response into a T. It never returns a Go error
// and never panics: failures are reported in Result.Error.
func Call[T any](ctx context.Context, g *Gateway, req Request) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("gateway: %s %s panicked: %v", req.method(), req.Command, r)
			var zero T
			res = Result[T]{Data: zero, Error: GenericErrorMessage}
		}
	}()

	var data T
	if err := g.Do(ctx, req, &data); err != nil {
		return Result[T]{Error: err.Error()}
	}
	return Result[T]{Data: data}
}

type response struct {
	status int
	body   []byte
}

// Do runs req and decodes a successful JSON body into out (which may be nil).
// Identical concurrent mutations share a single HTTP round trip.
func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	g.inflight.Add(1)
	defer g.inflight.Add(-1)

	var body []byte
	if req.Args != nil {
		b, err := json.Marshal(req.Args)
		if err != nil {
			return fmt.Errorf("failed to encode %s arguments: %w", req.Command, err)
		}
		body = b
	}

	method := req.method()
	var (
		resp *response
		err  error
	)
	if method == GET {
		resp, err = g.send(ctx, method, req.Command, body)
	} else {
		resp, err = g.sendShared(ctx, method, req.Command, body)
	}
	if err != nil {
		return &APIError{Message: GenericErrorMessage, Err: err}
	}

	if resp.status < 200 || resp.status > 299 {
		return &APIError{Status: resp.status, Message: errorMessage(resp.body)}
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.Command, err)
	}
	return nil
}

// sendShared runs identical in-flight mutations once. The shared request is
// detached from any one caller's cancellation and bounded by the gateway
// timeout; each caller stops waiting when its own context ends.
func (g *Gateway) sendShared(ctx context.Context, method Method, command string, body []byte) (*response, error) {
	key := string(method) + " " + command + " " + string(body)
	ch := g.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.send(callCtx, method, command, body)
	})

	select {
	case res := <-ch:
		if res.Shared {
			utils.Debugf("gateway: %s %s shared an in-flight call", method, command)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*response), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) send(ctx context.Context, method Method, command string, body []byte) (*response, error) {
	url := g.baseURL + "/" + strings.TrimLeft(command, "/")

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), url, bodyReader)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	utils.Debugf("gateway: [%s] %s %s", requestID, method, url)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		utils.Debugf("gateway: [%s] failed after %s: %v", requestID, time.Since(start), err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	utils.Debugf("gateway: [%s] %d in %s", requestID, resp.StatusCode, time.Since(start))

	return &response{status: resp.StatusCode, body: data}, nil
}

func (r Request) method() Method {
	if r.Method == "" {
		return DefaultMethod
	}
	return Method(strings.ToUpper(string(r.Method)))
}

// errorMessage extracts a human-readable message from an error payload.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return GenericErrorMessage
	}

	var payload struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != nil && *payload.Message != "" {
		return *payload.Message
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		if s == "" {
			return GenericErrorMessage
		}
		return s
	}

	if json.Valid(body) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err == nil {
			return compact.String()
		}
	}

	return string(body)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsTransport reports whether err is a failure to reach the server.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0 && apiErr.Err != nil
}
