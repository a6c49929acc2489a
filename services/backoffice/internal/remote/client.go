package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
)

const defaultTimeout = 10 * time.Second

// Client calls the remote REST API. Calls are never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     aqm.Logger
}

// NewClient reads services.api.url and services.api.timeout from config.
func NewClient(config *aqm.Config, logger aqm.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	baseURL, _ := config.GetString("services.api.url")
	if baseURL == "" {
		return nil, fmt.Errorf("services.api.url not configured")
	}

	timeout := defaultTimeout
	if raw, ok := config.GetString("services.api.timeout"); ok && raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid services.api.timeout %q: %w", raw, err)
		}
		timeout = parsed
	}

	return NewClientWithURL(baseURL, timeout, logger), nil
}

func NewClientWithURL(baseURL string, timeout time.Duration, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Do sends one request and returns the decoded envelope. Transport failures,
// remote failures and malformed envelopes all come back as errors.
func (c *Client) Do(ctx context.Context, method, path string, body any) (Envelope, error) {
	if c == nil || c.httpClient == nil {
		return Envelope{}, fmt.Errorf("remote client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("remote call", "method", method, "path", path, "status", resp.StatusCode)

	var env Envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return Envelope{}, &RemoteError{Method: method, Path: path, Status: resp.StatusCode}
			}
			return Envelope{}, &ParseError{Method: method, Path: path, Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Failed() {
		status := resp.StatusCode
		if status < 300 && env.HTTPStatus >= 400 {
			status = env.HTTPStatus
		}
		return Envelope{}, &RemoteError{
			Method:  method,
			Path:    path,
			Status:  status,
			Message: env.Message,
			Detail:  errorDetail(env.Error),
		}
	}

	return env, nil
}

// Call runs one request and decodes the envelope data into T.
func Call[T any](ctx context.Context, c *Client, method, path string, body any) Result[T] {
	env, err := c.Do(ctx, method, path, body)
	if err != nil {
		return Failure[T](err)
	}

	var data T
	if isNull(env.Data) {
		return Success(data)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Failure[T](&ParseError{Method: method, Path: path, Err: err})
	}
	return Success(data)
}

func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return Call[T](ctx, c, http.MethodGet, path, nil).Unwrap()
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Call[T](ctx, c, http.MethodPost, path, body).Unwrap()
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Call[T](ctx, c, http.MethodPut, path, body).Unwrap()
}

// Delete discards any data the API returns.
func Delete(ctx context.Context, c *Client, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil)
	return err
}

// errorDetail flattens the envelope error field, which may be a string or an object.
func errorDetail(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && (obj.Message != "" || obj.Code != "") {
		return strings.TrimSpace(obj.Code + " " + obj.Message)
	}
	return string(bytes.TrimSpace(raw))
}

// IsTimeout reports whether err comes from the client deadline or a cancelled context.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
