package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TypedResponse is a response whose JSON body was decoded into T.
type TypedResponse[T any] struct {
	StatusCode int
	Headers    map[string]string
	Data       T
	// Decoded is false when the body was empty or not JSON of shape T.
	Decoded bool
	// Raw is the undecoded body.
	Raw []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *TypedResponse[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestOption configures a single typed request.
type RequestOption func(*Request)

// WithQueryParam adds a query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithTimeout overrides the client timeout for one request.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// Get sends a GET and decodes the JSON body into T.
func Get[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodGet, path, nil, opts...)
}

// Post sends body, which may be a *MultipartBody, and decodes the JSON
// reply into T.
func Post[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPost, path, body, opts...)
}

// doTyped returns a response whenever the server answered. Error statuses
// come back with their *Error and a best-effort decoded body; a 2xx body
// that does not decode is reported as an error with Decoded false.
func doTyped[T any](c *Client, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	req := Request{
		Method:  method,
		Path:    path,
		Body:    body,
		Headers: map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := c.Do(ctx, req)
	if resp == nil {
		return nil, err
	}

	out := &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Raw: resp.Body}
	decodeErr := json.Unmarshal(resp.Body, &out.Data)
	if decodeErr != nil {
		var zero T
		out.Data = zero
	}
	out.Decoded = decodeErr == nil
	if err != nil {
		return out, err
	}
	if decodeErr != nil {
		return out, fmt.Errorf("httpclient: decode response: %w", decodeErr)
	}
	return out, nil
}
