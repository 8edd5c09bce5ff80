package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Attempt records whether a request is the caller's original send or the
// single retry that follows a successful refresh.
type Attempt int

const (
	AttemptOriginal Attempt = iota
	AttemptRetried
)

func (a Attempt) String() string {
	if a == AttemptRetried {
		return "retried"
	}
	return "original"
}

// Request describes one logical API call. The gateway never mutates it;
// every attempt is built from a copy.
type Request struct {
	Method string
	Path   string // joined to the gateway's base URL
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	req := &Request{Method: method, Path: path, Header: http.Header{}}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		req.Body = b
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Response is a fully read response. Attempt tells which send produced it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempt    Attempt
	RequestID  string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.NewDecoder(bytes.NewReader(r.Body)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r *Request) newHTTPRequest(ctx context.Context, baseURL, requestID, accessToken string) (*http.Request, error) {
	target := baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.Method, r.Path, err)
	}

	if r.Header != nil {
		httpReq.Header = r.Header.Clone()
	}
	if r.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return httpReq, nil
}
