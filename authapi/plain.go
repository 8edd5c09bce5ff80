package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/gateway"
)

// Option configures the plain HTTP path shared by Client and Refresher.
type Option func(*plain)

func WithHTTPClient(c *http.Client) Option {
	return func(p *plain) {
		p.httpClient = c
	}
}

// WithTimeout bounds each unauthenticated call.
func WithTimeout(d time.Duration) Option {
	return func(p *plain) {
		p.timeout = d
	}
}

type plain struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func newPlain(baseURL string, opts []Option) *plain {
	p := &plain{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// post sends req without credentials and decodes a 2xx body into out when
// out is non-nil. Non-2xx answers come back as *gateway.StatusError so they
// normalize exactly like gateway failures.
func (p *plain) post(ctx context.Context, req *gateway.Request, out any) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	target := p.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", gateway.ErrTransport, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", gateway.ErrTransport, req.Method, req.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &gateway.StatusError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       b,
			Attempt:    gateway.AttemptOriginal,
		}
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Path, err)
	}
	return nil
}
