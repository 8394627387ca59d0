// Package whisper is the REST collaborator for the WhisperNet backend.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/infra/auth"
	"github.com/CrestNiraj12/whispernet/infra/normalize"
)

// maxErrorBody bounds how much of a rejection body is kept in the error.
const maxErrorBody = 256

// Client is a thin HTTP wrapper for the WhisperNet API.
// It handles base URL construction, bearer token injection, throttling and
// the mapping of transport outcomes onto the domain error classes.
type Client struct {
	baseURL       string
	tokenProvider auth.TokenProvider
	http          *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	strategies    map[Intent][]Strategy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithStrategies overrides the endpoint strategies of individual intents.
func WithStrategies(overrides map[Intent][]Strategy) Option {
	return func(c *Client) {
		for intent, list := range overrides {
			c.strategies[intent] = list
		}
	}
}

// NewClient creates a WhisperNet API client.
func NewClient(baseURL string, tp auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		tokenProvider: tp,
		http:          &http.Client{},
		limiter:       rate.NewLimiter(rate.Every(time.Second/5), 5),
		timeout:       15 * time.Second,
		strategies:    DefaultStrategies(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve runs the endpoint strategies of intent in order and returns the
// decoded body of the first success. The next strategy is only tried after a
// server rejection; network failures, parse failures and cancellation end
// the chain immediately.
func (c *Client) Resolve(ctx context.Context, intent Intent, params Params, body any) (any, error) {
	list := c.strategies[intent]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no endpoint for %s", domain.ErrServerRejected, intent)
	}

	var lastErr error
	for i, st := range list {
		path := st.expand(params)
		payload := body
		if st.Payload != nil {
			payload = st.Payload(params, body)
		}
		data, err := c.do(ctx, st.Method, path, payload)
		if err == nil {
			v, derr := normalize.Decode(data)
			if derr != nil {
				return nil, fmt.Errorf("%s %s: %w", st.Method, path, derr)
			}
			return v, nil
		}
		if !errors.Is(err, domain.ErrServerRejected) {
			return nil, err
		}
		lastErr = err
		if i < len(list)-1 {
			log.Debug().Str("intent", string(intent)).Str("path", path).Err(err).Msg("endpoint rejected, trying next strategy")
		}
	}
	return nil, lastErr
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Patch performs an authenticated PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	token, err := c.tokenProvider.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("%w: auth: %v", domain.ErrNetwork, err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, cancelled(ctx.Err())
			}
			return nil, fmt.Errorf("%w: rate limit: %v", domain.ErrNetwork, err)
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request: %v", domain.ErrValidation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, fmt.Errorf("%w: request to %s: %v", domain.ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrNetwork, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API %s %s: %w", method, path, &domain.RejectionError{
			Status:  resp.StatusCode,
			Message: rejectionMessage(data),
		})
	}
	return data, nil
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrCancelled, cause)
}

// rejectionMessage prefers an "error" or "message" field of a JSON body.
func rejectionMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		for _, s := range []string{payload.Error, payload.Message, payload.Detail} {
			if s != "" {
				return s
			}
		}
	}
	msg := string(bytes.TrimSpace(data))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
