// Package transport owns the authenticated HTTP session against the
// FOSSology web console.
//
// The console is a browser UI, not an API: it tracks login through a
// session cookie, accepts form-encoded and multipart posts, and reports
// application failures in page bodies rather than status codes. The
// Session therefore persists cookies across calls, never interprets HTTP
// status codes, and retries only connection-level failures.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// maxAttempts is the total number of tries for one request, counting the
// first. Connection failures past this are surfaced to the caller.
const maxAttempts = 5

// Config holds transport tuning knobs.
type Config struct {
	Timeout           time.Duration
	RetryPause        time.Duration
	RequestsPerSecond float64
}

// DefaultConfig returns the transport defaults used outside tests.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		RetryPause:        time.Second,
		RequestsPerSecond: 5,
	}
}

// Response is the outcome of a request that reached the server. Status
// codes are recorded but never inspected here; the console does not use
// them reliably for application errors.
type Response struct {
	StatusCode int
	Body       []byte
}

// Field is one part of a multipart form post. When Filename is set the
// field is sent as a file part read from Reader; otherwise Value is sent
// as an ordinary form field.
type Field struct {
	Name        string
	Value       string
	Filename    string
	ContentType string
	Reader      io.Reader
}

// ConnectionError reports a request that could not reach the server after
// all retry attempts.
type ConnectionError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Session is a cookie-bearing HTTP session. The login cookie set by the
// auth endpoint persists in the jar, so one Session serves a whole
// workflow. A Session must not be shared across concurrent workflows;
// each needs its own authenticated jar.
type Session struct {
	client     *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	retryPause time.Duration
}

// New creates a Session for the console at baseURL.
func New(baseURL string, cfg Config, logger *slog.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if cfg.RetryPause <= 0 {
		cfg.RetryPause = time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logger.With(slog.String("component", "transport")),
		retryPause: cfg.RetryPause,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP doer. The cookie jar is
// carried over so login state survives the swap. Intended for tests.
func (s *Session) SetHTTPClient(client *http.Client) {
	client.Jar = s.client.Jar
	s.client = client
}

// Get issues a GET to the given console endpoint (for example
// "?mod=upload_file").
func (s *Session) Get(ctx context.Context, endpoint string) (*Response, error) {
	reqURL := s.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	s.logger.Debug("GET", slog.String("url", reqURL))
	return s.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	}, reqURL)
}

// PostForm issues a form-encoded POST to the given console endpoint.
func (s *Session) PostForm(ctx context.Context, endpoint string, values url.Values) (*Response, error) {
	reqURL := s.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	encoded := values.Encode()
	s.logger.Debug("POST", slog.String("url", reqURL))
	return s.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, reqURL)
}

// PostMultipart issues a multipart POST to the given console endpoint.
// The console's upload handler only accepts posts that look like they came
// from its own upload form, so the request carries a browser-like header
// profile including a no-cache directive and a same-URL referer.
func (s *Session) PostMultipart(ctx context.Context, endpoint string, fields []Field) (*Response, error) {
	reqURL := s.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	body, contentType, err := encodeMultipart(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding multipart body: %w", err)
	}

	s.logger.Debug("POST (multipart)", slog.String("url", reqURL), slog.Int("bytes", len(body)))
	return s.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		req.Header.Set("Referer", reqURL)
		return req, nil
	}, reqURL)
}

// do executes one request with the retry policy: up to maxAttempts tries,
// a fixed pause between them, and only connection-level failures retried.
// Context cancellation aborts immediately.
func (s *Session) do(ctx context.Context, build func() (*http.Request, error), reqURL string) (*Response, error) {
	var resp *Response
	attempt := 0
	connFailed := false

	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(s.retryPause))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		connFailed = false
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := build()
		if err != nil {
			return err
		}

		r, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug("attempt failed",
				slog.String("url", reqURL),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			connFailed = true
			return retry.RetryableError(err)
		}
		defer r.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(r.Body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug("attempt failed while reading body",
				slog.String("url", reqURL),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			connFailed = true
			return retry.RetryableError(err)
		}

		resp = &Response{StatusCode: r.StatusCode, Body: body}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Only failures to reach the server count as connection errors;
		// anything else (a bad request, a limiter burst error) passes
		// through as-is.
		if connFailed {
			return nil, &ConnectionError{URL: reqURL, Attempts: attempt, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// encodeMultipart renders fields into a multipart/form-data body. The body
// is buffered so a connection failure can replay it on retry.
func encodeMultipart(fields []Field) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if f.Filename == "" {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Name, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
