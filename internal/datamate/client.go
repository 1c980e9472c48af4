// Package datamate is the HTTP client for the DataMate platform backend.
// The harness uses it to push processed records into a dataset and the CLI
// uses it to upload packaged operator bundles.
package datamate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/JasonW404-HW/DataMate-Ops/internal/log"
	opserrors "github.com/JasonW404-HW/DataMate-Ops/pkg/errors"
)

// Environment variables consulted for client configuration.
const (
	// EnvBaseURL overrides the platform base URL.
	EnvBaseURL = "DATAMATE_BASE_URL"

	// EnvToken supplies the bearer token when the keyring is unavailable.
	EnvToken = "DATAMATE_TOKEN"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the retry budget per call on transient failures.
	DefaultMaxRetries = 3

	// DefaultRequestsPerSecond is the client-side rate limit.
	DefaultRequestsPerSecond = 10

	// uploadBatchSize is the platform's ingestion batch size.
	uploadBatchSize = 1000

	bundleUploadEndpoint = "/api/operator-management/operators/upload"
)

// Config configures the platform client.
type Config struct {
	// BaseURL is the platform root, e.g. "http://datamate-backend:8080".
	BaseURL string

	// Token is the bearer token, if the platform requires one.
	Token string

	// Timeout bounds a single request (default: DefaultTimeout).
	Timeout time.Duration

	// MaxRetries is the retry budget on transient failures
	// (default: DefaultMaxRetries).
	MaxRetries int

	// RequestsPerSecond caps outbound request rate
	// (default: DefaultRequestsPerSecond).
	RequestsPerSecond float64

	// Logger receives request/response logs. Defaults to a logger built
	// from the environment.
	Logger *slog.Logger
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &opserrors.ConfigError{Key: "base_url", Reason: "platform base URL is not set"}
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return &opserrors.ConfigError{Key: "base_url", Reason: "not a valid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &opserrors.ConfigError{Key: "base_url", Reason: fmt.Sprintf("scheme must be http or https, got %q", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return &opserrors.ConfigError{Key: "base_url", Reason: "URL must include a host"}
	}

	if c.Timeout < 0 {
		return &opserrors.ConfigError{Key: "timeout", Reason: "must be non-negative"}
	}

	return nil
}

// FileRecord is one dataset record in the platform's ingestion format.
type FileRecord struct {
	// FilePath is the absolute path of the file to register.
	FilePath string `json:"filePath"`

	// Metadata carries per-file key/value metadata (optional).
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type addFilesRequest struct {
	Files []FileRecord `json:"files"`
}

// Client talks to the DataMate backend with retries and rate limiting.
type Client struct {
	rest       *resty.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	maxRetries int
}

// New creates a platform client. The configuration must carry a base URL;
// callers that find none should treat platform calls as skipped instead of
// constructing a client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.FromEnv())
	}
	logger = log.WithComponent(logger, "datamate")

	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout)
	if cfg.Token != "" {
		rest.SetAuthToken(cfg.Token)
	}

	return &Client{
		rest:       rest,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
		maxRetries: maxRetries,
	}, nil
}

// BaseURL returns the configured platform root.
func (c *Client) BaseURL() string {
	return c.rest.BaseURL
}

// AddFiles registers records with a dataset in batches of 1000, the
// platform's ingestion call. Batches are sent in order; the first failed
// batch aborts the remainder.
func (c *Client) AddFiles(ctx context.Context, dataset string, records []FileRecord) error {
	if dataset == "" {
		return &opserrors.ValidationError{Field: "dataset", Message: "dataset name is required"}
	}
	if len(records) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/api/data-management/datasets/%s/files/upload/add", url.PathEscape(dataset))

	for start := 0; start < len(records); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := addFilesRequest{Files: records[start:end]}

		c.logger.Info("uploading batch",
			log.String(log.DatasetKey, dataset),
			log.Int("from", start),
			log.Int("to", end),
			log.Int("records", len(batch.Files)),
		)
		if c.logger.Enabled(ctx, log.LevelTrace) {
			if body, err := json.Marshal(batch); err == nil {
				log.Trace(c.logger, "upload request body", log.String("body", string(body)))
			}
		}

		if err := c.postJSON(ctx, endpoint, dataset, batch); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// UploadBundle uploads a packaged operator bundle archive via multipart POST.
func (c *Client) UploadBundle(ctx context.Context, archivePath string) error {
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("bundle archive: %w", err)
	}

	operation := c.withRetryState(bundleUploadEndpoint, "", func(req *resty.Request) (*resty.Response, error) {
		return req.SetFile("file", archivePath).Post(bundleUploadEndpoint)
	})

	return c.retry(ctx, operation)
}

// postJSON sends one JSON POST with retry and rate limiting.
func (c *Client) postJSON(ctx context.Context, endpoint, dataset string, body interface{}) error {
	operation := c.withRetryState(endpoint, dataset, func(req *resty.Request) (*resty.Response, error) {
		return req.SetHeader("Content-Type", "application/json").SetBody(body).Post(endpoint)
	})

	return c.retry(ctx, operation)
}

// withRetryState wraps a request into a retryable operation that waits on
// the rate limiter and logs each attempt.
func (c *Client) withRetryState(endpoint, dataset string, send func(*resty.Request) (*resty.Response, error)) func(ctx context.Context) error {
	attempt := 0

	return func(ctx context.Context) error {
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		apiReq := &log.APIRequest{
			Method:  "POST",
			URL:     c.rest.BaseURL + endpoint,
			Dataset: dataset,
			Attempt: attempt,
		}
		log.LogAPIRequest(c.logger, apiReq)

		start := time.Now()
		resp, err := send(c.rest.R().SetContext(ctx))

		apiResp := &log.APIResponse{DurationMs: time.Since(start).Milliseconds()}
		if resp != nil {
			apiResp.StatusCode = resp.StatusCode()
		}
		classified := c.classify(endpoint, resp, err)
		apiResp.Success = classified == nil
		if classified != nil {
			apiResp.Error = classified.Error()
		}
		log.LogAPIResponse(c.logger, apiReq, apiResp)

		return classified
	}
}

// retry runs an operation under the exponential backoff policy.
func (c *Client) retry(ctx context.Context, operation func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	return backoff.RetryNotify(func() error {
		return operation(ctx)
	}, policy, c.notifyRetry)
}

func (c *Client) notifyRetry(err error, next time.Duration) {
	c.logger.Warn("platform request failed, will retry",
		log.Error(err),
		log.String("backoff", next.String()),
	)
}

// classify turns a resty outcome into nil, a retryable error, or a
// backoff.Permanent error. Connection faults and 5xx/429 responses are
// retried; other HTTP errors are permanent.
func (c *Client) classify(endpoint string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		// Transport-level failure, worth retrying.
		return err
	}

	code := resp.StatusCode()
	if code < 400 {
		return nil
	}

	perr := &opserrors.PlatformError{
		Endpoint:   endpoint,
		StatusCode: code,
		Message:    summarizeBody(resp.String()),
	}

	switch {
	case code == 401 || code == 403:
		perr.Hint = "Check the platform token ('dmops config set-token' or " + EnvToken + ")"
		return backoff.Permanent(perr)
	case code == 429:
		return perr
	case code >= 500:
		return perr
	default:
		return backoff.Permanent(perr)
	}
}

// summarizeBody trims a response body down to something loggable.
func summarizeBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 500 {
		body = body[:500] + "..."
	}
	if body == "" {
		return "request failed"
	}
	return body
}
