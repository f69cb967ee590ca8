package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"

	"golang.org/x/time/rate"
)

// HTTPClientConfig holds upstream endpoints and transport tuning.
type HTTPClientConfig struct {
	CampaignsURL       string
	BusinessesURL      string
	SinkURL            string
	SinkSecret         string
	Timeout            time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	RateLimitPerSecond int
}

// implements ExternalAPIClient and ExportClient interfaces
type HTTPClient struct {
	client      *http.Client
	cfg         HTTPClientConfig
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// errStatus marks a non-2xx upstream response
type errStatus struct {
	api  string
	code int
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.api, e.code)
}

// creates a new HTTP client
func NewHTTPClient(cfg HTTPClientConfig, logger *logger.Logger, metrics *metrics.Metrics) *HTTPClient {
	limit := cfg.RateLimitPerSecond
	if limit <= 0 {
		limit = 100
	}
	burst := limit / 10
	if burst < 1 {
		burst = 1
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(limit), burst),
	}
}

// fetches campaign records from the campaigns API
func (c *HTTPClient) FetchCampaigns(ctx context.Context) (*domain.CampaignFeed, error) {
	var feed domain.CampaignFeed
	if err := c.getJSON(ctx, "campaigns", c.cfg.CampaignsURL, &feed); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":     c.cfg.CampaignsURL,
		"records": len(feed.Campaigns),
	}).Info("Successfully fetched campaigns")

	return &feed, nil
}

// fetches the business directory from the businesses API
func (c *HTTPClient) FetchBusinesses(ctx context.Context) (*domain.BusinessFeed, error) {
	var feed domain.BusinessFeed
	if err := c.getJSON(ctx, "businesses", c.cfg.BusinessesURL, &feed); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":     c.cfg.BusinessesURL,
		"records": len(feed.Businesses),
	}).Info("Successfully fetched businesses")

	return &feed, nil
}

// getJSON retries network errors and 5xx responses with linear backoff
func (c *HTTPClient) getJSON(ctx context.Context, api, url string, out any) error {
	if url == "" {
		return fmt.Errorf("%s API URL not configured", api)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.cfg.RetryBackoff
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"api":     api,
				"attempt": attempt,
				"wait":    wait,
				"error":   lastErr.Error(),
			}).Warn("Retrying upstream request")

			select {
			case <-ctx.Done():
				return fmt.Errorf("%s fetch cancelled: %w", api, ctx.Err())
			case <-time.After(wait):
			}
		}

		body, err := c.doGet(ctx, api, url)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				c.metrics.RecordExternalAPIFailure(api, "json_parse")
				return fmt.Errorf("failed to parse %s data: %w", api, err)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return fmt.Errorf("%s fetch failed after %d retries: %w", api, c.cfg.MaxRetries, lastErr)
}

func (c *HTTPClient) doGet(ctx context.Context, api, url string) ([]byte, error) {
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "network_error")
		return nil, &networkError{err: fmt.Errorf("failed to fetch %s data: %w", api, err)}
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, &errStatus{api: api, code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "read_body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.metrics.RecordExternalAPICall(api, "success", duration)
	return body, nil
}

type networkError struct {
	err error
}

func (e *networkError) Error() string { return e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var netErr *networkError
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr *errStatus
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500
	}
	return false
}

// Export posts a ranking snapshot to the sink, signed when a secret is set.
func (c *HTTPClient) Export(ctx context.Context, snapshot domain.RankingSnapshot) error {
	if c.cfg.SinkURL == "" {
		return domain.ErrSinkNotConfigured
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "rate_limit")
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "json_marshal")
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SinkURL, bytes.NewReader(payload))
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.SinkSecret != "" {
		req.Header.Set("X-Signature", c.generateHMACSignature(payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "network_error")
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall("sink", fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return &errStatus{api: "sink", code: resp.StatusCode}
	}

	c.metrics.RecordExternalAPICall("sink", "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":         c.cfg.SinkURL,
		"duration":    duration,
		"entries":     len(snapshot.Result.Entries),
		"time_basis":  snapshot.Result.TimeBasis,
		"business_id": snapshot.Query.TargetBusinessID,
	}).Info("Successfully exported ranking snapshot")

	return nil
}

// generates HMAC-SHA256 signature for the payload
func (c *HTTPClient) generateHMACSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.cfg.SinkSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
