package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/internetyev/paafetch/pkg/config"
	apierrors "github.com/internetyev/paafetch/pkg/errors"
	"github.com/internetyev/paafetch/pkg/logger"
	"github.com/internetyev/paafetch/pkg/ratelimit"
	"github.com/internetyev/paafetch/pkg/retry"
)

// serpLivePath is the Google Organic Live Advanced endpoint.
const serpLivePath = "/v3/serp/google/organic/live/advanced"

// Client is a DataForSEO SERP API client. It implements the expander's
// Executor boundary: one call per node, returning the flattened PAA
// question list or a typed error.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	login        string
	password     string
	languageCode string
	locationCode int
	limiter      ratelimit.Limiter
	retryCfg     *config.RetryConfig
	logger       logger.Logger
}

// NewClient creates a client from API configuration. The country code
// is resolved to a DataForSEO location code up front; an unknown code
// fails here, before any traversal starts.
func NewClient(cfg *config.APIConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	locationCode, err := LocationCode(cfg.CountryCode)
	if err != nil {
		return nil, err
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      cfg.BaseURL,
		login:        cfg.Login,
		password:     cfg.Password,
		languageCode: cfg.LanguageCode,
		locationCode: locationCode,
		logger:       log,
	}, nil
}

// SetCredentials overrides the basic-auth credentials.
func (c *Client) SetCredentials(login, password string) {
	c.login = login
	c.password = password
}

// SetLimiter installs a rate limiter applied before every request.
func (c *Client) SetLimiter(limiter ratelimit.Limiter) {
	c.limiter = limiter
}

// SetRetry enables per-request retries for transient failures. Retries
// happen below the traversal boundary, so the expander still sees one
// request per node regardless of attempts.
func (c *Client) SetRetry(cfg *config.RetryConfig) {
	c.retryCfg = cfg
}

// Questions fetches the SERP for text and returns its PAA question
// titles in page order. It satisfies the paa.Executor interface.
func (c *Client) Questions(ctx context.Context, text string) ([]string, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	if c.retryCfg == nil || !c.retryCfg.Enabled {
		return c.fetchQuestions(ctx, text)
	}

	return retry.DoWithResult(func() ([]string, error) {
		return c.fetchQuestions(ctx, text)
	}, &retry.Config{
		MaxAttempts: c.retryCfg.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    c.retryCfg.BaseDelay,
			MaxDelay:     c.retryCfg.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  c.logger,
	})
}

// fetchQuestions performs a single live/advanced call.
func (c *Client) fetchQuestions(ctx context.Context, keyword string) ([]string, error) {
	resp, err := c.serpLive(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return resp.PAAQuestions(), nil
}

// serpLive issues the POST request and validates the response envelope.
func (c *Client) serpLive(ctx context.Context, keyword string) (*SerpResponse, error) {
	payload := []taskRequest{{
		Keyword:      keyword,
		LanguageCode: c.languageCode,
		LocationCode: c.locationCode,
		Device:       "desktop",
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to encode request: %v", err),
		}
	}

	url := c.baseURL + serpLivePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending SERP request", map[string]interface{}{
		"keyword": keyword,
		"url":     url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("SERP request failed", map[string]interface{}{
			"keyword":  keyword,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("SERP request completed", map[string]interface{}{
		"keyword":  keyword,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkHTTPStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var serp SerpResponse
	if err := json.Unmarshal(raw, &serp); err != nil {
		preview := string(raw)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse SERP response", map[string]interface{}{
			"keyword":      keyword,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeParsing,
			Message: fmt.Sprintf("invalid JSON response: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if serp.StatusCode != StatusOK {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeAPI,
			Message: fmt.Sprintf("DataForSEO error: %s", serp.StatusMessage),
			Code:    serp.StatusCode,
		}
	}

	for _, task := range serp.Tasks {
		if task.StatusCode != StatusOK {
			return nil, &apierrors.Error{
				Type:    apierrors.ErrorTypeAPI,
				Message: fmt.Sprintf("DataForSEO task error: %s", task.StatusMessage),
				Code:    task.StatusCode,
			}
		}
	}

	return &serp, nil
}

// checkHTTPStatus maps non-200 statuses to typed errors
func (c *Client) checkHTTPStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication rejected", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &apierrors.Error{
			Type:    apierrors.ErrorTypeAuth,
			Message: "authentication rejected, check API login and password",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &apierrors.Error{
			Type:    apierrors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &apierrors.Error{
			Type:    apierrors.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return &apierrors.Error{
			Type:    apierrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
