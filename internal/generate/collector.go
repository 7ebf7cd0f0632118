package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SampleQuery carries the query parameters the spreadsheet-backed collector
// expects. The legacy spreadsheetId parameter is kept alongside the newer
// surveyResults* pair because deployed GAS scripts read either.
type SampleQuery struct {
	SpreadsheetID  string
	SpreadsheetURL string
	FormKey        string
	SubmittedAt    string
	ResponseID     string
}

// Collector fetches prior survey answers from the external GAS endpoint.
type Collector struct {
	client *http.Client
	logger *zap.Logger
}

// NewCollector builds a collector with a bounded request timeout.
func NewCollector(timeout time.Duration, logger *zap.Logger) *Collector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// buildRequestURL attaches the non-empty query parameters to the base URL.
func buildRequestURL(baseURL string, q SampleQuery) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid gas url: %w", err)
	}
	params := parsed.Query()
	if q.SpreadsheetID != "" {
		params.Set("spreadsheetId", q.SpreadsheetID)
		params.Set("surveyResultsSpreadsheetId", q.SpreadsheetID)
	}
	if q.SpreadsheetURL != "" {
		params.Set("surveyResultsSpreadsheetUrl", q.SpreadsheetURL)
	}
	if q.FormKey != "" {
		params.Set("formKey", q.FormKey)
	}
	if q.SubmittedAt != "" {
		params.Set("submittedAt", q.SubmittedAt)
	}
	if q.ResponseID != "" {
		params.Set("responseId", q.ResponseID)
	}
	parsed.RawQuery = params.Encode()
	return parsed.String(), nil
}

// FetchSamples performs one GET against the collector. A JSON array body
// yields its elements; any other JSON shape yields no samples; a plain-text
// body yields a single sample. One attempt, no retries.
func (c *Collector) FetchSamples(ctx context.Context, gasURL string, q SampleQuery) ([]any, error) {
	fetchURL, err := buildRequestURL(gasURL, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	c.logger.Debug("fetching survey samples", zap.String("url", fetchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: collector returned status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("%w: invalid collector response: %v", ErrUpstreamFetch, err)
		}
		if samples, ok := decoded.([]any); ok {
			return samples, nil
		}
		return nil, nil
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return []any{text}, nil
	}
	return nil, nil
}
