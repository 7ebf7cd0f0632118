package generate

import (
	"bytes"
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

// TextGenerator is the boundary to the generation provider: prompt in,
// text out. Implementations must return ErrEmptyGeneration when the
// provider responds successfully but yields no usable text.
type TextGenerator interface {
	GenerateText(ctx context.Context, apiKey, model, prompt string) (string, error)
}

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// RestClient calls the Gemini REST API directly. This is the default
// generator: the wire contract is small and the per-tenant API key rides
// in the query string, matching what the deployed GAS tooling expects.
type RestClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	maxRetries int
}

// NewRestClient builds a REST generator with a bounded timeout.
func NewRestClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RestClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		maxRetries: 3,
	}
}

// GenerateText sends one prompt and extracts the first candidate's text.
// Only 429 responses are retried; a retry here never touches stored state.
func (c *RestClient) GenerateText(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, model, url.QueryEscape(apiKey))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUpstreamTimeout, ctx.Err())
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		text, retryable, err := c.doRequest(ctx, endpoint, payload, model)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *RestClient) doRequest(ctx context.Context, endpoint string, payload []byte, model string) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", false, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return "", false, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return "", true, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("%w: rate limit exceeded (429)", ErrGeneration)
	}
	if resp.StatusCode != http.StatusOK {
		var parsed geminiResponse
		message := ""
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			message = parsed.Error.Message
		}
		c.logger.Error("gemini request failed",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.String("upstream_message", message))
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", false, fmt.Errorf("%w: %s", ErrGeneration, message)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("%w: invalid response: %v", ErrGeneration, err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("%w: %s", ErrGeneration, parsed.Error.Message)
	}

	extracted := extractText(parsed)
	if extracted == "" {
		return "", false, ErrEmptyGeneration
	}
	return extracted, false, nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
