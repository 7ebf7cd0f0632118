// Package survey proxies end-user survey submissions and tenant profile
// data to the external spreadsheet-backed GAS endpoints configured in the
// document. The service itself stores nothing; it validates, enriches
// metadata, and forwards.
package survey

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewrouter/internal/document"
	"reviewrouter/internal/generate"
)

// Validation errors (400 at the HTTP layer).
var (
	ErrMissingFormKey       = errors.New("formKey is required")
	ErrMissingAnswers       = errors.New("answers is required")
	ErrMissingProfile       = errors.New("profile is required")
	ErrMissingEmail         = errors.New("email is required")
	ErrMissingPassword      = errors.New("password is required")
	ErrBadSpreadsheetURL    = errors.New("spreadsheet url is malformed")
	ErrMissingEndpoint      = errors.New("survey endpoint not configured")
	ErrMissingSubmitGASURL  = errors.New("profile submit gas url not configured")
	ErrMissingReadGASURL    = errors.New("profile read gas url not configured")
	ErrMissingSpreadsheetID = errors.New("spreadsheet id could not be resolved")
)

// Forwarding errors, mapped to 502 or 404 at the HTTP layer.
var (
	ErrForwardFailed = errors.New("failed to forward to upstream")
	ErrNoProfile     = errors.New("upstream returned no profile")
)

const profileSheetName = "profiles"

// Service forwards survey answers and profile data.
type Service struct {
	repo   *document.Repository
	client *http.Client
	logger *zap.Logger
}

// NewService builds a forwarding service with a bounded outbound timeout.
func NewService(repo *document.Repository, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// SubmitAnswers validates a survey submission and forwards the whole
// payload to the configured collector endpoint, with the spreadsheet id
// resolved into the metadata. The collector API key, when set, rides as a
// bearer token.
func (s *Service) SubmitAnswers(ctx context.Context, payload map[string]any) error {
	if payload == nil {
		return ErrMissingAnswers
	}
	if formKey, _ := payload["formKey"].(string); strings.TrimSpace(formKey) == "" {
		return ErrMissingFormKey
	}
	if _, ok := payload["answers"].(map[string]any); !ok {
		return ErrMissingAnswers
	}

	metadata, _ := payload["metadata"].(map[string]any)
	if metadata == nil {
		metadata = map[string]any{}
	}
	spreadsheetURL, _ := metadata["spreadsheetUrl"].(string)
	spreadsheetID := generate.SpreadsheetID(spreadsheetURL)
	if spreadsheetID == "" {
		return ErrBadSpreadsheetURL
	}
	metadata["spreadsheetId"] = spreadsheetID
	metadata["surveyResultsSpreadsheetId"] = spreadsheetID
	metadata["surveyResultsSpreadsheetUrl"] = spreadsheetURL
	payload["metadata"] = metadata

	doc := s.repo.Load(ctx)
	endpoint := strings.TrimSpace(doc.SurveyResults.EndpointURL)
	if endpoint == "" {
		return ErrMissingEndpoint
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if apiKey := strings.TrimSpace(doc.SurveyResults.APIKey); apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	_, err := s.post(ctx, endpoint, headers, payload)
	return err
}

// ProfileSubmission is a tenant profile save request.
type ProfileSubmission struct {
	Profile     map[string]any `json:"profile"`
	Metadata    map[string]any `json:"metadata"`
	Origin      string         `json:"origin"`
	Source      string         `json:"source"`
	SubmittedAt string         `json:"submittedAt"`
}

// SubmitProfile forwards a tenant profile to the configured submit GAS
// endpoint, resolving spreadsheet coordinates from stored settings with
// request metadata as override.
func (s *Service) SubmitProfile(ctx context.Context, sub ProfileSubmission) error {
	if sub.Profile == nil {
		return ErrMissingProfile
	}

	doc := s.repo.Load(ctx)
	settings := doc.UserDataSettings
	override := sub.Metadata

	submitURL := firstNonEmpty(settings.SubmitGASURL, stringField(override, "submitGasUrl"))
	if submitURL == "" {
		return ErrMissingSubmitGASURL
	}
	spreadsheetURL := firstNonEmpty(settings.SpreadsheetURL, stringField(override, "spreadsheetUrl"))
	spreadsheetID := firstNonEmpty(stringField(override, "spreadsheetId"), generate.SpreadsheetID(spreadsheetURL))
	if spreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}

	source := strings.TrimSpace(sub.Source)
	if source == "" {
		source = "user-app"
	}
	submittedAt := strings.TrimSpace(sub.SubmittedAt)
	if submittedAt == "" {
		submittedAt = time.Now().UTC().Format(time.RFC3339)
	}

	body := map[string]any{
		"profile": sub.Profile,
		"metadata": map[string]any{
			"spreadsheetId":          spreadsheetID,
			"spreadsheetUrl":         spreadsheetURL,
			"userDataSpreadsheetId":  spreadsheetID,
			"userDataSpreadsheetUrl": spreadsheetURL,
			"readGasUrl":             firstNonEmpty(settings.ReadGASURL, stringField(override, "readGasUrl")),
			"apiKey":                 stringField(override, "apiKey"),
			"origin":                 strings.TrimSpace(sub.Origin),
			"source":                 source,
			"submittedAt":            submittedAt,
		},
	}

	_, err := s.post(ctx, submitURL, map[string]string{"Content-Type": "application/json"}, body)
	return err
}

// ProfileReadRequest is a login/profile-load request.
type ProfileReadRequest struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	UserID    string         `json:"userId"`
	SheetName string         `json:"sheetName"`
	Metadata  map[string]any `json:"metadata"`
}

// ProfileReadResult carries the profile returned by the GAS endpoint.
type ProfileReadResult struct {
	Profile  map[string]any `json:"profile"`
	Metadata map[string]any `json:"metadata"`
}

// HashPassword applies the salted SHA-256 scheme the profile sheet stores.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// ReadProfile asks the read GAS endpoint for the tenant profile matching
// email and hashed password. Password verification happens upstream; this
// side only hashes and never forwards the plaintext.
func (s *Service) ReadProfile(ctx context.Context, req ProfileReadRequest) (ProfileReadResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return ProfileReadResult{}, ErrMissingEmail
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return ProfileReadResult{}, ErrMissingPassword
	}

	doc := s.repo.Load(ctx)
	settings := doc.UserDataSettings
	override := req.Metadata

	spreadsheetURL := firstNonEmpty(settings.SpreadsheetURL, stringField(override, "spreadsheetUrl"))
	spreadsheetID := firstNonEmpty(stringField(override, "spreadsheetId"), generate.SpreadsheetID(spreadsheetURL))
	if spreadsheetID == "" {
		return ProfileReadResult{}, ErrMissingSpreadsheetID
	}
	readURL := firstNonEmpty(settings.ReadGASURL, stringField(override, "readGasUrl"))
	if readURL == "" {
		return ProfileReadResult{}, ErrMissingReadGASURL
	}

	sheetName := strings.TrimSpace(req.SheetName)
	if sheetName == "" {
		sheetName = profileSheetName
	}
	salt := firstNonEmpty(stringField(override, "passwordSalt"), settings.PasswordSalt)
	hashed := HashPassword(password, salt)

	body := map[string]any{
		"email":          email,
		"password":       hashed,
		"hashedPassword": hashed,
		"userId":         strings.TrimSpace(req.UserID),
		"sheetName":      sheetName,
		"spreadsheetId":  spreadsheetID,
		"spreadsheetUrl": spreadsheetURL,
		"metadata": map[string]any{
			"sheetName":     sheetName,
			"spreadsheetId": spreadsheetID,
			"userId":        strings.TrimSpace(req.UserID),
		},
	}

	respBody, err := s.post(ctx, readURL, map[string]string{"Content-Type": "application/json"}, body)
	if err != nil {
		return ProfileReadResult{}, err
	}

	var parsed map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			parsed = nil
		}
	}

	profile := extractProfile(parsed)
	if profile == nil {
		return ProfileReadResult{}, ErrNoProfile
	}

	return ProfileReadResult{
		Profile: profile,
		Metadata: map[string]any{
			"sheetName":     sheetName,
			"spreadsheetId": spreadsheetID,
		},
	}, nil
}

// extractProfile accepts the shapes deployed GAS scripts return: a
// top-level profile, data.profile, or the data object itself.
func extractProfile(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	if profile, ok := payload["profile"].(map[string]any); ok {
		return profile
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if profile, ok := data["profile"].(map[string]any); ok {
			return profile
		}
		return data
	}
	return nil
}

func (s *Service) post(ctx context.Context, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: timeout: %v", ErrForwardFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("upstream rejected forward",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, fmt.Errorf("%w: status %d", ErrForwardFailed, resp.StatusCode)
	}
	return respBody, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
