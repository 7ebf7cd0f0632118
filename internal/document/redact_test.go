package document

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRedactMasksSecrets(t *testing.T) {
	doc := sampleDocument()
	redacted := doc.Redact()

	if redacted.AISettings.GeminiAPIKey != SecretMask {
		t.Errorf("geminiApiKey = %q, want mask", redacted.AISettings.GeminiAPIKey)
	}
	if !redacted.AISettings.HasGeminiAPIKey {
		t.Error("hasGeminiApiKey should report presence")
	}
	if redacted.SurveyResults.APIKey != SecretMask {
		t.Errorf("surveyResults.apiKey = %q, want mask", redacted.SurveyResults.APIKey)
	}
	if !redacted.SurveyResults.HasAPIKey {
		t.Error("hasApiKey should report presence")
	}
}

func TestRedactEmptySecretsStayEmpty(t *testing.T) {
	redacted := Defaults().Redact()

	if redacted.AISettings.GeminiAPIKey != "" {
		t.Errorf("geminiApiKey = %q, want empty", redacted.AISettings.GeminiAPIKey)
	}
	if redacted.AISettings.HasGeminiAPIKey {
		t.Error("hasGeminiApiKey should be false with no stored key")
	}
	if redacted.SurveyResults.HasAPIKey {
		t.Error("hasApiKey should be false with no stored key")
	}
}

// The serialized client view must never contain a stored secret anywhere.
func TestRedactedJSONCarriesNoSecrets(t *testing.T) {
	doc := sampleDocument()

	data, err := json.Marshal(doc.Redact())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if strings.Contains(body, doc.AISettings.GeminiAPIKey) {
		t.Error("redacted JSON leaks the Gemini API key")
	}
	if strings.Contains(body, doc.SurveyResults.APIKey) {
		t.Error("redacted JSON leaks the collector API key")
	}
}
