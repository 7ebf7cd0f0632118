package document

// RedactedAISettings is the client view of AISettings: the stored key never
// leaves the server, only a fixed mask plus a presence flag.
type RedactedAISettings struct {
	GASURL          string `json:"gasUrl"`
	GeminiAPIKey    string `json:"geminiApiKey"`
	HasGeminiAPIKey bool   `json:"hasGeminiApiKey"`
	Prompt          string `json:"prompt"`
	MapsLink        string `json:"mapsLink"`
	Model           string `json:"model"`
}

// RedactedSurveyResults masks the collector API key the same way.
type RedactedSurveyResults struct {
	SpreadsheetURL string `json:"spreadsheetUrl"`
	EndpointURL    string `json:"endpointUrl"`
	APIKey         string `json:"apiKey"`
	HasAPIKey      bool   `json:"hasApiKey"`
}

// Redacted is the document as served to clients. Identical to Document
// except for the masked secret sections; internal-only keys are never part
// of either shape.
type Redacted struct {
	Labels           map[string]string     `json:"labels"`
	Tiers            map[string]Tier       `json:"tiers"`
	AISettings       RedactedAISettings    `json:"aiSettings"`
	Prompts          map[string]PromptPage `json:"prompts"`
	Branding         Branding              `json:"branding"`
	SurveyResults    RedactedSurveyResults `json:"surveyResults"`
	UserProfile      UserProfile           `json:"userProfile"`
	UserDataSettings UserDataSettings      `json:"userDataSettings"`
	Form1            Form                  `json:"form1"`
	Form2            Form                  `json:"form2"`
	Form3            Form                  `json:"form3"`
	UpdatedAt        *string               `json:"updatedAt"`
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return SecretMask
}

// Redact builds the client view of the document.
func (d Document) Redact() Redacted {
	return Redacted{
		Labels: d.Labels,
		Tiers:  d.Tiers,
		AISettings: RedactedAISettings{
			GASURL:          d.AISettings.GASURL,
			GeminiAPIKey:    maskSecret(d.AISettings.GeminiAPIKey),
			HasGeminiAPIKey: d.AISettings.GeminiAPIKey != "",
			Prompt:          d.AISettings.Prompt,
			MapsLink:        d.AISettings.MapsLink,
			Model:           d.AISettings.Model,
		},
		Prompts:  d.Prompts,
		Branding: d.Branding,
		SurveyResults: RedactedSurveyResults{
			SpreadsheetURL: d.SurveyResults.SpreadsheetURL,
			EndpointURL:    d.SurveyResults.EndpointURL,
			APIKey:         maskSecret(d.SurveyResults.APIKey),
			HasAPIKey:      d.SurveyResults.APIKey != "",
		},
		UserProfile:      d.UserProfile,
		UserDataSettings: d.UserDataSettings,
		Form1:            d.Form1,
		Form2:            d.Form2,
		Form3:            d.Form3,
		UpdatedAt:        d.UpdatedAt,
	}
}
