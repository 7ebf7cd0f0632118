package document

import (
	"encoding/json"
	"strings"
)

// Merge reconciles a possibly-partial, possibly-malformed incoming object
// against a trusted fallback document. It is total: malformed fields degrade
// to the fallback (then to the hardcoded default) instead of failing, and
// the output always carries every top-level key of the default shape.
//
// Resolution order per field: incoming if present and well-typed, else
// fallback, else default. Nested prompt pages merge per-field, never
// whole-object, so a partial edit cannot erase sibling fields. Secrets pass
// through unredacted; redaction happens only in the client view.
func Merge(incoming Raw, fallback Document) Document {
	merged := Defaults()

	merged.Labels = mergeLabels(incoming, fallback)
	merged.Tiers = mergeTiers(incoming, fallback)
	merged.AISettings = mergeAISettings(rawChild(incoming, "aiSettings"), fallback.AISettings)
	merged.Prompts = mergePrompts(rawChild(incoming, "prompts"), fallback.Prompts)
	merged.Branding = mergeBranding(rawChild(incoming, "branding"), fallback.Branding)
	merged.SurveyResults = mergeSurveyResults(rawChild(incoming, "surveyResults"), fallback.SurveyResults)
	merged.UserProfile = mergeUserProfile(rawChild(incoming, "userProfile"), fallback.UserProfile)
	merged.UserDataSettings = mergeUserDataSettings(rawChild(incoming, "userDataSettings"), fallback.UserDataSettings)
	merged.Form1 = mergeForm(rawChild(incoming, "form1"), fallback.Form1, defaultForm1())
	merged.Form2 = mergeForm(rawChild(incoming, "form2"), fallback.Form2, defaultForm2())
	merged.Form3 = mergeForm(rawChild(incoming, "form3"), fallback.Form3, defaultForm3())

	if s := rawString(incoming, "updatedAt", ""); s != "" {
		merged.UpdatedAt = &s
	} else {
		merged.UpdatedAt = fallback.UpdatedAt
	}

	return merged
}

// MergeDocument re-merges an already-typed document against a fallback.
// Used by write paths that mutate a loaded document and persist it back.
func MergeDocument(doc Document, fallback Document) Document {
	return Merge(ToRaw(doc), fallback)
}

// ToRaw round-trips a document through JSON into the raw form Merge accepts.
func ToRaw(doc Document) Raw {
	data, err := json.Marshal(doc)
	if err != nil {
		return Raw{}
	}
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Raw{}
	}
	return raw
}

func mergeLabels(incoming Raw, fallback Document) map[string]string {
	labels := Defaults().Labels
	for k, v := range fallback.Labels {
		if s := strings.TrimSpace(v); s != "" {
			labels[k] = s
		}
	}
	if in := rawChild(incoming, "labels"); in != nil {
		for k, v := range in {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				labels[k] = strings.TrimSpace(s)
			}
		}
	}
	return labels
}

func mergeTiers(incoming Raw, fallback Document) map[string]Tier {
	incomingTiers := rawChild(incoming, "tiers")
	merged := make(map[string]Tier, len(TierKeys))

	for _, key := range TierKeys {
		var tier Tier
		if src := rawChild(incomingTiers, key); src != nil {
			// The incoming tier object wins wholesale; its missing fields
			// reset rather than inherit, so a posted {links: []} clears the
			// cursor too.
			links, ok := rawStringArray(src, "links")
			if !ok {
				links = []string{}
			}
			tier.Links = trimStrings(links)
			if idx, isInt := rawInt(src, "nextIndex"); isInt {
				tier.NextIndex = idx
			}
			tier.LastServedAt = rawString(src, "lastServedAt", "")
		} else if fb, exists := fallback.Tiers[key]; exists {
			tier = fb
			tier.Links = append([]string{}, fb.Links...)
		} else {
			tier = Tier{Links: []string{}}
		}
		tier.Clamp()
		merged[key] = tier
	}
	return merged
}

// Clamp enforces the cursor invariant: 0 <= NextIndex < max(len(Links), 1).
// Out-of-range and negative cursors are reduced with a Euclidean modulo so
// rotation position survives where possible; empty links force index 0.
func (t *Tier) Clamp() {
	if t.Links == nil {
		t.Links = []string{}
	}
	if len(t.Links) == 0 {
		t.NextIndex = 0
		return
	}
	n := t.NextIndex % len(t.Links)
	if n < 0 {
		n += len(t.Links)
	}
	t.NextIndex = n
}

func mergeAISettings(in Raw, fb AISettings) AISettings {
	return AISettings{
		GASURL:       rawString(in, "gasUrl", strings.TrimSpace(fb.GASURL)),
		GeminiAPIKey: rawString(in, "geminiApiKey", strings.TrimSpace(fb.GeminiAPIKey)),
		Prompt:       rawString(in, "prompt", strings.TrimSpace(fb.Prompt)),
		MapsLink:     rawString(in, "mapsLink", strings.TrimSpace(fb.MapsLink)),
		Model:        rawString(in, "model", strings.TrimSpace(fb.Model)),
	}
}

func mergePrompts(in Raw, fb map[string]PromptPage) map[string]PromptPage {
	merged := make(map[string]PromptPage, len(PromptKeys))
	for _, key := range PromptKeys {
		entry := rawChild(in, key)
		fbEntry := fb[key]
		merged[key] = PromptPage{
			GASURL: rawString(entry, "gasUrl", strings.TrimSpace(fbEntry.GASURL)),
			Prompt: rawString(entry, "prompt", strings.TrimSpace(fbEntry.Prompt)),
		}
	}
	return merged
}

func mergeBranding(in Raw, fb Branding) Branding {
	return Branding{
		FaviconDataURL:     rawString(in, "faviconDataUrl", strings.TrimSpace(fb.FaviconDataURL)),
		LogoDataURL:        rawString(in, "logoDataUrl", strings.TrimSpace(fb.LogoDataURL)),
		HeaderImageDataURL: rawString(in, "headerImageDataUrl", strings.TrimSpace(fb.HeaderImageDataURL)),
	}
}

func mergeSurveyResults(in Raw, fb SurveyResults) SurveyResults {
	return SurveyResults{
		SpreadsheetURL: rawString(in, "spreadsheetUrl", strings.TrimSpace(fb.SpreadsheetURL)),
		EndpointURL:    rawString(in, "endpointUrl", strings.TrimSpace(fb.EndpointURL)),
		APIKey:         rawString(in, "apiKey", strings.TrimSpace(fb.APIKey)),
	}
}

func mergeUserProfile(in Raw, fb UserProfile) UserProfile {
	profile := UserProfile{
		StoreName:       rawString(in, "storeName", strings.TrimSpace(fb.StoreName)),
		StoreKana:       rawString(in, "storeKana", strings.TrimSpace(fb.StoreKana)),
		Industry:        rawString(in, "industry", strings.TrimSpace(fb.Industry)),
		Customers:       rawString(in, "customers", strings.TrimSpace(fb.Customers)),
		Strengths:       rawString(in, "strengths", strings.TrimSpace(fb.Strengths)),
		NearStation:     coerceField(in, "nearStation", fb.NearStation),
		ReferencePrompt: rawString(in, "referencePrompt", strings.TrimSpace(fb.ReferencePrompt)),
		UserID:          rawString(in, "userId", strings.TrimSpace(fb.UserID)),
	}

	if keywords, ok := rawStringArray(in, "keywords"); ok {
		profile.Keywords = trimStrings(keywords)
	} else {
		profile.Keywords = trimStrings(fb.Keywords)
	}
	if excludes, ok := rawStringArray(in, "excludeWords"); ok {
		profile.ExcludeWords = trimStrings(excludes)
	} else {
		profile.ExcludeWords = trimStrings(fb.ExcludeWords)
	}

	admin := rawChild(in, "admin")
	profile.Admin = AdminProfile{
		Name:     rawString(admin, "name", strings.TrimSpace(fb.Admin.Name)),
		Email:    rawString(admin, "email", strings.TrimSpace(fb.Admin.Email)),
		Password: rawString(admin, "password", strings.TrimSpace(fb.Admin.Password)),
	}
	return profile
}

func mergeUserDataSettings(in Raw, fb UserDataSettings) UserDataSettings {
	return UserDataSettings{
		SpreadsheetURL: rawString(in, "spreadsheetUrl", strings.TrimSpace(fb.SpreadsheetURL)),
		SubmitGASURL:   rawString(in, "submitGasUrl", strings.TrimSpace(fb.SubmitGASURL)),
		ReadGASURL:     rawString(in, "readGasUrl", strings.TrimSpace(fb.ReadGASURL)),
		PasswordSalt:   rawString(in, "passwordSalt", strings.TrimSpace(fb.PasswordSalt)),
	}
}

func mergeForm(in Raw, fb Form, defaults Form) Form {
	fbTitle := strings.TrimSpace(fb.Title)
	if fbTitle == "" {
		fbTitle = defaults.Title
	}
	fbDescription := strings.TrimSpace(fb.Description)
	if fbDescription == "" {
		fbDescription = defaults.Description
	}
	fbQuestions := fb.Questions
	if len(fbQuestions) == 0 {
		fbQuestions = defaults.Questions
	}

	rawQuestions, _ := rawField(in, "questions")
	return Form{
		Title:       rawString(in, "title", fbTitle),
		Description: rawString(in, "description", fbDescription),
		Questions:   sanitizeQuestions(rawQuestions, fbQuestions),
	}
}
