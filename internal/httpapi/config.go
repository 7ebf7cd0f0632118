package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"reviewrouter/internal/document"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc := s.repo.Load(r.Context())
	writeJSON(w, http.StatusOK, doc.Redact())
}

// handlePostConfig applies one admin edit: the incoming partial document is
// reconciled against the stored one, secrets posted back as the mask (or
// emptied) keep their stored values, the tenant user id follows the admin
// email, and every rotation cursor is re-clamped before the result is
// persisted and returned redacted.
func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := readBody(r)
	if s.rejectBadBody(w, err) {
		return
	}
	var raw document.Raw
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		s.writeError(w, http.StatusBadRequest, msgBadJSON, err)
		return
	}

	stored := s.repo.Load(ctx)
	preserveSecrets(raw, stored)

	merged := document.Merge(raw, stored)
	provisionUserID(&merged, stored)

	for key, tier := range merged.Tiers {
		tier.Clamp()
		merged.Tiers[key] = tier
	}

	now := time.Now().UTC().Format(time.RFC3339)
	merged.UpdatedAt = &now

	if err := s.repo.Save(ctx, merged); err != nil {
		s.writeError(w, http.StatusInternalServerError, msgSaveFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, merged.Redact())
}

// preserveSecrets rewrites masked or emptied secret fields in the incoming
// payload to their stored values. Clients only ever see the mask, so
// posting the redacted view back must be a no-op for secrets.
func preserveSecrets(raw document.Raw, stored document.Document) {
	if ai, ok := raw["aiSettings"].(map[string]any); ok {
		if value, ok := ai["geminiApiKey"].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed == "" || trimmed == document.SecretMask {
				ai["geminiApiKey"] = stored.AISettings.GeminiAPIKey
			}
		}
	}
	if sr, ok := raw["surveyResults"].(map[string]any); ok {
		if value, ok := sr["apiKey"].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed == "" || trimmed == document.SecretMask {
				sr["apiKey"] = stored.SurveyResults.APIKey
			}
		}
	}
}

// provisionUserID keeps the tenant user id stable across edits: any admin
// email differing from the stored one (including the first email ever set)
// mints a fresh server-side id, and a missing incoming id preserves the
// stored one. Client-supplied ids never survive an email change.
func provisionUserID(merged *document.Document, stored document.Document) {
	storedEmail := document.NormalizeEmail(stored.UserProfile.Admin.Email)
	newEmail := document.NormalizeEmail(merged.UserProfile.Admin.Email)

	switch {
	case newEmail != "" && newEmail != storedEmail:
		merged.UserProfile.UserID = document.GenerateUserID()
	case merged.UserProfile.UserID == "" && stored.UserProfile.UserID != "":
		merged.UserProfile.UserID = stored.UserProfile.UserID
	case merged.UserProfile.UserID == "" && newEmail != "":
		merged.UserProfile.UserID = document.GenerateUserID()
	}
}
