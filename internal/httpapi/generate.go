package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reviewrouter/internal/generate"
)

// handleGenerate runs one review generation. An optional ?model= query
// parameter overrides the stored model for side-by-side comparison.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeError(w, http.StatusBadRequest, msgBadJSON, err)
		return
	}
	req.ModelOverride = strings.TrimSpace(r.URL.Query().Get("model"))

	result, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		label := generate.PromptLabel(generate.ResolvePromptKey(req.PromptKey, req.Tier))
		switch {
		case errors.Is(err, generate.ErrMissingAPIKey):
			s.writeError(w, http.StatusBadRequest,
				"Gemini APIキーが設定されていません。", err)
		case errors.Is(err, generate.ErrMissingGASURL):
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("%s のGASアプリURLが設定されていません。", label), err)
		case errors.Is(err, generate.ErrMissingPrompt):
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("%s のプロンプトが設定されていません。", label), err)
		case errors.Is(err, generate.ErrUpstreamFetch), errors.Is(err, generate.ErrUpstreamTimeout):
			s.writeError(w, http.StatusInternalServerError,
				"GASアプリからデータを取得できませんでした。", err)
		case errors.Is(err, generate.ErrEmptyGeneration):
			s.writeError(w, http.StatusBadGateway,
				"Gemini APIから有効な文章が返されませんでした。", err)
		case errors.Is(err, generate.ErrGeneration):
			s.writeError(w, http.StatusBadGateway, generationMessage(err), err)
		default:
			s.writeError(w, http.StatusInternalServerError,
				"クチコミの生成に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// generationMessage carries the upstream Gemini error detail into the 502
// body so admins can see quota and key problems without server logs.
func generationMessage(err error) string {
	detail := strings.TrimPrefix(err.Error(), generate.ErrGeneration.Error())
	detail = strings.TrimSpace(strings.TrimPrefix(detail, ":"))
	if detail == "" {
		return "Gemini APIから有効な文章が返されませんでした。"
	}
	return fmt.Sprintf("Gemini APIエラー: %s", detail)
}
