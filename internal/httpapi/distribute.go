package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reviewrouter/internal/distribute"
)

type distributeRequest struct {
	Tier string `json:"tier"`
}

// handleDistribute serves the next destination link for a tier. The tier
// rides in the JSON body, with the query parameter accepted for the QR
// code redirect pages that cannot send a body.
func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req distributeRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeError(w, http.StatusBadRequest, msgBadJSON, err)
		return
	}

	tierKey := strings.TrimSpace(req.Tier)
	if tierKey == "" {
		tierKey = strings.TrimSpace(r.URL.Query().Get("tier"))
	}
	if tierKey == "" {
		s.writeError(w, http.StatusBadRequest, "tierパラメータを指定してください。", nil)
		return
	}

	assignment, err := s.engine.Distribute(ctx, tierKey)
	if err != nil {
		key := strings.ToLower(tierKey)
		switch {
		case errors.Is(err, distribute.ErrUnsupportedTier):
			s.writeError(w, http.StatusNotFound,
				fmt.Sprintf("%sはサポートされていません。", key), err)
		case errors.Is(err, distribute.ErrNoLinks):
			doc := s.repo.Load(ctx)
			label := doc.Labels[key]
			if label == "" {
				label = key
			}
			s.writeError(w, http.StatusNotFound,
				fmt.Sprintf("%sのリンクが設定されていません。", label), err)
		default:
			s.writeError(w, http.StatusInternalServerError, msgSaveFailed, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}
