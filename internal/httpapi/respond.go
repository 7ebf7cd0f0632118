package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// User-facing messages. The admin and survey frontends render these
// verbatim, so they stay in Japanese.
const (
	msgEmptyBody        = "リクエストボディが空です。"
	msgBadJSON          = "JSON形式が正しくありません。"
	msgMethodNotAllowed = "許可されていないHTTPメソッドです。"
	msgNotFound         = "指定されたエンドポイントが見つかりません。"
	msgSaveFailed       = "設定の保存に失敗しました。"
)

// Body size cap. Branding images travel as data URLs inside the config
// document, so this is deliberately generous.
const maxBodyBytes = 10 << 20

var (
	errEmptyBody = errors.New("empty request body")
	errBadJSON   = errors.New("malformed json body")
)

// errorBody is the error payload shape: message for display, error for
// debugging.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	body := errorBody{Message: message}
	if err != nil {
		body.Error = err.Error()
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		} else {
			s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
		}
	}
	writeJSON(w, status, body)
}

// readBody drains the request body with the size cap applied and rejects
// empty payloads.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errBadJSON
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyBody
	}
	return data, nil
}

// decodeBody reads and unmarshals a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errBadJSON
	}
	return nil
}

// rejectBadBody maps body decode failures to their 400 responses and
// reports whether the request was rejected.
func (s *Server) rejectBadBody(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, errEmptyBody):
		s.writeError(w, http.StatusBadRequest, msgEmptyBody, err)
	default:
		s.writeError(w, http.StatusBadRequest, msgBadJSON, err)
	}
	return true
}
