package httpapi

import (
	"errors"
	"io"
	"net/http"

	"reviewrouter/internal/billing"
)

type checkoutRequest struct {
	Plan    string `json:"plan"`
	PriceID string `json:"priceId"`
	Email   string `json:"email"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(r, &req); s.rejectBadBody(w, err) {
		return
	}

	url, err := s.billing.CreateCheckout(req.Plan, req.PriceID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			s.writeError(w, http.StatusInternalServerError, "決済機能が設定されていません。", err)
		case errors.Is(err, billing.ErrMissingPrice):
			s.writeError(w, http.StatusBadRequest, "料金プランが設定されていません。", err)
		default:
			s.writeError(w, http.StatusBadGateway, "チェックアウトセッションの作成に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleStripeWebhook ingests raw event payloads. The body must reach the
// signature check byte for byte, so it bypasses the JSON decode helpers.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgBadJSON, err)
		return
	}

	err = s.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrBadSignature):
			s.writeError(w, http.StatusBadRequest, "署名の検証に失敗しました。", err)
		case errors.Is(err, billing.ErrNotConfigured):
			s.writeError(w, http.StatusInternalServerError, "決済機能が設定されていません。", err)
		default:
			s.writeError(w, http.StatusInternalServerError, "Webhookの処理に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type subscriptionRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCheckSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(r, &req); s.rejectBadBody(w, err) {
		return
	}

	status, err := s.billing.CheckSubscription(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, billing.ErrMissingEmail) {
			s.writeError(w, http.StatusBadRequest, "メールアドレスを入力してください。", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "契約状況の確認に失敗しました。", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
