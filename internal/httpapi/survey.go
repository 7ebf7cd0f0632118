package httpapi

import (
	"errors"
	"net/http"

	"reviewrouter/internal/survey"
)

func (s *Server) handleSurveySubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeBody(r, &payload); s.rejectBadBody(w, err) {
		return
	}

	if err := s.surveys.SubmitAnswers(r.Context(), payload); err != nil {
		switch {
		case errors.Is(err, survey.ErrMissingFormKey):
			s.writeError(w, http.StatusBadRequest, "formKeyが指定されていません。", err)
		case errors.Is(err, survey.ErrMissingAnswers):
			s.writeError(w, http.StatusBadRequest, "answersが指定されていません。", err)
		case errors.Is(err, survey.ErrBadSpreadsheetURL):
			s.writeError(w, http.StatusBadRequest, "スプレッドシートURLの形式が正しくありません。", err)
		case errors.Is(err, survey.ErrMissingEndpoint):
			s.writeError(w, http.StatusBadRequest, "回答の送信先エンドポイントが設定されていません。", err)
		default:
			s.writeError(w, http.StatusBadGateway, "アンケート回答の送信に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "回答を送信しました。"})
}

func (s *Server) handleUserDataSubmit(w http.ResponseWriter, r *http.Request) {
	var sub survey.ProfileSubmission
	if err := decodeBody(r, &sub); s.rejectBadBody(w, err) {
		return
	}

	if err := s.surveys.SubmitProfile(r.Context(), sub); err != nil {
		switch {
		case errors.Is(err, survey.ErrMissingProfile):
			s.writeError(w, http.StatusBadRequest, "profileが指定されていません。", err)
		case errors.Is(err, survey.ErrMissingSubmitGASURL):
			s.writeError(w, http.StatusBadRequest, "送信用GASアプリURLが設定されていません。", err)
		case errors.Is(err, survey.ErrMissingSpreadsheetID):
			s.writeError(w, http.StatusBadRequest, "スプレッドシートIDを解決できませんでした。", err)
		default:
			s.writeError(w, http.StatusBadGateway, "ユーザーデータの送信に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ユーザーデータを保存しました。"})
}

func (s *Server) handleUserDataRead(w http.ResponseWriter, r *http.Request) {
	var req survey.ProfileReadRequest
	if err := decodeBody(r, &req); s.rejectBadBody(w, err) {
		return
	}

	result, err := s.surveys.ReadProfile(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrMissingEmail):
			s.writeError(w, http.StatusBadRequest, "メールアドレスを入力してください。", err)
		case errors.Is(err, survey.ErrMissingPassword):
			s.writeError(w, http.StatusBadRequest, "パスワードを入力してください。", err)
		case errors.Is(err, survey.ErrMissingReadGASURL):
			s.writeError(w, http.StatusBadRequest, "読み取り用GASアプリURLが設定されていません。", err)
		case errors.Is(err, survey.ErrMissingSpreadsheetID):
			s.writeError(w, http.StatusBadRequest, "スプレッドシートIDを解決できませんでした。", err)
		case errors.Is(err, survey.ErrNoProfile):
			s.writeError(w, http.StatusNotFound, "ユーザー情報が見つかりませんでした。", err)
		default:
			s.writeError(w, http.StatusBadGateway, "ユーザーデータの取得に失敗しました。", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
