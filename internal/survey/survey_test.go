package survey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewrouter/internal/blobstore"
	"reviewrouter/internal/document"
)

func seedRepo(t *testing.T, mutate func(*document.Document)) *document.Repository {
	t.Helper()
	repo := document.NewRepository(blobstore.NewMemory(), nil)

	doc := document.Defaults()
	if mutate != nil {
		mutate(&doc)
	}
	if err := repo.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return repo
}

func TestSubmitAnswersValidation(t *testing.T) {
	svc := NewService(seedRepo(t, nil), time.Second, nil)
	ctx := context.Background()

	if err := svc.SubmitAnswers(ctx, nil); !errors.Is(err, ErrMissingAnswers) {
		t.Errorf("nil payload: err = %v", err)
	}
	if err := svc.SubmitAnswers(ctx, map[string]any{
		"answers": map[string]any{"q1": "A"},
	}); !errors.Is(err, ErrMissingFormKey) {
		t.Errorf("missing formKey: err = %v", err)
	}
	if err := svc.SubmitAnswers(ctx, map[string]any{
		"formKey": "form1",
	}); !errors.Is(err, ErrMissingAnswers) {
		t.Errorf("missing answers: err = %v", err)
	}
	if err := svc.SubmitAnswers(ctx, map[string]any{
		"formKey": "form1",
		"answers": map[string]any{"q1": "A"},
		"metadata": map[string]any{
			"spreadsheetUrl": "https://example.com/not-a-sheet",
		},
	}); !errors.Is(err, ErrBadSpreadsheetURL) {
		t.Errorf("bad spreadsheet url: err = %v", err)
	}
}

func TestSubmitAnswersForwards(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer upstream.Close()

	repo := seedRepo(t, func(doc *document.Document) {
		doc.SurveyResults.EndpointURL = upstream.URL
		doc.SurveyResults.APIKey = "collector-key"
	})
	svc := NewService(repo, time.Second, nil)

	err := svc.SubmitAnswers(context.Background(), map[string]any{
		"formKey": "form2",
		"answers": map[string]any{"q1": "よかった"},
		"metadata": map[string]any{
			"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/sheet99/edit",
		},
	})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	if gotAuth != "Bearer collector-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	metadata, _ := gotBody["metadata"].(map[string]any)
	if metadata["spreadsheetId"] != "sheet99" {
		t.Errorf("spreadsheetId = %v, want resolved id", metadata["spreadsheetId"])
	}
	if metadata["surveyResultsSpreadsheetId"] != "sheet99" {
		t.Errorf("surveyResultsSpreadsheetId = %v", metadata["surveyResultsSpreadsheetId"])
	}
}

func TestSubmitAnswersMissingEndpoint(t *testing.T) {
	svc := NewService(seedRepo(t, nil), time.Second, nil)

	err := svc.SubmitAnswers(context.Background(), map[string]any{
		"formKey": "form1",
		"answers": map[string]any{"q1": "A"},
		"metadata": map[string]any{
			"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/sheet1/edit",
		},
	})
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("err = %v, want ErrMissingEndpoint", err)
	}
}

func TestSubmitAnswersUpstreamRejection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	repo := seedRepo(t, func(doc *document.Document) {
		doc.SurveyResults.EndpointURL = upstream.URL
	})
	svc := NewService(repo, time.Second, nil)

	err := svc.SubmitAnswers(context.Background(), map[string]any{
		"formKey": "form1",
		"answers": map[string]any{"q1": "A"},
		"metadata": map[string]any{
			"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/sheet1/edit",
		},
	})
	if !errors.Is(err, ErrForwardFailed) {
		t.Errorf("err = %v, want ErrForwardFailed", err)
	}
}

func TestSubmitProfile(t *testing.T) {
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer upstream.Close()

	repo := seedRepo(t, func(doc *document.Document) {
		doc.UserDataSettings = document.UserDataSettings{
			SpreadsheetURL: "https://docs.google.com/spreadsheets/d/userdata1/edit",
			SubmitGASURL:   upstream.URL,
			ReadGASURL:     "https://script.example/read",
		}
	})
	svc := NewService(repo, time.Second, nil)

	err := svc.SubmitProfile(context.Background(), ProfileSubmission{
		Profile: map[string]any{"storeName": "カフェ"},
	})
	if err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}

	metadata, _ := gotBody["metadata"].(map[string]any)
	if metadata["spreadsheetId"] != "userdata1" {
		t.Errorf("spreadsheetId = %v", metadata["spreadsheetId"])
	}
	if metadata["userDataSpreadsheetId"] != "userdata1" {
		t.Errorf("userDataSpreadsheetId = %v", metadata["userDataSpreadsheetId"])
	}
	if metadata["source"] != "user-app" {
		t.Errorf("source = %v, want user-app default", metadata["source"])
	}
	if metadata["submittedAt"] == "" {
		t.Error("submittedAt not stamped")
	}
}

func TestSubmitProfileValidation(t *testing.T) {
	svc := NewService(seedRepo(t, nil), time.Second, nil)
	ctx := context.Background()

	if err := svc.SubmitProfile(ctx, ProfileSubmission{}); !errors.Is(err, ErrMissingProfile) {
		t.Errorf("missing profile: err = %v", err)
	}
	if err := svc.SubmitProfile(ctx, ProfileSubmission{
		Profile: map[string]any{"storeName": "x"},
	}); !errors.Is(err, ErrMissingSubmitGASURL) {
		t.Errorf("missing submit url: err = %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	hashed := HashPassword("password123", "salt")
	if len(hashed) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hashed))
	}
	if hashed == HashPassword("password123", "other-salt") {
		t.Error("different salts must produce different hashes")
	}
	if hashed != HashPassword("password123", "salt") {
		t.Error("hash must be deterministic")
	}
}

func TestReadProfile(t *testing.T) {
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"profile": {"storeName": "カフェ", "email": "owner@example.com"}}`))
	}))
	defer upstream.Close()

	repo := seedRepo(t, func(doc *document.Document) {
		doc.UserDataSettings = document.UserDataSettings{
			SpreadsheetURL: "https://docs.google.com/spreadsheets/d/userdata1/edit",
			ReadGASURL:     upstream.URL,
			PasswordSalt:   "pepper",
		}
	})
	svc := NewService(repo, time.Second, nil)

	result, err := svc.ReadProfile(context.Background(), ProfileReadRequest{
		Email:    "owner@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("ReadProfile: %v", err)
	}

	if result.Profile["storeName"] != "カフェ" {
		t.Errorf("profile = %v", result.Profile)
	}
	want := HashPassword("secret", "pepper")
	if gotBody["password"] != want || gotBody["hashedPassword"] != want {
		t.Error("forwarded password must be the salted hash")
	}
	if gotBody["sheetName"] != profileSheetName {
		t.Errorf("sheetName = %v, want %q", gotBody["sheetName"], profileSheetName)
	}
	// The plaintext must never leave the process.
	for key, v := range gotBody {
		if s, ok := v.(string); ok && s == "secret" {
			t.Errorf("plaintext password forwarded upstream in field %q", key)
		}
	}
}

func TestReadProfileShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"top-level profile", `{"profile": {"storeName": "A"}}`, "A"},
		{"nested data.profile", `{"data": {"profile": {"storeName": "B"}}}`, "B"},
		{"bare data object", `{"data": {"storeName": "C"}}`, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer upstream.Close()

			repo := seedRepo(t, func(doc *document.Document) {
				doc.UserDataSettings = document.UserDataSettings{
					SpreadsheetURL: "https://docs.google.com/spreadsheets/d/u1/edit",
					ReadGASURL:     upstream.URL,
				}
			})
			svc := NewService(repo, time.Second, nil)

			result, err := svc.ReadProfile(context.Background(), ProfileReadRequest{
				Email:    "a@example.com",
				Password: "pw",
			})
			if err != nil {
				t.Fatalf("ReadProfile: %v", err)
			}
			if result.Profile["storeName"] != tt.want {
				t.Errorf("profile = %v, want storeName %q", result.Profile, tt.want)
			}
		})
	}
}

func TestReadProfileNoProfile(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "not found"}`))
	}))
	defer upstream.Close()

	repo := seedRepo(t, func(doc *document.Document) {
		doc.UserDataSettings = document.UserDataSettings{
			SpreadsheetURL: "https://docs.google.com/spreadsheets/d/u1/edit",
			ReadGASURL:     upstream.URL,
		}
	})
	svc := NewService(repo, time.Second, nil)

	_, err := svc.ReadProfile(context.Background(), ProfileReadRequest{
		Email:    "a@example.com",
		Password: "pw",
	})
	if !errors.Is(err, ErrNoProfile) {
		t.Errorf("err = %v, want ErrNoProfile", err)
	}
}

func TestReadProfileValidation(t *testing.T) {
	svc := NewService(seedRepo(t, nil), time.Second, nil)
	ctx := context.Background()

	if _, err := svc.ReadProfile(ctx, ProfileReadRequest{Password: "pw"}); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("missing email: err = %v", err)
	}
	if _, err := svc.ReadProfile(ctx, ProfileReadRequest{Email: "a@example.com"}); !errors.Is(err, ErrMissingPassword) {
		t.Errorf("missing password: err = %v", err)
	}
}
