package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"focustimer/internal/db"
	"focustimer/internal/handler"
	"focustimer/internal/repository"
	"focustimer/internal/router"
	"focustimer/internal/service"
)

const webhookSecret = "test-webhook-secret"

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Tier  string `json:"tier"`
	} `json:"user"`
}

type sessionsEnvelope struct {
	Rev      int64           `json:"rev"`
	Sessions json.RawMessage `json:"sessions"`
}

type settingsEnvelope struct {
	Rev      int64           `json:"rev"`
	Settings json.RawMessage `json:"settings"`
}

type revEnvelope struct {
	Rev int64 `json:"rev"`
}

func TestDocumentSyncFlow(t *testing.T) {
	engine := setupTestEngine(t)

	user1 := registerUser(t, engine, "user1@example.com", "123456")
	user2 := registerUser(t, engine, "user2@example.com", "123456")

	// A fresh account reads back as revision 0 with empty documents.
	sessions := getSessions(t, engine, user1.Token)
	if sessions.Rev != 0 {
		t.Fatalf("expected rev 0 for fresh account, got %d", sessions.Rev)
	}
	if string(sessions.Sessions) != "[]" {
		t.Fatalf("expected empty session list, got %s", sessions.Sessions)
	}

	body := `[{"date":"2024-01-01T10:00:00Z","duration":1500,"label":"","note":""}]`
	status, raw := requestJSON(t, engine, http.MethodPut, "/api/data/sessions", user1.Token, map[string]json.RawMessage{
		"sessions": json.RawMessage(body),
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", status, raw)
	}
	var saved revEnvelope
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("unmarshal save response: %v", err)
	}
	if saved.Rev != 1 {
		t.Fatalf("expected rev 1 after first save, got %d", saved.Rev)
	}

	sessions = getSessions(t, engine, user1.Token)
	if sessions.Rev != 1 {
		t.Fatalf("expected rev 1 on read back, got %d", sessions.Rev)
	}
	if !bytes.Contains(sessions.Sessions, []byte(`"duration":1500`)) {
		t.Fatalf("saved body lost: %s", sessions.Sessions)
	}

	// Documents are per user.
	other := getSessions(t, engine, user2.Token)
	if other.Rev != 0 || string(other.Sessions) != "[]" {
		t.Fatalf("user2 must not see user1 data: rev=%d body=%s", other.Rev, other.Sessions)
	}

	// Settings is an independent document with its own revision.
	status, raw = requestJSON(t, engine, http.MethodPut, "/api/data/settings", user1.Token, map[string]json.RawMessage{
		"settings": json.RawMessage(`{"workMinutes":50}`),
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on settings save, got %d: %s", status, raw)
	}
	settings := getSettings(t, engine, user1.Token)
	if settings.Rev != 1 {
		t.Fatalf("expected settings rev 1, got %d", settings.Rev)
	}

	// Clearing overwrites instead of deleting, so revisions keep climbing.
	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/data", user1.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on clear, got %d", status)
	}
	sessions = getSessions(t, engine, user1.Token)
	if string(sessions.Sessions) != "[]" {
		t.Fatalf("expected cleared sessions, got %s", sessions.Sessions)
	}
	if sessions.Rev != 2 {
		t.Fatalf("expected rev 2 after clear, got %d", sessions.Rev)
	}
	settings = getSettings(t, engine, user1.Token)
	if string(settings.Settings) != "null" {
		t.Fatalf("expected cleared settings, got %s", settings.Settings)
	}
}

func TestDocumentValidation(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user@example.com", "123456")

	status, _ := requestJSON(t, engine, http.MethodPut, "/api/data/sessions", user.Token, map[string]json.RawMessage{
		"sessions": json.RawMessage(`{"not":"an array"}`),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-array sessions, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/data/settings", user.Token, map[string]json.RawMessage{
		"settings": json.RawMessage(`[1,2,3]`),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-object settings, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/data/sessions", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = requestJSONWithHeader(t, engine, http.MethodGet, "/api/data/sessions", "", nil,
		"Authorization", "Token not-a-bearer")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer authorization, got %d", status)
	}
}

func TestWatchWakesOnSave(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user@example.com", "123456")

	status, _ := requestJSON(t, engine, http.MethodPut, "/api/data/sessions", user.Token, map[string]json.RawMessage{
		"sessions": json.RawMessage(`[]`),
	})
	if status != http.StatusOK {
		t.Fatalf("seed save failed with %d", status)
	}

	// A watch behind the current revision returns immediately.
	status, raw := requestJSON(t, engine, http.MethodGet, "/api/data/watch?rev=0", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on watch, got %d", status)
	}
	var rev revEnvelope
	if err := json.Unmarshal(raw, &rev); err != nil {
		t.Fatalf("unmarshal watch response: %v", err)
	}
	if rev.Rev != 1 {
		t.Fatalf("expected watch to report rev 1, got %d", rev.Rev)
	}

	// A watch at the current revision blocks until the next save.
	go func() {
		time.Sleep(200 * time.Millisecond)
		requestJSON(t, engine, http.MethodPut, "/api/data/sessions", user.Token, map[string]json.RawMessage{
			"sessions": json.RawMessage(`[{"date":"2024-01-01T10:00:00Z","duration":60,"label":"","note":""}]`),
		})
	}()

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/data/watch?rev=1", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on blocking watch, got %d", status)
	}
	if err := json.Unmarshal(raw, &rev); err != nil {
		t.Fatalf("unmarshal watch response: %v", err)
	}
	if rev.Rev != 2 {
		t.Fatalf("expected watch to wake on rev 2, got %d", rev.Rev)
	}
}

func TestBillingWebhookUpgradesTier(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user@example.com", "123456")
	if user.User.Tier != "free" {
		t.Fatalf("expected new accounts on the free tier, got %s", user.User.Tier)
	}

	payload := map[string]string{"userId": user.User.ID, "tier": "pro"}
	status, _ := requestJSONWithHeader(t, engine, http.MethodPost, "/api/billing/webhook", "", payload,
		"X-Webhook-Secret", "wrong")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad webhook secret, got %d", status)
	}

	status, _ = requestJSONWithHeader(t, engine, http.MethodPost, "/api/billing/webhook", "", payload,
		"X-Webhook-Secret", webhookSecret)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 from webhook, got %d", status)
	}

	// The new tier shows up on the next login.
	status, raw := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "123456",
	})
	if status != http.StatusOK {
		t.Fatalf("login failed with %d", status)
	}
	var login authResponse
	if err := json.Unmarshal(raw, &login); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if login.User.Tier != "pro" {
		t.Fatalf("expected pro tier after webhook, got %s", login.User.Tier)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/billing/checkout", login.Token, map[string]string{
		"plan": "standard",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 from checkout, got %d: %s", status, raw)
	}
	var checkout struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &checkout); err != nil {
		t.Fatalf("unmarshal checkout response: %v", err)
	}
	if checkout.URL == "" {
		t.Fatal("expected a checkout url")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	docRepo := repository.NewDocumentRepository(database)
	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour)
	dataService := service.NewDataService(docRepo, 3*time.Second)
	billingService := service.NewBillingService(userRepo,
		"https://billing.example.com/checkout", "https://billing.example.com/portal")

	authHandler := handler.NewAuthHandler(authService)
	dataHandler := handler.NewDataHandler(dataService)
	billingHandler := handler.NewBillingHandler(billingService, webhookSecret)

	return router.New(authService, authHandler, dataHandler, billingHandler, []string{"http://localhost:5173"})
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func getSessions(t *testing.T, server http.Handler, token string) sessionsEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/data/sessions", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get sessions failed with status %d: %s", status, string(body))
	}
	var resp sessionsEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal sessions response: %v", err)
	}
	return resp
}

func getSettings(t *testing.T, server http.Handler, token string) settingsEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/data/settings", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get settings failed with status %d: %s", status, string(body))
	}
	var resp settingsEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal settings response: %v", err)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	return requestJSONWithHeader(t, server, method, path, token, body, "", "")
}

func requestJSONWithHeader(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
	headerKey, headerValue string,
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if headerKey != "" {
		req.Header.Set(headerKey, headerValue)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
