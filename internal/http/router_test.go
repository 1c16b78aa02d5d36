package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mood-journal/internal/domain"
	"mood-journal/internal/flutterwave"
	"mood-journal/internal/service"
)

type testApp struct {
	router   *gin.Engine
	users    *mockUserRepo
	entries  *mockEntryRepo
	payments *mockPaymentRepo
	verifier *mockVerifier
	mailer   *mockEmailSender
	jwt      *service.JWTService
}

func newTestApp() *testApp {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	app := &testApp{
		users:    newMockUserRepo(),
		entries:  &mockEntryRepo{},
		payments: newMockPaymentRepo(),
		verifier: &mockVerifier{},
		mailer:   &mockEmailSender{},
		jwt:      service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore()),
	}
	userSvc := service.NewUserService(logger, app.users, app.mailer, service.NewMemoryRateLimiter(time.Minute, 100))
	entrySvc := service.NewEntryService(logger, app.entries, nil, service.NewMemoryRateLimiter(time.Minute, 100))
	exportSvc := service.NewExportService(app.users, app.entries)
	subSvc := service.NewSubscriptionService(logger, app.users, app.payments, app.verifier, nil, service.SubscriptionConfig{
		Amount:        2000,
		Currency:      "NGN",
		DurationDays:  365,
		WebhookSecret: "hook-secret",
	})
	app.router = NewRouter(
		logger,
		app.jwt,
		NewUserHandler(logger, userSvc, app.jwt),
		NewEntryHandler(logger, entrySvc, exportSvc),
		NewTrendHandler(logger, app.entries, 640, 320),
		NewPaymentHandler(logger, subSvc),
	)
	return app
}

func performRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) startSession(t *testing.T) (string, string) {
	t.Helper()
	rec := performRequest(a.router, http.MethodPost, "/session", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User   domain.User       `json:"user"`
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return resp.User.ID, resp.Tokens.AccessToken
}

func TestRouter_PrivateRoutesRequireToken(t *testing.T) {
	app := newTestApp()
	for _, path := range []string{"/entries", "/trend", "/trend.svg", "/user/status", "/export.csv", "/subscribe/txref"} {
		rec := performRequest(app.router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestSessionAndStatus(t *testing.T) {
	app := newTestApp()
	_, token := app.startSession(t)

	rec := performRequest(app.router, http.MethodGet, "/user/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status struct {
		IsPro bool   `json:"is_pro"`
		Email string `json:"email"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if status.IsPro || status.Email != "" {
		t.Fatalf("unexpected status: %s", rec.Body.String())
	}
}

func TestLinkEmailSwitchesSessionAfterCode(t *testing.T) {
	app := newTestApp()
	_ = app.users.Create(context.Background(), domain.User{ID: "old", Email: "me@example.com"})
	_, token := app.startSession(t)

	rec := performRequest(app.router, http.MethodPost, "/user/email", token, map[string]string{"email": "me@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var linkResp struct {
		VerificationRequired bool               `json:"verification_required"`
		Tokens               *service.TokenPair `json:"tokens"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &linkResp)
	if !linkResp.VerificationRequired || linkResp.Tokens != nil {
		t.Fatalf("owned email must not hand out tokens: %s", rec.Body.String())
	}
	if app.mailer.lastTo != "me@example.com" || app.mailer.lastOTP == "" {
		t.Fatalf("expected code mailed to owner")
	}

	wrong := "000000"
	if app.mailer.lastOTP == wrong {
		wrong = "111111"
	}
	rec = performRequest(app.router, http.MethodPost, "/user/email/verify", token, map[string]string{"email": "me@example.com", "code": wrong})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong code, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodPost, "/user/email/verify", token, map[string]string{"email": "me@example.com", "code": app.mailer.lastOTP})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Switched bool              `json:"switched"`
		Tokens   service.TokenPair `json:"tokens"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Switched || resp.Tokens.AccessToken == "" {
		t.Fatalf("expected switch with new tokens: %s", rec.Body.String())
	}
	claims, err := app.jwt.ParseAccessToken(resp.Tokens.AccessToken)
	if err != nil || claims.UserID != "old" {
		t.Fatalf("expected token for old user, got %+v %v", claims, err)
	}

	rec = performRequest(app.router, http.MethodPost, "/user/email", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", rec.Code)
	}
}

func TestEntriesCreateAndList(t *testing.T) {
	app := newTestApp()
	_, token := app.startSession(t)

	rec := performRequest(app.router, http.MethodPost, "/entries", token, map[string]string{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodPost, "/entries", token, map[string]string{"text": "I am so happy"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(app.router, http.MethodGet, "/entries", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		OK      bool           `json:"ok"`
		Entries []domain.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || len(resp.Entries) != 1 || resp.Entries[0].TopEmotion != "joy" {
		t.Fatalf("unexpected entries: %s", rec.Body.String())
	}
}

func TestEntriesRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	users := newMockUserRepo()
	entries := &mockEntryRepo{}
	jwtSvc := service.NewJWTServiceWithStore("secret", time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	h := NewEntryHandler(logger, service.NewEntryService(logger, entries, nil, service.NewMemoryRateLimiter(time.Minute, 1)), service.NewExportService(users, entries))
	r := gin.New()
	r.POST("/entries", JWTAuthMiddleware(jwtSvc), h.Create)

	pair, _ := jwtSvc.GeneratePair(domain.User{ID: "u1"})
	if rec := performRequest(r, http.MethodPost, "/entries", pair.AccessToken, map[string]string{"text": "ok"}); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/entries", pair.AccessToken, map[string]string{"text": "ok"}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestSimilarEntries(t *testing.T) {
	app := newTestApp()
	_, token := app.startSession(t)
	for _, text := range []string{"so angry", "furious again", "grateful"} {
		performRequest(app.router, http.MethodPost, "/entries", token, map[string]string{"text": text})
	}

	rec := performRequest(app.router, http.MethodGet, "/entries/1/similar?k=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Entries []domain.Entry `json:"entries"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Entries) != 1 || resp.Entries[0].ID == 1 {
		t.Fatalf("unexpected similar entries: %s", rec.Body.String())
	}

	if rec := performRequest(app.router, http.MethodGet, "/entries/abc/similar", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := performRequest(app.router, http.MethodGet, "/entries/99/similar", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTrendJSONAndSVG(t *testing.T) {
	app := newTestApp()
	userID, token := app.startSession(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	app.entries.entries = []domain.Entry{
		{ID: 1, UserID: userID, TopEmotion: "joy", TopScore: 0.9, CreatedAt: base},
		{ID: 2, UserID: userID, TopEmotion: "sadness", TopScore: 0.2, CreatedAt: base.Add(time.Hour)},
	}

	rec := performRequest(app.router, http.MethodGet, "/trend", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Points   []domain.RenderPoint `json:"points"`
		Tooltips []string             `json:"tooltips"`
		Summary  string               `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Points) != 2 || resp.Points[0].Glyph != "🤣" || resp.Points[1].Glyph != "😕" {
		t.Fatalf("unexpected points: %+v", resp.Points)
	}
	if len(resp.Tooltips) != 2 || resp.Tooltips[0] != "🤣 90.0%" {
		t.Fatalf("unexpected tooltips: %+v", resp.Tooltips)
	}
	if resp.Summary != "Last: 😕 sadness (20.0%)" {
		t.Fatalf("unexpected summary: %q", resp.Summary)
	}

	rec = performRequest(app.router, http.MethodGet, "/trend.svg", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatalf("expected svg body")
	}
	header := rec.Header().Get("X-Trend-Summary")
	for _, r := range header {
		if r > unicode.MaxASCII {
			t.Fatalf("summary header must be ASCII, got %q", header)
		}
	}
	if decoded, err := url.PathUnescape(header); err != nil || decoded != "Last: 😕 sadness (20.0%)" {
		t.Fatalf("unexpected summary header %q (%v)", decoded, err)
	}
}

func TestTrendFetchFailure(t *testing.T) {
	app := newTestApp()
	_, token := app.startSession(t)
	app.entries.listErr = errors.New("db down")

	rec := performRequest(app.router, http.MethodGet, "/trend", token, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestExportRequiresPro(t *testing.T) {
	app := newTestApp()
	userID, token := app.startSession(t)
	app.entries.entries = []domain.Entry{{ID: 1, UserID: userID, TopEmotion: "joy", TopScore: 0.5, CreatedAt: time.Now().UTC()}}

	rec := performRequest(app.router, http.MethodGet, "/export.csv", token, nil)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	until := time.Now().UTC().Add(time.Hour)
	_ = app.users.UpdatePro(context.Background(), userID, true, &until)
	rec = performRequest(app.router, http.MethodGet, "/export.csv", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "id,created_at,top_emotion,top_score,scores_json\n") {
		t.Fatalf("unexpected csv: %q", rec.Body.String())
	}
}

func TestPaymentFlow(t *testing.T) {
	app := newTestApp()
	userID, token := app.startSession(t)

	rec := performRequest(app.router, http.MethodGet, "/subscribe/txref", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var txResp struct {
		TxRef string `json:"tx_ref"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &txResp)
	if !strings.HasPrefix(txResp.TxRef, "mj-"+userID+"-") {
		t.Fatalf("unexpected tx_ref %q", txResp.TxRef)
	}

	rec = performRequest(app.router, http.MethodPost, "/payment/verify", token, map[string]any{"tx_ref": txResp.TxRef})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing transaction id, got %d", rec.Code)
	}

	app.verifier.result = flutterwave.Verification{
		Status: "success",
		Data:   flutterwave.TransactionData{ID: 5, TxRef: txResp.TxRef, Status: "successful", Amount: 2000, Currency: "USD"},
		Raw:    `{"status":"success"}`,
	}
	rec = performRequest(app.router, http.MethodPost, "/payment/verify", token, map[string]any{"transaction_id": 5, "tx_ref": txResp.TxRef})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Verification failed") {
		t.Fatalf("expected verification failure, got %d: %s", rec.Code, rec.Body.String())
	}

	app.verifier.result.Data.Currency = "NGN"
	rec = performRequest(app.router, http.MethodPost, "/payment/verify", token, map[string]any{"transaction_id": 5, "tx_ref": txResp.TxRef})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user, _ := app.users.GetByID(context.Background(), userID)
	if !user.IsPro || user.ProUntil == nil {
		t.Fatalf("expected user to be PRO")
	}
	firstUntil := *user.ProUntil

	// El webhook del mismo pago no extiende el plan otra vez.
	req := httptest.NewRequest(http.MethodPost, "/webhook/flutterwave", strings.NewReader(`{"data":{"id":5,"tx_ref":"`+txResp.TxRef+`"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("verif-hash", "hook-secret")
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user, _ := app.users.GetByID(context.Background(), userID); !user.ProUntil.Equal(firstUntil) {
		t.Fatalf("pro_until moved from %v to %v", firstUntil, user.ProUntil)
	}

	_, otherToken := app.startSession(t)
	rec = performRequest(app.router, http.MethodPost, "/payment/verify", otherToken, map[string]any{"transaction_id": 5, "tx_ref": txResp.TxRef})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign tx_ref, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookRequiresSignature(t *testing.T) {
	app := newTestApp()
	rec := performRequest(app.router, http.MethodPost, "/webhook/flutterwave", "", map[string]any{"data": map[string]any{"id": 1, "tx_ref": "x"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook/flutterwave", strings.NewReader(`{"event":"charge.completed","data":{}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("verif-hash", "hook-secret")
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	app := newTestApp()
	rec := performRequest(app.router, http.MethodPost, "/session", "", nil)
	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	rec = performRequest(app.router, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": resp.Tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var refreshed struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &refreshed)

	rec = performRequest(app.router, http.MethodPost, "/auth/logout", "", map[string]string{"refresh_token": refreshed.Tokens.RefreshToken})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = performRequest(app.router, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refreshed.Tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}
