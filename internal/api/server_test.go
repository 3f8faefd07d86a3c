package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/infrastructure/logging"
	"github.com/thermosentry/thermosentry/internal/site"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testZones() []config.ZoneConfig {
	enabled := true
	disabled := false
	return []config.ZoneConfig{
		{
			ThermostatType: "emulator",
			Zone:           0,
			Enabled:        &enabled,
			PollTime:       10,
			ConnectionTime: 60,
			Tolerance:      2,
			TargetMode:     "HEAT_MODE",
			Measurements:   3,
			Revert:         true,
		},
		{
			ThermostatType: "sht31",
			Zone:           1,
			Enabled:        &disabled,
			PollTime:       30,
			ConnectionTime: 120,
			Tolerance:      1,
			TargetMode:     "OFF_MODE",
		},
	}
}

func newTestServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()

	deps := Deps{
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
		},
		Logger:  logging.New(config.LoggingConfig{Level: "error", Output: "stderr"}, "test"),
		Zones:   testZones(),
		Version: "test",
	}
	if mutate != nil {
		mutate(&deps)
	}

	s, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func signedToken(t *testing.T, secret string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(expiry).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func doRequest(s *Server, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestServer_LoginIssuesValidToken(t *testing.T) {
	s := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin"})
	rec := doRequest(s, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", resp.TokenType)
	}

	// The issued token must pass the server's own validation.
	subject, err := s.validateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validateToken() error = %v", err)
	}
	if subject != "admin" {
		t.Errorf("subject = %q, want admin", subject)
	}
}

func TestServer_LoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	rec := doRequest(s, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", token: "", want: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "wrong secret", token: signedToken(t, strings.Repeat("x", 32), time.Hour), want: http.StatusUnauthorized},
		{name: "expired", token: signedToken(t, testSecret, -time.Hour), want: http.StatusUnauthorized},
		{name: "valid", token: signedToken(t, testSecret, time.Hour), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, "/api/v1/zones", tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_ListZones(t *testing.T) {
	s := newTestServer(t, nil)
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodGet, "/api/v1/zones", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Zones []zoneSummary `json:"zones"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Zones[0].Key != "emulator_zone0" {
		t.Errorf("first zone key = %q", body.Zones[0].Key)
	}
	if body.Zones[1].Enabled {
		t.Error("disabled zone reported as enabled")
	}
	if m, ok := body.Zones[1].Measurements.(string); !ok || m != "unbounded" {
		t.Errorf("zero measurements = %v, want \"unbounded\"", body.Zones[1].Measurements)
	}
}

func TestServer_GetZone(t *testing.T) {
	s := newTestServer(t, nil)
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodGet, "/api/v1/zones/emulator_zone0", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var zone zoneSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &zone); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if zone.TargetMode != "HEAT_MODE" || zone.Tolerance != 2 {
		t.Errorf("zone = %+v", zone)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/zones/no_such_zone", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown zone status = %d, want 404", rec.Code)
	}
}

func TestServer_ReportEndpoint(t *testing.T) {
	report := site.NewReport()
	report.SetResult("emulator_zone0", []supervise.Measurement{
		{Index: 1, Timestamp: time.Unix(1700000000, 0), Temperature: 70, Mode: "HEAT_MODE", WorkerID: "worker-0-emulator_zone0"},
	})

	s := newTestServer(t, func(d *Deps) {
		d.Report = func() *site.Report { return report }
	})
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodGet, "/api/v1/report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Results map[string][]map[string]any `json:"results"`
		Errors  map[string]any              `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	ms := body.Results["emulator_zone0"]
	if len(ms) != 1 {
		t.Fatalf("got %d measurements, want 1", len(ms))
	}
	if ms[0]["temperature"] != 70.0 {
		t.Errorf("temperature = %v, want 70", ms[0]["temperature"])
	}
}

func TestServer_ReportUnavailableBeforeFirstRun(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Report = func() *site.Report { return nil }
	})
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodGet, "/api/v1/report", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_RunsUnavailableWithoutStore(t *testing.T) {
	s := newTestServer(t, nil)
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodGet, "/api/v1/runs", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestServer_WSTicketRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	token := signedToken(t, testSecret, time.Hour)

	rec := doRequest(s, http.MethodPost, "/api/v1/auth/ws-ticket", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ticket status = %d, want 200", rec.Code)
	}

	var body struct {
		Ticket string `json:"ticket"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding ticket: %v", err)
	}
	if body.Ticket == "" {
		t.Fatal("empty ticket")
	}

	entry, ok := s.tickets.consume(body.Ticket)
	if !ok {
		t.Fatal("issued ticket did not validate")
	}
	if entry.subject != "admin" {
		t.Errorf("ticket subject = %q, want admin", entry.subject)
	}

	// Single use: a second consume must fail.
	if _, ok := s.tickets.consume(body.Ticket); ok {
		t.Error("ticket validated twice")
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client-supplied", got)
	}
}
