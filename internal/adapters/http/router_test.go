package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/cache"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
)

const (
	testSecret    = "router-test-secret"
	testJobsToken = "cron-token"
)

type staticRoles map[uuid.UUID]string

func (r staticRoles) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	return r[userID] == role, nil
}

type routerHarness struct {
	router http.Handler
	admin  uuid.UUID
}

func newRouterHarness(t *testing.T, ready func(context.Context) error) routerHarness {
	t.Helper()
	ctx := context.Background()
	db, err := postgres.Connect(ctx, postgres.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", 1)
	require.NoError(t, err)
	require.NoError(t, postgres.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	verifier, err := security.NewJWTVerifier("", testSecret, "")
	require.NoError(t, err)

	admin := uuid.New()
	repos := postgres.NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		Config:        application.Config{JobsBearerToken: testJobsToken},
		Events:        repos.Events,
		Risk:          repos.Risk,
		Committees:    repos.Committees,
		Expulsions:    repos.Expulsions,
		Professionals: repos.Professionals,
		Appeals:       repos.Appeals,
		Notifications: repos.Notifications,
		Roles:         staticRoles{admin: application.RoleAdmin},
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Locker:        cache.NewLocalLocker(),
		Tokens:        verifier,
	})
	handler := NewHandler(svc, HandlerOptions{Ready: ready, AllowedOrigins: []string{"https://app.example.com"}})
	return routerHarness{router: NewRouter(handler), admin: admin}
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func (h routerHarness) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReadiness(t *testing.T) {
	h := newRouterHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeResponse(t, rec)["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	down := newRouterHarness(t, func(context.Context) error { return errors.New("db down") })
	rec = down.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_READY", decodeResponse(t, rec)["code"])
}

func TestPreflightAnswersNoContent(t *testing.T) {
	h := newRouterHarness(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/appeals", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newRouterHarness(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestUserRoutesRequireBearer(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/appeals", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	rec = h.do(t, http.MethodGet, "/v1/appeals", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/appeals", signToken(t, uuid.New()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeResponse(t, rec)["status"])
}

func TestSubmitAppealWithoutProfessionalIsForbidden(t *testing.T) {
	h := newRouterHarness(t, nil)
	payload := `{"penalty_id":"` + uuid.NewString() + `","reason":"the report was mistaken"}`
	rec := h.do(t, http.MethodPost, "/v1/appeals", signToken(t, uuid.New()), payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/appeals", signToken(t, uuid.New()), `{"penalty_id":"x","reason":"r","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rec)["code"])
}

func TestAdminRoutesCheckRoleTable(t *testing.T) {
	h := newRouterHarness(t, nil)
	path := "/v1/admin/risk-snapshots/" + uuid.NewString()

	rec := h.do(t, http.MethodGet, path, signToken(t, uuid.New()), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeResponse(t, rec)["code"])

	rec = h.do(t, http.MethodGet, path, signToken(t, h.admin), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/admin/risk-snapshots/not-a-uuid", signToken(t, h.admin), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPatch, "/v1/admin/appeals/"+uuid.NewString(), signToken(t, h.admin), `{"status":"reopened"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitteeAndOpenAppealLookups(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/admin/chapters/"+uuid.NewString()+"/committee", signToken(t, h.admin), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, rec)["code"])

	penaltyID := uuid.NewString()
	rec = h.do(t, http.MethodGet, "/v1/penalties/"+penaltyID+"/open-appeal", signToken(t, uuid.New()), "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.Equal(t, penaltyID, data["penalty_id"])
	assert.Equal(t, false, data["has_open_appeal"])
}

func TestJobRoutesRequireJobsToken(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/rotate-committee", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/rotate-committee", testJobsToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeResponse(t, rec)["success"])

	rec = h.do(t, http.MethodPost, "/v1/process-expulsion-votes", testJobsToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.EqualValues(t, 0, body["auto_expulsions"])
	assert.EqualValues(t, 0, body["reminders_sent"])
}

func TestAnalyzeBehaviorFlow(t *testing.T) {
	h := newRouterHarness(t, nil)
	professional := uuid.NewString()

	rec := h.do(t, http.MethodPost, "/v1/analyze-behavior", testJobsToken, `{"professionalId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/behavior-events", testJobsToken,
		`{"events":[{"professional_id":"`+professional+`","event_type":"unknown_kind"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/behavior-events", testJobsToken,
		`{"events":[{"professional_id":"`+professional+`","event_type":"offer_contact"},{"professional_id":"`+professional+`","event_type":"profile_view"}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["accepted"])

	rec = h.do(t, http.MethodPost, "/v1/analyze-behavior", testJobsToken, `{"professionalId":"`+professional+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, professional, body["professionalId"])
	assert.EqualValues(t, 0, body["riskScore"])
	assert.Equal(t, false, body["alertTriggered"])
	assert.EqualValues(t, 2, body["eventsAnalyzed"])

	rec = h.do(t, http.MethodPost, "/v1/analyze-behavior/batch", testJobsToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	batch := decodeResponse(t, rec)
	assert.EqualValues(t, 1, batch["processed"])
	assert.EqualValues(t, 1, batch["succeeded"])

	rec = h.do(t, http.MethodGet, "/v1/admin/risk-snapshots/"+professional, signToken(t, h.admin), "")
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decodeResponse(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 0, snapshot["overall_score"])
}
