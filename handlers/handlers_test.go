package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearme/api/analytics"
	"nearme/api/models"
	"nearme/api/store"
	"nearme/api/utils"
)

const testServiceKey = "service-key"

var handlerNow = time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)

// memoryUsers is an in-memory UserRepository.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(ctx context.Context, email string, hashedPassword []byte, businessID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[email]; exists {
		return nil, fmt.Errorf("user with email '%s': %w", email, store.ErrUserExists)
	}
	user := &models.User{ID: len(m.users) + 1, Email: email, HashedPassword: hashedPassword, BusinessID: businessID}
	m.users[email] = user
	return user, nil
}

func (m *memoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user with email '%s': %w", email, store.ErrUserNotFound)
	}
	return user, nil
}

type testServer struct {
	router *gin.Engine
	events *store.MemoryEventStore
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-secret")
	t.Cleanup(func() { utils.SetJWTSecret("") })

	events := store.NewMemoryEventStore(100)
	service := analytics.NewService(nil, events,
		analytics.WithLocation(time.UTC),
		analytics.WithClock(func() time.Time { return handlerNow }),
	)

	router := gin.New()
	SetupRoutes(router, RouteDeps{
		Auth:          NewAuthHandlers(newMemoryUsers()),
		Analytics:     NewAnalyticsHandlers(service),
		ServiceKey:    testServiceKey,
		DurableDriver: "none",
	})
	return &testServer{router: router, events: events}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) getAnalytics(businessID, query string, header map[string]string) *httptest.ResponseRecorder {
	path := "/api/businesses/" + businessID + "/analytics"
	if query != "" {
		path += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return s.do(req)
}

func trackBody(eventType string, at time.Time, extra string) string {
	return fmt.Sprintf(`{"businessId":"b1","businessName":"Corner Bakery","eventType":%q,"timestamp":%q%s}`,
		eventType, at.Format(time.RFC3339), extra)
}

func TestTrackEventSingle(t *testing.T) {
	s := setupTestServer(t)

	w := s.postJSON("/api/track", trackBody("view", handlerNow.Add(-time.Hour), `,"eventData":{"source":"search","deviceType":"mobile"}`))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"received":1,"accepted":1}`, w.Body.String())
	assert.Equal(t, 1, s.events.Len())

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.TrackingSessionCookie {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.NotEmpty(t, sessionCookie.Value)

	stored, err := s.events.Query(context.Background(), "b1", handlerNow.Add(-2*time.Hour), handlerNow)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sessionCookie.Value, stored[0].SessionID)
	assert.NotEmpty(t, stored[0].EventID)
	assert.Equal(t, models.DeviceMobile, stored[0].EventData.DeviceType)
}

func TestTrackEventReusesSessionCookie(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewBufferString(trackBody("view", handlerNow, "")))
	req.AddCookie(&http.Cookie{Name: utils.TrackingSessionCookie, Value: "existing-session"})
	w := s.do(req)

	require.Equal(t, http.StatusAccepted, w.Code)
	stored, err := s.events.Query(context.Background(), "b1", handlerNow, handlerNow)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "existing-session", stored[0].SessionID)
}

func TestTrackEventBatchDropsInvalid(t *testing.T) {
	s := setupTestServer(t)

	body := "[" +
		trackBody("view", handlerNow, "") + "," +
		trackBody("phone_click", handlerNow, `,"eventData":{"source":"search","searchQuery":"bread"}`) + "," +
		trackBody("unknown_type", handlerNow, "") + "," +
		`{"eventType":"view","timestamp":"2025-03-10T17:00:00Z"}` +
		"]"
	w := s.postJSON("/api/track", body)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"received":4,"accepted":2}`, w.Body.String())
	assert.Equal(t, 2, s.events.Len())
}

func TestTrackEventMalformedJSON(t *testing.T) {
	s := setupTestServer(t)

	for _, body := range []string{`{"businessId":`, ``, `"view"`} {
		w := s.postJSON("/api/track", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, ErrorCodeInvalidJSON, apiErr.Code)
	}
	assert.Equal(t, 0, s.events.Len())
}

func TestTrackEventEmptyArray(t *testing.T) {
	s := setupTestServer(t)

	w := s.postJSON("/api/track", `[]`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"received":0,"accepted":0}`, w.Body.String())
}

func TestGetBusinessAnalytics(t *testing.T) {
	s := setupTestServer(t)
	for _, body := range []string{
		trackBody("view", handlerNow.Add(-5*time.Hour), `,"eventData":{"source":"search"}`),
		trackBody("view", handlerNow.Add(-5*time.Hour), `,"eventData":{"source":"direct"}`),
		trackBody("view", handlerNow.Add(-4*time.Hour), `,"eventData":{"source":"search"}`),
		trackBody("booking_click", handlerNow.Add(-4*time.Hour), ""),
	} {
		require.Equal(t, http.StatusAccepted, s.postJSON("/api/track", body).Code)
	}

	w := s.getAnalytics("b1", "", map[string]string{"X-API-KEY": testServiceKey})
	require.Equal(t, http.StatusOK, w.Code)

	var report models.BusinessAnalytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "b1", report.BusinessID)
	assert.Equal(t, models.PeriodWeek, report.Period)
	assert.Equal(t, int64(3), report.Metrics.TotalViews)
	assert.Equal(t, int64(1), report.Metrics.BookingClicks)
	assert.InDelta(t, 33.33, report.Metrics.ConversionRate, 0.01)
	require.Len(t, report.TopSources, 2)
	assert.Equal(t, "search", report.TopSources[0].Source)
	assert.Len(t, report.HourlyDistribution, 24)
	assert.Equal(t, int64(2), report.HourlyDistribution[13].Views)
}

func TestGetBusinessAnalyticsExplicitRange(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusAccepted, s.postJSON("/api/track", trackBody("view", handlerNow.Add(-48*time.Hour), "")).Code)

	w := s.getAnalytics("b1", "period=day", map[string]string{"X-API-KEY": testServiceKey})
	require.Equal(t, http.StatusOK, w.Code)
	var dayReport models.BusinessAnalytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dayReport))
	assert.Equal(t, int64(0), dayReport.Metrics.TotalViews)

	query := "period=day&start=2025-03-08T00:00:00Z&end=2025-03-09T00:00:00Z"
	w = s.getAnalytics("b1", query, map[string]string{"X-API-KEY": testServiceKey})
	require.Equal(t, http.StatusOK, w.Code)
	var rangeReport models.BusinessAnalytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rangeReport))
	assert.Equal(t, int64(1), rangeReport.Metrics.TotalViews)
}

func TestGetBusinessAnalyticsAuthorization(t *testing.T) {
	s := setupTestServer(t)

	ownerToken, err := utils.GenerateJWT(&models.User{ID: 1, Email: "owner@example.com", BusinessID: "b1"})
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + ownerToken}

	assert.Equal(t, http.StatusUnauthorized, s.getAnalytics("b1", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.getAnalytics("b1", "", map[string]string{"X-API-KEY": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, s.getAnalytics("b1", "", bearer).Code)
	assert.Equal(t, http.StatusForbidden, s.getAnalytics("b2", "", bearer).Code)
	assert.Equal(t, http.StatusOK, s.getAnalytics("b2", "", map[string]string{"X-API-KEY": testServiceKey}).Code)
}

func TestGetBusinessAnalyticsBadRequest(t *testing.T) {
	s := setupTestServer(t)
	key := map[string]string{"X-API-KEY": testServiceKey}

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"unknown period", "period=fortnight", "period"},
		{"malformed start", "start=yesterday", "start"},
		{"malformed end", "end=2025-13-01", "end"},
		{"inverted window", "start=2025-03-10T00:00:00Z&end=2025-03-01T00:00:00Z", "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.getAnalytics("b1", tt.query, key)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var apiErr APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, ErrorCodeValidationFailed, apiErr.Code)
			require.Len(t, apiErr.Details, 1)
			assert.Equal(t, tt.field, apiErr.Details[0].Field)
		})
	}
}

func TestSignupLoginProfile(t *testing.T) {
	s := setupTestServer(t)

	w := s.postJSON("/api/signup", `{"email":"owner@example.com","password":"correct-horse","businessId":"b1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.postJSON("/api/signup", `{"email":"owner@example.com","password":"correct-horse","businessId":"b1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.postJSON("/api/login", `{"email":"owner@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON("/api/login", `{"email":"nobody@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON("/api/login", `{"email":"owner@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var jwtCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "jwt_token" {
			jwtCookie = c
		}
	}
	require.NotNil(t, jwtCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(jwtCookie)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "owner@example.com", profile["user_email"])
	assert.Equal(t, "b1", profile["business_id"])

	req = httptest.NewRequest(http.MethodGet, "/api/businesses/b1/analytics", nil)
	req.AddCookie(jwtCookie)
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestSignupValidation(t *testing.T) {
	s := setupTestServer(t)

	w := s.postJSON("/api/signup", `{"email":"not-an-email","password":"short"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","event_store":"none"}`, w.Body.String())
}
