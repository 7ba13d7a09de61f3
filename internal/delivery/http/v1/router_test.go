package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agency-contact-backend/config"
	v1 "agency-contact-backend/internal/delivery/http/v1"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/internal/repository/memory"
	"agency-contact-backend/internal/usecase"
	"agency-contact-backend/pkg/security"
	"agency-contact-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, s *domain.ContactSubmission) error {
	return m.Called(ctx, s).Error(0)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	RequestID string `json:"request_id"`
}

type testServer struct {
	router   *gin.Engine
	store    *memory.RateLimitStore
	recorder *MockRecorder
	clock    *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ts := &testServer{clock: &now, recorder: new(MockRecorder)}
	ts.store = memory.NewRateLimitStore(5, 15*time.Minute, memory.WithClock(func() time.Time { return *ts.clock }))

	secLog := security.NewSecurityLogger(zap.NewNop(), "test", "test")
	uc := usecase.NewContactUsecase(ts.recorder, validation.New(), security.NewSpamFilter(nil, 0), secLog)

	ts.router = v1.NewRouter(v1.RouterDeps{
		ContactUC:      uc,
		RateLimitStore: ts.store,
		SecurityLogger: secLog,
		Config: &config.Config{
			AllowedOrigins: []string{"https://agency.example"},
			MaxBodyBytes:   16 * 1024,
		},
	})
	return ts
}

func (ts *testServer) do(method, path, body, clientIP string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func contactJSON(t *testing.T, fields map[string]string) string {
	t.Helper()
	payload := map[string]string{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"message":  "I would like a quote for a new website, please contact me.",
		"honeypot": "",
	}
	for k, v := range fields {
		payload[k] = v
	}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	return buf.String()
}

func TestContactEndToEndSuccess(t *testing.T) {
	ts := newTestServer(t)
	ts.recorder.On("Record", mock.Anything, mock.MatchedBy(func(s *domain.ContactSubmission) bool {
		return s.ClientID == "203.0.113.7" && s.Email == "jane@example.com"
	})).Return(nil).Once()

	w, env := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "203.0.113.7, 10.0.0.1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Thank you for your message. We will get back to you within 24 hours.", env.Message)
	assert.NotEmpty(t, env.RequestID)

	entry, ok := ts.store.Entry("203.0.113.7")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Count)
	ts.recorder.AssertExpectations(t)
}

func TestContactRateLimitAfterFiveSubmissions(t *testing.T) {
	ts := newTestServer(t)
	ts.recorder.On("Record", mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 5; i++ {
		w, _ := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "198.51.100.1")
		require.Equal(t, http.StatusOK, w.Code, "submission %d", i+1)
	}

	w, env := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Too many requests. Please try again later.", env.Message)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))

	// Other clients are unaffected
	w, _ = ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "198.51.100.2")
	assert.Equal(t, http.StatusOK, w.Code)

	// A new window starts once the old one elapses
	*ts.clock = ts.clock.Add(15*time.Minute + time.Second)
	w, _ = ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "198.51.100.1")
	assert.Equal(t, http.StatusOK, w.Code)
	entry, _ := ts.store.Entry("198.51.100.1")
	assert.Equal(t, 1, entry.Count)
}

func TestContactRejectedSubmissionsStillCount(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 5; i++ {
		w, _ := ts.do(http.MethodPost, "/v1/contact", `{"name":"J"}`, "192.0.2.9")
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
	w, _ := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "192.0.2.9")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	ts.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestContactValidationError(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, map[string]string{"name": "J", "message": "short"}), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation error", env.Message)
	var fields []string
	for _, e := range env.Errors {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Message)
	}
	assert.ElementsMatch(t, []string{"name", "message"}, fields)

	entry, ok := ts.store.Entry(security.DefaultClientID)
	require.True(t, ok, "requests without forwarding headers share the loopback key")
	assert.Equal(t, 1, entry.Count)
}

func TestContactMalformedPayload(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{"name":`, ``, `not json`} {
		w, env := ts.do(http.MethodPost, "/v1/contact", body, "192.0.2.1")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, "Validation error", env.Message)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "body", env.Errors[0].Field)
	}

	w, env := ts.do(http.MethodPost, "/v1/contact", `{"name": 42}`, "192.0.2.2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)
}

func TestContactBodyTooLarge(t *testing.T) {
	ts := newTestServer(t)

	body := contactJSON(t, map[string]string{"company": strings.Repeat("x", 20*1024)})
	w, env := ts.do(http.MethodPost, "/v1/contact", body, "192.0.2.3")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Request body is too large", env.Errors[0].Message)
}

func TestContactSpamIsGeneric(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		fields  map[string]string
		message string
	}{
		{"honeypot", map[string]string{"honeypot": "filled"}, "Spam detected"},
		{"honeypot with invalid fields", map[string]string{"honeypot": "filled", "name": "J"}, "Spam detected"},
		{"url", map[string]string{"message": "Please visit http://example.com for more details"}, "Message appears to be spam"},
		{"repeated", map[string]string{"message": "Hello " + strings.Repeat("a", 11) + " agency team"}, "Message appears to be spam"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, tt.fields), fmt.Sprintf("192.0.2.%d", 100+i))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, env.Message)
			assert.Empty(t, env.Errors)
		})
	}
	ts.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestContactHoneypotBeatsDecodeErrors(t *testing.T) {
	ts := newTestServer(t)

	bodies := []string{
		`{"name":42,"email":"jane@example.com","message":"I would like a quote for a new website.","honeypot":"bot"}`,
		`{"name":"Jane Doe","email":"jane@example.com","message":"I would like a quote for a new website.","honeypot":1}`,
		`{"name":["x"],"email":false,"message":7,"honeypot":true}`,
	}
	for i, body := range bodies {
		w, env := ts.do(http.MethodPost, "/v1/contact", body, fmt.Sprintf("192.0.2.%d", 150+i))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Spam detected", env.Message, body)
		assert.Empty(t, env.Errors, body)
	}

	// A null honeypot is empty, so the type error is reported as usual
	w, env := ts.do(http.MethodPost, "/v1/contact", `{"name":42,"honeypot":null}`, "192.0.2.160")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation error", env.Message)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)

	ts.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

type panickingRecorder struct{}

func (panickingRecorder) Record(context.Context, *domain.ContactSubmission) error {
	panic("recorder exploded")
}

func TestContactPanicIsGeneric500(t *testing.T) {
	secLog := security.NewSecurityLogger(zap.NewNop(), "test", "test")
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      usecase.NewContactUsecase(panickingRecorder{}, validation.New(), security.NewSpamFilter(nil, 0), secLog),
		RateLimitStore: memory.NewRateLimitStore(5, 15*time.Minute),
		SecurityLogger: secLog,
		Config:         &config.Config{MaxBodyBytes: 16 * 1024},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(contactJSON(t, nil)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	require.NotPanics(t, func() { router.ServeHTTP(w, req) })

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error. Please try again later.", env.Message)
	assert.NotEmpty(t, env.RequestID)
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestContactRecorderFailureIsGeneric500(t *testing.T) {
	ts := newTestServer(t)
	ts.recorder.On("Record", mock.Anything, mock.Anything).Return(errors.New("pq: relation does not exist"))

	w, env := ts.do(http.MethodPost, "/v1/contact", contactJSON(t, nil), "192.0.2.50")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error. Please try again later.", env.Message)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestContactMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w, env := ts.do(method, "/v1/contact", "", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "Method not allowed", env.Message)
	}

	_, ok := ts.store.Entry(security.DefaultClientID)
	assert.False(t, ok, "405 responses do not touch the rate limit table")
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodGet, "/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodGet, "/v1/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestHealthDegraded(t *testing.T) {
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      usecase.NewContactUsecase(new(MockRecorder), nil, nil, security.NewSecurityLogger(zap.NewNop(), "t", "t")),
		RateLimitStore: memory.NewRateLimitStore(5, time.Minute),
		HealthUC: usecase.NewHealthUsecase(map[string]usecase.HealthCheckFunc{
			"redis": func(context.Context) error { return errors.New("redis down") },
		}),
		Config: &config.Config{},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
	req.Header.Set("Origin", "https://agency.example")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://agency.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionsWithoutOriginIs405(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodOptions, "/v1/contact", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", env.Message)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	_, ok := ts.store.Entry(security.DefaultClientID)
	assert.False(t, ok)
}
