package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/simvest/internal/common"
)

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/portfolio", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = common.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc123", seen)
	assert.Equal(t, "abc123", rr.Header().Get("X-Correlation-ID"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 8)
}

func TestBearerTokenMiddleware_NonBearerScheme(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWriteAppError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{common.Validationf("bad"), http.StatusBadRequest},
		{common.Unauthorizedf("who"), http.StatusUnauthorized},
		{common.NotFoundf("gone"), http.StatusNotFound},
		{common.Conflictf("dup"), http.StatusConflict},
		{common.Unavailable(errors.New("x"), "later"), http.StatusServiceUnavailable},
		{errors.New("raw"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		assert.Equal(t, c.status, WriteAppError(rr, c.err))
		assert.Equal(t, c.status, rr.Code)
	}

	rr := httptest.NewRecorder()
	WriteAppError(rr, &common.Error{Kind: common.KindServiceUnavailable, Message: "later", RetryAfter: 90 * time.Second})
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))

	rr = httptest.NewRecorder()
	WriteAppError(rr, errors.New("secret detail"))
	assert.NotContains(t, rr.Body.String(), "secret detail")
}

func TestParseQuantity(t *testing.T) {
	q, err := parseQuantity([]byte("12"))
	assert.NoError(t, err)
	assert.Equal(t, int64(12), q)

	for _, raw := range []string{"", "1.0", `"5"`, "null", "true"} {
		_, err := parseQuantity([]byte(raw))
		assert.True(t, common.IsKind(err, common.KindValidation), raw)
	}
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestHarness(t)
	rr := h.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = h.do(http.MethodGet, "/api/version", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "version")
}
