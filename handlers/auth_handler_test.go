package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvavassori/picostats/middleware"
	"github.com/mvavassori/picostats/utils"
)

func TestLoginRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.JWTSecret = "jwt-test-secret"
	cfg.DashboardPasswordHash = string(hash)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"hunter2"}`))
	Login(cfg).ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// Issued token passes validation and opens the guarded stats surface.
	token, err := utils.ValidateToken(cfg.JWTSecret, resp.Token)
	require.NoError(t, err)
	assert.True(t, token.Valid)

	guarded := middleware.DashboardAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/stats?site=example.com", nil)
	r.Header.Set("Authorization", "Bearer "+resp.Token)
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/stats?site=example.com", nil)
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "guarded surface requires the header")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.JWTSecret = "jwt-test-secret"
	cfg.DashboardPasswordHash = string(hash)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"wrong"}`))
	Login(cfg).ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardAuthPassThroughWhenUnconfigured(t *testing.T) {
	t.Parallel()

	cfg := testConfig() // no JWT secret, no password hash

	guarded := middleware.DashboardAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/stats?site=example.com", nil)
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
