package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/infrawatch/auth-service/internal/api"
	"github.com/infrawatch/auth-service/internal/service"
	"github.com/infrawatch/auth-service/internal/testutil"
	"github.com/infrawatch/auth-service/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *httptest.Server
	store  *testutil.FakeStore
	clock  *testutil.FakeClock
	sink   *testutil.FakeSink
	gen    *testutil.FakeGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testutil.TestConfig()
	store := testutil.NewFakeStore()
	clock := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sink := &testutil.FakeSink{}
	gen := &testutil.FakeGenerator{}
	codec := token.NewCodec([]byte(cfg.JWTSecret), clock.Now)
	repos := store.Repositories()
	services := service.NewServices(repos, codec, gen, sink, clock, cfg)

	server := httptest.NewServer(api.NewRouter(services, repos, codec, cfg))
	t.Cleanup(server.Close)

	return &testServer{server: server, store: store, clock: clock, sink: sink, gen: gen}
}

func (ts *testServer) post(t *testing.T, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAuthEndpoints_RegisterVerifyLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.gen.Codes = []string{"424242"}

	// Register
	resp := ts.post(t, "/api/v1/auth/register", map[string]string{
		"name": "Ana", "password": "x", "email": "a@b.com",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var registered struct {
		ActionToken string `json:"actionToken"`
	}
	decode(t, resp, &registered)
	assert.NotEmpty(t, registered.ActionToken)
	require.Equal(t, 1, ts.sink.Count())

	// Duplicate register conflicts
	resp = ts.post(t, "/api/v1/auth/register", map[string]string{
		"name": "Ana", "password": "x", "email": "a@b.com",
	}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown code is rejected
	resp = ts.post(t, "/api/v1/auth/verify-code", map[string]string{"code": "000000"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The issued code verifies
	resp = ts.post(t, "/api/v1/auth/verify-code", map[string]string{"code": "424242"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verified map[string]bool
	decode(t, resp, &verified)
	assert.True(t, verified["verified"])

	// Login
	resp = ts.post(t, "/api/v1/auth/login", map[string]string{
		"email": "a@b.com", "password": "x",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decode(t, resp, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// Protected endpoint with the access token
	resp = ts.get(t, "/api/v1/auth/me", map[string]string{"Authorization": "Bearer " + tokens.AccessToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Status string `json:"status"`
	}
	decode(t, resp, &me)
	assert.Equal(t, "Ana", me.Name)
	assert.Equal(t, "a@b.com", me.Email)
	assert.Equal(t, "PENDING", me.Status)

	// Protected endpoint without a token
	resp = ts.get(t, "/api/v1/auth/me", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Refresh far from expiry returns only an access token
	resp = ts.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": tokens.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decode(t, resp, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	// Logout revokes the session; the refresh token dies with it
	resp = ts.post(t, "/api/v1/auth/logout", map[string]string{"refreshToken": tokens.RefreshToken}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": tokens.RefreshToken}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthEndpoints_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "login without password",
			path:       "/api/v1/auth/login",
			body:       map[string]string{"email": "a@b.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "login with bad credentials",
			path:       "/api/v1/auth/login",
			body:       map[string]string{"email": "a@b.com", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "register without name",
			path:       "/api/v1/auth/register",
			body:       map[string]string{"password": "x"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "refresh with garbage token",
			path:       "/api/v1/auth/refresh",
			body:       map[string]string{"refreshToken": "garbage"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "resend for unknown user",
			path:       "/api/v1/auth/resend-code",
			body:       map[string]string{"userId": "0d4f3bb1-9f15-4f38-9081-0a463b2b3fa7"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "resend with malformed user id",
			path:       "/api/v1/auth/resend-code",
			body:       map[string]string{"userId": "not-a-uuid"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, tt.path, tt.body, nil)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAuthEndpoints_ResendCode(t *testing.T) {
	ts := newTestServer(t)
	ts.gen.Codes = []string{"111111", "222222"}

	resp := ts.post(t, "/api/v1/auth/register", map[string]string{
		"name": "Ana", "password": "x", "email": "a@b.com",
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	otps := ts.store.OTPs()
	require.Len(t, otps, 1)

	resp = ts.post(t, "/api/v1/auth/resend-code", map[string]string{
		"userId": otps[0].UserID.String(),
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sent map[string]bool
	decode(t, resp, &sent)
	assert.True(t, sent["sent"])

	// Still one live code, now the latest one
	otps = ts.store.OTPs()
	require.Len(t, otps, 1)
	assert.Equal(t, "222222", otps[0].Code)
}
