package mockapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/mockapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const password = "Secret123"

type testFixture struct {
	server *mockapi.Server
	http   *httptest.Server
	user   admin.User
}

func setupTestFixture(t *testing.T, options ...mockapi.Option) *testFixture {
	t.Helper()
	options = append([]mockapi.Option{mockapi.WithLogger(zerolog.Nop())}, options...)
	s := mockapi.New(options...)
	user, err := s.AddUser(admin.User{Email: "a@b.com", FirstName: "Ada"}, password)
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return &testFixture{server: s, http: ts, user: user}
}

func (f *testFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.http.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", map[string]string{"email": "a@b.com", "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", map[string]string{"email": "A@B.com", "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["token"])
	require.EqualValues(t, 900, body["expiresIn"])
	require.Equal(t, "Ada", body["user"].(map[string]any)["firstName"])

	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", map[string]string{"email": "a@b.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_WithoutProfile(t *testing.T) {
	f := setupTestFixture(t, mockapi.WithoutLoginProfile())
	_, body := f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", map[string]string{"email": "a@b.com", "password": password})
	require.NotContains(t, body, "user")
}

func TestRequireAuth(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.do(t, http.MethodGet, mockapi.RouteAuthMe, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, mockapi.RouteAuthMe, "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := f.login(t)
	resp, body := f.do(t, http.MethodGet, mockapi.RouteAuthMe, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "a@b.com", body["email"])
	require.Equal(t, 3, f.server.Hits(http.MethodGet, mockapi.RouteAuthMe))
}

func TestTokenExpiry(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Now().UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	advance := func(d time.Duration) { now.Add(int64(d)) }
	f := setupTestFixture(t, mockapi.WithNowFunc(clock), mockapi.WithTokenTTL(time.Minute))
	token := f.login(t)

	advance(2 * time.Minute)
	resp, _ := f.do(t, http.MethodGet, mockapi.RouteAuthMe, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "expired tokens stay refreshable")
	fresh := body["token"].(string)

	resp, _ = f.do(t, http.MethodGet, mockapi.RouteAuthMe, fresh, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	advance(48 * time.Hour)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, fresh, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "outside the refresh window")
}

func TestRefreshRevokesOldToken(t *testing.T) {
	f := setupTestFixture(t)
	token := f.login(t)

	resp, body := f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, token, body["token"])

	resp, _ = f.do(t, http.MethodGet, mockapi.RouteAuthMe, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "a token refreshes once")
}

func TestExpireAccessTokensAndRefreshFailure(t *testing.T) {
	f := setupTestFixture(t)
	token := f.login(t)

	f.server.ExpireAccessTokens()
	resp, _ := f.do(t, http.MethodGet, mockapi.RouteUsers, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	f.server.SetRefreshFailure(true)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	f.server.SetRefreshFailure(false)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokes(t *testing.T) {
	f := setupTestFixture(t)
	token := f.login(t)

	resp, _ := f.do(t, http.MethodPost, mockapi.RouteAuthLogout, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, mockapi.RouteAuthMe, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteAuthRefresh, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsersCRUD(t *testing.T) {
	f := setupTestFixture(t)
	token := f.login(t)

	resp, created := f.do(t, http.MethodPost, mockapi.RouteUsers, token, map[string]any{
		"email": "new@b.com", "Password": "pw", "firstName": "New", "transmission": "AUTOMATIC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotContains(t, created, "Password")
	id := int64(created["id"].(float64))

	resp, _ = f.do(t, http.MethodPost, mockapi.RouteUsers, token, map[string]any{"email": "new@b.com", "Password": "pw"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, mockapi.RouteUsers, token, map[string]any{"email": "not-an-email", "Password": "pw"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := mockapi.RouteUsers + "/name/" + itoa(id)
	resp, updated := f.do(t, http.MethodPut, path, token, map[string]any{"lastName": "Person"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Person", updated["lastName"])
	require.Equal(t, "New", updated["firstName"])

	resp, _ = f.do(t, http.MethodDelete, mockapi.RouteUsers+"/"+itoa(id), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, mockapi.RouteUsers+"/"+itoa(id), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, mockapi.RouteUsers+"/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBootstrap(t *testing.T) {
	s := mockapi.New(mockapi.WithLogger(zerolog.Nop()))
	generated, err := s.Bootstrap("", "")
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	_, err = s.Bootstrap("", "again")
	require.Error(t, err, "the admin account already exists")
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestLoginRateLimit(t *testing.T) {
	f := setupTestFixture(t, mockapi.WithLoginRateLimit(0.001, 2))
	creds := map[string]string{"email": "a@b.com", "password": password}

	for range 2 {
		resp, _ := f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", creds)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := f.do(t, http.MethodPost, mockapi.RouteAuthLogin, "", creds)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "1000", resp.Header.Get("Retry-After"))
}
