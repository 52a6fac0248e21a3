package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/auth/authtest"
	"github.com/playtube/playtube-backend/config"
	"github.com/playtube/playtube-backend/controllers"
	"github.com/playtube/playtube-backend/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	router *gin.Engine
	store  *authtest.Store
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    14 * 24 * time.Hour,
		},
		CookieSecure: true,
	}

	store := authtest.NewStore()
	store.MustAddUser("alice", "alice@example.com", "correct-pw")

	issuer := auth.NewTokenIssuer(cfg.Auth)
	svc := auth.NewService(issuer, store, store)

	r := gin.New()
	users := r.Group("/api/v1/users")
	users.POST("/login", controllers.Login(svc, cfg))
	users.GET("/refresh-token", controllers.Refresh(svc, cfg))
	authed := users.Group("/")
	authed.Use(middleware.Auth(svc))
	authed.POST("/logout", controllers.Logout(svc, cfg))
	authed.POST("/update-password", controllers.UpdatePassword(svc, cfg))

	return &authFixture{router: r, store: store}
}

func (f *authFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeTokens(t *testing.T, w *httptest.ResponseRecorder) (access, refresh string) {
	t.Helper()

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.AccessToken, resp.RefreshToken
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestLogin_SetsTokensAndCookies(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)

	access, refresh := decodeTokens(t, w)

	accessCk := cookieByName(t, w, "accessToken")
	require.Equal(t, access, accessCk.Value)
	require.Equal(t, "/", accessCk.Path)
	require.True(t, accessCk.HttpOnly)
	require.True(t, accessCk.Secure)

	refreshCk := cookieByName(t, w, "refreshToken")
	require.Equal(t, refresh, refreshCk.Value)
	require.Equal(t, "/api/v1/users", refreshCk.Path)
	require.True(t, refreshCk.HttpOnly)
}

func TestLogin_AccentedUsername(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	f.store.MustAddUser("josegarcia", "jose@example.com", "correct-pw")

	// Registration stores the accent-stripped form; login applies the same
	// normalization to the typed username.
	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "JoséGarcía", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "wrong-pw"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "nobody", "password": "correct-pw"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"password": "correct-pw"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_RotationThenReplay(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	firstAccess, firstRefresh := decodeTokens(t, w)

	// Rotation via the scoped cookie hands back a fresh, distinct pair.
	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil,
		&http.Cookie{Name: "refreshToken", Value: firstRefresh})
	require.Equal(t, http.StatusOK, w.Code)
	secondAccess, secondRefresh := decodeTokens(t, w)
	require.NotEqual(t, firstAccess, secondAccess)
	require.NotEqual(t, firstRefresh, secondRefresh)

	// Replaying the rotated-away token is rejected.
	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil,
		&http.Cookie{Name: "refreshToken", Value: firstRefresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "expired or already used")

	// The latest pair still works.
	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil,
		&http.Cookie{Name: "refreshToken", Value: secondRefresh})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_BodyFallback(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	_, refresh := decodeTokens(t, w)

	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token",
		gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_NoToken(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesRefreshAndClearsCookies(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	access, refresh := decodeTokens(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/users/logout", nil,
		&http.Cookie{Name: "accessToken", Value: access})
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, -1, cookieByName(t, w, "accessToken").MaxAge)
	require.Equal(t, -1, cookieByName(t, w, "refreshToken").MaxAge)

	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil,
		&http.Cookie{Name: "refreshToken", Value: refresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePassword_RotatesCredentials(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	access, refresh := decodeTokens(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/users/update-password",
		gin.H{"oldPassword": "correct-pw", "newPassword": "brand-new-pw"},
		&http.Cookie{Name: "accessToken", Value: access})
	require.Equal(t, http.StatusOK, w.Code)

	// Old session died with the old password.
	w = f.do(t, http.MethodGet, "/api/v1/users/refresh-token", nil,
		&http.Cookie{Name: "refreshToken", Value: refresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "brand-new-pw"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdatePassword_SameOldAndNew(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/login",
		gin.H{"username": "alice", "password": "correct-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	access, _ := decodeTokens(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/users/update-password",
		gin.H{"oldPassword": "correct-pw", "newPassword": "correct-pw"},
		&http.Cookie{Name: "accessToken", Value: access})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePassword_RequiresAuth(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/users/update-password",
		gin.H{"oldPassword": "correct-pw", "newPassword": "brand-new-pw"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
