package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core/auth"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	env.upstream.AddUser(auth.User{ID: "u9", Name: "Banned", Email: "banned@test.in", Role: auth.RoleUser}, password)
	env.upstream.Ban("banned@test.in")
	token := env.newVisitor(t)

	runHTTPTests(t, env, []httpTest{
		{
			name: "validation", method: http.MethodPost, path: "/v1/auth/login", token: token,
			body:     []byte(`{"email":"asha@test.in"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"password":"this field is required"}`),
		},
		{
			name: "invalid credentials", method: http.MethodPost, path: "/v1/auth/login", token: token,
			body:     marchallObj(t, auth.Credentials{Email: asha.Email, Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name: "banned", method: http.MethodPost, path: "/v1/auth/login", token: token,
			body:     marchallObj(t, auth.Credentials{Email: "banned@test.in", Password: password}),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"Your account has been banned: account banned","banned":true}`),
		},
	})

	tests := []struct {
		usr      auth.User
		redirect string
	}{
		{asha, auth.PathDashboard},
		{ravi, auth.PathAdmin},
		{meera, auth.PathSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.usr.Role, func(t *testing.T) {
			visitorToken := env.newVisitor(t)
			rec := env.do(http.MethodPost, "/v1/auth/login", visitorToken,
				marchallObj(t, auth.Credentials{Email: "  " + tt.usr.Email, Password: password}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res sessionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.usr, res.User)
			assert.Equal(t, tt.redirect, res.Redirect)

			claims := parseClaims(t, res.Token)
			assert.Equal(t, parseClaims(t, visitorToken).Subject, claims.Subject, "same visitor")
			assert.Equal(t, tt.usr.ID, claims.UserID)
			assert.Equal(t, tt.usr.Role, claims.Role)

			vis, err := env.visitors.Get(context.Background(), claims.Subject)
			require.NoError(t, err)
			require.NotNil(t, vis.UserID)
			assert.Equal(t, tt.usr.ID, *vis.UserID)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	token := env.newVisitor(t)

	runHTTPTests(t, env, []httpTest{
		{
			name: "short password", method: http.MethodPost, path: "/v1/auth/register", token: token,
			body:     []byte(`{"name":"Kiran","email":"kiran@test.in","password":"abc"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"password":"password must be at least 6 characters"}`),
		},
		{
			name: "password like email", method: http.MethodPost, path: "/v1/auth/register", token: token,
			body:     []byte(`{"name":"Kiran","email":"kiran@test.in","password":"kiran1"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"password":"password cannot be similar to your name or email"}`),
		},
		{
			name: "bad role", method: http.MethodPost, path: "/v1/auth/register", token: token,
			body:     []byte(`{"name":"Kiran","email":"kiran@test.in","password":"Tr1cky-Pass","role":"superAdmin"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "email taken", method: http.MethodPost, path: "/v1/auth/register", token: token,
			body:     []byte(`{"name":"Asha","email":"asha@test.in","password":"Tr1cky-Pass"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"User already exists"}`),
		},
	})

	rec := env.do(http.MethodPost, "/v1/auth/register", token,
		[]byte(`{"name":"Kiran","email":"kiran@test.in","password":"Tr1cky-Pass","role":"schoolAdmin"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Kiran", res.User.Name)
	assert.Equal(t, auth.PathAdmin, res.Redirect)
}

func Test_userApi_meAndLogout(t *testing.T) {
	env := setup(t)
	token := env.login(t, asha)

	rec := env.do(http.MethodGet, "/v1/auth/me", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, string(marchallObj(t, asha)), rec.Body.String())

	rec = env.do(http.MethodPost, "/v1/auth/logout", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var res tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, parseClaims(t, res.Token).UserID)

	// the old token still identifies the visitor, whose session is gone
	runHTTPTests(t, env, []httpTest{
		{
			name: "me after logout", path: "/v1/auth/me", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, redirectErr{Error: auth.ErrNotAuthenticated.Error(), Redirect: auth.PathLogin}),
		},
	})

	vis, err := env.visitors.Get(context.Background(), parseClaims(t, token).Subject)
	require.NoError(t, err)
	assert.Nil(t, vis.UserID)
}

func Test_userApi_expiredUpstreamSession(t *testing.T) {
	env := setup(t)
	token := env.login(t, ravi)
	visitorID := parseClaims(t, token).Subject

	// the directory no longer accepts the stored token
	kv := env.visitors.Storage(context.Background(), visitorID)
	require.NoError(t, kv.Set(auth.TokenKey, "revoked"))

	runHTTPTests(t, env, []httpTest{
		{
			name: "admin schools", path: "/v1/admin/schools", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, redirectErr{Error: "session expired, please log in again", Redirect: auth.PathLogin}),
		},
		{
			name: "guard after expiry", path: "/v1/admin/schools", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, redirectErr{Error: auth.ErrNotAuthenticated.Error(), Redirect: auth.PathLogin}),
		},
	})

	_, ok, err := kv.Get(auth.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)

	vis, err := env.visitors.Get(context.Background(), visitorID)
	require.NoError(t, err)
	assert.Nil(t, vis.UserID)
}
