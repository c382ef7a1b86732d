package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/randomdata/internal/rbac"
)

func TestLoginAndJWTMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService("test-hmac")
	login := LoginHandler(svc, "author", string(hash))

	body, _ := json.Marshal(map[string]string{"username": "author", "password": "s3cret"})
	w := httptest.NewRecorder()
	login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	claims, err := svc.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "author", claims.Sub)
	assert.Equal(t, "author", claims.Role)

	// The middleware places subject and role in the context.
	var gotSub, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	})
	protected := JWTMiddleware(svc)(next)

	req := httptest.NewRequest("GET", "/questions/1", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "author", gotSub)
	assert.Equal(t, "author", gotRole)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	login := LoginHandler(NewAuthService("test-hmac"), "author", string(hash))
	body, _ := json.Marshal(map[string]string{"username": "author", "password": "wrong"})
	w := httptest.NewRecorder()
	login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejects(t *testing.T) {
	svc := NewAuthService("test-hmac")
	protected := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
