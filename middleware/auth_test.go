package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oupafamilly/oupafamilly/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "u1",
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
}

func echoUserHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(userID))
	})
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	handler := auth.Authenticate(echoUserHandler(t))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(models.RoleMember)))
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", rr.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	expired := validClaims(models.RoleMember)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", validClaims(models.RoleMember))},
		{"expired", "Bearer " + signToken(t, testSecret, expired)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), `"detail"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	gate := RequireRole(models.RoleAdmin, models.RoleModerator)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		role models.UserRole
		want int
	}{
		{"admin allowed", models.RoleAdmin, http.StatusNoContent},
		{"moderator allowed", models.RoleModerator, http.StatusNoContent},
		{"member forbidden", models.RoleMember, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithClaims(req.Context(), "u1", tc.role))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	gate := RequireRole(models.RoleAdmin)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
