package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunetools/tunetools-api/internal/config"
)

const testSecret = "unit-test-secret"

func authRouter(t *testing.T) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen uuid.UUID
	router := gin.New()
	router.Use(JWTAuth(&config.Config{JWTSecret: testSecret}))
	router.GET("/protected", func(c *gin.Context) {
		userID, ok := GetCurrentUserID(c)
		require.True(t, ok)
		seen = userID
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func signToken(t *testing.T, secret, subject string, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func request(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthValidToken(t *testing.T) {
	router, seen := authRouter(t)
	userID := uuid.New()

	token := signToken(t, testSecret, userID.String(), time.Now().Add(time.Hour))
	w := request(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, *seen)
}

func TestJWTAuthRejections(t *testing.T) {
	router, _ := authRouter(t)
	userID := uuid.New()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", userID.String(), time.Now().Add(time.Hour))},
		{"expired token", "Bearer " + signToken(t, testSecret, userID.String(), time.Now().Add(-time.Hour))},
		{"non uuid subject", "Bearer " + signToken(t, testSecret, "not-a-uuid", time.Now().Add(time.Hour))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := request(router, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
