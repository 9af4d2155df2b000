package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", JWTMiddleware(secret), func(c *gin.Context) {
		id, _ := GetSessionID(c.Request.Context())
		c.String(http.StatusOK, id)
	})
	return router
}

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestMiddlewareAcceptsSignedToken(t *testing.T) {
	token, err := SignToken(testSecret, "session-1", time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	resp := serve(newRouter(testSecret), "Bearer "+token)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	if resp.Body.String() != "session-1" {
		t.Fatalf("expected session-1, got %q", resp.Body.String())
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	expired, err := SignToken(testSecret, "session-1", time.Now().Add(-time.Hour), time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	wrongKey, err := SignToken("other-secret", "session-1", time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	noAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "session-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	router := newRouter(testSecret)
	for name, header := range map[string]string{
		"missing":     "",
		"not bearer":  "Basic abc",
		"empty token": "Bearer ",
		"expired":     "Bearer " + expired,
		"wrong key":   "Bearer " + wrongKey,
		"no audience": "Bearer " + noAudience,
	} {
		if resp := serve(router, header); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d, got %d", name, http.StatusUnauthorized, resp.Code)
		}
	}
}

func TestMiddlewareDisabledWithoutSecret(t *testing.T) {
	resp := serve(newRouter(""), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
}

func TestSignTokenValidatesInput(t *testing.T) {
	if _, err := SignToken("", "session", time.Now(), time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := SignToken(testSecret, "", time.Now(), time.Minute); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
