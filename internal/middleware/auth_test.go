package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/requestdata"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRouter(t *testing.T, captured **requestdata.RequestData) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	am := NewAuthMiddleware(log, testSecret)
	router := gin.New()
	router.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		*captured = requestdata.GetRequestData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireAuthAcceptsSignedToken(t *testing.T) {
	var captured *requestdata.RequestData
	router := authRouter(t, &captured)

	userID := uuid.New()
	tokenString := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"sid":   "session-1",
		"roles": []string{"admin", "shopper"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured == nil {
		t.Fatal("expected request data in context")
	}
	if captured.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, captured.UserID)
	}
	if captured.SessionID != "session-1" {
		t.Fatalf("expected session id session-1, got %q", captured.SessionID)
	}
	if !captured.HasRole("admin") {
		t.Fatal("expected admin role to survive parsing")
	}
}

func TestRequireAuthSessionFallsBackToUserID(t *testing.T) {
	var captured *requestdata.RequestData
	router := authRouter(t, &captured)

	userID := uuid.New()
	tokenString := signToken(t, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured == nil || captured.SessionID != userID.String() {
		t.Fatalf("expected session id to fall back to user id, got %+v", captured)
	}
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	var captured *requestdata.RequestData
	router := authRouter(t, &captured)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "malformed", header: "Bearer not-a-token"},
		{name: "wrong key", header: "Bearer " + func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": uuid.New().String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			})
			signed, _ := token.SignedString([]byte("other-secret"))
			return signed
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			captured = nil
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if captured != nil {
				t.Fatal("handler should not run for rejected token")
			}
		})
	}
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	var captured *requestdata.RequestData
	router := authRouter(t, &captured)

	userID := uuid.New()
	tokenString := signToken(t, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+tokenString, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured == nil || captured.UserID != userID {
		t.Fatalf("expected user id %s from query token, got %+v", userID, captured)
	}
}
