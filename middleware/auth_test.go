package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/middleware"
	"github.com/sannylab/minifeed/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newIdentityRouter() *gin.Engine {
	r := gin.New()
	r.GET("/whoami", middleware.IdentityRequired(), func(ctx *gin.Context) {
		name := ctx.GetString(middleware.ContextNameKey)
		role := ctx.GetString(middleware.ContextRoleKey)
		ctx.JSON(http.StatusOK, gin.H{"name": name, "role": role})
	})
	return r
}

func request(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityRequired(t *testing.T) {
	r := newIdentityRouter()

	token, err := utils.GenerateToken("Sanny", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, c := range cases {
		if w := request(r, c.header); w.Code != c.want {
			t.Errorf("%s: status %d, want %d", c.name, w.Code, c.want)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	r := newIdentityRouter()

	token, err := utils.GenerateToken("Sanny", "admin", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := request(r, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status %d, want 401", w.Code)
	}
}
