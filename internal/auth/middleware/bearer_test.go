package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Perismakworo/Shesecure2/internal/auth"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if email, ok := s[token]; ok {
		return &auth.Identity{Email: email, Name: "Stub"}, nil
	}
	return nil, errors.New("bad token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireBearer(stubVerifier{"good": "mo@x.com"}))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, auth.CallerEmail(c))
	})
	return r
}

func TestRequireBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusForbidden, ""},
		{"valid token", "Bearer good", http.StatusOK, "mo@x.com"},
		{"lower case scheme", "bearer good", http.StatusOK, "mo@x.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			newRouter().ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rr.Body.String())
			}
		})
	}
}
