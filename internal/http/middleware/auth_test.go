package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/careerpath-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type stubAuth struct {
	users map[string]*ctxutil.RequestData
}

func (s stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := s.users[token]
	if !ok {
		return ctx, errors.New("unknown token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := stubAuth{users: map[string]*ctxutil.RequestData{
		"user-token":  {UserID: uuid.New(), Role: "user"},
		"admin-token": {UserID: uuid.New(), Role: ctxutil.RoleAdmin},
		"nil-user":    {UserID: uuid.Nil},
	}}
	am := NewAuthMiddleware(logger.NewNop(), auth)

	r := gin.New()
	api := r.Group("/api", am.RequireAuth())
	api.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/admin", am.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path   string
		header string
		want   int
	}{
		{"/api/me", "", http.StatusUnauthorized},
		{"/api/me", "Basic abc", http.StatusUnauthorized},
		{"/api/me", "Bearer nope", http.StatusUnauthorized},
		{"/api/me", "Bearer nil-user", http.StatusForbidden},
		{"/api/me", "Bearer user-token", http.StatusOK},
		{"/api/me", "bearer admin-token", http.StatusOK},
		{"/api/admin", "Bearer user-token", http.StatusForbidden},
		{"/api/admin", "Bearer admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s with %q: got=%d want=%d", tc.path, tc.header, rec.Code, tc.want)
		}
	}
}
