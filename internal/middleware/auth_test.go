package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/model"
	"github.com/gin-gonic/gin"
)

type fakeAuthenticator struct {
	users map[string]*model.UserModel
	err   error
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*model.UserModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, &logic.BizError{Kind: logic.ErrUnauthenticated, Detail: "invalid or expired token"}
}

func newAuthEngine(authn Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/me", RequireAuth(authn), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Id)
	})
	r.GET("/anon", func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*model.UserModel{"good": {Id: "user-1"}}}
	r := newAuthEngine(authn)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid token", "Bearer good", http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, "missing bearer token"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "missing bearer token"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "missing bearer token"},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAuthStoreFailure(t *testing.T) {
	r := newAuthEngine(&fakeAuthenticator{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestCurrentUserWithoutAuth(t *testing.T) {
	r := newAuthEngine(&fakeAuthenticator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
