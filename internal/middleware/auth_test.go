package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"auctus/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupProtectedRouter(tokens *token.Manager) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(ContextUserID),
			"email":   c.GetString(ContextEmail),
		})
	})
	return r
}

func doAuthedRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewManager("access-secret", "refresh-secret")
	r := setupProtectedRouter(tokens)

	t.Run("valid_token_sets_principal", func(t *testing.T) {
		access, err := tokens.IssueAccess("user-9", "carol@example.com")
		if err != nil {
			t.Fatalf("IssueAccess: %v", err)
		}

		rec := doAuthedRequest(r, "Bearer "+access)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		for _, want := range []string{"user-9", "carol@example.com"} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %q in response, got %s", want, body)
			}
		}
	})

	t.Run("missing_header_is_401", func(t *testing.T) {
		rec := doAuthedRequest(r, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed_header_is_401", func(t *testing.T) {
		for _, header := range []string{"Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "token-without-scheme"} {
			rec := doAuthedRequest(r, header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("header %q: expected 401, got %d", header, rec.Code)
			}
		}
	})

	t.Run("invalid_token_is_403", func(t *testing.T) {
		rec := doAuthedRequest(r, "Bearer not-a-real-token")
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("refresh_token_rejected_as_access", func(t *testing.T) {
		refresh, err := tokens.IssueRefresh("user-9")
		if err != nil {
			t.Fatalf("IssueRefresh: %v", err)
		}

		rec := doAuthedRequest(r, "Bearer "+refresh)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for refresh-as-access, got %d", rec.Code)
		}
	})

	t.Run("wrong_secret_rejected", func(t *testing.T) {
		other := token.NewManager("other-access", "other-refresh")
		access, err := other.IssueAccess("user-9", "carol@example.com")
		if err != nil {
			t.Fatalf("IssueAccess: %v", err)
		}

		rec := doAuthedRequest(r, "Bearer "+access)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}
