package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/atelierhq/atelier/internal/metrics"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

type contextKey string

const claimsKey contextKey = "admin_claims"

// TokenCookieName is the session cookie set at login and cleared at logout.
const TokenCookieName = "admin_token"

// bodyPeekLimit caps how much of a request body the guard will read when
// looking for a token field.
const bodyPeekLimit = 1 << 20

// RequireAdmin guards back-office routes. The token is taken from the
// Authorization header first, then the session cookie, then a "token" field
// in a JSON body. Requests with no token get 401, invalid or expired tokens
// get 401, and a valid token without the admin role gets 403. Verified
// claims are placed on the request context for handlers.
func RequireAdmin(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				metrics.RecordAuthReject("missing_token")
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			claims, err := auth.VerifyToken(token)
			if err != nil {
				metrics.RecordAuthReject("invalid_token")
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if claims.Role != model.RoleAdmin {
				metrics.RecordAuthReject("wrong_role")
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the verified session claims placed on the context by
// RequireAdmin, or nil outside a guarded route.
func GetClaims(ctx context.Context) *service.Claims {
	claims, _ := ctx.Value(claimsKey).(*service.Claims)
	return claims
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bodyToken(r)
}

// bodyToken peeks into a JSON request body for a "token" field, restoring
// the body so the handler can read it again. Bodies beyond bodyPeekLimit are
// not searched.
func bodyToken(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, bodyPeekLimit))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}
	var payload struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(buf, &payload) != nil {
		return ""
	}
	return payload.Token
}

func writeAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: message},
	})
}
