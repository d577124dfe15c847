package middleware

import (
	"context"
	"net/http"
	"strings"

	"surveyhub/internal/model"
	"surveyhub/internal/service"
)

type contextKey string

const (
	AccountIDKey     contextKey = "accountId"
	SessionClaimsKey contextKey = "sessionClaims"
)

// AccountHeader carries the operator account set by the upstream gateway
const AccountHeader = "X-Account-ID"

// AuthMiddleware resolves operator and respondent identities
type AuthMiddleware struct {
	tokens *service.TokenService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireOperator rejects requests without an operator account header
func (m *AuthMiddleware) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := strings.TrimSpace(r.Header.Get(AccountHeader))
		if accountID == "" {
			http.Error(w, `{"error":"missing account header"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession validates a take-session token from the Authorization header
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAccountID extracts the operator account from context
func GetAccountID(ctx context.Context) string {
	if v := ctx.Value(AccountIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionClaims extracts the take-session claims from context
func GetSessionClaims(ctx context.Context) *model.SessionClaims {
	if v := ctx.Value(SessionClaimsKey); v != nil {
		return v.(*model.SessionClaims)
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
