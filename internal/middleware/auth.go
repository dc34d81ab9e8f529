package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Context key for the authenticated operator
type contextKey string

const OperatorKey contextKey = "operator"

// OperatorFromContext returns the operator login set by OperatorAuth.
func OperatorFromContext(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(OperatorKey).(string)
	return login, ok
}

// OperatorAuth rejects any request without a valid operator token.
// Unlike public endpoints there is no anonymous path through here.
func OperatorAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			login, _ := claims["login"].(string)
			ctx := context.WithValue(r.Context(), OperatorKey, login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
