package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/auth"
)

type contextKey string

const (
	ContextKeySubject     contextKey = "subject"
	ContextKeyAdmin       contextKey = "admin"
	ContextKeyTokenID     contextKey = "token_id"
	ContextKeyTokenExpiry contextKey = "token_expiry"
)

// RevocationChecker consulta tokens revogados no logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth valida JWT de acesso e injeta claims no contexto. revocations pode ser nil.
func Auth(jwtManager *auth.JWTManager, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					log.Warn().Err(err).Msg("auth: falha ao consultar revogação")
				}
				if revoked {
					writeError(w, http.StatusUnauthorized, "AUTH", "sessão encerrada")
					return
				}
			}

			var expires time.Time
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time
			}

			ctx := WithIdentity(r.Context(), claims.Subject, claims.Admin)
			ctx = context.WithValue(ctx, ContextKeyTokenID, claims.ID)
			ctx = context.WithValue(ctx, ContextKeyTokenExpiry, expires)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity grava subject e papel no contexto.
func WithIdentity(ctx context.Context, subject string, admin bool) context.Context {
	ctx = context.WithValue(ctx, ContextKeySubject, subject)
	return context.WithValue(ctx, ContextKeyAdmin, admin)
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// IsAdmin informa se o token pertence a administrador.
func IsAdmin(ctx context.Context) bool {
	val, _ := ctx.Value(ContextKeyAdmin).(bool)
	return val
}

// GetTokenID recupera o jti do token atual.
func GetTokenID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyTokenID).(string)
	return val
}

// GetTokenExpiry recupera a expiração do token atual.
func GetTokenExpiry(ctx context.Context) time.Time {
	val, _ := ctx.Value(ContextKeyTokenExpiry).(time.Time)
	return val
}

// RequireAdmin restringe a rota a administradores.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
