package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/util"
)

// SelfOrAdmin libera a rota quando o parâmetro de URL é o próprio usuário ou quando o token é de administrador.
func SelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := util.ParseID(chi.URLParam(r, param))
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido")
				return
			}

			subject, err := util.ParseID(GetSubject(r.Context()))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			actor := service.Actor{ID: subject, Admin: IsAdmin(r.Context())}
			if err := service.EnsureSelfOrAdmin(actor, owner); err != nil {
				writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
