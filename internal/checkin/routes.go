package checkin

import (
	"github.com/go-chi/chi/v5"
)

// Mount adiciona as rotas de checkin no router autenticado.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
