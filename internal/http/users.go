package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/util"
)

// ListUsers lista todas as contas (administradores).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	users, err := h.users.List(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser devolve uma conta.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// UpdateUser aplica alterações parciais a partir da lista de campos permitidos.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	user, err := h.users.Update(r.Context(), actor, id, body)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// ChangePassword troca a senha conferindo a atual.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.users.ChangePassword(r.Context(), actor, id, payload.CurrentPassword, payload.NewPassword); err != nil {
		h.handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// DeleteUser remove a conta e seus checkins.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) actorAndTarget(w http.ResponseWriter, r *http.Request) (actor service.Actor, id uuid.UUID, ok bool) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return actor, uuid.Nil, false
	}
	id, err = util.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return actor, uuid.Nil, false
	}
	return actor, id, true
}
