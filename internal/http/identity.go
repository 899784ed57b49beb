package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	httpmiddleware "github.com/gestaozabele/checkin/internal/http/middleware"
	"github.com/gestaozabele/checkin/internal/metrics"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/util"
)

// Register cria conta com senha. Um administrador autenticado pode criar outros administradores.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload service.RegisterInput
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	profile, err := h.authService.Register(r.Context(), payload, h.callerIsAdmin(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"id": profile.ID, "name": profile.Name, "user": profile})
}

// Login autentica por e-mail ou nome.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	identifier := payload.Identifier
	if strings.TrimSpace(identifier) == "" {
		identifier = payload.Email
	}

	result, err := h.authService.Login(r.Context(), identifier, payload.Password)
	metrics.ObserveLogin("password", err)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeLoginSuccess(w, result)
}

// GoogleLogin recebe o e-mail e o nome já validados pelo provedor no cliente.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	result, err := h.authService.GoogleLogin(r.Context(), payload.Email, payload.Name)
	metrics.ObserveLogin("google", err)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeLoginSuccess(w, result)
}

// CheckUser informa se e-mail ou nome já estão em uso.
func (h *Handler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	exists, err := h.authService.CheckUser(r.Context(), payload.Field, payload.Value)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Logout revoga o token atual até a expiração.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.authService.Logout(ctx, httpmiddleware.GetTokenID(ctx), httpmiddleware.GetTokenExpiry(ctx)); err != nil {
		writeInternalError(w, err, "não foi possível encerrar a sessão")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me retorna informações do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "subject inválido", nil)
		return
	}

	profile, err := h.authService.Me(r.Context(), subject)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

func writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_at":   result.ExpiresAt.Format(time.RFC3339),
		"user":         result.Profile,
	})
}

// callerIsAdmin lê um bearer opcional em rotas públicas.
func (h *Handler) callerIsAdmin(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	claims, err := h.authService.JWT().ParseAndValidate(strings.TrimSpace(parts[1]))
	if err != nil || !claims.Admin {
		return false
	}
	if revoked, err := h.authService.IsRevoked(r.Context(), claims.ID); err != nil || revoked {
		return false
	}
	return true
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	subjectStr := httpmiddleware.GetSubject(r.Context())
	if strings.TrimSpace(subjectStr) == "" {
		return uuid.Nil, errors.New("subject ausente")
	}
	return util.ParseID(subjectStr)
}

func (h *Handler) actor(r *http.Request) (service.Actor, error) {
	id, err := h.subjectUUID(r)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{ID: id, Admin: httpmiddleware.IsAdmin(r.Context())}, nil
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		var details any
		if len(verr.Fields) > 0 {
			details = verr.Fields
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", verr.Message, details)
	case errors.Is(err, service.ErrUnsupportedField):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
	case errors.Is(err, service.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		writeInternalError(w, err, "erro interno")
	}
}
