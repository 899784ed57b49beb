package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/auth"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/util"
)

// UserView é a representação de usuário devolvida pela API. Nunca inclui o hash.
type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Admin      bool      `json:"admin"`
	Phone      *string   `json:"phone"`
	MonthlyFee *string   `json:"monthly_fee"`
	HasPass    bool      `json:"has_password"`
	CreatedAt  time.Time `json:"created_at"`
}

func viewOf(u repo.User) UserView {
	return UserView{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		Admin:      u.IsAdmin,
		Phone:      u.Phone,
		MonthlyFee: u.MonthlyFee,
		HasPass:    u.PasswordHash != nil,
		CreatedAt:  u.CreatedAt,
	}
}

// UserService administra contas já existentes.
type UserService struct {
	repo userRepository
}

// NewUserService cria nova instância.
func NewUserService(r userRepository) *UserService {
	return &UserService{repo: r}
}

// List devolve todas as contas. Restrito a administradores.
func (s *UserService) List(ctx context.Context, actor Actor) ([]UserView, error) {
	if err := EnsureAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	return out, nil
}

// Get devolve uma conta para o próprio titular ou administradores.
func (s *UserService) Get(ctx context.Context, actor Actor, id uuid.UUID) (UserView, error) {
	if err := EnsureSelfOrAdmin(actor, id); err != nil {
		return UserView{}, err
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	return viewOf(user), nil
}

// ParsePatch converte o corpo do PATCH em alterações tipadas. Só chaves conhecidas
// são aceitas; "admin" exige administrador.
func ParsePatch(actor Actor, body map[string]any) (repo.UserPatch, error) {
	var patch repo.UserPatch
	if len(body) == 0 {
		return patch, invalid("nenhum campo para atualizar", nil)
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := map[string]string{}
	for _, key := range keys {
		value := body[key]
		switch key {
		case "name", "email", "phone", "monthly_fee", "mensalidade":
			str, ok := value.(string)
			if !ok {
				fields[key] = "deve ser texto"
				continue
			}
			str = strings.TrimSpace(str)
			switch key {
			case "name":
				if str == "" {
					fields[key] = "obrigatório"
					continue
				}
				patch.Name = &str
			case "email":
				if err := util.ValidateEmail(str); err != nil {
					fields[key] = "email inválido"
					continue
				}
				patch.Email = &str
			case "phone":
				patch.Phone = &str
			default:
				patch.MonthlyFee = &str
			}
		case "admin":
			flag, ok := value.(bool)
			if !ok {
				fields[key] = "deve ser booleano"
				continue
			}
			if !actor.Admin {
				return repo.UserPatch{}, ErrForbidden
			}
			patch.IsAdmin = &flag
		default:
			fields[key] = "campo não permitido"
		}
	}

	if len(fields) > 0 {
		return repo.UserPatch{}, invalid("campos inválidos", fields)
	}
	return patch, nil
}

// Update aplica alterações parciais de perfil.
func (s *UserService) Update(ctx context.Context, actor Actor, id uuid.UUID, body map[string]any) (UserView, error) {
	if err := EnsureSelfOrAdmin(actor, id); err != nil {
		return UserView{}, err
	}
	patch, err := ParsePatch(actor, body)
	if err != nil {
		return UserView{}, err
	}

	user, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return UserView{}, ErrEmailTaken
		}
		return UserView{}, err
	}
	return viewOf(user), nil
}

// ChangePassword troca a senha após conferir a atual.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, id uuid.UUID, current, next string) error {
	if err := EnsureSelfOrAdmin(actor, id); err != nil {
		return err
	}
	if current == "" || next == "" {
		return invalid("senha atual e nova senha são obrigatórias", nil)
	}
	if len(next) < 6 {
		return invalid("nova senha deve ter pelo menos 6 caracteres", map[string]string{"new_password": "mínimo 6 caracteres"})
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil {
		return ErrInvalidCredentials
	}
	ok, err := auth.Verify(current, *user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := auth.Hash(next)
	if err != nil {
		return fmt.Errorf("hash senha: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	log.Info().Str("user_id", id.String()).Str("actor_id", actor.ID.String()).Msg("senha alterada")
	return nil
}

// Delete remove a conta e seus checkins.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := EnsureSelfOrAdmin(actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.Info().Str("user_id", id.String()).Str("actor_id", actor.ID.String()).Msg("usuário removido")
	return nil
}
