package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/auth"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrEmailTaken indica e-mail já cadastrado.
	ErrEmailTaken = errors.New("email já cadastrado")
	// ErrUnsupportedField indica campo fora da lista permitida.
	ErrUnsupportedField = errors.New("campo não suportado")
)

// ValidationError descreve payload inválido, com detalhes por campo quando houver.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}

type userRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	FindUserByIdentifier(ctx context.Context, normalized string) (repo.User, error)
	ExistsUser(ctx context.Context, field repo.LookupField, value string) (bool, error)
	CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error)
	ListUsers(ctx context.Context) ([]repo.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch repo.UserPatch) (repo.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra cadastro, login e sessões.
type AuthService struct {
	repo  userRepository
	redis redisCommander
	jwt   *auth.JWTManager
	now   func() time.Time
}

// NewAuthService cria novo serviço. redisClient pode ser nil.
func NewAuthService(r userRepository, redisClient *redis.Client, jwtMgr *auth.JWTManager) *AuthService {
	s := &AuthService{repo: r, jwt: jwtMgr, now: time.Now}
	if redisClient != nil {
		s.redis = redisClient
	}
	return s
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// Profile é a visão pública do usuário autenticado.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

func profileOf(u repo.User) Profile {
	return Profile{ID: u.ID.String(), Email: u.Email, Name: u.Name, Admin: u.IsAdmin}
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Profile     Profile
}

// RegisterInput é o payload de cadastro.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Admin    bool   `json:"admin"`
}

// Register cria conta com senha. O flag admin só vale quando quem cadastra já é administrador.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, callerIsAdmin bool) (Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if fields := util.ValidateStruct(in); fields != nil {
		return Profile{}, invalid("dados de cadastro inválidos", fields)
	}

	exists, err := s.repo.ExistsUser(ctx, repo.LookupEmail, in.Email)
	if err != nil {
		return Profile{}, err
	}
	if exists {
		return Profile{}, ErrEmailTaken
	}

	hash, err := auth.Hash(in.Password)
	if err != nil {
		return Profile{}, fmt.Errorf("hash senha: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, repo.CreateUserParams{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: &hash,
		IsAdmin:      in.Admin && callerIsAdmin,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return Profile{}, ErrEmailTaken
		}
		return Profile{}, err
	}

	log.Info().Str("user_id", user.ID.String()).Bool("admin", user.IsAdmin).Msg("usuário cadastrado")
	return profileOf(user), nil
}

// Login autentica por e-mail ou nome, ignorando acentos, espaços e caixa.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, invalid("identificador e senha são obrigatórios", nil)
	}

	user, err := s.repo.FindUserByIdentifier(ctx, util.NormalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		log.Warn().Str("user_id", user.ID.String()).Msg("login: conta sem senha local")
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.Verify(password, *user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("user_id", user.ID.String()).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if auth.IsLegacyHash(*user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	return s.issue(user)
}

func (s *AuthService) upgradeHash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := auth.Hash(password)
	if err == nil {
		err = s.repo.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("login: falha ao regravar hash legado")
	}
}

// GoogleLogin confia no e-mail e nome recebidos do provedor e cria a conta se necessário.
func (s *AuthService) GoogleLogin(ctx context.Context, email, name string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, invalid("email e nome são obrigatórios", nil)
	}
	if err := util.ValidateEmail(email); err != nil {
		return nil, invalid(err.Error(), map[string]string{"email": "email inválido"})
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		user, err = s.repo.CreateUser(ctx, repo.CreateUserParams{Email: email, Name: name})
		if errors.Is(err, repo.ErrConflict) {
			user, err = s.repo.GetUserByEmail(ctx, email)
		}
		if err == nil {
			log.Info().Str("user_id", user.ID.String()).Msg("conta federada criada")
		}
	}
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// CheckUser informa se já existe usuário com o e-mail ou nome informado.
func (s *AuthService) CheckUser(ctx context.Context, field, value string) (bool, error) {
	var lookup repo.LookupField
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "email":
		lookup = repo.LookupEmail
	case "name", "nome":
		lookup = repo.LookupName
	default:
		return false, ErrUnsupportedField
	}
	if strings.TrimSpace(value) == "" {
		return false, invalid("valor obrigatório", nil)
	}

	return s.repo.ExistsUser(ctx, lookup, value)
}

// Me devolve o perfil do titular do token.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (Profile, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return profileOf(user), nil
}

// Logout revoga o token até sua expiração. Sem Redis não há o que revogar.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.redis == nil || jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, auth.RevocationKey(jti), "1", ttl).Err()
}

// IsRevoked consulta a marca de revogação gravada no logout.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.redis == nil || jti == "" {
		return false, nil
	}
	err := s.redis.Get(ctx, auth.RevocationKey(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) issue(user repo.User) (*LoginResult, error) {
	token, err := s.jwt.GenerateAccessToken(auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Admin: user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token.Token, ExpiresAt: token.ExpiresAt, Profile: profileOf(user)}, nil
}
